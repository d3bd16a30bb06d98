package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

// ProfileStore persists per-user statistics. AwardPoints is a single
// statement, so concurrent settlements of different rooms increment the
// counters atomically.
type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

func (s *ProfileStore) AwardPoints(ctx context.Context, userID string, award domain.PointsAward) (domain.UserStats, error) {
	entry, err := json.Marshal(award)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("marshal award: %w", err)
	}

	var stats domain.UserStats
	var history []byte
	err = s.pool.QueryRow(ctx, `
		INSERT INTO users (id, points, matches, points_history)
		VALUES ($1, $2, 1, jsonb_build_array($3::jsonb))
		ON CONFLICT (id) DO UPDATE SET
			points = users.points + EXCLUDED.points,
			matches = users.matches + 1,
			points_history = users.points_history || $3::jsonb
		RETURNING id, points, matches, points_history`,
		userID, award.Points, entry,
	).Scan(&stats.UserID, &stats.Points, &stats.Matches, &history)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("award points: %w", err)
	}
	if err := json.Unmarshal(history, &stats.History); err != nil {
		return domain.UserStats{}, fmt.Errorf("unmarshal history: %w", err)
	}
	return stats, nil
}

func (s *ProfileStore) GetStats(ctx context.Context, userID string) (domain.UserStats, error) {
	var stats domain.UserStats
	var history []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, points, matches, points_history FROM users WHERE id=$1`, userID,
	).Scan(&stats.UserID, &stats.Points, &stats.Matches, &history)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserStats{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("load stats: %w", err)
	}
	if err := json.Unmarshal(history, &stats.History); err != nil {
		return domain.UserStats{}, fmt.Errorf("unmarshal history: %w", err)
	}
	return stats, nil
}
