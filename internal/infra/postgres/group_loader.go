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

// GroupLoader loads question-group JSONB from Postgres.
type GroupLoader struct {
	pool *pgxpool.Pool
}

func NewGroupLoader(pool *pgxpool.Pool) *GroupLoader {
	return &GroupLoader{pool: pool}
}

func (l *GroupLoader) LoadGroup(ctx context.Context, groupID string) ([]domain.Question, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT questions FROM question_groups WHERE id=$1`, groupID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load group: %w", err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal group: %w", err)
	}
	return questions, nil
}
