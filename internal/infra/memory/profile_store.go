package memory

import (
	"context"
	"sync"

	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

// ProfileStore keeps per-user statistics in process memory.
type ProfileStore struct {
	mu    sync.Mutex
	stats map[string]*domain.UserStats
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{stats: make(map[string]*domain.UserStats)}
}

func (s *ProfileStore) AwardPoints(_ context.Context, userID string, award domain.PointsAward) (domain.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats, ok := s.stats[userID]
	if !ok {
		stats = &domain.UserStats{UserID: userID}
		s.stats[userID] = stats
	}
	stats.Points += award.Points
	stats.Matches++
	stats.History = append(stats.History, award)
	return cloneStats(stats), nil
}

func (s *ProfileStore) GetStats(_ context.Context, userID string) (domain.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats, ok := s.stats[userID]
	if !ok {
		return domain.UserStats{}, domain.ErrUserNotFound
	}
	return cloneStats(stats), nil
}

func cloneStats(stats *domain.UserStats) domain.UserStats {
	out := *stats
	out.History = append([]domain.PointsAward(nil), stats.History...)
	return out
}
