package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/timothy-pham/Blockly-BE/internal/domain"
	"golang.org/x/sync/singleflight"
)

// GroupLoader fetches a topic group's questions from a backing store.
type GroupLoader interface {
	LoadGroup(ctx context.Context, groupID string) ([]domain.Question, error)
}

// QuestionSource caches question groups with TTL to avoid repeated backing
// store hits while rooms are being started.
type QuestionSource struct {
	loader GroupLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedGroup
}

type cachedGroup struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionSource(loader GroupLoader, ttl time.Duration) *QuestionSource {
	return &QuestionSource{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedGroup),
	}
}

func (s *QuestionSource) GroupQuestions(ctx context.Context, groupID string) ([]domain.Question, error) {
	now := s.clock()

	s.mu.RLock()
	if entry, ok := s.cache[groupID]; ok && entry.expiresAt.After(now) {
		s.mu.RUnlock()
		return entry.questions, nil
	}
	s.mu.RUnlock()

	result, err, _ := s.sf.Do(groupID, func() (interface{}, error) {
		now := s.clock()
		s.mu.RLock()
		if entry, ok := s.cache[groupID]; ok && entry.expiresAt.After(now) {
			s.mu.RUnlock()
			return entry.questions, nil
		}
		s.mu.RUnlock()

		questions, err := s.loader.LoadGroup(ctx, groupID)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.cache[groupID] = cachedGroup{
			questions: questions,
			expiresAt: now.Add(s.ttlWithJitter()),
		}
		s.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (s *QuestionSource) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}

// StaticGroupLoader serves groups from an in-memory map (tests/demos).
type StaticGroupLoader struct {
	groups map[string][]domain.Question
}

func NewStaticGroupLoader(groups map[string][]domain.Question) *StaticGroupLoader {
	return &StaticGroupLoader{groups: groups}
}

func (l *StaticGroupLoader) LoadGroup(_ context.Context, groupID string) ([]domain.Question, error) {
	if questions, ok := l.groups[groupID]; ok {
		return questions, nil
	}
	return nil, domain.ErrGroupNotFound
}
