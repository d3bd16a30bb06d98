package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/timothy-pham/Blockly-BE/internal/domain"
	"github.com/timothy-pham/Blockly-BE/internal/infra/memory"
	"golang.org/x/sync/singleflight"
)

// QuestionSource caches topic groups in Redis (JSON document per group) and
// falls back to a loader on cache miss. Stored as:
// SET group:{groupID}:questions {json} EX ttl
type QuestionSource struct {
	client *redis.Client
	loader memory.GroupLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionSource(client *redis.Client, loader memory.GroupLoader, ttl time.Duration) *QuestionSource {
	return &QuestionSource{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *QuestionSource) GroupQuestions(ctx context.Context, groupID string) ([]domain.Question, error) {
	key := groupKey(groupID)

	if questions, ok := s.fromCache(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := s.sf.Do(groupID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := s.fromCache(ctx, key); ok {
			return questions, nil
		}

		questions, err := s.loader.LoadGroup(ctx, groupID)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(questions)
		if err != nil {
			return nil, fmt.Errorf("marshal group: %w", err)
		}
		_ = s.client.Set(ctx, key, data, s.ttlWithJitter()).Err()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (s *QuestionSource) fromCache(ctx context.Context, key string) ([]domain.Question, bool) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) || err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (s *QuestionSource) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}

func groupKey(groupID string) string {
	return "group:" + groupID + ":questions"
}
