package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/timothy-pham/Blockly-BE/internal/domain"
	"github.com/timothy-pham/Blockly-BE/internal/infra/memory"
)

type countingLoader struct {
	mu    sync.Mutex
	calls int
	inner memory.GroupLoader
}

func (l *countingLoader) LoadGroup(ctx context.Context, groupID string) ([]domain.Question, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.inner.LoadGroup(ctx, groupID)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func TestQuestionSourceCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	loader := &countingLoader{inner: memory.NewStaticGroupLoader(map[string][]domain.Question{
		"group-1": {{ID: "q1"}, {ID: "q2"}},
	})}
	source := NewQuestionSource(client, loader, time.Minute)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		questions, err := source.GroupQuestions(ctx, "group-1")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(questions) != 2 {
			t.Fatalf("expected 2 questions, got %d", len(questions))
		}
	}
	if loader.count() != 1 {
		t.Fatalf("expected a single backing load, got %d", loader.count())
	}
	if !mr.Exists("group:group-1:questions") {
		t.Fatalf("expected cached group key in redis")
	}
}

func TestQuestionSourceReloadsAfterExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	loader := &countingLoader{inner: memory.NewStaticGroupLoader(map[string][]domain.Question{
		"group-1": {{ID: "q1"}},
	})}
	source := NewQuestionSource(client, loader, time.Minute)

	ctx := context.Background()
	if _, err := source.GroupQuestions(ctx, "group-1"); err != nil {
		t.Fatalf("load: %v", err)
	}

	// Jitter keeps the TTL within 10% of the base, so two minutes is past it.
	mr.FastForward(2 * time.Minute)

	if _, err := source.GroupQuestions(ctx, "group-1"); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loader.count() != 2 {
		t.Fatalf("expected reload after ttl, got %d calls", loader.count())
	}
}

func TestQuestionSourceUnknownGroup(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	source := NewQuestionSource(client, memory.NewStaticGroupLoader(nil), time.Minute)
	if _, err := source.GroupQuestions(context.Background(), "missing"); !errors.Is(err, domain.ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
}
