package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

// Sampler draws a random, non-repeating question subset from a topic group.
type Sampler struct {
	source QuestionSource

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSampler(source QuestionSource) *Sampler {
	return NewSamplerWithRand(source, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSamplerWithRand allows a seeded RNG for deterministic tests.
func NewSamplerWithRand(source QuestionSource, rnd *rand.Rand) *Sampler {
	return &Sampler{source: source, rnd: rnd}
}

// Sample returns count distinct question ids from the group, in shuffled
// order, or ErrNotEnoughQuestions when the group cannot cover the request.
func (s *Sampler) Sample(ctx context.Context, groupID string, count int) ([]string, error) {
	questions, err := s.source.GroupQuestions(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(questions) < count {
		return nil, domain.ErrNotEnoughQuestions
	}

	ids := make([]string, len(questions))
	for i := range questions {
		ids[i] = questions[i].ID
	}

	s.mu.Lock()
	s.rnd.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	s.mu.Unlock()

	return ids[:count], nil
}
