package app

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

type staticSource map[string][]domain.Question

func (s staticSource) GroupQuestions(_ context.Context, groupID string) ([]domain.Question, error) {
	if questions, ok := s[groupID]; ok {
		return questions, nil
	}
	return nil, domain.ErrGroupNotFound
}

func TestSampleReturnsDistinctQuestions(t *testing.T) {
	source := staticSource{"g": {
		{ID: "q1"}, {ID: "q2"}, {ID: "q3"}, {ID: "q4"}, {ID: "q5"},
	}}
	sampler := NewSamplerWithRand(source, rand.New(rand.NewSource(42)))

	ids, err := sampler.Sample(context.Background(), "g", 3)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(ids))
	}
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate question %s in sample", id)
		}
		seen[id] = true
	}
}

func TestSampleFailsOnSmallGroup(t *testing.T) {
	sampler := NewSampler(staticSource{"g": {{ID: "q1"}}})
	if _, err := sampler.Sample(context.Background(), "g", 2); !errors.Is(err, domain.ErrNotEnoughQuestions) {
		t.Fatalf("expected not enough questions, got %v", err)
	}
}

func TestSampleUnknownGroup(t *testing.T) {
	sampler := NewSampler(staticSource{})
	if _, err := sampler.Sample(context.Background(), "missing", 1); !errors.Is(err, domain.ErrGroupNotFound) {
		t.Fatalf("expected group not found, got %v", err)
	}
}
