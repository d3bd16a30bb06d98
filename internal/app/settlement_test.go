package app

import (
	"context"
	"testing"
	"time"

	"github.com/timothy-pham/Blockly-BE/internal/domain"
	"github.com/timothy-pham/Blockly-BE/internal/infra/memory"
)

func finishedRoom() *domain.Room {
	return &domain.Room{
		ID:        7,
		Status:    domain.RoomFinished,
		StartedAt: time.Now().Add(-time.Minute),
		Config:    domain.RoundConfig{QuestionCount: 5},
		Participants: []domain.Participant{
			{PlayerID: "a", Score: 5, FinishTime: 120 * time.Millisecond},
			{PlayerID: "b", Score: 5, FinishTime: 90 * time.Millisecond},
			{PlayerID: "c", Score: 3, FinishTime: 200 * time.Millisecond},
		},
	}
}

func TestSettleAwardsByRank(t *testing.T) {
	profiles := memory.NewProfileStore()
	settlement := NewSettlement(profiles)
	room := finishedRoom()

	events := settlement.Settle(context.Background(), room)

	want := map[string]int{"b": 100, "a": 75, "c": 50}
	for userID, points := range want {
		stats, err := profiles.GetStats(context.Background(), userID)
		if err != nil {
			t.Fatalf("stats %s: %v", userID, err)
		}
		if stats.Points != points {
			t.Fatalf("user %s: expected %d points, got %d", userID, points, stats.Points)
		}
		if stats.Matches != 1 {
			t.Fatalf("user %s: expected 1 match, got %d", userID, stats.Matches)
		}
		if len(stats.History) != 1 || stats.History[0].RoomID != room.ID {
			t.Fatalf("user %s: bad history %+v", userID, stats.History)
		}
	}

	var sawEnd, sawWinner bool
	for _, event := range events {
		switch event.Type {
		case domain.EventEndGame:
			sawEnd = true
		case domain.EventNewWinner:
			sawWinner = true
			if event.PlayerID != "b" {
				t.Fatalf("expected winner b, got %s", event.PlayerID)
			}
		}
	}
	if !sawEnd || !sawWinner {
		t.Fatalf("expected end_game and new_winner, got %+v", events)
	}
}

func TestSettleRunsOnce(t *testing.T) {
	profiles := memory.NewProfileStore()
	settlement := NewSettlement(profiles)
	room := finishedRoom()

	if events := settlement.Settle(context.Background(), room); events == nil {
		t.Fatalf("first settle must produce events")
	}
	if events := settlement.Settle(context.Background(), room); events != nil {
		t.Fatalf("second settle must be a no-op, got %+v", events)
	}

	stats, err := profiles.GetStats(context.Background(), "b")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Points != 100 || stats.Matches != 1 {
		t.Fatalf("double settle leaked awards: %+v", stats)
	}
}

func TestSettleSkipsNeverStartedRoom(t *testing.T) {
	profiles := memory.NewProfileStore()
	settlement := NewSettlement(profiles)
	room := finishedRoom()
	room.StartedAt = time.Time{}

	if events := settlement.Settle(context.Background(), room); events != nil {
		t.Fatalf("never-started room must not settle, got %+v", events)
	}
	if room.Settled {
		t.Fatalf("never-started room marked settled")
	}
}

func TestSettleZeroScoresAwardNothing(t *testing.T) {
	profiles := memory.NewProfileStore()
	settlement := NewSettlement(profiles)
	room := finishedRoom()
	for i := range room.Participants {
		room.Participants[i].Score = 0
		room.Participants[i].FinishTime = 0
	}

	events := settlement.Settle(context.Background(), room)
	for _, event := range events {
		if event.Type == domain.EventNewWinner {
			t.Fatalf("zero-score round must not announce a winner")
		}
	}
	if _, err := profiles.GetStats(context.Background(), "a"); err == nil {
		t.Fatalf("zero-score round must not award points")
	}
}

func TestSettleExcludesBots(t *testing.T) {
	profiles := memory.NewProfileStore()
	settlement := NewSettlement(profiles)
	room := finishedRoom()
	room.Participants[0].IsBot = true // "a"

	settlement.Settle(context.Background(), room)
	if _, err := profiles.GetStats(context.Background(), "a"); err == nil {
		t.Fatalf("bot must not receive points")
	}
	if stats, _ := profiles.GetStats(context.Background(), "b"); stats.Points != 100 {
		t.Fatalf("expected b awarded 100, got %+v", stats)
	}
}

func TestConsolationAwardBeyondPodium(t *testing.T) {
	profiles := memory.NewProfileStore()
	settlement := NewSettlement(profiles)
	room := finishedRoom()
	room.Participants = append(room.Participants,
		domain.Participant{PlayerID: "d", Score: 2, FinishTime: 300 * time.Millisecond},
	)

	settlement.Settle(context.Background(), room)
	stats, err := profiles.GetStats(context.Background(), "d")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Points != 5 {
		t.Fatalf("expected consolation 5 points, got %d", stats.Points)
	}
}
