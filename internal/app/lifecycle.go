package app

import (
	"time"

	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

// applyStart moves a waiting room into playing. The caller supplies the
// sampled question set; sampling blocks and therefore happens outside the
// pure transition.
func applyStart(room *domain.Room, actorID string, questions []string, now time.Time) ([]domain.Event, error) {
	if room.Status != domain.RoomWaiting {
		return nil, domain.ErrInvalidState
	}
	actor := room.Participant(actorID)
	if actor == nil || !actor.IsHost {
		return nil, domain.ErrForbidden
	}
	for i := range room.Participants {
		p := &room.Participants[i]
		if p.Connected && !p.Ready {
			return nil, domain.ErrNotReady
		}
	}

	room.Questions = questions
	room.StartedAt = now
	room.Status = domain.RoomPlaying
	for i := range room.Participants {
		room.Participants[i].PlayStatus = domain.PlayPlaying
	}
	room.UpdatedAt = now
	return []domain.Event{{Type: domain.EventStartGame, PlayerID: actorID}}, nil
}

// finishRoom is the single terminal transition. It is a no-op on an already
// finished room, which makes racing finish triggers (win, all-finished,
// host leave, expiry) safe to apply in any serial order.
func finishRoom(room *domain.Room, winnerID string, now time.Time) {
	if room.Status == domain.RoomFinished {
		return
	}
	room.Status = domain.RoomFinished
	room.Winner = winnerID
	for i := range room.Participants {
		room.Participants[i].PlayStatus = domain.PlayFinished
	}
	room.UpdatedAt = now
}

// applyExpire forces the round to end when the deadline passes. Firing on a
// finished room is always a no-op, never an error.
func applyExpire(room *domain.Room, now time.Time) []domain.Event {
	if room.Status != domain.RoomPlaying {
		return nil
	}
	finishRoom(room, topScorer(room), now)
	return []domain.Event{{Type: domain.EventRankingUpdate, Ranking: Ranking(room)}}
}
