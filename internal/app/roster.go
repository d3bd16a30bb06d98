package app

import (
	"time"

	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

// Roster transitions mutate a room in place and return the events a
// successful mutation should publish. They validate before touching state,
// so a returned error leaves the room unchanged. Fan-out is the actor's job.

func applyJoin(room *domain.Room, profile domain.Profile, now time.Time) ([]domain.Event, error) {
	if p := room.Participant(profile.UserID); p != nil {
		// Reconnect of a known participant is idempotent and allowed mid-round.
		p.Connected = true
		if profile.DisplayName != "" {
			p.DisplayName = profile.DisplayName
		}
		room.UpdatedAt = now
		return []domain.Event{{Type: domain.EventUserJoined, PlayerID: profile.UserID}}, nil
	}
	if room.Status != domain.RoomWaiting {
		return nil, domain.ErrInvalidState
	}
	room.Participants = append(room.Participants, domain.Participant{
		PlayerID:    profile.UserID,
		DisplayName: profile.DisplayName,
		Connected:   true,
		Progress:    make(map[string]bool),
		WrongCounts: make(map[string]int),
		PlayStatus:  domain.PlayWaiting,
	})
	room.UpdatedAt = now
	return []domain.Event{{Type: domain.EventUserJoined, PlayerID: profile.UserID}}, nil
}

func applyLeave(room *domain.Room, playerID string, now time.Time) ([]domain.Event, error) {
	p := room.Participant(playerID)
	if p == nil {
		return nil, domain.ErrUserNotFound
	}
	p.Connected = false
	room.UpdatedAt = now
	events := []domain.Event{{Type: domain.EventUserLeft, PlayerID: playerID}}

	if p.IsHost || room.ConnectedHumans() == 0 {
		finishRoom(room, topScorer(room), now)
	}
	return events, nil
}

func applySetReady(room *domain.Room, playerID string, ready bool, now time.Time) ([]domain.Event, error) {
	if room.Status != domain.RoomWaiting {
		return nil, domain.ErrInvalidState
	}
	p := room.Participant(playerID)
	if p == nil {
		return nil, domain.ErrUserNotFound
	}
	p.Ready = ready
	room.UpdatedAt = now
	return []domain.Event{{Type: domain.EventUserReady, PlayerID: playerID}}, nil
}

func applyKick(room *domain.Room, actorID, targetID string, now time.Time) ([]domain.Event, error) {
	if room.Status != domain.RoomWaiting {
		return nil, domain.ErrInvalidState
	}
	actor := room.Participant(actorID)
	if actor == nil || !actor.IsHost {
		return nil, domain.ErrForbidden
	}
	target := room.Participant(targetID)
	if target == nil {
		return nil, domain.ErrUserNotFound
	}
	if target.IsHost {
		return nil, domain.ErrForbidden
	}
	for i := range room.Participants {
		if room.Participants[i].PlayerID == targetID {
			room.Participants = append(room.Participants[:i], room.Participants[i+1:]...)
			break
		}
	}
	room.UpdatedAt = now
	return []domain.Event{{Type: domain.EventUserLeft, PlayerID: targetID}}, nil
}
