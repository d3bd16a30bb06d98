package app

import (
	"context"
	"log"
	"time"

	"github.com/timothy-pham/Blockly-BE/internal/domain"
	"golang.org/x/sync/errgroup"
)

// rankAwards maps final rank to points for real users who scored.
var rankAwards = []int{100, 75, 50}

const consolationAward = 5

// Settlement converts a finished round into durable per-user statistics.
type Settlement struct {
	profiles ProfileStore
	clock    func() time.Time
}

func NewSettlement(profiles ProfileStore) *Settlement {
	return &Settlement{profiles: profiles, clock: time.Now}
}

// NewSettlementWithClock is test-only for deterministic award timestamps.
func NewSettlementWithClock(profiles ProfileStore, now func() time.Time) *Settlement {
	return &Settlement{profiles: profiles, clock: now}
}

// Settle awards points for a finished room and returns the closing events.
// It runs at most once per room: the Settled flag is checked here and set by
// the caller inside the room's serialized finish transition, so a second
// trigger (e.g. a racing expiry) finds the flag and awards nothing. A room
// that never reached playing is not settled.
//
// Rounds where nobody scored still close with an end_game event but award
// no points and announce no winner.
func (s *Settlement) Settle(ctx context.Context, room *domain.Room) []domain.Event {
	if room.Status != domain.RoomFinished || room.Settled || room.StartedAt.IsZero() {
		return nil
	}
	room.Settled = true

	ranking := Ranking(room)
	awardedAt := s.clock()

	// Profile records are independent per user; one failed award must not
	// block the rest or reopen the room.
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	for _, entry := range ranking {
		if entry.IsBot || entry.Score == 0 {
			continue
		}
		userID := entry.PlayerID
		points := consolationAward
		if entry.Rank-1 < len(rankAwards) {
			points = rankAwards[entry.Rank-1]
		}
		g.Go(func() error {
			_, err := s.profiles.AwardPoints(gctx, userID, domain.PointsAward{
				RoomID:    room.ID,
				Points:    points,
				AwardedAt: awardedAt,
			})
			if err != nil {
				log.Printf("settlement: award room=%d user=%s failed: %v", room.ID, userID, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	events := []domain.Event{{Type: domain.EventEndGame, Ranking: ranking}}
	if len(ranking) > 0 && ranking[0].Score > 0 {
		winner := ranking[0]
		events = append(events, domain.Event{
			Type:     domain.EventNewWinner,
			PlayerID: winner.PlayerID,
			Winner:   &winner,
		})
	}
	return events
}
