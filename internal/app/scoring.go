package app

import (
	"sort"
	"time"

	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

// defaultWrongLimit caps incorrect attempts per question before the
// question is abandoned.
const defaultWrongLimit = 3

// applyAnswer records a correct submission for one (player, question) pair.
// A question already in the player's progress is a silent no-op so that
// duplicate or network-retried submissions never double-count. An incorrect
// submission is routed through the wrong-attempt path.
func applyAnswer(room *domain.Room, playerID, questionID string, correct bool, wrongLimit int, now time.Time) ([]domain.Event, error) {
	if room.Status != domain.RoomPlaying {
		return nil, domain.ErrInvalidState
	}
	if !correct {
		return applyWrong(room, playerID, questionID, false, wrongLimit, now)
	}
	p := room.Participant(playerID)
	if p == nil {
		return nil, domain.ErrUserNotFound
	}
	if !roundHasQuestion(room, questionID) {
		return nil, domain.ErrInvalidState
	}
	if p.Resolved(questionID) {
		return nil, nil
	}

	p.Progress[questionID] = true
	p.Score++
	p.FinishTime = now.Sub(room.StartedAt)
	room.UpdatedAt = now

	events := []domain.Event{{Type: domain.EventRankingUpdate, Ranking: Ranking(room)}}
	if p.Score >= room.Config.QuestionCount {
		p.PlayStatus = domain.PlayFinished
		events = append(events, domain.Event{Type: domain.EventUserFinish, PlayerID: playerID})
		finishRoom(room, playerID, now)
	}
	return events, nil
}

// applyWrong counts an incorrect attempt. An explicit skip or hitting the
// retry cap forces the question into progress without scoring it.
func applyWrong(room *domain.Room, playerID, questionID string, skip bool, wrongLimit int, now time.Time) ([]domain.Event, error) {
	if room.Status != domain.RoomPlaying {
		return nil, domain.ErrInvalidState
	}
	p := room.Participant(playerID)
	if p == nil {
		return nil, domain.ErrUserNotFound
	}
	if !roundHasQuestion(room, questionID) {
		return nil, domain.ErrInvalidState
	}
	if p.Resolved(questionID) {
		return nil, nil
	}
	if wrongLimit <= 0 {
		wrongLimit = defaultWrongLimit
	}

	p.WrongCounts[questionID]++
	if skip || p.WrongCounts[questionID] >= wrongLimit {
		p.Progress[questionID] = true
	}
	p.FinishTime = now.Sub(room.StartedAt)
	room.UpdatedAt = now
	return []domain.Event{{Type: domain.EventRankingUpdate, Ranking: Ranking(room)}}, nil
}

// applyPlayerFinish marks one player's round as done. When every connected
// participant has finished, the round ends without waiting for the expiry
// timer.
func applyPlayerFinish(room *domain.Room, playerID string, now time.Time) ([]domain.Event, error) {
	if room.Status != domain.RoomPlaying {
		return nil, domain.ErrInvalidState
	}
	p := room.Participant(playerID)
	if p == nil {
		return nil, domain.ErrUserNotFound
	}
	p.PlayStatus = domain.PlayFinished
	room.UpdatedAt = now
	events := []domain.Event{{Type: domain.EventUserFinish, PlayerID: playerID}}

	allDone := true
	for i := range room.Participants {
		q := &room.Participants[i]
		if q.Connected && q.PlayStatus != domain.PlayFinished {
			allDone = false
			break
		}
	}
	if allDone {
		finishRoom(room, topScorer(room), now)
	}
	return events, nil
}

func roundHasQuestion(room *domain.Room, questionID string) bool {
	for _, id := range room.Questions {
		if id == questionID {
			return true
		}
	}
	return false
}

// Ranking orders participants by score descending, ties broken by the
// earlier finish time. Roster order keeps zero-score ties stable.
func Ranking(room *domain.Room) []domain.RankEntry {
	entries := make([]domain.RankEntry, 0, len(room.Participants))
	for i := range room.Participants {
		p := &room.Participants[i]
		entries = append(entries, domain.RankEntry{
			PlayerID:    p.PlayerID,
			DisplayName: p.DisplayName,
			IsBot:       p.IsBot,
			Score:       p.Score,
			FinishTime:  p.FinishTime,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].FinishTime < entries[j].FinishTime
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// topScorer returns the leading player id when any score is positive, or
// empty when the round produced no winner.
func topScorer(room *domain.Room) string {
	ranking := Ranking(room)
	if len(ranking) == 0 || ranking[0].Score == 0 {
		return ""
	}
	return ranking[0].PlayerID
}
