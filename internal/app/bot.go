package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

// botPreset describes how a simulated player behaves: how long it thinks
// about a question and how often it gets one right.
type botPreset struct {
	MinDelay time.Duration
	MaxDelay time.Duration
	Accuracy float64
}

var botPresets = map[domain.BotLevel]botPreset{
	domain.BotEasy:   {MinDelay: 10 * time.Second, MaxDelay: 20 * time.Second, Accuracy: 0.3},
	domain.BotMedium: {MinDelay: 5 * time.Second, MaxDelay: 15 * time.Second, Accuracy: 0.5},
	domain.BotHard:   {MinDelay: 5 * time.Second, MaxDelay: 10 * time.Second, Accuracy: 0.8},
	domain.BotHell:   {MinDelay: 1 * time.Second, MaxDelay: 3 * time.Second, Accuracy: 1.0},
}

var botNames = []string{
	"Minh Anh", "Gia Huy", "Khanh Linh", "Thanh Tung", "Bao Ngoc",
	"Duc Manh", "Thu Trang", "Quang Hieu", "Hong Nhung", "Van Khoa",
	"Phuong Thao", "Tuan Kiet", "My Duyen", "Hai Dang", "Ngoc Han",
	"Trung Nghia", "Kim Chi", "Anh Tuan", "Thuy Tien", "Quoc Bao",
}

func presetFor(level domain.BotLevel) botPreset {
	if preset, ok := botPresets[level]; ok {
		return preset
	}
	return botPresets[domain.BotEasy]
}

// applyAddBot appends a bot participant while the room is still waiting.
// Bot ids are room-local and synthetic; bots join ready and connected.
func applyAddBot(room *domain.Room, level domain.BotLevel, rnd *rand.Rand, now time.Time) ([]domain.Event, error) {
	if room.Status != domain.RoomWaiting {
		return nil, domain.ErrInvalidState
	}
	seq := 0
	for i := range room.Participants {
		if room.Participants[i].IsBot {
			seq++
		}
	}
	if _, ok := botPresets[level]; !ok {
		level = domain.BotEasy
	}
	bot := domain.Participant{
		PlayerID:    fmt.Sprintf("bot-%d-%d", room.ID, seq+1),
		DisplayName: botNames[rnd.Intn(len(botNames))],
		IsBot:       true,
		BotLevel:    level,
		Connected:   true,
		Ready:       true,
		Progress:    make(map[string]bool),
		WrongCounts: make(map[string]int),
		PlayStatus:  domain.PlayWaiting,
	}
	room.Participants = append(room.Participants, bot)
	room.UpdatedAt = now
	return []domain.Event{{Type: domain.EventUserJoined, PlayerID: bot.PlayerID}}, nil
}

// pendingQuestions filters out questions the player has already resolved,
// so a revived bot resumes mid-round instead of replaying answered ones.
func pendingQuestions(p *domain.Participant, questions []string) []string {
	out := make([]string, 0, len(questions))
	for _, id := range questions {
		if !p.Resolved(id) {
			out = append(out, id)
		}
	}
	return out
}

// commandSink is where a bot runner injects its moves. Both bots and the
// expiry timer go through the same serialized pipeline as human input.
type commandSink interface {
	do(ctx context.Context, cmd command) (*domain.Room, error)
}

// botRunner autonomously plays one bot's question list. It never touches
// room state directly and goes quiet once the room finishes.
type botRunner struct {
	sink      commandSink
	playerID  string
	questions []string
	preset    botPreset
	rnd       *rand.Rand
}

func (b *botRunner) run(ctx context.Context) {
	for _, questionID := range b.questions {
		delay := b.preset.MinDelay
		if span := b.preset.MaxDelay - b.preset.MinDelay; span > 0 {
			delay += time.Duration(b.rnd.Int63n(int64(span) + 1))
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}

		var err error
		if b.rnd.Float64() < b.preset.Accuracy {
			_, err = b.sink.do(ctx, answerCmd{playerID: b.playerID, questionID: questionID, correct: true})
		} else {
			// Abandon the question instead of retrying; bots only take one shot.
			_, err = b.sink.do(ctx, wrongCmd{playerID: b.playerID, questionID: questionID, skip: true})
		}
		if err != nil {
			return
		}
	}
	_, _ = b.sink.do(ctx, finishCmd{playerID: b.playerID})
}
