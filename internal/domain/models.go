package domain

import "time"

// RoomStatus is the lifecycle state of a room. Transitions are strictly
// waiting -> playing -> finished; a finished room never regresses.
type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomPlaying  RoomStatus = "playing"
	RoomFinished RoomStatus = "finished"
)

// PlayStatus tracks a single participant's progress through a round,
// independently of the room status (a player can finish first).
type PlayStatus string

const (
	PlayWaiting  PlayStatus = "waiting"
	PlayPlaying  PlayStatus = "playing"
	PlayFinished PlayStatus = "finished"
)

// BotLevel selects a bot difficulty preset.
type BotLevel string

const (
	BotEasy   BotLevel = "easy"
	BotMedium BotLevel = "medium"
	BotHard   BotLevel = "hard"
	BotHell   BotLevel = "hell"
)

// Profile carries the identity fields a caller joins with.
type Profile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role,omitempty"`
}

// Participant is one player's room-scoped record, human or bot.
type Participant struct {
	PlayerID    string          `json:"playerId"`
	DisplayName string          `json:"displayName"`
	IsHost      bool            `json:"isHost"`
	IsBot       bool            `json:"isBot"`
	BotLevel    BotLevel        `json:"botLevel,omitempty"`
	Connected   bool            `json:"connected"`
	Ready       bool            `json:"ready"`
	Progress    map[string]bool `json:"progress"`
	Score       int             `json:"score"`
	WrongCounts map[string]int  `json:"wrongCounts"`
	FinishTime  time.Duration   `json:"finishTime"`
	PlayStatus  PlayStatus      `json:"playStatus"`
}

// Resolved reports whether the participant has already used up the given
// question, either by answering it correctly or by abandoning it.
func (p *Participant) Resolved(questionID string) bool {
	return p.Progress[questionID]
}

// RoundConfig is fixed at round start and immutable afterwards.
type RoundConfig struct {
	GroupID       string        `json:"groupId"`
	QuestionCount int           `json:"questionCount"`
	TimeLimit     time.Duration `json:"timeLimit"`
}

// Room is the aggregate a round is played in. The store assigns IDs
// monotonically; Version is the optimistic-concurrency token bumped on
// every persisted mutation.
type Room struct {
	ID           int64         `json:"roomId"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Status       RoomStatus    `json:"status"`
	Participants []Participant `json:"participants"`
	Config       RoundConfig   `json:"config"`
	Questions    []string      `json:"questions,omitempty"`
	StartedAt    time.Time     `json:"startedAt,omitempty"`
	Winner       string        `json:"winner,omitempty"`
	Settled      bool          `json:"settled"`
	Version      int64         `json:"version"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Participant returns the participant with the given player id, or nil.
func (r *Room) Participant(playerID string) *Participant {
	for i := range r.Participants {
		if r.Participants[i].PlayerID == playerID {
			return &r.Participants[i]
		}
	}
	return nil
}

// Host returns the host participant, or nil for a malformed room.
func (r *Room) Host() *Participant {
	for i := range r.Participants {
		if r.Participants[i].IsHost {
			return &r.Participants[i]
		}
	}
	return nil
}

// ConnectedCount counts participants currently connected (bots always count).
func (r *Room) ConnectedCount() int {
	n := 0
	for i := range r.Participants {
		if r.Participants[i].Connected {
			n++
		}
	}
	return n
}

// ConnectedHumans counts connected non-bot participants. A round with no
// human audience left cannot continue.
func (r *Room) ConnectedHumans() int {
	n := 0
	for i := range r.Participants {
		if r.Participants[i].Connected && !r.Participants[i].IsBot {
			n++
		}
	}
	return n
}

// Clone deep-copies the room so snapshots handed to subscribers are not
// aliased to the actor's working copy.
func (r *Room) Clone() *Room {
	cp := *r
	cp.Participants = make([]Participant, len(r.Participants))
	for i := range r.Participants {
		p := r.Participants[i]
		p.Progress = copyBoolMap(r.Participants[i].Progress)
		p.WrongCounts = copyIntMap(r.Participants[i].WrongCounts)
		cp.Participants[i] = p
	}
	cp.Questions = append([]string(nil), r.Questions...)
	return &cp
}

func copyBoolMap(src map[string]bool) map[string]bool {
	if src == nil {
		return nil
	}
	dst := make(map[string]bool, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyIntMap(src map[string]int) map[string]int {
	if src == nil {
		return nil
	}
	dst := make(map[string]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Question is a content record served by a question source. The room core
// only retains IDs; correctness is judged by the caller submitting answers.
type Question struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
	Answer string `json:"answer,omitempty"`
}

// RankEntry is one row of a round's final (or live) ranking.
type RankEntry struct {
	Rank        int           `json:"rank"`
	PlayerID    string        `json:"playerId"`
	DisplayName string        `json:"displayName"`
	IsBot       bool          `json:"isBot"`
	Score       int           `json:"score"`
	FinishTime  time.Duration `json:"finishTime"`
}

// PointsAward is one entry of a user's persistent points history.
type PointsAward struct {
	RoomID    int64     `json:"roomId"`
	Points    int       `json:"points"`
	AwardedAt time.Time `json:"awardedAt"`
}

// UserStats are the persistent per-user counters updated by settlement.
type UserStats struct {
	UserID  string        `json:"userId"`
	Points  int           `json:"points"`
	Matches int           `json:"matches"`
	History []PointsAward `json:"history"`
}
