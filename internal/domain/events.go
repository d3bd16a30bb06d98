package domain

// EventType names a room-scoped event published after a successful mutation.
type EventType string

const (
	EventUserJoined    EventType = "user_joined"
	EventUserLeft      EventType = "user_left"
	EventUserReady     EventType = "user_ready"
	EventStartGame     EventType = "start_game"
	EventRankingUpdate EventType = "ranking_update"
	EventUserFinish    EventType = "user_finish"
	EventEndGame       EventType = "end_game"
	EventNewWinner     EventType = "new_winner"
)

// Event is the payload fanned out to every subscriber of a room's topic.
// Room is a detached snapshot; mutating it does not affect the live room.
type Event struct {
	Type     EventType   `json:"type"`
	RoomID   int64       `json:"roomId"`
	PlayerID string      `json:"playerId,omitempty"`
	Room     *Room       `json:"room,omitempty"`
	Ranking  []RankEntry `json:"ranking,omitempty"`
	Winner   *RankEntry  `json:"winner,omitempty"`
}
