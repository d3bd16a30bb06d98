package app

import (
	"context"

	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

// RoomStore persists room aggregates. Save is conditional on the room's
// Version token matching the stored one and bumps it on success; a mismatch
// returns domain.ErrConflict.
type RoomStore interface {
	Create(ctx context.Context, room *domain.Room) error
	Get(ctx context.Context, id int64) (*domain.Room, error)
	Save(ctx context.Context, room *domain.Room) error
	ListByStatus(ctx context.Context, status domain.RoomStatus) ([]*domain.Room, error)
	ListFinishedByPlayer(ctx context.Context, playerID string) ([]*domain.Room, error)
}

// QuestionSource loads the question records of a topic group.
type QuestionSource interface {
	GroupQuestions(ctx context.Context, groupID string) ([]domain.Question, error)
}

// ProfileStore holds persistent per-user statistics. AwardPoints atomically
// increments points and matches and appends the award to the user's history.
type ProfileStore interface {
	AwardPoints(ctx context.Context, userID string, award domain.PointsAward) (domain.UserStats, error)
	GetStats(ctx context.Context, userID string) (domain.UserStats, error)
}

// EventBus fans room events out to subscribers of the room's topic.
// The caller must invoke the cancel function returned by Subscribe.
type EventBus interface {
	Publish(ctx context.Context, event domain.Event) error
	Subscribe(ctx context.Context, roomID int64) (<-chan domain.Event, func(), error)
}
