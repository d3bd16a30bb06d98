package app

import (
	"context"
	"time"

	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

// GameConfig tunes the room pipeline.
type GameConfig struct {
	// ExpiryGrace is added to a round's time limit before the expiry timer
	// forces the round to end.
	ExpiryGrace time.Duration
	// WrongLimit caps incorrect attempts per question (default 3).
	WrongLimit int
}

// DefaultGameConfig matches the production defaults.
func DefaultGameConfig() GameConfig {
	return GameConfig{ExpiryGrace: 5 * time.Second, WrongLimit: defaultWrongLimit}
}

// RoomService is the command surface over the room concurrency core. Every
// mutation is routed through the target room's serialized actor; queries go
// straight to the store.
type RoomService struct {
	store      RoomStore
	bus        EventBus
	sampler    *Sampler
	settlement *Settlement
	registry   *Registry
	cfg        GameConfig
	clock      func() time.Time
}

func NewRoomService(store RoomStore, bus EventBus, sampler *Sampler, settlement *Settlement, registry *Registry, cfg GameConfig) *RoomService {
	if cfg.WrongLimit <= 0 {
		cfg.WrongLimit = defaultWrongLimit
	}
	return &RoomService{
		store:      store,
		bus:        bus,
		sampler:    sampler,
		settlement: settlement,
		registry:   registry,
		cfg:        cfg,
		clock:      time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *RoomService) WithClock(now func() time.Time) *RoomService {
	s.clock = now
	return s
}

// CreateRoom persists a new waiting room with the creator as its sole, host
// participant and brings its actor online.
func (s *RoomService) CreateRoom(ctx context.Context, host domain.Profile, name, description string, cfg domain.RoundConfig) (*domain.Room, error) {
	now := s.clock()
	room := &domain.Room{
		Name:        name,
		Description: description,
		Status:      domain.RoomWaiting,
		Config:      cfg,
		CreatedAt:   now,
		UpdatedAt:   now,
		Participants: []domain.Participant{{
			PlayerID:    host.UserID,
			DisplayName: host.DisplayName,
			IsHost:      true,
			Connected:   true,
			Progress:    make(map[string]bool),
			WrongCounts: make(map[string]int),
			PlayStatus:  domain.PlayWaiting,
		}},
	}
	if err := s.store.Create(ctx, room); err != nil {
		return nil, err
	}
	s.registry.getOrSpawn(room.ID, func() *roomActor {
		return newRoomActor(room.Clone(), s.deps())
	})
	return room.Clone(), nil
}

func (s *RoomService) Join(ctx context.Context, roomID int64, profile domain.Profile) (*domain.Room, error) {
	return s.send(ctx, roomID, joinCmd{profile: profile})
}

func (s *RoomService) Leave(ctx context.Context, roomID int64, playerID string) (*domain.Room, error) {
	return s.send(ctx, roomID, leaveCmd{playerID: playerID})
}

func (s *RoomService) SetReady(ctx context.Context, roomID int64, playerID string, ready bool) (*domain.Room, error) {
	return s.send(ctx, roomID, readyCmd{playerID: playerID, ready: ready})
}

func (s *RoomService) Kick(ctx context.Context, roomID int64, actorID, targetID string) (*domain.Room, error) {
	return s.send(ctx, roomID, kickCmd{actorID: actorID, targetID: targetID})
}

func (s *RoomService) Start(ctx context.Context, roomID int64, actorID string) (*domain.Room, error) {
	return s.send(ctx, roomID, startCmd{actorID: actorID})
}

func (s *RoomService) SubmitAnswer(ctx context.Context, roomID int64, playerID, questionID string, correct bool) (*domain.Room, error) {
	return s.send(ctx, roomID, answerCmd{playerID: playerID, questionID: questionID, correct: correct})
}

func (s *RoomService) SubmitWrong(ctx context.Context, roomID int64, playerID, questionID string, skip bool) (*domain.Room, error) {
	return s.send(ctx, roomID, wrongCmd{playerID: playerID, questionID: questionID, skip: skip})
}

func (s *RoomService) PlayerFinish(ctx context.Context, roomID int64, playerID string) (*domain.Room, error) {
	return s.send(ctx, roomID, finishCmd{playerID: playerID})
}

func (s *RoomService) AddBot(ctx context.Context, roomID int64, level domain.BotLevel) (*domain.Room, error) {
	return s.send(ctx, roomID, addBotCmd{level: level})
}

// GetRoom returns the persisted snapshot of one room.
func (s *RoomService) GetRoom(ctx context.Context, roomID int64) (*domain.Room, error) {
	return s.store.Get(ctx, roomID)
}

// ListRooms returns rooms filtered by status; an empty status lists all.
func (s *RoomService) ListRooms(ctx context.Context, status domain.RoomStatus) ([]*domain.Room, error) {
	return s.store.ListByStatus(ctx, status)
}

// Histories returns finished rooms the given player took part in.
func (s *RoomService) Histories(ctx context.Context, playerID string) ([]*domain.Room, error) {
	return s.store.ListFinishedByPlayer(ctx, playerID)
}

// Stats returns a user's persistent points and match counters.
func (s *RoomService) Stats(ctx context.Context, userID string) (domain.UserStats, error) {
	return s.settlement.profiles.GetStats(ctx, userID)
}

// Subscribe returns a channel of room events plus a cancel function the
// caller must invoke to avoid leaks.
func (s *RoomService) Subscribe(ctx context.Context, roomID int64) (<-chan domain.Event, func(), error) {
	return s.bus.Subscribe(ctx, roomID)
}

// Shutdown tears down all live room actors.
func (s *RoomService) Shutdown() {
	s.registry.Shutdown()
}

// send routes a command to the room's actor, reviving the actor from the
// persisted record if the room is live but not resident (e.g. after a
// restart). Finished rooms reject all commands.
func (s *RoomService) send(ctx context.Context, roomID int64, cmd command) (*domain.Room, error) {
	if actor, ok := s.registry.get(roomID); ok {
		return actor.do(ctx, cmd)
	}

	room, err := s.store.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status == domain.RoomFinished {
		return nil, domain.ErrInvalidState
	}
	actor := s.registry.getOrSpawn(roomID, func() *roomActor {
		return newRoomActor(room, s.deps())
	})
	return actor.do(ctx, cmd)
}

func (s *RoomService) deps() actorDeps {
	return actorDeps{
		store:      s.store,
		bus:        s.bus,
		sampler:    s.sampler,
		settlement: s.settlement,
		cfg:        s.cfg,
		clock:      s.clock,
		registry:   s.registry,
	}
}
