package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

// RoomStore is an in-process implementation of app.RoomStore with
// monotonically assigned ids and per-record optimistic versioning.
type RoomStore struct {
	mu     sync.RWMutex
	nextID int64
	rooms  map[int64]*domain.Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[int64]*domain.Room)}
}

func (s *RoomStore) Create(_ context.Context, room *domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	room.ID = s.nextID
	room.Version = 1
	s.rooms[room.ID] = room.Clone()
	return nil
}

func (s *RoomStore) Get(_ context.Context, id int64) (*domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room.Clone(), nil
}

// Save writes the room conditioned on an unchanged version token and bumps
// the caller's copy on success.
func (s *RoomStore) Save(_ context.Context, room *domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rooms[room.ID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if stored.Version != room.Version {
		return domain.ErrConflict
	}
	room.Version++
	s.rooms[room.ID] = room.Clone()
	return nil
}

func (s *RoomStore) ListByStatus(_ context.Context, status domain.RoomStatus) ([]*domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Room
	for _, room := range s.rooms {
		if status == "" || room.Status == status {
			out = append(out, room.Clone())
		}
	}
	sortRoomsByID(out)
	return out, nil
}

func (s *RoomStore) ListFinishedByPlayer(_ context.Context, playerID string) ([]*domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Room
	for _, room := range s.rooms {
		if room.Status != domain.RoomFinished {
			continue
		}
		if room.Participant(playerID) != nil {
			out = append(out, room.Clone())
		}
	}
	sortRoomsByID(out)
	return out, nil
}

func sortRoomsByID(rooms []*domain.Room) {
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
}
