package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

const (
	roomKeyPrefix = "room:"
	roomIndexKey  = "rooms"
	roomIDKey     = "room:next_id"
)

// RoomStore persists rooms as JSON documents in Redis. Ids come from a
// shared counter; Save is conditional on the stored version token using a
// WATCH transaction, so a concurrent writer surfaces as ErrConflict instead
// of a lost update.
type RoomStore struct {
	client *redis.Client
}

func NewRoomStore(client *redis.Client) *RoomStore {
	return &RoomStore{client: client}
}

func (s *RoomStore) Create(ctx context.Context, room *domain.Room) error {
	id, err := s.client.Incr(ctx, roomIDKey).Result()
	if err != nil {
		return fmt.Errorf("allocate room id: %w", err)
	}
	room.ID = id
	room.Version = 1

	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, roomKey(id), data, 0)
	pipe.SAdd(ctx, roomIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store room: %w", err)
	}
	return nil
}

func (s *RoomStore) Get(ctx context.Context, id int64) (*domain.Room, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}
	var room domain.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("unmarshal room: %w", err)
	}
	return &room, nil
}

func (s *RoomStore) Save(ctx context.Context, room *domain.Room) error {
	key := roomKey(room.ID)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		var stored domain.Room
		if err := json.Unmarshal(data, &stored); err != nil {
			return err
		}
		if stored.Version != room.Version {
			return domain.ErrConflict
		}

		next := *room
		next.Version = room.Version + 1
		payload, err := json.Marshal(&next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		// The key changed between read and write; same outcome as a stale
		// version token.
		return domain.ErrConflict
	}
	if err != nil {
		return err
	}
	room.Version++
	return nil
}

func (s *RoomStore) ListByStatus(ctx context.Context, status domain.RoomStatus) ([]*domain.Room, error) {
	rooms, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return rooms, nil
	}
	var out []*domain.Room
	for _, room := range rooms {
		if room.Status == status {
			out = append(out, room)
		}
	}
	return out, nil
}

func (s *RoomStore) ListFinishedByPlayer(ctx context.Context, playerID string) ([]*domain.Room, error) {
	rooms, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []*domain.Room
	for _, room := range rooms {
		if room.Status == domain.RoomFinished && room.Participant(playerID) != nil {
			out = append(out, room)
		}
	}
	return out, nil
}

func (s *RoomStore) listAll(ctx context.Context) ([]*domain.Room, error) {
	ids, err := s.client.SMembers(ctx, roomIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	out := make([]*domain.Room, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		room, err := s.Get(ctx, id)
		if errors.Is(err, domain.ErrRoomNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	sortRoomsByID(out)
	return out, nil
}

func roomKey(id int64) string {
	return roomKeyPrefix + strconv.FormatInt(id, 10)
}
