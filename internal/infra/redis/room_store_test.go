package redis

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

func newTestStore(t *testing.T) *RoomStore {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return NewRoomStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func waitingRoom(name string) *domain.Room {
	return &domain.Room{
		Name:   name,
		Status: domain.RoomWaiting,
		Participants: []domain.Participant{
			{PlayerID: "host", IsHost: true, Connected: true},
		},
	}
}

func TestRoomStoreCreateAllocatesIDs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := waitingRoom("a")
	second := waitingRoom("b")
	if err := store.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, second); err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", first.ID, second.ID)
	}

	got, err := store.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "a" || got.Version != 1 {
		t.Fatalf("stored room mismatch: %+v", got)
	}
}

func TestRoomStoreGetMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Get(context.Background(), 9); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestRoomStoreSaveConditionalOnVersion(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	room := waitingRoom("a")
	if err := store.Create(ctx, room); err != nil {
		t.Fatalf("create: %v", err)
	}

	stale := *room
	room.Status = domain.RoomPlaying
	if err := store.Save(ctx, room); err != nil {
		t.Fatalf("save: %v", err)
	}
	if room.Version != 2 {
		t.Fatalf("expected version bump to 2, got %d", room.Version)
	}

	stale.Status = domain.RoomFinished
	if err := store.Save(ctx, &stale); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for stale writer, got %v", err)
	}

	got, err := store.Get(ctx, room.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.RoomPlaying {
		t.Fatalf("stale write must not land, got %s", got.Status)
	}
}

func TestRoomStoreLists(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	open := waitingRoom("open")
	done := waitingRoom("done")
	done.Status = domain.RoomFinished
	done.Participants = append(done.Participants, domain.Participant{PlayerID: "u1"})
	if err := store.Create(ctx, open); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, done); err != nil {
		t.Fatalf("create: %v", err)
	}

	waiting, err := store.ListByStatus(ctx, domain.RoomWaiting)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(waiting) != 1 || waiting[0].ID != open.ID {
		t.Fatalf("expected only the waiting room, got %+v", waiting)
	}

	all, err := store.ListByStatus(ctx, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 || all[0].ID > all[1].ID {
		t.Fatalf("expected both rooms ordered by id")
	}

	histories, err := store.ListFinishedByPlayer(ctx, "u1")
	if err != nil {
		t.Fatalf("histories: %v", err)
	}
	if len(histories) != 1 || histories[0].ID != done.ID {
		t.Fatalf("expected the finished room for u1, got %+v", histories)
	}
}
