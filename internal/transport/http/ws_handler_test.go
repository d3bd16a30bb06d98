package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/timothy-pham/Blockly-BE/internal/app"
	"github.com/timothy-pham/Blockly-BE/internal/domain"
	"github.com/timothy-pham/Blockly-BE/internal/infra/memory"
)

func newTestService(t *testing.T) *app.RoomService {
	t.Helper()
	source := memory.NewQuestionSource(memory.NewStaticGroupLoader(map[string][]domain.Question{
		"group-1": {{ID: "q1"}, {ID: "q2"}, {ID: "q3"}},
	}), time.Minute)
	service := app.NewRoomService(
		memory.NewRoomStore(),
		memory.NewEventBus(),
		app.NewSampler(source),
		app.NewSettlement(memory.NewProfileStore()),
		app.NewRegistry(),
		app.DefaultGameConfig(),
	)
	t.Cleanup(service.Shutdown)
	return service
}

func TestWebSocketRoundFlow(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	room, err := service.CreateRoom(ctx, domain.Profile{UserID: "host", DisplayName: "Host"}, "arena", "", domain.RoundConfig{
		GroupID:       "group-1",
		QuestionCount: 2,
		TimeLimit:     time.Minute,
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(service).ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?roomId=1&userId=u1&name=Alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	typ, _ := readNext(conn, t, "joined")
	if typ != "joined" {
		t.Fatalf("expected joined, got %s", typ)
	}

	if err := conn.WriteJSON(map[string]any{
		"type":    "ready",
		"payload": map[string]any{"ready": true},
	}); err != nil {
		t.Fatalf("write ready: %v", err)
	}

	// The connection sees both its own "room" reply and the fanned-out
	// user_ready event; order between them is not fixed.
	sawRoom := false
	sawReady := false
	for i := 0; i < 4 && !(sawRoom && sawReady); i++ {
		switch typ, _ := readNext(conn, t, ""); typ {
		case "room":
			sawRoom = true
		case "user_ready":
			sawReady = true
		}
	}
	if !sawRoom || !sawReady {
		t.Fatalf("expected room reply and user_ready event, got room=%v ready=%v", sawRoom, sawReady)
	}

	// Only the host may start the round.
	if err := conn.WriteJSON(map[string]any{"type": "start"}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	if typ, _ := readNext(conn, t, ""); typ != "error" {
		t.Fatalf("expected error for non-host start, got %s", typ)
	}

	if _, err := service.SetReady(ctx, room.ID, "host", true); err != nil {
		t.Fatalf("host ready: %v", err)
	}
	started, err := service.Start(ctx, room.ID, "host")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForType(conn, t, "start_game")

	for _, q := range started.Questions {
		if err := conn.WriteJSON(map[string]any{
			"type":    "answer",
			"payload": map[string]any{"questionId": q, "correct": true},
		}); err != nil {
			t.Fatalf("write answer: %v", err)
		}
	}
	waitForType(conn, t, "end_game")

	final, err := service.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if final.Status != domain.RoomFinished || final.Winner != "u1" {
		t.Fatalf("expected u1 to win over websocket, got %+v", final)
	}
}

func TestWebSocketRejectsBadRequests(t *testing.T) {
	service := newTestService(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(service).ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws?roomId=abc&userId=u1&name=Alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad roomId, got %d", resp.StatusCode)
	}

	// Unknown room: upgrade succeeds, then an error message arrives.
	u := "ws" + server.URL[len("http"):] + "/ws?roomId=99&userId=u1&name=Alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if typ, _ := readNext(conn, t, ""); typ != "error" {
		t.Fatalf("expected error for unknown room, got %s", typ)
	}
}

// subscribeFailBus publishes normally but refuses subscriptions, standing in
// for a broker that drops the stream right after a player joins.
type subscribeFailBus struct {
	inner *memory.EventBus
}

func (b *subscribeFailBus) Publish(ctx context.Context, event domain.Event) error {
	return b.inner.Publish(ctx, event)
}

func (b *subscribeFailBus) Subscribe(context.Context, int64) (<-chan domain.Event, func(), error) {
	return nil, nil, errors.New("event stream unavailable")
}

func TestWebSocketSubscribeFailureStillDisconnects(t *testing.T) {
	ctx := context.Background()
	source := memory.NewQuestionSource(memory.NewStaticGroupLoader(map[string][]domain.Question{
		"group-1": {{ID: "q1"}},
	}), time.Minute)
	service := app.NewRoomService(
		memory.NewRoomStore(),
		&subscribeFailBus{inner: memory.NewEventBus()},
		app.NewSampler(source),
		app.NewSettlement(memory.NewProfileStore()),
		app.NewRegistry(),
		app.DefaultGameConfig(),
	)
	t.Cleanup(service.Shutdown)

	room, err := service.CreateRoom(ctx, domain.Profile{UserID: "host", DisplayName: "Host"}, "arena", "", domain.RoundConfig{
		GroupID:       "group-1",
		QuestionCount: 1,
		TimeLimit:     time.Minute,
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(service).ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?roomId=1&userId=u1&name=Alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if typ, _ := readNext(conn, t, ""); typ != "error" {
		t.Fatalf("expected error when the event stream is unavailable, got %s", typ)
	}

	// The join must be rolled back: the participant stays on the roster but
	// ends up disconnected, the same as any other dropped connection.
	deadline := time.After(2 * time.Second)
	for {
		current, err := service.GetRoom(ctx, room.ID)
		if err != nil {
			t.Fatalf("get room: %v", err)
		}
		if p := current.Participant("u1"); p != nil && !p.Connected {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("participant u1 still connected after failed subscribe")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func waitForType(conn *websocket.Conn, t *testing.T, want string) {
	t.Helper()
	for i := 0; i < 32; i++ {
		if typ, _ := readNext(conn, t, ""); typ == want {
			return
		}
	}
	t.Fatalf("never received %s", want)
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
