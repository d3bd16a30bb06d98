package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/timothy-pham/Blockly-BE/internal/app"
	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

type WSHandler struct {
	service  *app.RoomService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.RoomService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type readyPayload struct {
	Ready bool `json:"ready"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Correct    bool   `json:"correct"`
}

type wrongPayload struct {
	QuestionID string `json:"questionId"`
	Skip       bool   `json:"skip"`
}

type addBotPayload struct {
	Level domain.BotLevel `json:"level"`
}

type kickPayload struct {
	TargetID string `json:"targetId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the room
// command pipeline: one connection is one player in one room.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID, err := strconv.ParseInt(r.URL.Query().Get("roomId"), 10, 64)
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if err != nil || userID == "" || displayName == "" {
		http.Error(w, "missing roomId, userId, or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	joined, err := h.service.Join(r.Context(), roomID, domain.Profile{UserID: userID, DisplayName: displayName})
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	// The participant joined; from here every exit path must disconnect them.
	defer func() {
		_, _ = h.service.Leave(r.Context(), roomID, userID)
	}()

	updates, cancel, err := h.service.Subscribe(r.Context(), roomID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case event, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: string(event.Type), Payload: event}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: joined}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		room, err := h.handleMessage(r, roomID, userID, inbound)
		if err != nil {
			select {
			case send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}:
			case <-closeSignals:
			}
			continue
		}
		if room != nil {
			select {
			case send <- outboundMessage[any]{Type: "room", Payload: room}:
			case <-closeSignals:
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handleMessage(r *http.Request, roomID int64, userID string, inbound inboundMessage) (*domain.Room, error) {
	ctx := r.Context()
	switch inbound.Type {
	case "ready":
		var payload readyPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return nil, errors.New("invalid ready payload")
		}
		return h.service.SetReady(ctx, roomID, userID, payload.Ready)
	case "start":
		return h.service.Start(ctx, roomID, userID)
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return nil, errors.New("invalid answer payload")
		}
		return h.service.SubmitAnswer(ctx, roomID, userID, payload.QuestionID, payload.Correct)
	case "wrong":
		var payload wrongPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return nil, errors.New("invalid wrong payload")
		}
		return h.service.SubmitWrong(ctx, roomID, userID, payload.QuestionID, payload.Skip)
	case "finish":
		return h.service.PlayerFinish(ctx, roomID, userID)
	case "add_bot":
		var payload addBotPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return nil, errors.New("invalid add_bot payload")
		}
		return h.service.AddBot(ctx, roomID, payload.Level)
	case "kick":
		var payload kickPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return nil, errors.New("invalid kick payload")
		}
		return h.service.Kick(ctx, roomID, userID, payload.TargetID)
	default:
		return nil, errors.New("unsupported message type")
	}
}
