package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/timothy-pham/Blockly-BE/internal/app"
	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

// RoomHandler serves the request/response side of the API: room creation
// and the read-only queries. Live play happens over the websocket.
type RoomHandler struct {
	service *app.RoomService
}

func NewRoomHandler(service *app.RoomService) *RoomHandler {
	return &RoomHandler{service: service}
}

func (h *RoomHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/rooms", h.rooms)
	mux.HandleFunc("/rooms/", h.roomByID)
	mux.HandleFunc("/histories", h.histories)
}

type createRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	HostID      string `json:"hostId"`
	HostName    string `json:"hostName"`
	GroupID     string `json:"groupId"`
	// QuestionCount and TimeLimitSec fix the round configuration at creation.
	QuestionCount int `json:"questionCount"`
	TimeLimitSec  int `json:"timeLimitSec"`
}

func (h *RoomHandler) rooms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createRoom(w, r)
	case http.MethodGet:
		h.listRooms(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *RoomHandler) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.HostID == "" || req.GroupID == "" || req.QuestionCount <= 0 {
		http.Error(w, "missing name, hostId, groupId, or questionCount", http.StatusBadRequest)
		return
	}
	room, err := h.service.CreateRoom(r.Context(),
		domain.Profile{UserID: req.HostID, DisplayName: req.HostName},
		req.Name, req.Description,
		domain.RoundConfig{
			GroupID:       req.GroupID,
			QuestionCount: req.QuestionCount,
			TimeLimit:     time.Duration(req.TimeLimitSec) * time.Second,
		})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (h *RoomHandler) listRooms(w http.ResponseWriter, r *http.Request) {
	status := domain.RoomStatus(r.URL.Query().Get("status"))
	rooms, err := h.service.ListRooms(r.Context(), status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *RoomHandler) roomByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/rooms/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	room, err := h.service.GetRoom(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *RoomHandler) histories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "missing playerId", http.StatusBadRequest)
		return
	}
	rooms, err := h.service.Histories(r.Context(), playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrGroupNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrNotReady), errors.Is(err, domain.ErrNotEnoughQuestions):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}
