package domain

import "errors"

var (
	// ErrRoomNotFound is returned when a command addresses an unknown room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrUserNotFound is returned when a player id is not part of the room.
	ErrUserNotFound = errors.New("user not found")
	// ErrGroupNotFound indicates the question group could not be loaded.
	ErrGroupNotFound = errors.New("question group not found")
	// ErrForbidden is returned for host-only commands issued by a non-host.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState is returned for commands not valid in the room's current status.
	ErrInvalidState = errors.New("invalid room state")
	// ErrNotReady is returned when start is attempted before every connected player is ready.
	ErrNotReady = errors.New("not all players ready")
	// ErrConflict is returned when an optimistic save exhausts its version-token retries.
	ErrConflict = errors.New("room version conflict")
	// ErrNotEnoughQuestions is returned when a group cannot cover the requested sample size.
	ErrNotEnoughQuestions = errors.New("not enough questions in group")
)
