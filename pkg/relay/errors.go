package relay

import "errors"

var (
	// ErrMalformed is returned for an inbound event that is missing a required
	// field. Only that event is rejected.
	ErrMalformed = errors.New("malformed signaling event")
	// ErrRoomFull is returned by Join when a member cap is configured and the
	// room already holds that many members.
	ErrRoomFull = errors.New("room is full")
	// ErrNotRegistered is returned when an event arrives for a handle that was
	// never connected or has already disconnected.
	ErrNotRegistered = errors.New("connection not registered")
)
