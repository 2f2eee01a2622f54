// Package relay holds the signaling relay core: the connection registry,
// the room table, the router that forwards offer/answer/candidate events to a
// single target, and the lifecycle manager that cleans up on disconnect.
//
// The package never touches the network. Outbound events leave through a
// Sender supplied by the transport.
package relay

import "github.com/google/uuid"

// Handle identifies one live transport connection. Handles are never reused.
type Handle string

// NewHandle returns a fresh random handle.
func NewHandle() Handle {
	return Handle(uuid.NewString())
}

func (h Handle) String() string {
	return string(h)
}
