package rooms

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"webrtc-signal-relay/pkg/relay"
)

// Room is the public view of a relay room.
type Room struct {
	Code    string         `json:"code"`
	Members []relay.Handle `json:"members"`
}

// Directory is the read side of the room table used by the HTTP API.
type Directory interface {
	Members(roomID string) []relay.Handle
}

// ErrNoFreeCode is returned when every generated code collided with a live room.
var ErrNoFreeCode = errors.New("failed to generate unique room code")

const maxAttempts = 5

// Suggest returns a fresh room code that no live room currently uses. Rooms
// are still created implicitly by the first join.
func Suggest(dir Directory) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		code := generateCode()
		if len(dir.Members(code)) == 0 {
			return code, nil
		}
	}
	return "", ErrNoFreeCode
}

// Lookup returns the live membership snapshot for code. Codes are matched
// exactly, the same way joins match room ids.
func Lookup(dir Directory, code string) Room {
	members := dir.Members(code)
	if members == nil {
		members = []relay.Handle{}
	}
	return Room{Code: code, Members: members}
}

// generateCode produces a short, URL-safe room code.
func generateCode() string {
	// 6 bytes -> 8 chars when raw URL base64 encoded without padding.
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
