package protocol

import "github.com/pion/webrtc/v4"

// Inbound message types.
const (
	TypeJoinRoom     = "join room"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeIceCandidate = "ice-candidate"
)

// Outbound-only message types.
const (
	TypeWelcome   = "welcome"
	TypeOtherUser = "other user"
	TypeError     = "error"
)

// InboundMessage is the payload clients send to the signaling service.
type InboundMessage struct {
	Type      string   `json:"type" msgpack:"type"`
	RoomID    string   `json:"roomId,omitempty" msgpack:"roomId,omitempty"`
	Target    string   `json:"target,omitempty" msgpack:"target,omitempty"`
	Caller    string   `json:"caller,omitempty" msgpack:"caller,omitempty"`
	SDP       *Payload `json:"sdp,omitempty" msgpack:"sdp,omitempty"`
	Candidate *Payload `json:"candidate,omitempty" msgpack:"candidate,omitempty"`
}

// OutboundMessage is every frame the service writes to a client.
type OutboundMessage struct {
	Type       string             `json:"type" msgpack:"type"`
	ID         string             `json:"id,omitempty" msgpack:"id,omitempty"`
	Peer       string             `json:"peer,omitempty" msgpack:"peer,omitempty"`
	Caller     string             `json:"caller,omitempty" msgpack:"caller,omitempty"`
	From       string             `json:"from,omitempty" msgpack:"from,omitempty"`
	SDP        *Payload           `json:"sdp,omitempty" msgpack:"sdp,omitempty"`
	Candidate  *Payload           `json:"candidate,omitempty" msgpack:"candidate,omitempty"`
	Error      string             `json:"error,omitempty" msgpack:"error,omitempty"`
	ICEServers []webrtc.ICEServer `json:"iceServers,omitempty" msgpack:"iceServers,omitempty"`
	ICEMode    string             `json:"iceMode,omitempty" msgpack:"iceMode,omitempty"`
}
