package protocol

import (
	"fmt"

	"webrtc-signal-relay/pkg/relay"
)

// Event converts an inbound frame to a relay event. Unknown types and
// missing type fields wrap relay.ErrMalformed.
func (m InboundMessage) Event() (relay.Event, error) {
	switch m.Type {
	case TypeJoinRoom:
		return relay.JoinRoom{RoomID: m.RoomID}, nil
	case TypeOffer:
		return relay.Offer{Target: relay.Handle(m.Target), Caller: relay.Handle(m.Caller), SDP: m.SDP.Relay()}, nil
	case TypeAnswer:
		return relay.Answer{Target: relay.Handle(m.Target), Caller: relay.Handle(m.Caller), SDP: m.SDP.Relay()}, nil
	case TypeIceCandidate:
		return relay.IceCandidate{Target: relay.Handle(m.Target), Candidate: m.Candidate.Relay()}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", relay.ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", relay.ErrMalformed, m.Type)
	}
}

// FromOutbound converts a relay event to its wire frame.
func FromOutbound(ev relay.Outbound) (OutboundMessage, error) {
	switch ev := ev.(type) {
	case relay.OtherUser:
		return OutboundMessage{Type: TypeOtherUser, Peer: ev.Peer.String()}, nil
	case relay.OfferForward:
		return OutboundMessage{Type: TypeOffer, Caller: ev.Caller.String(), SDP: NewPayload(ev.SDP)}, nil
	case relay.AnswerForward:
		return OutboundMessage{Type: TypeAnswer, Caller: ev.Caller.String(), SDP: NewPayload(ev.SDP)}, nil
	case relay.CandidateForward:
		return OutboundMessage{Type: TypeIceCandidate, Candidate: NewPayload(ev.Candidate), From: ev.From.String()}, nil
	default:
		return OutboundMessage{}, fmt.Errorf("unsupported outbound event %T", ev)
	}
}

// ErrorMessage builds the frame sent back to a client whose event was rejected.
func ErrorMessage(err error) OutboundMessage {
	return OutboundMessage{Type: TypeError, Error: err.Error()}
}
