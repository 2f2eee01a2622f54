package relay

// Payload is an opaque session description or candidate. Encoding names the
// wire format Data is in; the relay only carries it along.
type Payload struct {
	Data     []byte
	Encoding string
}

// Empty reports whether the payload carries no bytes.
func (p Payload) Empty() bool {
	return len(p.Data) == 0
}

// Event is an inbound signaling message. It is one of JoinRoom, Offer, Answer
// or IceCandidate.
type Event interface {
	isEvent()
}

// JoinRoom asks the relay to place the sender in RoomID.
type JoinRoom struct {
	RoomID string
}

// Offer carries a session description from Caller to Target.
type Offer struct {
	Target Handle
	Caller Handle
	SDP    Payload
}

// Answer carries the reply session description from Caller to Target.
type Answer struct {
	Target Handle
	Caller Handle
	SDP    Payload
}

// IceCandidate carries one connectivity candidate to Target.
type IceCandidate struct {
	Target    Handle
	Candidate Payload
}

func (JoinRoom) isEvent() {}
func (Offer) isEvent() {}
func (Answer) isEvent() {}
func (IceCandidate) isEvent() {}

// Outbound is an event the relay addresses to exactly one handle. It is one
// of OtherUser, OfferForward, AnswerForward or CandidateForward.
type Outbound interface {
	isOutbound()
}

// OtherUser tells a newcomer which member was already in the room.
type OtherUser struct {
	Peer Handle
}

// OfferForward is an Offer as delivered to its target.
type OfferForward struct {
	Caller Handle
	SDP    Payload
}

// AnswerForward is an Answer as delivered to its target.
type AnswerForward struct {
	Caller Handle
	SDP    Payload
}

// CandidateForward is an IceCandidate as delivered to its target. From is
// always the handle of the connection that sent it.
type CandidateForward struct {
	Candidate Payload
	From      Handle
}

func (OtherUser) isOutbound() {}
func (OfferForward) isOutbound() {}
func (AnswerForward) isOutbound() {}
func (CandidateForward) isOutbound() {}

// Sender delivers outbound events. Send must not block on network I/O and
// must preserve the order of events addressed to the same handle. It reports
// whether the event was accepted for delivery.
type Sender interface {
	Send(to Handle, ev Outbound) bool
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(to Handle, ev Outbound) bool

func (f SenderFunc) Send(to Handle, ev Outbound) bool {
	return f(to, ev)
}

// Observer is notified after membership changes have been applied. It is
// called without any relay lock held.
type Observer interface {
	Joined(roomID string, h Handle)
	Left(roomID string, h Handle)
}

type nopObserver struct{}

func (nopObserver) Joined(string, Handle) {}
func (nopObserver) Left(string, Handle) {}
