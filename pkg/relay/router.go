package relay

import (
	"fmt"
	"log/slog"

	"webrtc-signal-relay/internal/metrics"
)

// Options carries the collaborators shared by Router and Lifecycle. Every
// field is optional.
type Options struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Observer Observer
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	return o
}

// Router applies inbound events to the relay state and forwards the
// resulting outbound events. Offer, answer and candidate events are strictly
// unicast to their target.
type Router struct {
	state    *State
	sender   Sender
	logger   *slog.Logger
	metrics  *metrics.Metrics
	observer Observer
}

func NewRouter(state *State, sender Sender, opts Options) *Router {
	opts = opts.withDefaults()
	return &Router{
		state:    state,
		sender:   sender,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		observer: opts.Observer,
	}
}

// Handle dispatches one inbound event from the connection identified by from.
// Events addressed to an unknown target are dropped and return nil.
func (r *Router) Handle(from Handle, ev Event) error {
	switch ev := ev.(type) {
	case JoinRoom:
		return r.OnJoinRoom(from, ev.RoomID)
	case Offer:
		return r.OnOffer(from, ev)
	case Answer:
		return r.OnAnswer(from, ev)
	case IceCandidate:
		return r.OnIceCandidate(from, ev)
	default:
		return r.malformed(fmt.Errorf("%w: unsupported event %T", ErrMalformed, ev))
	}
}

// OnJoinRoom places from in roomID. When the room already had members the
// earliest of them is announced to from, and only to from.
func (r *Router) OnJoinRoom(from Handle, roomID string) error {
	if roomID == "" {
		return r.malformed(fmt.Errorf("%w: join room without room id", ErrMalformed))
	}
	if !r.state.Registry.Live(from) {
		return ErrNotRegistered
	}

	prev, inRoom := r.state.Registry.CurrentRoom(from)
	if inRoom && prev == roomID {
		r.metrics.Inc(metrics.EventJoinDuplicate)
		r.logger.Debug("relay: duplicate join ignored", "conn", from, "room", roomID)
		return nil
	}

	peer, hasPeer, err := r.state.Rooms.Join(roomID, from)
	if err != nil {
		r.metrics.Inc(metrics.DropReasonRoomFull)
		return fmt.Errorf("join room %q: %w", roomID, err)
	}
	if !r.state.Registry.assign(from, roomID) {
		r.state.Rooms.Leave(roomID, from)
		return ErrNotRegistered
	}
	if inRoom {
		r.state.Rooms.Leave(prev, from)
		r.observer.Left(prev, from)
		r.metrics.Inc(metrics.EventRoomSwitch)
		r.logger.Debug("relay: left previous room", "conn", from, "room", prev)
	}
	r.observer.Joined(roomID, from)
	r.metrics.Inc(metrics.EventJoin)
	r.logger.Debug("relay: joined room", "conn", from, "room", roomID, "has_peer", hasPeer)

	if hasPeer {
		r.forward(from, OtherUser{Peer: peer}, metrics.EventPeerIntroduced)
	}
	return nil
}

// OnOffer forwards the session description to ev.Target. An empty Caller is
// replaced by the sender's handle.
func (r *Router) OnOffer(from Handle, ev Offer) error {
	if ev.Target == "" || ev.SDP.Empty() {
		return r.malformed(fmt.Errorf("%w: offer requires target and sdp", ErrMalformed))
	}
	if !r.state.Registry.Live(from) {
		return ErrNotRegistered
	}
	caller := ev.Caller
	if caller == "" {
		caller = from
	}
	r.forward(ev.Target, OfferForward{Caller: caller, SDP: ev.SDP}, metrics.EventOfferForwarded)
	return nil
}

// OnAnswer is the mirror of OnOffer.
func (r *Router) OnAnswer(from Handle, ev Answer) error {
	if ev.Target == "" || ev.SDP.Empty() {
		return r.malformed(fmt.Errorf("%w: answer requires target and sdp", ErrMalformed))
	}
	if !r.state.Registry.Live(from) {
		return ErrNotRegistered
	}
	caller := ev.Caller
	if caller == "" {
		caller = from
	}
	r.forward(ev.Target, AnswerForward{Caller: caller, SDP: ev.SDP}, metrics.EventAnswerForwarded)
	return nil
}

// OnIceCandidate forwards the candidate to ev.Target, stamped with the
// sender's own handle.
func (r *Router) OnIceCandidate(from Handle, ev IceCandidate) error {
	if ev.Target == "" || ev.Candidate.Empty() {
		return r.malformed(fmt.Errorf("%w: ice-candidate requires target and candidate", ErrMalformed))
	}
	if !r.state.Registry.Live(from) {
		return ErrNotRegistered
	}
	r.forward(ev.Target, CandidateForward{Candidate: ev.Candidate, From: from}, metrics.EventCandidateForward)
	return nil
}

func (r *Router) forward(to Handle, ev Outbound, event string) {
	if !r.state.Registry.Live(to) {
		r.metrics.Inc(metrics.DropReasonUnknownTarget)
		r.logger.Debug("relay: target not connected, dropping", "to", to, "event", event)
		return
	}
	if !r.sender.Send(to, ev) {
		r.metrics.Inc(metrics.DropReasonSendFailed)
		r.logger.Warn("relay: send failed, dropping", "to", to, "event", event)
		return
	}
	r.metrics.Inc(event)
}

func (r *Router) malformed(err error) error {
	r.metrics.Inc(metrics.EventMalformed)
	return err
}
