package metrics

import "sync"

// Event names counted by the relay and its transport.
const (
	EventConnect          = "connect"
	EventDisconnect       = "disconnect"
	EventJoin             = "join"
	EventJoinDuplicate    = "join_duplicate"
	EventRoomSwitch       = "room_switch"
	EventPeerIntroduced   = "peer_introduced"
	EventOfferForwarded   = "offer_forwarded"
	EventAnswerForwarded  = "answer_forwarded"
	EventCandidateForward = "candidate_forwarded"
	EventMalformed        = "malformed"
	EventPresenceError    = "presence_error"
	EventPresenceDropped  = "presence_dropped"
)

// Drop reasons.
const (
	DropReasonUnknownTarget = "drop_unknown_target"
	DropReasonSendFailed    = "drop_send_failed"
	DropReasonQueueFull     = "drop_queue_full"
	DropReasonRoomFull      = "drop_room_full"
	DropReasonRateLimited   = "drop_rate_limited"
)

// Metrics is a small concurrency-safe counter registry. A nil *Metrics is
// valid and discards every update.
type Metrics struct {
	mu sync.Mutex
	m  map[string]uint64
}

func New() *Metrics {
	return &Metrics{
		m: make(map[string]uint64),
	}
}

func (m *Metrics) Inc(name string) {
	m.Add(name, 1)
}

func (m *Metrics) Add(name string, n uint64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.m[name] += n
	m.mu.Unlock()
}

func (m *Metrics) Get(name string) uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.m[name]
}

// Snapshot returns a copy of every counter.
func (m *Metrics) Snapshot() map[string]uint64 {
	if m == nil {
		return map[string]uint64{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uint64, len(m.m))
	for k, v := range m.m {
		out[k] = v
	}
	return out
}
