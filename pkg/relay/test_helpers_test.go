package relay

import (
	"sync"
	"testing"
)

type sent struct {
	to Handle
	ev Outbound
}

type recordingSender struct {
	mu     sync.Mutex
	events []sent
	reject bool
}

func (s *recordingSender) Send(to Handle, ev Outbound) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject {
		return false
	}
	s.events = append(s.events, sent{to: to, ev: ev})
	return true
}

func (s *recordingSender) all() []sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSender) to(h Handle) []Outbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Outbound
	for _, e := range s.events {
		if e.to == h {
			out = append(out, e.ev)
		}
	}
	return out
}

type recordingObserver struct {
	mu     sync.Mutex
	joined []string
	left   []string
}

func (o *recordingObserver) Joined(roomID string, h Handle) {
	o.mu.Lock()
	o.joined = append(o.joined, roomID+"/"+string(h))
	o.mu.Unlock()
}

func (o *recordingObserver) Left(roomID string, h Handle) {
	o.mu.Lock()
	o.left = append(o.left, roomID+"/"+string(h))
	o.mu.Unlock()
}

type fixture struct {
	state     *State
	sender    *recordingSender
	router    *Router
	lifecycle *Lifecycle
}

func newFixture(t *testing.T, opts StateOptions) *fixture {
	t.Helper()
	state := NewState(opts)
	sender := &recordingSender{}
	return &fixture{
		state:     state,
		sender:    sender,
		router:    NewRouter(state, sender, Options{}),
		lifecycle: NewLifecycle(state, Options{}),
	}
}

func (f *fixture) connect(ids ...Handle) {
	for _, id := range ids {
		f.lifecycle.Connect(id)
	}
}

func equalHandles(a, b []Handle) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func payload(s string) Payload {
	return Payload{Data: []byte(s), Encoding: "json"}
}
