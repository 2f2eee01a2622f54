package presence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"webrtc-signal-relay/internal/metrics"
	"webrtc-signal-relay/pkg/relay"
)

const (
	defaultQueueSize = 1024
	defaultTimeout   = 2 * time.Second
)

// MirrorOptions configures a Mirror.
type MirrorOptions struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	QueueSize int
	// Timeout bounds each store call.
	Timeout time.Duration
}

type opKind int

const (
	opJoin opKind = iota
	opLeave
)

type op struct {
	kind opKind
	room string
	id   string
}

// Mirror implements relay.Observer by replaying membership changes into a
// Store from a single background goroutine. Callers never wait on the store;
// when the queue is full the change is dropped and counted.
type Mirror struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	ops    chan op
	done   chan struct{}
}

var _ relay.Observer = (*Mirror)(nil)

func NewMirror(store Store, opts MirrorOptions) *Mirror {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	m := &Mirror{
		store:   store,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		timeout: opts.Timeout,
		ops:     make(chan op, opts.QueueSize),
		done:    make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *Mirror) Joined(roomID string, h relay.Handle) {
	m.enqueue(op{kind: opJoin, room: roomID, id: h.String()})
}

func (m *Mirror) Left(roomID string, h relay.Handle) {
	m.enqueue(op{kind: opLeave, room: roomID, id: h.String()})
}

// Close stops accepting changes and waits for queued ones to be written.
func (m *Mirror) Close() {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.ops)
	}
	m.mu.Unlock()
	<-m.done
}

func (m *Mirror) enqueue(o op) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	select {
	case m.ops <- o:
	default:
		m.metrics.Inc(metrics.EventPresenceDropped)
		m.logger.Warn("presence: queue full, dropping update", "room", o.room, "conn", o.id)
	}
}

func (m *Mirror) run() {
	defer close(m.done)
	for o := range m.ops {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		var err error
		switch o.kind {
		case opJoin:
			err = m.store.AddMember(ctx, o.room, o.id)
		case opLeave:
			err = m.store.RemoveMember(ctx, o.room, o.id)
		}
		cancel()
		if err != nil {
			m.metrics.Inc(metrics.EventPresenceError)
			m.logger.Warn("presence: store update failed", "room", o.room, "conn", o.id, "err", err)
		}
	}
}
