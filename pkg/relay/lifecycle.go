package relay

import (
	"log/slog"

	"webrtc-signal-relay/internal/metrics"
)

// Lifecycle registers connections and is the only place they are cleaned up.
type Lifecycle struct {
	state    *State
	logger   *slog.Logger
	metrics  *metrics.Metrics
	observer Observer
}

func NewLifecycle(state *State, opts Options) *Lifecycle {
	opts = opts.withDefaults()
	return &Lifecycle{
		state:    state,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		observer: opts.Observer,
	}
}

// Connect registers h.
func (l *Lifecycle) Connect(h Handle) {
	l.state.Registry.Register(h)
	l.metrics.Inc(metrics.EventConnect)
}

// Disconnect removes h from the registry and from its room. The remaining
// peer is not notified. Calling it more than once is harmless; only the first
// call has an effect.
func (l *Lifecycle) Disconnect(h Handle) {
	room, ok := l.state.Registry.remove(h)
	if !ok {
		return
	}
	if room != "" {
		l.state.Rooms.Leave(room, h)
		l.observer.Left(room, h)
	}
	l.metrics.Inc(metrics.EventDisconnect)
	l.logger.Debug("relay: connection cleaned up", "conn", h, "room", room)
}
