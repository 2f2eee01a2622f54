package signaling

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"golang.org/x/time/rate"

	"webrtc-signal-relay/internal/metrics"
	"webrtc-signal-relay/internal/origin"
	"webrtc-signal-relay/pkg/relay"
	"webrtc-signal-relay/pkg/webrtc/protocol"
)

const (
	defaultReadLimit    = 64 * 1024
	defaultSendBuffer   = 64
	defaultPingInterval = 40 * time.Second
	defaultPongWait     = 60 * time.Second
	writeTimeout        = 10 * time.Second
	upgradeReadBuffer   = 1024
	upgradeWriteBuffer  = 1024
)

// ErrHubClosed is returned by Accept after Close.
var ErrHubClosed = errors.New("signaling hub closed")

// HubOptions configures a Hub instance.
type HubOptions struct {
	ICEServers []webrtc.ICEServer
	ICEMode    string
	Logger     *slog.Logger
	// AllowedOrigins restricts browser Origin headers accepted by the default
	// upgrader. Empty allows every origin.
	AllowedOrigins []string
	Upgrader       *websocket.Upgrader
	Metrics        *metrics.Metrics
	// Observer is told about membership changes (e.g. a presence mirror).
	Observer relay.Observer

	ReadLimit    int64
	SendBuffer   int
	PingInterval time.Duration
	PongWait     time.Duration
	// MessagesPerSecond limits inbound frames per connection. Zero disables
	// the limit.
	MessagesPerSecond float64
	MessageBurst      int
}

// ConnOptions controls how a connection is registered.
type ConnOptions struct {
	// Context lets the caller cancel the connection (defaults to Background).
	Context context.Context
	// Codec selects the outbound frame encoding.
	Codec protocol.Codec
}

// Hub is the WebSocket boundary of the relay. It assigns each connection a
// relay.Handle, feeds decoded frames to the Router and writes the Router's
// outbound events back to the addressed connection only.
type Hub struct {
	mu      sync.RWMutex
	clients map[relay.Handle]*client
	closed  bool
	// conns counts read pumps that have not finished unregistering.
	conns sync.WaitGroup

	state     *relay.State
	router    *relay.Router
	lifecycle *relay.Lifecycle

	iceServers []webrtc.ICEServer
	iceMode    string
	upgrader   websocket.Upgrader
	logger     *slog.Logger
	metrics    *metrics.Metrics

	readLimit    int64
	sendBuffer   int
	pingInterval time.Duration
	pongWait     time.Duration
	msgRate      float64
	msgBurst     int
}

type client struct {
	id      relay.Handle
	conn    *websocket.Conn
	codec   protocol.Codec
	limiter *rate.Limiter
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

// NewHub builds a signaling Hub on top of the shared relay state.
func NewHub(state *relay.State, opts HubOptions) *Hub {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  upgradeReadBuffer,
		WriteBufferSize: upgradeWriteBuffer,
		CheckOrigin: func(r *http.Request) bool {
			return origin.Allowed(r.Header.Get("Origin"), opts.AllowedOrigins)
		},
	}
	if opts.Upgrader != nil {
		upgrader = *opts.Upgrader
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = defaultReadLimit
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}
	if opts.PongWait <= 0 {
		opts.PongWait = defaultPongWait
	}
	if opts.MessageBurst <= 0 {
		opts.MessageBurst = int(opts.MessagesPerSecond) + 1
	}

	h := &Hub{
		clients:      make(map[relay.Handle]*client),
		state:        state,
		iceServers:   opts.ICEServers,
		iceMode:      opts.ICEMode,
		upgrader:     upgrader,
		logger:       logger,
		metrics:      opts.Metrics,
		readLimit:    opts.ReadLimit,
		sendBuffer:   opts.SendBuffer,
		pingInterval: opts.PingInterval,
		pongWait:     opts.PongWait,
		msgRate:      opts.MessagesPerSecond,
		msgBurst:     opts.MessageBurst,
	}
	relayOpts := relay.Options{Logger: logger, Metrics: opts.Metrics, Observer: opts.Observer}
	h.router = relay.NewRouter(state, h, relayOpts)
	h.lifecycle = relay.NewLifecycle(state, relayOpts)
	return h
}

// HTTPHandler upgrades HTTP connections and registers them with the Hub.
// The optional codec query parameter selects json (default) or msgpack.
func (h *Hub) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		codec, err := protocol.ParseCodec(r.URL.Query().Get("codec"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if h.isClosed() {
			http.Error(w, "signaling hub closed", http.StatusServiceUnavailable)
			return
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("ws: upgrade error", "err", err)
			return
		}
		// Use a background context so the connection isn't canceled when the HTTP handler returns.
		if _, err := h.Accept(conn, ConnOptions{Codec: codec}); err != nil {
			h.logger.Warn("ws: accept error", "err", err)
			conn.Close()
		}
	})
}

// Accept registers an already-upgraded WebSocket connection (useful when
// auth/guards are handled elsewhere) and returns its handle.
func (h *Hub) Accept(conn *websocket.Conn, opts ConnOptions) (relay.Handle, error) {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	c := &client{
		id:     relay.NewHandle(),
		conn:   conn,
		codec:  opts.Codec,
		send:   make(chan []byte, h.sendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
	if h.msgRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(h.msgRate), h.msgBurst)
	}

	if err := h.register(c); err != nil {
		cancel()
		return "", err
	}

	go c.writePump(h)
	go c.readPump(h)
	return c.id, nil
}

// Send implements relay.Sender. It never blocks: a full or closed queue
// drops the event.
func (h *Hub) Send(to relay.Handle, ev relay.Outbound) bool {
	h.mu.RLock()
	target := h.clients[to]
	h.mu.RUnlock()
	if target == nil {
		return false
	}

	msg, err := protocol.FromOutbound(ev)
	if err != nil {
		h.logger.Error("ws: cannot encode outbound event", "to", to, "err", err)
		return false
	}
	return h.sendTo(target, msg)
}

// Close disconnects every client and rejects new connections. It returns once
// every connection has been unregistered from the relay.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.cancel()
	}
	h.conns.Wait()
}

func (h *Hub) isClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

func (h *Hub) register(c *client) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	h.clients[c.id] = c
	h.conns.Add(1)
	h.mu.Unlock()

	h.lifecycle.Connect(c.id)
	h.logger.Info("ws: registered", "conn", c.id, "codec", c.codec, "conns", h.state.ActiveConnections())

	h.sendTo(c, protocol.OutboundMessage{
		Type:       protocol.TypeWelcome,
		ID:         c.id.String(),
		ICEServers: h.iceServers,
		ICEMode:    h.iceMode,
	})
	return nil
}

func (h *Hub) unregister(c *client) {
	h.lifecycle.Disconnect(c.id)

	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()

	c.closeSend()
	h.logger.Info("ws: unregistered", "conn", c.id, "conns", h.state.ActiveConnections(), "rooms", h.state.ActiveRooms())
}

func (h *Hub) handleInbound(c *client, msg protocol.InboundMessage) {
	h.logger.Debug("ws: inbound", "type", msg.Type, "from", c.id, "target", msg.Target, "room", msg.RoomID)

	ev, err := msg.Event()
	if err == nil {
		err = h.router.Handle(c.id, ev)
	} else {
		h.metrics.Inc(metrics.EventMalformed)
	}
	if err == nil {
		return
	}

	h.logger.Info("ws: inbound event rejected", "type", msg.Type, "from", c.id, "err", err)
	h.sendTo(c, protocol.ErrorMessage(err))
}

func (h *Hub) sendTo(c *client, msg protocol.OutboundMessage) bool {
	data, err := c.codec.Encode(msg)
	if err != nil {
		h.logger.Error("ws: marshal outbound", "type", msg.Type, "to", c.id, "err", err)
		return false
	}
	if !c.enqueue(data) {
		h.metrics.Inc(metrics.DropReasonQueueFull)
		h.logger.Warn("ws: client send buffer full, dropping message", "to", c.id, "type", msg.Type)
		return false
	}
	return true
}

func (c *client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		c.cancel()
		h.conns.Done()
	}()

	c.conn.SetReadLimit(h.readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(h.pongWait))
		return nil
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return
			}
			if !errors.Is(err, websocket.ErrCloseSent) && c.ctx.Err() == nil {
				h.logger.Debug("ws: read error", "conn", c.id, "err", err)
			}
			return
		}

		if c.limiter != nil && !c.limiter.Allow() {
			h.metrics.Inc(metrics.DropReasonRateLimited)
			h.logger.Warn("ws: rate limit exceeded, closing", "conn", c.id)
			c.writeClose(websocket.ClosePolicyViolation, "rate limit exceeded")
			return
		}

		codec := protocol.CodecJSON
		if msgType == websocket.BinaryMessage {
			codec = protocol.CodecMsgpack
		}
		msg, err := codec.Decode(data)
		if err != nil {
			h.metrics.Inc(metrics.EventMalformed)
			h.logger.Info("ws: bad payload", "conn", c.id, "err", err)
			h.sendTo(c, protocol.ErrorMessage(err))
			continue
		}
		h.handleInbound(c, msg)
	}
}

func (c *client) writePump(h *Hub) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	frameType := websocket.TextMessage
	if c.codec == protocol.CodecMsgpack {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case <-c.ctx.Done():
			c.writeClose(websocket.CloseGoingAway, "server shutting down")
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(frameType, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) writeClose(code int, text string) {
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
}
