package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"webrtc-signal-relay/internal/app/config"
	"webrtc-signal-relay/internal/app/httpapi"
	"webrtc-signal-relay/internal/metrics"
	"webrtc-signal-relay/pkg/presence"
	"webrtc-signal-relay/pkg/relay"
	"webrtc-signal-relay/pkg/webrtc/ice"
	"webrtc-signal-relay/pkg/webrtc/signaling"
)

const redisPingTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signaling relay (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), flags)
	},
}

func runServe(parent context.Context, opts config.Options) error {
	config.LoadEnvFiles(slog.Default(), ".env", filepath.Join("backend", ".env"), "../.env")

	cfg, err := config.Load(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	iceMode, iceServers := ice.Servers(cfg.ICE, logger)
	logger.Info("starting signal-relay",
		"addr", cfg.Addr,
		"static_dir", cfg.StaticDir,
		"redis_addr", cfg.RedisAddr,
		"ice_mode", iceMode,
		"ice_servers", len(iceServers),
		"turn_configured", ice.HasTURN(iceServers),
		"max_room_members", cfg.MaxRoomMembers,
		"max_messages_per_second", cfg.MaxMessagesPerSecond,
		"allowed_origins", cfg.AllowedOrigins,
	)

	m := metrics.New()
	state := relay.NewState(relay.StateOptions{MaxRoomMembers: cfg.MaxRoomMembers})

	var observer relay.Observer
	var mirror *presence.Mirror
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(parent, redisPingTimeout)
		err := rdb.Ping(pingCtx).Err()
		if err == nil {
			store := presence.NewRedisStore(rdb, cfg.RedisPrefix)
			if err := store.Reset(pingCtx); err != nil {
				logger.Warn("redis reset presence", "err", err)
			}
			mirror = presence.NewMirror(store, presence.MirrorOptions{Logger: logger, Metrics: m})
			observer = mirror
		}
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
	}

	hub := signaling.NewHub(state, signaling.HubOptions{
		ICEServers:        iceServers,
		ICEMode:           iceMode,
		Logger:            logger,
		Metrics:           m,
		Observer:          observer,
		AllowedOrigins:    cfg.AllowedOrigins,
		ReadLimit:         cfg.MaxMessageBytes,
		MessagesPerSecond: cfg.MaxMessagesPerSecond,
		MessageBurst:      cfg.MessageBurst,
	})

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.PrometheusHandler(m, state))
	httpapi.Routes(mux, hub.HTTPHandler(), state.Rooms, httpapi.Settings{
		ICEMode:        iceMode,
		ICEServers:     iceServers,
		PublicWSURL:    cfg.PublicWSURL,
		MaxRoomMembers: state.Rooms.MaxMembers(),
	}, cfg.StaticDir, logger)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("listening", "addr", ln.Addr().String())

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The hub must finish unregistering before the mirror stops.
	shutdown := func() {
		hub.Close()
		if mirror != nil {
			mirror.Close()
		}
	}

	select {
	case err := <-errCh:
		shutdown()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server exited: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown, so the hub
	// closes them itself.
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "err", err)
	}
	shutdown()

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server exited after shutdown: %w", err)
	}
	logger.Info("shutdown complete", "events", m.Snapshot())
	return nil
}
