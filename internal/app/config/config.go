package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"webrtc-signal-relay/internal/origin"
	"webrtc-signal-relay/pkg/webrtc/ice"
)

// Default configuration values.
const (
	DefaultAddr                 = ":8080"
	DefaultRedisPrefix          = "signal-relay"
	DefaultMaxMessagesPerSecond = 50
	DefaultMessageBurst         = 100
	DefaultMaxMessageBytes      = 64 * 1024
	DefaultShutdownTimeout      = 10 * time.Second
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Env var names.
const (
	envAddr                 = "ADDR"
	envPort                 = "PORT"
	envAllowedOrigins       = "ALLOWED_ORIGINS"
	envRedisAddr            = "REDIS_ADDR"
	envRedisPrefix          = "REDIS_PREFIX"
	envStaticDir            = "STATIC_DIR"
	envPublicWSURL          = "PUBLIC_WS_URL"
	envMaxRoomMembers       = "MAX_ROOM_MEMBERS"
	envMaxMessagesPerSecond = "MAX_MESSAGES_PER_SECOND"
	envMessageBurst         = "MESSAGE_BURST"
	envMaxMessageBytes      = "MAX_MESSAGE_BYTES"
	envLogLevel             = "LOG_LEVEL"
	envLogFormat            = "LOG_FORMAT"
	envShutdownTimeout      = "SHUTDOWN_TIMEOUT"
)

// Config holds the relay's process configuration.
type Config struct {
	Addr string
	// RedisAddr enables the presence mirror when set.
	RedisAddr   string
	RedisPrefix string
	// StaticDir enables SPA file serving when set.
	StaticDir   string
	PublicWSURL string
	// AllowedOrigins restricts WebSocket Origin headers; empty allows all.
	AllowedOrigins []string

	// MaxRoomMembers caps room size; 0 means unbounded.
	MaxRoomMembers       int
	MaxMessagesPerSecond float64
	MessageBurst         int
	MaxMessageBytes      int64

	LogLevel        slog.Level
	LogFormat       LogFormat
	ShutdownTimeout time.Duration

	ICE ice.Settings
}

// Options carries CLI flag overrides. Zero values mean "not set".
type Options struct {
	Addr        string
	RedisAddr   string
	RedisPrefix string
	StaticDir   string
	PublicWSURL string
	// AllowedOrigins replaces ALLOWED_ORIGINS when non-empty.
	AllowedOrigins []string

	MaxRoomMembers       int
	MaxMessagesPerSecond float64
	MessageBurst         int
	MaxMessageBytes      int64

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	ICEMode      string
	STUNURLs     string
	TURNURLs     string
	TURNUsername string
	TURNPassword string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options)
// 2. Environment variables
// 3. Defaults
func Load(opts Options) (Config, error) {
	return load(os.LookupEnv, opts)
}

func load(lookup func(string) (string, bool), opts Options) (Config, error) {
	defaultAddr := DefaultAddr
	if port := envOrDefault(lookup, envPort, ""); port != "" {
		defaultAddr = ":" + port
	}
	cfg := Config{
		Addr:        firstNonEmpty(opts.Addr, envOrDefault(lookup, envAddr, defaultAddr)),
		RedisAddr:   firstNonEmpty(opts.RedisAddr, envOrDefault(lookup, envRedisAddr, "")),
		RedisPrefix: firstNonEmpty(opts.RedisPrefix, envOrDefault(lookup, envRedisPrefix, DefaultRedisPrefix)),
		StaticDir:   firstNonEmpty(opts.StaticDir, envOrDefault(lookup, envStaticDir, "")),
		PublicWSURL: firstNonEmpty(opts.PublicWSURL, envOrDefault(lookup, envPublicWSURL, "")),
	}

	var err error
	if cfg.AllowedOrigins, err = origin.ParseList(envOrDefault(lookup, envAllowedOrigins, "")); err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", envAllowedOrigins, err)
	}
	if len(opts.AllowedOrigins) > 0 {
		if cfg.AllowedOrigins, err = origin.ParseList(strings.Join(opts.AllowedOrigins, ",")); err != nil {
			return Config{}, fmt.Errorf("invalid --allowed-origin: %w", err)
		}
	}

	if cfg.MaxRoomMembers, err = envIntOrDefault(lookup, envMaxRoomMembers, 0); err != nil {
		return Config{}, err
	}
	if opts.MaxRoomMembers != 0 {
		cfg.MaxRoomMembers = opts.MaxRoomMembers
	}
	if cfg.MaxRoomMembers < 0 {
		return Config{}, fmt.Errorf("%s must be >= 0 (0 = unbounded)", envMaxRoomMembers)
	}

	if cfg.MaxMessagesPerSecond, err = envFloatOrDefault(lookup, envMaxMessagesPerSecond, DefaultMaxMessagesPerSecond); err != nil {
		return Config{}, err
	}
	if opts.MaxMessagesPerSecond != 0 {
		cfg.MaxMessagesPerSecond = opts.MaxMessagesPerSecond
	}
	if cfg.MaxMessagesPerSecond < 0 {
		return Config{}, fmt.Errorf("%s must be >= 0 (0 = unlimited)", envMaxMessagesPerSecond)
	}

	if cfg.MessageBurst, err = envIntOrDefault(lookup, envMessageBurst, DefaultMessageBurst); err != nil {
		return Config{}, err
	}
	if opts.MessageBurst != 0 {
		cfg.MessageBurst = opts.MessageBurst
	}
	if cfg.MessageBurst <= 0 {
		return Config{}, fmt.Errorf("%s must be > 0", envMessageBurst)
	}

	maxBytes, err := envIntOrDefault(lookup, envMaxMessageBytes, DefaultMaxMessageBytes)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxMessageBytes = int64(maxBytes)
	if opts.MaxMessageBytes != 0 {
		cfg.MaxMessageBytes = opts.MaxMessageBytes
	}
	if cfg.MaxMessageBytes <= 0 {
		return Config{}, fmt.Errorf("%s must be > 0", envMaxMessageBytes)
	}

	if cfg.LogLevel, err = parseLogLevel(firstNonEmpty(opts.LogLevel, envOrDefault(lookup, envLogLevel, "info"))); err != nil {
		return Config{}, err
	}
	if cfg.LogFormat, err = parseLogFormat(firstNonEmpty(opts.LogFormat, envOrDefault(lookup, envLogFormat, string(LogFormatText)))); err != nil {
		return Config{}, err
	}

	cfg.ShutdownTimeout = DefaultShutdownTimeout
	if raw := envOrDefault(lookup, envShutdownTimeout, ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", envShutdownTimeout, raw, err)
		}
		cfg.ShutdownTimeout = d
	}
	if opts.ShutdownTimeout != 0 {
		cfg.ShutdownTimeout = opts.ShutdownTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("%s must be > 0", envShutdownTimeout)
	}

	cfg.ICE = ice.SettingsFromEnv(lookup)
	cfg.ICE.Mode = firstNonEmpty(opts.ICEMode, cfg.ICE.Mode)
	cfg.ICE.STUNURLs = firstNonEmpty(opts.STUNURLs, cfg.ICE.STUNURLs)
	cfg.ICE.TURNURLs = firstNonEmpty(opts.TURNURLs, cfg.ICE.TURNURLs)
	cfg.ICE.TURNUsername = firstNonEmpty(opts.TURNUsername, cfg.ICE.TURNUsername)
	cfg.ICE.TURNPassword = firstNonEmpty(opts.TURNPassword, cfg.ICE.TURNPassword)

	return cfg, nil
}

// NewLogger builds the process logger described by cfg.
func NewLogger(cfg Config) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	switch cfg.LogFormat {
	case LogFormatText:
		handler = slog.NewTextHandler(os.Stdout, opts)
	case LogFormatJSON:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}

	return slog.New(handler), nil
}

// LoadEnvFiles applies each existing dotenv file to the process environment.
// Variables that are already set win. Missing files are skipped.
func LoadEnvFiles(logger *slog.Logger, paths ...string) {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("env load warning", "path", p, "err", err)
		}
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func envOrDefault(lookup func(string) (string, bool), key, fallback string) string {
	if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func envIntOrDefault(lookup func(string) (string, bool), key string, fallback int) (int, error) {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func envFloatOrDefault(lookup func(string) (string, bool), key string, fallback float64) (float64, error) {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return f, nil
}

func parseLogFormat(raw string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(LogFormatText):
		return LogFormatText, nil
	case string(LogFormatJSON):
		return LogFormatJSON, nil
	default:
		return "", fmt.Errorf("invalid log format %q (expected text or json)", raw)
	}
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (expected debug, info, warn, error)", raw)
	}
}
