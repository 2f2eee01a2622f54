package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"webrtc-signal-relay/internal/app/config"
)

var flags config.Options

// rootCmd runs the relay when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "signal-relay",
	Short: "WebRTC signaling relay",
	Long: `signal-relay brokers WebRTC connection setup between peers in named rooms.

It forwards room membership, session descriptions and ICE candidates over
WebSockets to exactly the addressed peer and never touches media.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), flags)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.Addr, "addr", "a", "", "HTTP listen address (env ADDR, default "+config.DefaultAddr+")")
	pf.StringVar(&flags.RedisAddr, "redis-addr", "", "Redis address for the presence mirror; empty disables it (env REDIS_ADDR)")
	pf.StringVar(&flags.RedisPrefix, "redis-prefix", "", "Redis key prefix (env REDIS_PREFIX, default "+config.DefaultRedisPrefix+")")
	pf.StringVar(&flags.StaticDir, "static-dir", "", "Serve a single-page app from this directory (env STATIC_DIR)")
	pf.StringVar(&flags.PublicWSURL, "public-ws-url", "", "WebSocket URL advertised by /api/settings (env PUBLIC_WS_URL)")
	pf.StringSliceVar(&flags.AllowedOrigins, "allowed-origin", nil, "Allowed WebSocket Origin, repeatable; empty allows all (env ALLOWED_ORIGINS)")
	pf.IntVar(&flags.MaxRoomMembers, "max-room-members", 0, "Room capacity, 0 = unbounded (env MAX_ROOM_MEMBERS)")
	pf.Float64Var(&flags.MaxMessagesPerSecond, "max-messages-per-second", 0, "Inbound frames per connection per second (env MAX_MESSAGES_PER_SECOND)")
	pf.IntVar(&flags.MessageBurst, "message-burst", 0, "Inbound rate limiter burst (env MESSAGE_BURST)")
	pf.Int64Var(&flags.MaxMessageBytes, "max-message-bytes", 0, "Max inbound frame size in bytes (env MAX_MESSAGE_BYTES)")
	pf.StringVar(&flags.LogLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	pf.StringVar(&flags.LogFormat, "log-format", "", "text or json (env LOG_FORMAT)")
	pf.DurationVar(&flags.ShutdownTimeout, "shutdown-timeout", 0, "Graceful shutdown timeout (env SHUTDOWN_TIMEOUT)")
	pf.StringVar(&flags.ICEMode, "ice-mode", "", "stun-turn, turn-only or stun-only (env ICE_MODE)")
	pf.StringVarP(&flags.STUNURLs, "stun", "s", "", "Comma-separated STUN URLs (env STUN_URLS)")
	pf.StringVarP(&flags.TURNURLs, "turn", "t", "", "Comma-separated TURN URLs (env TURN_URLS)")
	pf.StringVarP(&flags.TURNUsername, "turn-user", "u", "", "TURN username (env TURN_USERNAME)")
	pf.StringVarP(&flags.TURNPassword, "turn-pass", "p", "", "TURN password (env TURN_PASSWORD)")
}
