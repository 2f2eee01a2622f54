package ice

import (
	"log/slog"
	"strings"

	"github.com/pion/webrtc/v4"
)

// ICE modes.
const (
	ModeSTUNTURN = "stun-turn"
	ModeTURNOnly = "turn-only"
	ModeSTUNOnly = "stun-only"
)

// DefaultSTUN is advertised when no STUN URLs are configured.
const DefaultSTUN = "stun:stun.l.google.com:19302"

// Settings is the raw ICE configuration, usually read from the environment.
type Settings struct {
	Mode         string
	STUNURLs     string
	TURNURLs     string
	TURNUsername string
	TURNPassword string
}

// SettingsFromEnv reads ICE settings through lookup.
//
// Env vars:
// - STUN_URLS: comma-separated STUN URLs
// - TURN_URLS: comma-separated TURN URLs
// - TURN_USERNAME / TURN_PASSWORD: TURN credentials (if required)
// - ICE_MODE: stun-turn (default), turn-only, stun-only
func SettingsFromEnv(lookup func(string) (string, bool)) Settings {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}
	return Settings{
		Mode:         get("ICE_MODE"),
		STUNURLs:     get("STUN_URLS"),
		TURNURLs:     get("TURN_URLS"),
		TURNUsername: get("TURN_USERNAME"),
		TURNPassword: get("TURN_PASSWORD"),
	}
}

// Servers resolves settings into the ICE server list advertised to clients.
func Servers(s Settings, logger *slog.Logger) (mode string, servers []webrtc.ICEServer) {
	if logger == nil {
		logger = slog.Default()
	}

	mode = strings.ToLower(strings.TrimSpace(s.Mode))
	switch mode {
	case "":
		mode = ModeSTUNTURN
	case ModeSTUNTURN, ModeTURNOnly, ModeSTUNOnly:
	default:
		logger.Warn("unknown ICE_MODE, using default", "ice_mode", s.Mode, "default", ModeSTUNTURN)
		mode = ModeSTUNTURN
	}

	defaultSTUN := []string{DefaultSTUN}
	turnOnly := mode == ModeTURNOnly
	stunOnly := mode == ModeSTUNOnly

	if !turnOnly {
		if s.STUNURLs != "" {
			stunURLs := splitAndClean(s.STUNURLs)
			if len(stunURLs) > 0 {
				servers = append(servers, webrtc.ICEServer{URLs: stunURLs})
			}
		} else {
			servers = append(servers, webrtc.ICEServer{URLs: defaultSTUN})
		}
	}

	if !stunOnly {
		if s.TURNURLs != "" {
			turnURLs := splitAndClean(s.TURNURLs)
			if len(turnURLs) > 0 {
				servers = append(servers, webrtc.ICEServer{
					URLs:       turnURLs,
					Username:   s.TURNUsername,
					Credential: s.TURNPassword,
				})
			}
		} else if !turnOnly {
			logger.Info("TURN not configured; set TURN_URLS and credentials for relay fallback")
		}
	}

	if turnOnly && len(servers) == 0 {
		logger.Warn("ICE_MODE=turn-only set but no TURN servers are configured; falling back to default STUN")
		servers = append(servers, webrtc.ICEServer{URLs: defaultSTUN})
	}

	logger.Debug("ICE servers loaded", "ice_mode", mode, "ice_servers", len(servers))
	return mode, servers
}

// HasTURN reports whether any server carries a TURN URL.
func HasTURN(servers []webrtc.ICEServer) bool {
	for _, server := range servers {
		for _, raw := range server.URLs {
			url := strings.ToLower(strings.TrimSpace(raw))
			if strings.HasPrefix(url, "turn:") || strings.HasPrefix(url, "turns:") {
				return true
			}
		}
	}
	return false
}

func splitAndClean(csv string) []string {
	parts := strings.Split(csv, ",")
	var out []string
	for _, p := range parts {
		v := strings.TrimSpace(p)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
