package ice

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServers_DefaultsToGoogleSTUN(t *testing.T) {
	mode, servers := Servers(Settings{}, quietLogger())
	if mode != ModeSTUNTURN {
		t.Fatalf("mode=%q, want %q", mode, ModeSTUNTURN)
	}
	if len(servers) != 1 || !reflect.DeepEqual(servers[0].URLs, []string{DefaultSTUN}) {
		t.Fatalf("servers=%+v", servers)
	}
	if HasTURN(servers) {
		t.Fatalf("default config reports TURN")
	}
}

func TestServers_STUNAndTURN(t *testing.T) {
	mode, servers := Servers(Settings{
		STUNURLs:     " stun:a:3478 , ,stun:b:3478",
		TURNURLs:     "turn:t:3478?transport=udp",
		TURNUsername: "user",
		TURNPassword: "pass",
	}, quietLogger())
	if mode != ModeSTUNTURN {
		t.Fatalf("mode=%q", mode)
	}
	if len(servers) != 2 {
		t.Fatalf("servers=%+v, want 2 entries", servers)
	}
	if !reflect.DeepEqual(servers[0].URLs, []string{"stun:a:3478", "stun:b:3478"}) {
		t.Fatalf("stun urls=%v", servers[0].URLs)
	}
	if servers[1].Username != "user" || servers[1].Credential != "pass" {
		t.Fatalf("turn server=%+v", servers[1])
	}
	if !HasTURN(servers) {
		t.Fatalf("HasTURN=false")
	}
}

func TestServers_TURNOnlyWithoutTURNFallsBack(t *testing.T) {
	mode, servers := Servers(Settings{Mode: "TURN-ONLY", STUNURLs: "stun:a:3478"}, quietLogger())
	if mode != ModeTURNOnly {
		t.Fatalf("mode=%q", mode)
	}
	if len(servers) != 1 || !reflect.DeepEqual(servers[0].URLs, []string{DefaultSTUN}) {
		t.Fatalf("servers=%+v, want default STUN fallback", servers)
	}
}

func TestServers_STUNOnlyIgnoresTURN(t *testing.T) {
	_, servers := Servers(Settings{Mode: ModeSTUNOnly, TURNURLs: "turn:t:3478"}, quietLogger())
	if HasTURN(servers) {
		t.Fatalf("stun-only advertised TURN: %+v", servers)
	}
}

func TestServers_UnknownModeUsesDefault(t *testing.T) {
	mode, _ := Servers(Settings{Mode: "relay-everything"}, quietLogger())
	if mode != ModeSTUNTURN {
		t.Fatalf("mode=%q, want %q", mode, ModeSTUNTURN)
	}
}

func TestSettingsFromEnv(t *testing.T) {
	env := map[string]string{
		"ICE_MODE":      " stun-only ",
		"STUN_URLS":     "stun:a:3478",
		"TURN_USERNAME": "u",
	}
	got := SettingsFromEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	want := Settings{Mode: "stun-only", STUNURLs: "stun:a:3478", TURNUsername: "u"}
	if got != want {
		t.Fatalf("SettingsFromEnv=%+v, want %+v", got, want)
	}
}
