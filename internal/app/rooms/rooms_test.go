package rooms

import (
	"errors"
	"testing"

	"webrtc-signal-relay/pkg/relay"
)

type fakeDirectory map[string][]relay.Handle

func (d fakeDirectory) Members(roomID string) []relay.Handle {
	return d[roomID]
}

type fullDirectory struct{}

func (fullDirectory) Members(string) []relay.Handle {
	return []relay.Handle{"someone"}
}

func TestSuggest_ReturnsURLSafeCode(t *testing.T) {
	code, err := Suggest(fakeDirectory{})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(code) != 8 {
		t.Fatalf("code %q has length %d, want 8", code, len(code))
	}
	for _, r := range code {
		ok := r == '-' || r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !ok {
			t.Fatalf("code %q contains %q", code, r)
		}
	}
}

func TestSuggest_GivesUpWhenEveryCodeIsTaken(t *testing.T) {
	if _, err := Suggest(fullDirectory{}); !errors.Is(err, ErrNoFreeCode) {
		t.Fatalf("err=%v, want ErrNoFreeCode", err)
	}
}

func TestLookup(t *testing.T) {
	dir := fakeDirectory{"abc": {"h1", "h2"}}

	room := Lookup(dir, "abc")
	if room.Code != "abc" || len(room.Members) != 2 || room.Members[0] != "h1" {
		t.Fatalf("room=%+v", room)
	}

	// " abc " is a different room id from "abc".
	padded := Lookup(dir, " abc ")
	if padded.Code != " abc " || len(padded.Members) != 0 {
		t.Fatalf("padded room=%+v", padded)
	}

	empty := Lookup(dir, "nope")
	if empty.Members == nil || len(empty.Members) != 0 {
		t.Fatalf("empty room members=%#v, want empty non-nil slice", empty.Members)
	}
}
