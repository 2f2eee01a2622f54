package relay

import "testing"

func TestRegistry_RegisterAndUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register("h1")

	if !r.Live("h1") {
		t.Fatalf("expected h1 to be live")
	}
	if room, ok := r.CurrentRoom("h1"); ok {
		t.Fatalf("CurrentRoom=%q, want none for a fresh handle", room)
	}

	if !r.assign("h1", "abc") {
		t.Fatalf("assign on registered handle failed")
	}
	if room, ok := r.CurrentRoom("h1"); !ok || room != "abc" {
		t.Fatalf("CurrentRoom=%q,%v, want abc", room, ok)
	}

	r.Register("h1")
	if room, _ := r.CurrentRoom("h1"); room != "abc" {
		t.Fatalf("re-Register reset room to %q", room)
	}

	r.Unregister("h1")
	r.Unregister("h1")
	r.Unregister("never-seen")
	if r.Live("h1") {
		t.Fatalf("h1 still live after Unregister")
	}
	if r.Len() != 0 {
		t.Fatalf("Len=%d, want 0", r.Len())
	}
}

func TestRegistry_AssignUnknownHandle(t *testing.T) {
	r := NewRegistry()
	if r.assign("ghost", "abc") {
		t.Fatalf("assign on unknown handle succeeded")
	}
	if r.Live("ghost") {
		t.Fatalf("assign registered an unknown handle")
	}
}

func TestNewHandle_Unique(t *testing.T) {
	seen := make(map[Handle]bool)
	for i := 0; i < 1000; i++ {
		h := NewHandle()
		if h == "" {
			t.Fatalf("empty handle")
		}
		if seen[h] {
			t.Fatalf("duplicate handle %s", h)
		}
		seen[h] = true
	}
}
