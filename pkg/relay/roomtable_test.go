package relay

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
)

func TestRoomTable_JoinEmptyRoomReturnsNone(t *testing.T) {
	rt := NewRoomTable(0)
	peer, ok, err := rt.Join("abc", "h1")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if ok || peer != "" {
		t.Fatalf("Join on empty room returned peer=%q ok=%v, want none", peer, ok)
	}
	if got := rt.Members("abc"); !equalHandles(got, []Handle{"h1"}) {
		t.Fatalf("Members=%v, want [h1]", got)
	}
}

func TestRoomTable_JoinReturnsEarliestPresentMember(t *testing.T) {
	rt := NewRoomTable(0)
	for _, h := range []Handle{"h1", "h2", "h3"} {
		if _, _, err := rt.Join("abc", h); err != nil {
			t.Fatalf("Join(%s): %v", h, err)
		}
	}

	peer, ok, _ := rt.Join("abc", "h4")
	if !ok || peer != "h1" {
		t.Fatalf("Join(h4) peer=%q ok=%v, want h1", peer, ok)
	}

	rt.Leave("abc", "h1")
	peer, ok, _ = rt.Join("abc", "h5")
	if !ok || peer != "h2" {
		t.Fatalf("Join(h5) after h1 left peer=%q ok=%v, want h2", peer, ok)
	}
}

func TestRoomTable_DuplicateJoinIsNoop(t *testing.T) {
	rt := NewRoomTable(0)
	rt.Join("abc", "h1")
	rt.Join("abc", "h2")

	peer, ok, err := rt.Join("abc", "h2")
	if err != nil || ok || peer != "" {
		t.Fatalf("duplicate Join peer=%q ok=%v err=%v, want none", peer, ok, err)
	}
	if got := rt.Members("abc"); !equalHandles(got, []Handle{"h1", "h2"}) {
		t.Fatalf("Members=%v, want [h1 h2]", got)
	}
}

func TestRoomTable_LeaveDeletesEmptyRoom(t *testing.T) {
	rt := NewRoomTable(0)
	rt.Join("abc", "h1")
	rt.Leave("abc", "h1")
	rt.Leave("abc", "h1")
	rt.Leave("missing", "h1")

	if got := rt.Rooms(); got != 0 {
		t.Fatalf("Rooms=%d, want 0", got)
	}
	if got := rt.Members("abc"); len(got) != 0 {
		t.Fatalf("Members=%v, want empty", got)
	}

	peer, ok, _ := rt.Join("abc", "h2")
	if ok {
		t.Fatalf("Join after room emptied returned peer %q", peer)
	}
}

func TestRoomTable_CapacityCap(t *testing.T) {
	rt := NewRoomTable(2)
	rt.Join("abc", "h1")
	rt.Join("abc", "h2")

	if _, _, err := rt.Join("abc", "h3"); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("Join over cap err=%v, want %v", err, ErrRoomFull)
	}
	if _, _, err := rt.Join("abc", "h2"); err != nil {
		t.Fatalf("duplicate Join on a full room err=%v, want nil", err)
	}

	rt.Leave("abc", "h1")
	if _, _, err := rt.Join("abc", "h3"); err != nil {
		t.Fatalf("Join after a slot freed: %v", err)
	}
}

func TestRoomTable_MembersIsSnapshot(t *testing.T) {
	rt := NewRoomTable(0)
	rt.Join("abc", "h1")
	got := rt.Members("abc")
	got[0] = "mutated"
	if m := rt.Members("abc"); m[0] != "h1" {
		t.Fatalf("Members aliases internal slice: %v", m)
	}
}

// Membership always equals the handles that joined more recently than they
// last left, in join order.
func TestRoomTable_RandomSequencesMatchModel(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	handles := []Handle{"a", "b", "c", "d", "e"}

	for round := 0; round < 200; round++ {
		rt := NewRoomTable(0)
		var model []Handle

		for step := 0; step < 30; step++ {
			h := handles[rng.Intn(len(handles))]
			idx := indexOf(model, h)
			if rng.Intn(2) == 0 {
				peer, ok, err := rt.Join("r", h)
				if err != nil {
					t.Fatalf("round %d: Join: %v", round, err)
				}
				if idx >= 0 {
					if ok {
						t.Fatalf("round %d: duplicate Join(%s) returned %q", round, h, peer)
					}
				} else {
					if len(model) == 0 && ok {
						t.Fatalf("round %d: Join(%s) into empty room returned %q", round, h, peer)
					}
					if len(model) > 0 && (!ok || peer != model[0]) {
						t.Fatalf("round %d: Join(%s) peer=%q ok=%v, want %q", round, h, peer, ok, model[0])
					}
					model = append(model, h)
				}
			} else {
				rt.Leave("r", h)
				if idx >= 0 {
					model = append(model[:idx], model[idx+1:]...)
				}
			}

			if got := rt.Members("r"); !equalHandles(got, model) {
				t.Fatalf("round %d step %d: Members=%v, want %v", round, step, got, model)
			}
		}
	}
}

func TestRoomTable_ConcurrentJoinLeave(t *testing.T) {
	rt := NewRoomTable(0)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h := Handle(fmt.Sprintf("h%d", i))
			room := fmt.Sprintf("room-%d", i%4)
			for j := 0; j < 200; j++ {
				rt.Join(room, h)
				_ = rt.Members(room)
				rt.Leave(room, h)
			}
		}(i)
	}
	wg.Wait()

	if got := rt.Rooms(); got != 0 {
		t.Fatalf("Rooms=%d after all members left, want 0", got)
	}
}

func indexOf(hs []Handle, h Handle) int {
	for i, x := range hs {
		if x == h {
			return i
		}
	}
	return -1
}
