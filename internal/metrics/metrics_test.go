package metrics

import (
	"sync"
	"testing"
)

func TestMetrics_ConcurrentInc(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Inc(EventJoin)
			}
		}()
	}
	wg.Wait()

	if got := m.Get(EventJoin); got != 800 {
		t.Fatalf("Get(%q)=%d, want 800", EventJoin, got)
	}
	snap := m.Snapshot()
	snap[EventJoin] = 0
	if got := m.Get(EventJoin); got != 800 {
		t.Fatalf("Snapshot aliases internal state: Get=%d", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.Inc("x")
	if got := m.Get("x"); got != 0 {
		t.Fatalf("Get=%d, want 0", got)
	}
	if snap := m.Snapshot(); len(snap) != 0 {
		t.Fatalf("Snapshot=%v, want empty", snap)
	}
}
