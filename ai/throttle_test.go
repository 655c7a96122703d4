package ai

import (
	"sync"
	"testing"
)

func TestSharedExtendOnlyMovesForward(t *testing.T) {
	s := NewShared()
	if !s.Extend(CapRangedVolley, 5) {
		t.Fatal("expected first extend to move the deadline")
	}
	if s.Extend(CapRangedVolley, 3) {
		t.Error("earlier deadline replaced a later one")
	}
	if got := s.Deadline(CapRangedVolley); got != 5 {
		t.Errorf("expected deadline 5, got %v", got)
	}
	if s.Ready(CapRangedVolley, 4.9) {
		t.Error("ready before the deadline")
	}
	if !s.Ready(CapRangedVolley, 5) {
		t.Error("not ready at the deadline")
	}
}

func TestSharedTryAcquire(t *testing.T) {
	s := NewShared()
	if !s.TryAcquire(CapRangedVolley, 0, 2) {
		t.Fatal("first acquire failed")
	}
	if s.TryAcquire(CapRangedVolley, 1, 2) {
		t.Error("second actor acquired inside the hold window")
	}
	if !s.TryAcquire(CapRangedVolley, 2, 2) {
		t.Error("acquire failed after the hold expired")
	}
}

func TestSharedTryAcquireConcurrent(t *testing.T) {
	s := NewShared()
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryAcquire(CapRangedVolley, 1, 10) {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if won != 1 {
		t.Errorf("expected exactly one winner, got %d", won)
	}
}

func TestNilSharedAlwaysReady(t *testing.T) {
	var s *Shared
	if !s.Ready(CapRangedVolley, 0) || !s.TryAcquire(CapRangedVolley, 0, 1) {
		t.Error("nil Shared should never block")
	}
}
