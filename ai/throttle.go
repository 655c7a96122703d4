package ai

import "sync"

// Capability names an attack gated across every actor in a simulation.
type Capability string

const CapRangedVolley Capability = "ranged_volley"

// Shared holds the state that crosses actor boundaries. Hosts receive it by
// reference; nothing else is global.
type Shared struct {
	mu        sync.Mutex
	deadlines map[Capability]float64
}

func NewShared() *Shared {
	return &Shared{deadlines: make(map[Capability]float64)}
}

// Ready reports whether c may begin at now.
func (s *Shared) Ready(c Capability, now float64) bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return now >= s.deadlines[c]
}

// Deadline returns the time before which c is blocked.
func (s *Shared) Deadline(c Capability) float64 {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadlines[c]
}

// Extend moves the deadline for c to until if that is later. It reports
// whether the deadline moved.
func (s *Shared) Extend(c Capability, until float64) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if until <= s.deadlines[c] {
		return false
	}
	s.deadlines[c] = until
	return true
}

// TryAcquire claims c for hold seconds if it is ready at now. Check and claim
// happen under one lock.
func (s *Shared) TryAcquire(c Capability, now, hold float64) bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if now < s.deadlines[c] {
		return false
	}
	if now+hold > s.deadlines[c] {
		s.deadlines[c] = now + hold
	}
	return true
}
