package ai

import "github.com/nstehr/hive/model"

// RecentDamageSize is how many blows an actor remembers.
const RecentDamageSize = 8

// DamageHistory is a ring buffer of the most recent blows, oldest first.
type DamageHistory struct {
	entries [RecentDamageSize]model.DamageInfo
	head    int
	count   int
}

// Add records a blow, evicting the oldest when full.
func (h *DamageHistory) Add(info model.DamageInfo) {
	idx := (h.head + h.count) % RecentDamageSize
	if h.count == RecentDamageSize {
		h.entries[h.head] = info
		h.head = (h.head + 1) % RecentDamageSize
		return
	}
	h.entries[idx] = info
	h.count++
}

func (h *DamageHistory) Len() int { return h.count }

// Entries returns a copy, oldest first.
func (h *DamageHistory) Entries() []model.DamageInfo {
	out := make([]model.DamageInfo, h.count)
	for i := 0; i < h.count; i++ {
		out[i] = h.entries[(h.head+i)%RecentDamageSize]
	}
	return out
}

// Last returns the most recent blow.
func (h *DamageHistory) Last() (model.DamageInfo, bool) {
	if h.count == 0 {
		return model.DamageInfo{}, false
	}
	return h.entries[(h.head+h.count-1)%RecentDamageSize], true
}

// Any reports whether some remembered blow satisfies match.
func (h *DamageHistory) Any(match func(model.DamageInfo) bool) bool {
	for i := 0; i < h.count; i++ {
		if match(h.entries[(h.head+i)%RecentDamageSize]) {
			return true
		}
	}
	return false
}

func (h *DamageHistory) Clear() {
	h.head, h.count = 0, 0
}
