package ai

import "github.com/nstehr/hive/model"

// EventKind distinguishes the signals forwarded to behaviors.
type EventKind uint8

const (
	EventAnim EventKind = iota + 1
	EventTouch
)

// Event is an anim marker or a physical touch delivered to a behavior.
type Event struct {
	Kind  EventKind
	Anim  model.AnimEvent
	Other model.EntityID
}

// HandleAnimEvent forwards an animation marker to the running behavior.
func (h *Host) HandleAnimEvent(a model.AnimEvent) bool {
	return h.SendEvent(Event{Kind: EventAnim, Anim: a}, false)
}

// HandleTouch forwards a physical contact to the running behavior.
func (h *Host) HandleTouch(other model.EntityID) bool {
	return h.SendEvent(Event{Kind: EventTouch, Other: other}, false)
}

// SendEvent delivers ev to every eligible behavior when toAll is set, and
// otherwise to the active behavior, falling back to the previous one (an
// actor that just finished a schedule still gets the landing of its leap).
func (h *Host) SendEvent(ev Event, toAll bool) bool {
	if toAll {
		handled := false
		for _, s := range h.slots {
			if s.eligible && s.b.HandleEvent(ev) {
				handled = true
			}
		}
		return handled
	}
	target := h.active
	if target == nil {
		target = h.previous
	}
	if target == nil {
		return false
	}
	return target.b.HandleEvent(ev)
}

// TakeDamage records a blow, raises the damage conditions and tells every
// eligible behavior about it.
func (h *Host) TakeDamage(info model.DamageInfo) {
	if info.Time == 0 {
		info.Time = h.now
	}
	h.history.Add(info)
	h.react(info)
	if info.Amount > 0 {
		if info.Amount >= h.heavyDamage {
			h.conds.Set(CondHeavyDamage)
		} else {
			h.conds.Set(CondLightDamage)
		}
	}
	h.log.Debug("took damage",
		"amount", info.Amount,
		"types", info.Types.String(),
		"attacker", info.Attacker,
	)
	for _, s := range h.slots {
		if s.eligible {
			s.b.OnDamage(info)
		}
	}
}
