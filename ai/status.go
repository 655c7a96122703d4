package ai

import (
	"math"

	"github.com/nstehr/hive/model"
)

// Lingering effects of taking damage.
const (
	HurtSlowTime     = 0.5
	ElectroStunTime  = 4.0
	BurnTime         = 5.0
	HurtMoveScale    = 0.5
	StunnedMoveScale = 0.3

	burnInterval = 0.4
	burnDamage   = 2.5 * burnInterval
)

type status struct {
	slowUntil float64
	stunned   bool

	burnUntil float64
	nextBurn  float64
	burnedBy  model.DamageInfo
}

// ElectroStunned reports whether a shock blow is still slowing the actor.
func (h *Host) ElectroStunned() bool { return h.status.stunned }

// CanJump is false while electro-stunned.
func (h *Host) CanJump() bool { return !h.status.stunned }

// OnFire reports whether the actor is burning.
func (h *Host) OnFire() bool { return h.now < h.status.burnUntil }

// MoveScale is the fraction of its animation speed the actor moves at.
func (h *Host) MoveScale() float64 {
	switch {
	case h.now >= h.status.slowUntil:
		return 1
	case h.status.stunned:
		return StunnedMoveScale
	default:
		return HurtMoveScale
	}
}

// AutoMove moves the actor for this tick at its current move scale.
func (h *Host) AutoMove(filter TraceFilter) Trace {
	filter.Ignore = h.id
	return h.world.AutoMove(h.id, h.dt*h.MoveScale(), filter)
}

// react applies the lingering effects of a blow: burns ignite, shocks
// electro-stun and anything else slows the actor briefly.
func (h *Host) react(info model.DamageInfo) {
	if info.Amount > 0 && info.Types.Any(model.DamageBurn) && !h.OnFire() {
		h.status.burnUntil = h.now + BurnTime
		h.status.nextBurn = h.now + burnInterval
		h.status.burnedBy = info
		h.log.Debug("ignited", "attacker", info.Attacker)
	}
	if info.Types.Any(model.DamageShock) {
		h.status.slowUntil = math.Max(h.status.slowUntil, h.now+ElectroStunTime)
		if !h.status.stunned {
			h.log.Debug("electro-stunned", "until", h.status.slowUntil)
		}
		h.status.stunned = true
		return
	}
	h.status.slowUntil = math.Max(h.status.slowUntil, h.now+HurtSlowTime)
}

// updateStatus wears off expired effects and deals burn damage.
func (h *Host) updateStatus() {
	if h.status.stunned && h.now >= h.status.slowUntil {
		h.status.stunned = false
		h.log.Debug("electro-stun wore off")
	}
	if !h.OnFire() || h.now < h.status.nextBurn {
		return
	}
	h.status.nextBurn += burnInterval
	by := h.status.burnedBy
	h.world.ApplyDamage(h.id, model.DamageInfo{
		Attacker:      by.Attacker,
		AttackerClass: by.AttackerClass,
		AttackerPos:   by.AttackerPos,
		Amount:        burnDamage,
		Types:         model.DamageBurn | model.DamageOverTime,
		Time:          h.now,
	})
}
