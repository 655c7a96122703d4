// Package behavior holds the concrete combat behaviors an actor's host can
// run: melee, pounce, charge, ranged, retreat, flinch and combat stun.
package behavior

import (
	"log/slog"
	"math"
	"sort"

	"github.com/nstehr/hive/ai"
	"github.com/nstehr/hive/model"
)

// setters maps parameter keys onto a typed config.
type setters map[string]func(v float64)

// configure applies params to a behavior's typed config. Keys the behavior
// does not know go to the base handler; anything left is ignored.
func configure(base *ai.Base, params map[string]float64, set setters, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := params[k]
		if fn, ok := set[k]; ok {
			fn(v)
			continue
		}
		if base.ApplyParam(k, v) {
			continue
		}
		log.Debug("ignoring unknown parameter", "behavior", base.Name(), "key", k, "value", v)
	}
}

func setFloat(dst *float64) func(float64) { return func(v float64) { *dst = v } }
func setBool(dst *bool) func(float64)     { return func(v float64) { *dst = v != 0 } }
func setInt(dst *int) func(float64)       { return func(v float64) { *dst = int(v) } }

func setDamageType(dst *model.DamageType) func(float64) {
	return func(v float64) { *dst = model.DamageType(uint32(v)) }
}

// withinAngle reports whether target lies within deg degrees of the
// actor's facing on the ground plane.
func withinAngle(self model.Entity, target model.Vec3, deg float64) bool {
	dir := target.Sub(self.Pos).Flat()
	if dir.Len() == 0 {
		return true
	}
	return dir.Normalize().Dot(self.Forward()) >= math.Cos(deg*math.Pi/180)
}

// rollDamage draws a blow in [lo, hi], never below 1, scaled by the rules.
func rollDamage(w ai.World, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	amount := w.RandomFloat(lo, hi)
	if amount < 1 {
		amount = 1
	}
	scale := w.DamageScale()
	if scale <= 0 {
		scale = 1
	}
	return amount * scale
}

// blow builds damage dealt by self.
func blow(self model.Entity, amount float64, types model.DamageType, force model.Vec3, now float64) model.DamageInfo {
	return model.DamageInfo{
		Attacker:      self.ID,
		AttackerClass: self.Class,
		AttackerPos:   self.Pos,
		Amount:        amount,
		Types:         types,
		Force:         force,
		Time:          now,
	}
}

// hostileTarget reports whether id is a live, damageable enemy of self.
func hostileTarget(w ai.World, self, id model.EntityID) (model.Entity, bool) {
	if id == model.NoEntity || id == model.WorldID || id == self {
		return model.Entity{}, false
	}
	e, ok := w.Entity(id)
	if !ok || !e.Damageable() {
		return model.Entity{}, false
	}
	if w.Relationship(self, id) != model.Hostile {
		return model.Entity{}, false
	}
	return e, true
}
