package ai

import (
	"fmt"
	"math/bits"
	"strings"
)

// Condition is a named boolean fact about an actor. Conditions are the only
// channel through which behaviors signal readiness to the host.
type Condition uint8

const (
	CondNone Condition = iota

	// Host-level facts.
	CondNewEnemy
	CondSeeEnemy
	CondEnemyDead
	CondLightDamage
	CondHeavyDamage
	CondParametersChanged

	// Behavior-owned facts.
	CondMelee1Ready
	CondMelee2Ready
	CondCanPounce
	CondForcedPounce
	CondCanCharge
	CondCanRangeAttack
	CondRetreat
	CondFlinch
	CondCombatStun

	condCount
)

// Lifetime decides who clears a condition.
type Lifetime uint8

const (
	// Volatile conditions are cleared at the start of every tick and must be
	// recomputed by a gather.
	Volatile Lifetime = iota
	// Latched conditions are raised by an event and stay set until someone
	// clears them explicitly.
	Latched
)

type conditionInfo struct {
	name     string
	lifetime Lifetime
}

var conditionTable = [condCount]conditionInfo{
	CondNone:              {"none", Volatile},
	CondNewEnemy:          {"new_enemy", Latched},
	CondSeeEnemy:          {"see_enemy", Volatile},
	CondEnemyDead:         {"enemy_dead", Volatile},
	CondLightDamage:       {"light_damage", Latched},
	CondHeavyDamage:       {"heavy_damage", Latched},
	CondParametersChanged: {"parameters_changed", Latched},
	CondMelee1Ready:       {"melee1_ready", Volatile},
	CondMelee2Ready:       {"melee2_ready", Volatile},
	CondCanPounce:         {"can_pounce", Volatile},
	CondForcedPounce:      {"forced_pounce", Latched},
	CondCanCharge:         {"can_charge", Volatile},
	CondCanRangeAttack:    {"can_range_attack", Volatile},
	CondRetreat:           {"retreat", Volatile},
	CondFlinch:            {"flinch", Latched},
	CondCombatStun:        {"combat_stun", Volatile},
}

func (c Condition) String() string {
	if c < condCount {
		return conditionTable[c].name
	}
	return fmt.Sprintf("condition(%d)", uint8(c))
}

// Lifetime returns the condition's clearing policy.
func (c Condition) Lifetime() Lifetime {
	if c < condCount {
		return conditionTable[c].lifetime
	}
	return Volatile
}

// ParseCondition resolves a condition by name.
func ParseCondition(name string) (Condition, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c := CondNone + 1; c < condCount; c++ {
		if conditionTable[c].name == name {
			return c, true
		}
	}
	return CondNone, false
}

// ConditionSet is a fixed-size bitset of conditions.
type ConditionSet uint64

// Conds builds a set from individual conditions.
func Conds(cs ...Condition) ConditionSet {
	var s ConditionSet
	for _, c := range cs {
		s |= 1 << c
	}
	return s
}

func (s ConditionSet) Has(c Condition) bool                { return s&(1<<c) != 0 }
func (s ConditionSet) Intersects(o ConditionSet) bool      { return s&o != 0 }
func (s ConditionSet) Union(o ConditionSet) ConditionSet   { return s | o }
func (s ConditionSet) Without(o ConditionSet) ConditionSet { return s &^ o }
func (s ConditionSet) Len() int                            { return bits.OnesCount64(uint64(s)) }

// List returns the members in enum order.
func (s ConditionSet) List() []Condition {
	var out []Condition
	for c := CondNone + 1; c < condCount; c++ {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Names returns member names in enum order.
func (s ConditionSet) Names() []string {
	list := s.List()
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.String()
	}
	return out
}

func (s ConditionSet) String() string { return strings.Join(s.Names(), ",") }

var volatileMask = func() ConditionSet {
	var s ConditionSet
	for c := CondNone + 1; c < condCount; c++ {
		if c.Lifetime() == Volatile {
			s |= 1 << c
		}
	}
	return s
}()

// Conditions is an actor's live condition registry.
type Conditions struct {
	set ConditionSet
}

func (r *Conditions) Set(c Condition)         { r.set |= 1 << c }
func (r *Conditions) Clear(cs ...Condition)   { r.set &^= Conds(cs...) }
func (r *Conditions) Has(c Condition) bool    { return r.set.Has(c) }
func (r *Conditions) Any(s ConditionSet) bool { return r.set.Intersects(s) }
func (r *Conditions) Snapshot() ConditionSet  { return r.set }
func (r *Conditions) ClearVolatile()          { r.set &^= volatileMask }

// SetTo sets or clears c depending on v.
func (r *Conditions) SetTo(c Condition, v bool) {
	if v {
		r.Set(c)
		return
	}
	r.Clear(c)
}
