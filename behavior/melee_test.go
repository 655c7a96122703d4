package behavior

import (
	"testing"

	"github.com/nstehr/hive/ai"
	"github.com/nstehr/hive/model"
)

func newMelee(t *testing.T, params map[string]float64) *Melee {
	t.Helper()
	m := NewMelee("melee", Primary, DefaultMeleeConfig())
	m.Configure(params, nil)
	return m
}

func TestMeleeHitsTargetAhead(t *testing.T) {
	r := newRig(t)
	m := newMelee(t, map[string]float64{"min_range": 0, "max_range": 100, "min_damage": 5, "max_damage": 5})
	h := r.alien(300, 300, m)
	target := r.player(350, 300)

	if !r.until(40, func() bool { return m.Outcome() != MeleePending }) {
		t.Fatalf("expected the swing to resolve")
	}
	if m.Outcome() != MeleeHit {
		t.Fatalf("expected a hit, got %s", m.Outcome())
	}
	if got := r.entity(target).Health; got != 95 {
		t.Errorf("expected exactly 5 damage, got health %.1f", got)
	}
	if !r.until(40, func() bool { return r.arena.Activity(h.ID()) == model.ActMeleeHit }) {
		t.Errorf("expected the hit pose, got %s", r.arena.Activity(h.ID()))
	}
}

func TestMeleeMissWhenTargetSidesteps(t *testing.T) {
	r := newRig(t)
	m := newMelee(t, map[string]float64{"min_damage": 5, "max_damage": 5})
	h := r.alien(300, 300, m)
	target := r.player(350, 300)

	if !r.until(10, func() bool { return r.arena.Activity(h.ID()) == model.ActMeleeAttack1 }) {
		t.Fatalf("expected the swing to start")
	}
	r.arena.Move(target, model.Vec3{X: 300, Y: 600})

	r.until(40, func() bool { return m.Outcome() != MeleePending })
	if m.Outcome() != MeleeMiss {
		t.Fatalf("expected a miss, got %s", m.Outcome())
	}
	if got := r.entity(target).Health; got != 100 {
		t.Errorf("expected no damage, got health %.1f", got)
	}
	if !r.until(40, func() bool { return r.arena.Activity(h.ID()) == model.ActMeleeMiss }) {
		t.Errorf("expected the miss pose, got %s", r.arena.Activity(h.ID()))
	}
}

func TestMeleeOutOfRangeNeverReady(t *testing.T) {
	r := newRig(t)
	m := newMelee(t, map[string]float64{"min_range": 60, "max_range": 100})
	h := r.alien(300, 300, m)
	r.player(340, 300)

	r.step(5)
	if h.ActiveName() != "" {
		t.Errorf("expected no attack inside min range, got %q", h.ActiveName())
	}
	if h.Conditions().Has(ai.CondMelee1Ready) {
		t.Errorf("expected melee1_ready unset")
	}
}

func TestMeleeSecondaryUsesOwnSlot(t *testing.T) {
	r := newRig(t)
	m := NewMelee("claw", Secondary, DefaultMeleeConfig())
	h := r.alien(300, 300, m)
	r.player(350, 300)

	r.step(1)
	if !h.Conditions().Has(ai.CondMelee2Ready) || h.Conditions().Has(ai.CondMelee1Ready) {
		t.Fatalf("expected only melee2_ready, got %v", h.Conditions().Snapshot().List())
	}
	if got := r.arena.Activity(h.ID()); got != model.ActMeleeAttack2 {
		t.Errorf("expected melee_attack2, got %s", got)
	}
}

func TestMeleeCooldown(t *testing.T) {
	r := newRig(t)
	m := newMelee(t, map[string]float64{"min_damage": 5, "max_damage": 5, "cooldown": 10})
	r.alien(300, 300, m)
	target := r.player(350, 300)

	r.step(60)
	if got := r.entity(target).Health; got != 95 {
		t.Errorf("expected a single swing within the cooldown, got health %.1f", got)
	}
}
