package behavior

import (
	"testing"

	"github.com/nstehr/hive/ai"
	"github.com/nstehr/hive/model"
)

func TestRangedFiresVolley(t *testing.T) {
	r := newRig(t)
	rg := NewRanged("ranged", DefaultRangedConfig())
	h := r.alien(300, 300, rg)
	target := r.player(700, 300)

	if !r.until(40, func() bool { return rg.Fired() == 1 }) {
		t.Fatalf("expected one volley, fired %d", rg.Fired())
	}
	if got := rg.Aim(); got.X != 700 || got.Z != 32 {
		t.Errorf("expected aim at the target raised 32, got %+v", got)
	}
	if got := r.shared.Deadline(ai.CapRangedVolley); got < h.Now()+1.5-1e-9 {
		t.Errorf("expected the shared deadline pushed to %.2f, got %.2f", h.Now()+1.5, got)
	}
	if !r.until(40, func() bool { return r.entity(target).Health < 100 }) {
		t.Fatalf("expected the volley to land")
	}
	if !r.until(60, func() bool { return h.ActiveName() == "" }) {
		t.Fatalf("expected the ranged schedule to finish")
	}
	if rg.Fired() != 1 {
		t.Errorf("expected the fire rate to hold back a second volley, fired %d", rg.Fired())
	}
}

func TestRangedFallsBackToNearestVisibleMemory(t *testing.T) {
	r := newRig(t)
	rg := NewRanged("ranged", DefaultRangedConfig())
	h := r.alien(300, 300, rg)
	r.arena.SetPerceives(h.ID(), false)

	hidden := r.player(300, 800)
	g := r.arena.Grid()
	_, row := g.CellOf(300, 550)
	for col := 0; col < g.Cols; col++ {
		g.Set(col, row, model.Wall)
	}
	near := r.player(650, 300)
	far := r.player(900, 300)
	r.arena.SetEnemy(h.ID(), hidden)
	r.arena.Remember(h.ID(), model.Memory{ID: far, LastSeen: model.Vec3{X: 900, Y: 300}})
	r.arena.Remember(h.ID(), model.Memory{ID: near, LastSeen: model.Vec3{X: 650, Y: 300}})
	r.step(1)

	if h.EnemyID() != hidden {
		t.Fatalf("expected the hidden enemy kept, got %d", h.EnemyID())
	}
	if !rg.findTarget() {
		t.Fatalf("expected a fallback target")
	}
	if got := rg.Aim(); got.X != 650 || got.Y != 300 {
		t.Errorf("expected to aim at the nearest visible memory, got %+v", got)
	}
}

func TestRangedTooClose(t *testing.T) {
	r := newRig(t)
	rg := NewRanged("ranged", DefaultRangedConfig())
	h := r.alien(300, 300, rg)
	r.player(360, 300)

	r.step(10)
	if rg.Fired() != 0 || h.ActiveName() != "" {
		t.Errorf("expected no volley inside min range")
	}
}

func TestRangedNeedsClearShot(t *testing.T) {
	r := newRig(t)
	rg := NewRanged("ranged", DefaultRangedConfig())
	h := r.alien(300, 300, rg)
	r.player(700, 300)
	// a bystander on another team stands in the line of fire
	r.arena.Spawn(model.Entity{Class: model.ClassNeutral, Team: "civ", Pos: model.Vec3{X: 500, Y: 300}, Radius: 16, Height: 72, Health: 10, MaxHealth: 10})

	r.step(10)
	if h.Conditions().Has(ai.CondCanRangeAttack) || rg.Fired() != 0 {
		t.Errorf("expected a blocked line of fire to hold the volley")
	}

	radial := NewRanged("radial", DefaultRangedConfig())
	radial.Configure(map[string]float64{"radial": 1}, nil)
	r2 := newRig(t)
	r2.alien(300, 300, radial)
	r2.player(700, 300)
	r2.arena.Spawn(model.Entity{Class: model.ClassNeutral, Team: "civ", Pos: model.Vec3{X: 500, Y: 300}, Radius: 16, Height: 72, Health: 10, MaxHealth: 10})
	if !r2.until(40, func() bool { return radial.Fired() == 1 }) {
		t.Errorf("expected a radial attack to skip the line of fire check")
	}
}

func TestRangedThrottleAcrossActors(t *testing.T) {
	r := newRig(t)
	a := NewRanged("ranged", DefaultRangedConfig())
	b := NewRanged("ranged", DefaultRangedConfig())
	ha := r.alien(300, 300, a)
	hb := r.alien(300, 400, b)
	r.player(700, 350)

	r.step(1)
	active := 0
	for _, h := range []*ai.Host{ha, hb} {
		if h.ActiveName() == "ranged" {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly one actor to claim the volley, got %d", active)
	}

	r.until(40, func() bool { return a.Fired()+b.Fired() > 0 })
	r.step(5)
	if got := a.Fired() + b.Fired(); got != 1 {
		t.Errorf("expected a single volley inside the global interval, got %d", got)
	}
}

func TestRangedThrottleReleases(t *testing.T) {
	r := newRig(t)
	a := NewRanged("ranged", DefaultRangedConfig())
	b := NewRanged("ranged", DefaultRangedConfig())
	r.alien(300, 300, a)
	r.alien(300, 400, b)
	r.player(700, 350)

	if !r.until(200, func() bool { return a.Fired() > 0 && b.Fired() > 0 }) {
		t.Fatalf("expected both actors to fire eventually, got %d and %d", a.Fired(), b.Fired())
	}
}
