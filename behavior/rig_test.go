package behavior

import (
	"testing"

	"github.com/nstehr/hive/ai"
	"github.com/nstehr/hive/arena"
	"github.com/nstehr/hive/model"
)

const rigDt = 0.05

// rig drives an arena and the hosts living in it the same way the
// simulation does: world step first, then every host in ID order.
type rig struct {
	t      *testing.T
	arena  *arena.Arena
	shared *ai.Shared
	hosts  map[model.EntityID]*ai.Host
	order  []model.EntityID
}

func newRig(t *testing.T, opts ...arena.Option) *rig {
	t.Helper()
	r := &rig{
		t:      t,
		arena:  arena.New(model.OpenGrid(30, 30, 64), opts...),
		shared: ai.NewShared(),
		hosts:  make(map[model.EntityID]*ai.Host),
	}
	r.arena.Listen(r)
	return r
}

func (r *rig) OnTouch(self, other model.EntityID) {
	if h, ok := r.hosts[self]; ok {
		h.HandleTouch(other)
	}
}

func (r *rig) OnAnimEvent(self model.EntityID, ev model.AnimEvent) {
	if h, ok := r.hosts[self]; ok {
		h.HandleAnimEvent(ev)
	}
}

func (r *rig) OnDamage(target model.EntityID, info model.DamageInfo) {
	if h, ok := r.hosts[target]; ok {
		h.TakeDamage(info)
	}
}

func (r *rig) alien(x, y float64, bs ...ai.Behavior) *ai.Host {
	r.t.Helper()
	id := r.arena.Spawn(model.Entity{
		Class:     model.ClassAlien,
		Team:      "hive",
		Pos:       model.Vec3{X: x, Y: y},
		Radius:    16,
		Height:    40,
		Mass:      100,
		Health:    100,
		MaxHealth: 100,
	})
	h := ai.NewHost(id, model.ClassAlien, r.arena, r.shared)
	for _, b := range bs {
		if err := h.AddBehavior(b); err != nil {
			r.t.Fatalf("add behavior: %v", err)
		}
	}
	r.hosts[id] = h
	r.order = append(r.order, id)
	return h
}

func (r *rig) player(x, y float64) model.EntityID {
	return r.arena.Spawn(model.Entity{
		Class:     model.ClassPlayer,
		Team:      "marines",
		Pos:       model.Vec3{X: x, Y: y},
		Radius:    16,
		Height:    72,
		Mass:      90,
		Health:    100,
		MaxHealth: 100,
	})
}

func (r *rig) step(n int) {
	for i := 0; i < n; i++ {
		r.arena.Step(rigDt)
		for _, id := range r.order {
			r.hosts[id].Tick(r.arena.Now())
		}
	}
}

// until steps until cond holds or the step budget runs out.
func (r *rig) until(steps int, cond func() bool) bool {
	for i := 0; i < steps; i++ {
		if cond() {
			return true
		}
		r.step(1)
	}
	return cond()
}

func (r *rig) entity(id model.EntityID) model.Entity {
	r.t.Helper()
	e, ok := r.arena.Entity(id)
	if !ok {
		r.t.Fatalf("entity %d missing", id)
	}
	return e
}
