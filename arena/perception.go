package arena

import (
	"sort"

	"github.com/nstehr/hive/ai"
	"github.com/nstehr/hive/model"
)

func (a *Arena) eye(e model.Entity) model.Vec3 {
	return e.Pos.Add(model.Vec3{Z: e.Height * defaultEyeRatio})
}

// Visible reports whether a sight line from self's eyes to target's center
// clears every wall.
func (a *Arena) Visible(self, target model.EntityID) bool {
	s, ok1 := a.bodies[self]
	t, ok2 := a.bodies[target]
	if !ok1 || !ok2 {
		return false
	}
	to := t.Pos.Add(model.Vec3{Z: t.Height / 2})
	_, blocked := a.traceWalls(a.eye(s.Entity), to.Sub(a.eye(s.Entity)), 0, true)
	return !blocked
}

func (a *Arena) CurrentEnemy(self model.EntityID) model.EntityID {
	b, ok := a.bodies[self]
	if !ok {
		return model.NoEntity
	}
	return b.enemy
}

func (a *Arena) Memories(self model.EntityID) []model.Memory {
	b, ok := a.bodies[self]
	if !ok {
		return nil
	}
	out := make([]model.Memory, 0, len(b.memories))
	for _, m := range b.memories {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastSeenAt != out[j].LastSeenAt {
			return out[i].LastSeenAt > out[j].LastSeenAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SetEnemy sets an actor's enemy. The next perception pass may replace it
// with a better visible target.
func (a *Arena) SetEnemy(self, enemy model.EntityID) {
	b, ok := a.bodies[self]
	if !ok {
		return
	}
	b.enemy = enemy
	if e, ok := a.bodies[enemy]; ok {
		b.memories[enemy] = model.Memory{ID: enemy, LastSeen: e.Pos, LastSeenAt: a.now}
	}
}

// Remember adds a memory without changing the current enemy.
func (a *Arena) Remember(self model.EntityID, m model.Memory) {
	if b, ok := a.bodies[self]; ok {
		b.memories[m.ID] = m
	}
}

// SetPerceives turns automatic enemy selection on or off for one actor.
func (a *Arena) SetPerceives(id model.EntityID, on bool) {
	if b, ok := a.bodies[id]; ok {
		b.perceives = on
	}
}

// perceive refreshes memories for every perceiving actor and picks the
// highest priority visible hostile as its enemy, nearest first on ties.
func (a *Arena) perceive() {
	ids := a.IDs()
	for _, id := range ids {
		b := a.bodies[id]
		if !b.perceives || !b.Alive() {
			continue
		}
		for mid, m := range b.memories {
			o, ok := a.bodies[mid]
			if !ok || !o.Alive() || a.now-m.LastSeenAt > memoryLifetime {
				delete(b.memories, mid)
			}
		}

		best := model.NoEntity
		bestPri, bestDist := -1, 0.0
		for _, oid := range ids {
			o := a.bodies[oid]
			if oid == id || !o.Alive() || a.Relationship(id, oid) != model.Hostile {
				continue
			}
			if !a.Visible(id, oid) {
				continue
			}
			b.memories[oid] = model.Memory{ID: oid, LastSeen: o.Pos, LastSeenAt: a.now}
			pri := a.Priority(id, oid)
			dist := b.Pos.DistTo(o.Pos)
			if pri > bestPri || (pri == bestPri && dist < bestDist) {
				best, bestPri, bestDist = oid, pri, dist
			}
		}
		if best != model.NoEntity {
			b.enemy = best
			continue
		}
		if _, remembered := b.memories[b.enemy]; !remembered {
			b.enemy = model.NoEntity
		}
	}
}

var _ ai.Perception = (*Arena)(nil)
