package arena

import (
	"github.com/nstehr/hive/ai"
	"github.com/nstehr/hive/model"
)

// Volley describes a projectile type. Splash damages every hostile within
// that radius of the impact point; zero hits only what the shot touched.
type Volley struct {
	Speed    float64          `yaml:"speed" json:"speed"`
	Damage   float64          `yaml:"damage" json:"damage"`
	Splash   float64          `yaml:"splash" json:"splash"`
	Types    model.DamageType `yaml:"-" json:"types"`
	Lifetime float64          `yaml:"lifetime" json:"lifetime"`
}

func DefaultVolleys() map[string]Volley {
	return map[string]Volley{
		"spit": {Speed: 600, Damage: 8, Splash: 40, Types: model.DamageAcid, Lifetime: 3},
	}
}

// Projectile is a shot in flight.
type Projectile struct {
	Owner  model.EntityID
	Team   string
	Volley string
	Pos    model.Vec3
	Vel    model.Vec3
	Born   float64
}

// Projectiles returns the shots still in flight.
func (a *Arena) Projectiles() []Projectile {
	out := make([]Projectile, len(a.projectiles))
	for i, p := range a.projectiles {
		out[i] = *p
	}
	return out
}

// LaunchProjectile fires a volley from self's eyes at target. Unknown
// volleys are dropped with a warning.
func (a *Arena) LaunchProjectile(self model.EntityID, volley string, target model.Vec3) {
	b, ok := a.bodies[self]
	if !ok {
		return
	}
	v, ok := a.volleys[volley]
	if !ok {
		a.log.Warn("unknown volley", "volley", volley, "actor", uint32(self))
		return
	}
	from := a.eye(b.Entity)
	dir := target.Sub(from).Normalize()
	if dir == (model.Vec3{}) {
		dir = b.Forward()
	}
	a.projectiles = append(a.projectiles, &Projectile{
		Owner:  self,
		Team:   b.Team,
		Volley: volley,
		Pos:    from,
		Vel:    dir.Scale(v.Speed),
		Born:   a.now,
	})
}

// Step advances the arena by dt seconds: time, bodies in flight, animation
// markers, projectiles, then perception.
func (a *Arena) Step(dt float64) {
	if dt <= 0 {
		return
	}
	a.now += dt
	a.integrate(dt)
	a.advanceAnimations()
	a.advanceProjectiles(dt)
	a.perceive()
}

func (a *Arena) integrate(dt float64) {
	for _, id := range a.IDs() {
		b, ok := a.bodies[id]
		if !ok || b.Grounded || b.Static {
			continue
		}
		b.Velocity.Z -= a.gravity * dt
		end := b.Pos.Add(b.Velocity.Scale(dt))
		tr := a.TraceHull(b.Pos, end, b.Radius, ai.TraceFilter{Ignore: id})
		b.Pos = tr.End
		if !tr.Blocked {
			continue
		}
		if tr.Hit == model.WorldID && b.Pos.Z <= floorTolerance {
			b.Pos.Z = 0
			b.Grounded = true
			b.Velocity = model.Vec3{}
		} else {
			b.Velocity.X, b.Velocity.Y = 0, 0
		}
		a.touch(id, tr.Hit)
	}
}

// touch reports a contact to both parties.
func (a *Arena) touch(self, other model.EntityID) {
	for _, l := range a.listeners {
		l.OnTouch(self, other)
		if other != model.WorldID {
			l.OnTouch(other, self)
		}
	}
}

func (a *Arena) advanceProjectiles(dt float64) {
	live := a.projectiles[:0]
	for _, p := range a.projectiles {
		v := a.volleys[p.Volley]
		if v.Lifetime > 0 && a.now-p.Born > v.Lifetime {
			continue
		}
		end := p.Pos.Add(p.Vel.Scale(dt))
		tr := a.TraceLine(p.Pos, end, ai.TraceFilter{Ignore: p.Owner, IgnoreTeam: p.Team})
		if !tr.Blocked {
			p.Pos = end
			live = append(live, p)
			continue
		}
		a.detonate(p, v, tr)
	}
	a.projectiles = live
}

func (a *Arena) detonate(p *Projectile, v Volley, tr ai.Trace) {
	info := model.DamageInfo{
		Attacker:    p.Owner,
		AttackerPos: p.Pos,
		Amount:      v.Damage * a.scale,
		Types:       v.Types,
		Force:       p.Vel.Normalize().Scale(v.Damage * 10),
		Time:        a.now,
	}
	if o, ok := a.bodies[p.Owner]; ok {
		info.AttackerClass = o.Class
	}
	if v.Splash <= 0 {
		if tr.Hit != model.WorldID {
			a.ApplyDamage(tr.Hit, info)
		}
		return
	}
	for _, id := range a.IDs() {
		b, ok := a.bodies[id]
		if !ok || id == p.Owner || (p.Team != "" && b.Team == p.Team) {
			continue
		}
		center := b.Pos.Add(model.Vec3{Z: b.Height / 2})
		if center.DistTo(tr.End) <= v.Splash+b.Radius {
			a.ApplyDamage(id, info)
		}
	}
}
