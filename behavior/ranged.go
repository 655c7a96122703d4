package behavior

import (
	"log/slog"

	"github.com/nstehr/hive/ai"
	"github.com/nstehr/hive/model"
)

type RangedConfig struct {
	MinRange float64
	MaxRange float64
	AimCone  float64
	// FireRate is the per-actor cooldown between volleys. GlobalInterval
	// is how long a volley blocks every other actor sharing the throttle.
	FireRate       float64
	GlobalInterval float64
	// Radial attacks hit an area and skip the line of fire check.
	Radial bool
	Volley string
	// AimHeight raises the aim point off the target's feet.
	AimHeight float64
}

func DefaultRangedConfig() RangedConfig {
	return RangedConfig{
		MinRange:       100,
		MaxRange:       800,
		AimCone:        15,
		FireRate:       3,
		GlobalInterval: 1.5,
		Volley:         "spit",
		AimHeight:      32,
	}
}

// Ranged fires a volley at the current enemy, or the nearest visible
// remembered one, from a standing stance. Volleys are rate limited per actor
// and across every actor sharing the host's throttle.
type Ranged struct {
	ai.Base
	cfg RangedConfig

	target   model.EntityID
	aim      model.Vec3
	claimed  bool
	nextFire float64
	fired    int
}

func NewRanged(name string, cfg RangedConfig) *Ranged {
	if cfg.Volley == "" {
		cfg.Volley = "spit"
	}
	return &Ranged{Base: ai.NewBase(name), cfg: cfg}
}

func (r *Ranged) Configure(params map[string]float64, log *slog.Logger) {
	configure(&r.Base, params, setters{
		"min_range":       setFloat(&r.cfg.MinRange),
		"max_range":       setFloat(&r.cfg.MaxRange),
		"aim_cone":        setFloat(&r.cfg.AimCone),
		"fire_rate":       setFloat(&r.cfg.FireRate),
		"global_interval": setFloat(&r.cfg.GlobalInterval),
		"radial":          setBool(&r.cfg.Radial),
		"aim_height":      setFloat(&r.cfg.AimHeight),
	}, log)
}

// SetVolley names the projectile the launcher fires.
func (r *Ranged) SetVolley(v string) {
	if v != "" {
		r.cfg.Volley = v
	}
}

func (r *Ranged) Config() RangedConfig { return r.cfg }
func (r *Ranged) Fired() int           { return r.fired }
func (r *Ranged) Aim() model.Vec3      { return r.aim }

func (r *Ranged) GatherConditionsNotActive() {
	h := r.Host()
	ready := false
	if h.Now() >= r.nextFire && h.Shared().Ready(ai.CapRangedVolley, h.Now()) {
		ready = r.findTarget()
	}
	h.Conditions().SetTo(ai.CondCanRangeAttack, ready)
}

// findTarget caches the target and its aim point. It prefers the current
// enemy when alive and visible, then the nearest visible memory.
func (r *Ranged) findTarget() bool {
	h := r.Host()
	w := h.World()
	self, ok := h.Self()
	if !ok {
		return false
	}
	r.target = model.NoEntity

	if e, ok := h.Enemy(); ok && w.Visible(self.ID, e.ID) {
		r.target, r.aim = e.ID, e.Pos
	} else {
		best := -1.0
		for _, m := range w.Memories(self.ID) {
			if !w.Visible(self.ID, m.ID) {
				continue
			}
			if e, ok := w.Entity(m.ID); !ok || !e.Alive() {
				continue
			}
			d := self.Pos.DistTo(m.LastSeen)
			if best < 0 || d < best {
				best = d
				r.target, r.aim = m.ID, m.LastSeen
			}
		}
	}
	if r.target == model.NoEntity {
		return false
	}
	r.aim = r.aim.Add(model.Vec3{Z: r.cfg.AimHeight})

	d := self.Pos.DistTo(r.aim)
	if d < r.cfg.MinRange || d > r.cfg.MaxRange {
		return false
	}
	if r.cfg.Radial {
		return true
	}
	return r.clearShot(self)
}

func (r *Ranged) clearShot(self model.Entity) bool {
	w := r.Host().World()
	eye := self.Pos.Add(model.Vec3{Z: self.Height * 0.75})
	tr := w.TraceLine(eye, r.aim, ai.TraceFilter{Ignore: self.ID, IgnoreTeam: self.Team, Sight: true})
	return !tr.Blocked || tr.Hit == r.target
}

func (r *Ranged) CanSelectSchedule() bool {
	return r.Host().Conditions().Has(ai.CondCanRangeAttack) && !r.Deferred()
}

// BeginScheduleSelection claims the shared volley slot. Check and claim are
// one step so two actors deciding at the same instant cannot both fire.
func (r *Ranged) BeginScheduleSelection() {
	h := r.Host()
	r.claimed = h.Shared().TryAcquire(ai.CapRangedVolley, h.Now(), r.cfg.GlobalInterval)
	if !r.claimed {
		r.Logger().Debug("volley throttled", "until", h.Shared().Deadline(ai.CapRangedVolley))
	}
}

func (r *Ranged) SelectSchedule() *ai.Schedule {
	if !r.claimed || r.target == model.NoEntity {
		return nil
	}
	return &ai.Schedule{
		Name: r.Name(),
		Tasks: []ai.Task{
			{Kind: TaskRangedAim, Arg: r.cfg.AimCone},
			ai.Play(model.ActRangePrepare),
			ai.WaitActivity(2),
			{Kind: TaskRangedFire, Activity: model.ActRangeFire},
			ai.WaitActivity(2),
			ai.Play(model.ActRangeRecover),
			ai.WaitActivity(2),
		},
		Interrupts: ai.Conds(ai.CondHeavyDamage, ai.CondEnemyDead),
	}
}

func (r *Ranged) EndScheduleSelection() {
	r.claimed = false
}

func (r *Ranged) StartTask(t ai.Task) (ai.Status, error) {
	switch t.Kind {
	case TaskRangedAim:
		return r.face(t.Arg)
	case TaskRangedFire:
		h := r.Host()
		h.SetActivity(t.Activity)
		h.World().LaunchProjectile(h.ID(), r.cfg.Volley, r.aim)
		r.nextFire = h.Now() + r.cfg.FireRate
		h.Shared().Extend(ai.CapRangedVolley, h.Now()+r.cfg.GlobalInterval)
		r.fired++
		r.Logger().Debug("volley fired", "target", uint32(r.target), "volley", r.cfg.Volley)
		return ai.Complete, nil
	}
	return r.Base.StartTask(t)
}

func (r *Ranged) RunTask(t ai.Task) (ai.Status, error) {
	if t.Kind == TaskRangedAim {
		return r.face(t.Arg)
	}
	return r.Base.RunTask(t)
}

func (r *Ranged) face(cone float64) (ai.Status, error) {
	if r.target == model.NoEntity {
		return ai.Running, ai.ErrNoTarget
	}
	if r.Host().FaceToward(r.aim) <= cone {
		return ai.Complete, nil
	}
	return ai.Running, nil
}
