package behavior

import (
	"log/slog"

	"github.com/nstehr/hive/ai"
	"github.com/nstehr/hive/model"
)

type PounceConfig struct {
	MinRange      float64
	MaxRange      float64
	AttackAngle   float64
	Leap          LeapParams
	MinDamage     float64
	MaxDamage     float64
	Force         float64
	Knockdown     bool
	GraceTime     float64 // after launch, brushes against non-targets are ignored
	Cooldown      float64
	MaxFlightTime float64
	LookAhead     float64 // seconds of predicted flight traced each tick
	HullRadius    float64
}

func DefaultPounceConfig() PounceConfig {
	return PounceConfig{
		MinRange:    100,
		MaxRange:    400,
		AttackAngle: 30,
		Leap: LeapParams{
			BaseHeight: 60,
			MaxHeight:  200,
			MaxSpeed:   900,
		},
		MinDamage:     10,
		MaxDamage:     20,
		Force:         300,
		GraceTime:     0.25,
		Cooldown:      5,
		MaxFlightTime: 3,
		LookAhead:     0.2,
		HullRadius:    16,
	}
}

// PounceState tracks a leap through the air.
type PounceState uint8

const (
	PounceGrounded PounceState = iota
	PounceAirborne
	PounceHit
	PounceMiss
)

func (s PounceState) String() string {
	switch s {
	case PounceAirborne:
		return "airborne"
	case PounceHit:
		return "hit"
	case PounceMiss:
		return "miss"
	default:
		return "grounded"
	}
}

// Pounce leaps at a target, either on command or when the enemy is within
// strike distance. It is uninterruptible while airborne.
type Pounce struct {
	ai.Base
	cfg PounceConfig

	state       PounceState
	forced      model.EntityID
	target      model.EntityID
	launched    bool
	launchedAt  float64
	nextPounce  float64
	landingCued bool
	leap        Leap
}

func NewPounce(name string, cfg PounceConfig) *Pounce {
	return &Pounce{Base: ai.NewBase(name), cfg: cfg}
}

func (p *Pounce) Configure(params map[string]float64, log *slog.Logger) {
	configure(&p.Base, params, setters{
		"min_range":       setFloat(&p.cfg.MinRange),
		"max_range":       setFloat(&p.cfg.MaxRange),
		"attack_angle":    setFloat(&p.cfg.AttackAngle),
		"base_height":     setFloat(&p.cfg.Leap.BaseHeight),
		"max_height":      setFloat(&p.cfg.Leap.MaxHeight),
		"max_speed":       setFloat(&p.cfg.Leap.MaxSpeed),
		"min_damage":      setFloat(&p.cfg.MinDamage),
		"max_damage":      setFloat(&p.cfg.MaxDamage),
		"force":           setFloat(&p.cfg.Force),
		"knockdown":       setBool(&p.cfg.Knockdown),
		"grace_time":      setFloat(&p.cfg.GraceTime),
		"cooldown":        setFloat(&p.cfg.Cooldown),
		"max_flight_time": setFloat(&p.cfg.MaxFlightTime),
		"look_ahead":      setFloat(&p.cfg.LookAhead),
		"hull_radius":     setFloat(&p.cfg.HullRadius),
	}, log)
}

func (p *Pounce) Config() PounceConfig { return p.cfg }
func (p *Pounce) State() PounceState   { return p.state }
func (p *Pounce) LastLeap() Leap       { return p.leap }

// ForcePounce orders a leap at target regardless of range.
func (p *Pounce) ForcePounce(target model.EntityID) {
	p.forced = target
	if h := p.Host(); h != nil {
		h.Conditions().Set(ai.CondForcedPounce)
	}
}

func (p *Pounce) GatherConditionsNotActive() {
	h := p.Host()
	self, ok := h.Self()
	if !ok {
		return
	}
	// A leap whose schedule was cut short settles once the actor lands.
	if p.state != PounceGrounded && self.Grounded && h.Now()-p.launchedAt > p.cfg.GraceTime {
		p.state = PounceGrounded
	}
	h.Conditions().SetTo(ai.CondCanPounce, p.inStrikeRange(self))
}

func (p *Pounce) inStrikeRange(self model.Entity) bool {
	h := p.Host()
	if h.Now() < p.nextPounce || !self.Grounded || p.state != PounceGrounded || !h.CanJump() {
		return false
	}
	enemy, ok := h.Enemy()
	if !ok {
		return false
	}
	d := self.Pos.DistTo(enemy.Pos)
	if d < p.cfg.MinRange || d > p.cfg.MaxRange {
		return false
	}
	return withinAngle(self, enemy.Pos, p.cfg.AttackAngle)
}

func (p *Pounce) forcedTarget() (model.Entity, bool) {
	h := p.Host()
	if !h.Conditions().Has(ai.CondForcedPounce) {
		return model.Entity{}, false
	}
	e, ok := h.World().Entity(p.forced)
	if !ok || !e.Alive() {
		h.Conditions().Clear(ai.CondForcedPounce)
		p.forced = model.NoEntity
		return model.Entity{}, false
	}
	return e, true
}

func (p *Pounce) CanSelectSchedule() bool {
	if p.Deferred() || p.state != PounceGrounded || !p.Host().CanJump() {
		return false
	}
	if _, ok := p.forcedTarget(); ok {
		return true
	}
	return p.Host().Conditions().Has(ai.CondCanPounce)
}

func (p *Pounce) BeginScheduleSelection() {
	p.target = model.NoEntity
	if e, ok := p.forcedTarget(); ok {
		p.target = e.ID
		return
	}
	p.target = p.Host().EnemyID()
}

func (p *Pounce) SelectSchedule() *ai.Schedule {
	if p.target == model.NoEntity {
		return nil
	}
	return &ai.Schedule{
		Name: p.Name(),
		Tasks: []ai.Task{
			{Kind: TaskPounceFace, Arg: p.cfg.AttackAngle / 2},
			{Kind: TaskPounceLaunch, Activity: model.ActPounceLaunch},
			{Kind: TaskPounceFly},
			{Kind: TaskPounceLand},
		},
	}
}

func (p *Pounce) EndScheduleSelection() {
	p.SetInterruptible(true)
	if p.state != PounceAirborne {
		p.state = PounceGrounded
	}
}

func (p *Pounce) StartTask(t ai.Task) (ai.Status, error) {
	h := p.Host()
	switch t.Kind {
	case TaskPounceFace:
		return p.face(t.Arg)
	case TaskPounceLaunch:
		p.launched = false
		if !h.SetActivity(t.Activity) {
			return p.launch()
		}
		return ai.Running, nil
	case TaskPounceFly:
		return ai.Running, nil
	case TaskPounceLand:
		act := model.ActPounceMiss
		if p.state == PounceHit {
			act = model.ActPounceHit
		}
		if !h.SetActivity(act) {
			return ai.Complete, nil
		}
		return ai.Running, nil
	}
	return p.Base.StartTask(t)
}

func (p *Pounce) RunTask(t ai.Task) (ai.Status, error) {
	h := p.Host()
	switch t.Kind {
	case TaskPounceFace:
		return p.face(t.Arg)
	case TaskPounceLaunch:
		if p.launched {
			return ai.Complete, nil
		}
		if h.World().ActivityFinished(h.ID()) {
			return p.launch()
		}
		return ai.Running, nil
	case TaskPounceFly:
		return p.fly()
	case TaskPounceLand:
		if h.World().ActivityFinished(h.ID()) {
			return ai.Complete, nil
		}
		return ai.Running, nil
	}
	return p.Base.RunTask(t)
}

func (p *Pounce) face(tol float64) (ai.Status, error) {
	h := p.Host()
	e, ok := h.World().Entity(p.target)
	if !ok || !e.Alive() {
		return ai.Running, ai.ErrNoTarget
	}
	if h.FaceToward(e.Pos) <= tol {
		return ai.Complete, nil
	}
	return ai.Running, nil
}

// launch solves the leap toward the target's current position and throws
// the actor into the air.
func (p *Pounce) launch() (ai.Status, error) {
	h := p.Host()
	w := h.World()
	self, ok := h.Self()
	if !ok {
		return ai.Running, ai.ErrNoTarget
	}
	target, ok := w.Entity(p.target)
	if !ok || !target.Alive() {
		return ai.Running, ai.ErrNoTarget
	}

	params := p.cfg.Leap
	params.Gravity = w.Gravity()
	p.leap = SolveLeap(self.Pos, target.Pos, params)
	w.SetYaw(h.ID(), model.VecToYaw(p.leap.Velocity))
	w.SetVelocity(h.ID(), p.leap.Velocity)
	w.SetGrounded(h.ID(), false)

	p.launched = true
	p.launchedAt = h.Now()
	p.nextPounce = h.Now() + p.cfg.Cooldown
	p.landingCued = false
	p.state = PounceAirborne
	p.forced = model.NoEntity
	h.Conditions().Clear(ai.CondForcedPounce)
	p.SetInterruptible(false)
	h.SetActivity(model.ActPounceGlide)

	p.Logger().Debug("pounce launched",
		"target", uint32(p.target),
		"height", p.leap.Height,
		"speed", p.leap.Velocity.Len(),
	)
	return ai.Complete, nil
}

func (p *Pounce) fly() (ai.Status, error) {
	h := p.Host()
	w := h.World()
	if p.state == PounceHit || p.state == PounceMiss {
		return ai.Complete, nil
	}
	self, ok := h.Self()
	if !ok {
		return ai.Running, ai.ErrNoTarget
	}
	airtime := h.Now() - p.launchedAt
	if (self.Grounded && airtime > p.cfg.GraceTime) || airtime > p.cfg.MaxFlightTime {
		p.state = PounceMiss
		return ai.Complete, nil
	}

	// Trace the gravity-predicted path a little ahead to cue the landing.
	if !p.landingCued && p.cfg.LookAhead > 0 {
		la := p.cfg.LookAhead
		drop := 0.5 * w.Gravity() * la * la
		end := self.Pos.Add(self.Velocity.Scale(la)).Sub(model.Vec3{Z: drop})
		tr := w.TraceHull(self.Pos, end, p.cfg.HullRadius, ai.TraceFilter{Ignore: self.ID, IgnoreTeam: self.Team})
		if tr.HitWorld() {
			p.landingCued = true
			h.SetActivity(model.ActPounceLand)
		}
	}
	return ai.Running, nil
}

// HandleEvent resolves the leap on first contact and launches on the leave
// marker of the launch sequence. Touches are handled even after the
// schedule was abandoned, as long as the actor is still in the air.
func (p *Pounce) HandleEvent(ev ai.Event) bool {
	switch ev.Kind {
	case ai.EventAnim:
		if ev.Anim == model.AnimPounceLeave && p.IsActive() && !p.launched && p.state == PounceGrounded {
			p.launch()
			return true
		}
	case ai.EventTouch:
		if p.state == PounceAirborne {
			p.touch(ev.Other)
			return true
		}
	}
	return false
}

func (p *Pounce) touch(other model.EntityID) {
	h := p.Host()
	w := h.World()
	self, ok := h.Self()
	if !ok {
		return
	}
	if target, ok := hostileTarget(w, self.ID, other); ok {
		force := p.strikeDir(self).Scale(p.cfg.Force)
		amount := rollDamage(w, p.cfg.MinDamage, p.cfg.MaxDamage)
		w.ApplyDamage(target.ID, blow(self, amount, model.DamageSlash, force, h.Now()))
		if p.cfg.Knockdown {
			w.Knockdown(target.ID, force)
		}
		p.state = PounceHit
		p.Logger().Debug("pounce hit", "target", uint32(target.ID), "damage", amount)
		return
	}
	if h.Now()-p.launchedAt < p.cfg.GraceTime {
		return
	}
	p.state = PounceMiss
	p.Logger().Debug("pounce missed", "touched", uint32(other))
}

// strikeDir is the direction of flight at contact, falling back to the
// solved launch velocity when the actor has already been stopped.
func (p *Pounce) strikeDir(self model.Entity) model.Vec3 {
	if dir := self.Velocity.Normalize(); dir != (model.Vec3{}) {
		return dir
	}
	if dir := p.leap.Velocity.Normalize(); dir != (model.Vec3{}) {
		return dir
	}
	return self.Forward()
}
