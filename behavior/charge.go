package behavior

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/nstehr/hive/ai"
	"github.com/nstehr/hive/model"
)

type ChargeConfig struct {
	MinRange   float64
	MaxRange   float64
	FrontAngle float64
	TurnRate   float64 // degrees per second while running

	ProbeAngle    float64
	ProbeDistance float64
	AvoidYaw      float64
	LookAhead     float64
	HullRadius    float64

	// MissAngle is how far the target may drift off the facing before the
	// pass counts as a miss. ContinueChance is the odds of making another
	// pass after a miss, and MaxMisses caps the passes.
	MissAngle      float64
	ContinueChance float64
	MaxMisses      int

	HeavyMass float64
	MinDamage float64
	MaxDamage float64
	Force     float64
	Knockdown bool
	Cooldown  float64
	MaxTime   float64
}

func DefaultChargeConfig() ChargeConfig {
	return ChargeConfig{
		MinRange:       150,
		MaxRange:       600,
		FrontAngle:     45,
		TurnRate:       120,
		ProbeAngle:     30,
		ProbeDistance:  80,
		AvoidYaw:       30,
		LookAhead:      120,
		HullRadius:     16,
		MissAngle:      75,
		ContinueChance: 0.5,
		MaxMisses:      2,
		HeavyMass:      250,
		MinDamage:      15,
		MaxDamage:      25,
		Force:          500,
		Knockdown:      true,
		Cooldown:       6,
		MaxTime:        5,
	}
}

// ChargeEnd is how a charge run finished.
type ChargeEnd uint8

const (
	ChargeNone ChargeEnd = iota
	ChargeCrash
	ChargeStop
	ChargeHit
)

func (e ChargeEnd) String() string {
	switch e {
	case ChargeCrash:
		return "crash"
	case ChargeStop:
		return "stop"
	case ChargeHit:
		return "hit"
	default:
		return "none"
	}
}

// Charge rushes the highest priority enemy in front of the actor, steering
// around obstacles and classifying whatever it runs into.
type Charge struct {
	ai.Base
	cfg ChargeConfig

	target       model.EntityID
	steps        int
	misses       int
	committed    bool
	anticipating bool
	passing      []model.EntityID
	end          ChargeEnd
	startedAt    float64
	nextCharge   float64
}

func NewCharge(name string, cfg ChargeConfig) *Charge {
	return &Charge{Base: ai.NewBase(name), cfg: cfg}
}

func (c *Charge) Configure(params map[string]float64, log *slog.Logger) {
	configure(&c.Base, params, setters{
		"min_range":       setFloat(&c.cfg.MinRange),
		"max_range":       setFloat(&c.cfg.MaxRange),
		"front_angle":     setFloat(&c.cfg.FrontAngle),
		"turn_rate":       setFloat(&c.cfg.TurnRate),
		"probe_angle":     setFloat(&c.cfg.ProbeAngle),
		"probe_distance":  setFloat(&c.cfg.ProbeDistance),
		"avoid_yaw":       setFloat(&c.cfg.AvoidYaw),
		"look_ahead":      setFloat(&c.cfg.LookAhead),
		"hull_radius":     setFloat(&c.cfg.HullRadius),
		"miss_angle":      setFloat(&c.cfg.MissAngle),
		"continue_chance": setFloat(&c.cfg.ContinueChance),
		"max_misses":      setInt(&c.cfg.MaxMisses),
		"heavy_mass":      setFloat(&c.cfg.HeavyMass),
		"min_damage":      setFloat(&c.cfg.MinDamage),
		"max_damage":      setFloat(&c.cfg.MaxDamage),
		"force":           setFloat(&c.cfg.Force),
		"knockdown":       setBool(&c.cfg.Knockdown),
		"cooldown":        setFloat(&c.cfg.Cooldown),
		"max_time":        setFloat(&c.cfg.MaxTime),
	}, log)
}

func (c *Charge) Config() ChargeConfig   { return c.cfg }
func (c *Charge) Target() model.EntityID { return c.target }
func (c *Charge) Misses() int            { return c.misses }
func (c *Charge) End() ChargeEnd         { return c.end }

func (c *Charge) GatherConditionsNotActive() {
	h := c.Host()
	ok := false
	if h.Now() >= c.nextCharge {
		if self, found := h.Self(); found {
			ok = c.pickTarget(self) != model.NoEntity
		}
	}
	h.Conditions().SetTo(ai.CondCanCharge, ok)
}

// pickTarget returns the remembered enemy in range and in front with the
// highest priority, preferring the nearer one on ties.
func (c *Charge) pickTarget(self model.Entity) model.EntityID {
	h := c.Host()
	w := h.World()
	best := model.NoEntity
	bestPri, bestDist := math.MinInt, math.MaxFloat64
	for _, m := range w.Memories(self.ID) {
		e, ok := hostileTarget(w, self.ID, m.ID)
		if !ok {
			continue
		}
		d := self.Pos.DistTo(e.Pos)
		if d < c.cfg.MinRange || d > c.cfg.MaxRange {
			continue
		}
		if !withinAngle(self, e.Pos, c.cfg.FrontAngle) {
			continue
		}
		pri := w.Priority(self.ID, e.ID)
		if pri > bestPri || (pri == bestPri && d < bestDist) {
			best, bestPri, bestDist = e.ID, pri, d
		}
	}
	return best
}

func (c *Charge) CanSelectSchedule() bool {
	return c.Host().Conditions().Has(ai.CondCanCharge) && !c.Deferred()
}

func (c *Charge) BeginScheduleSelection() {
	c.target = model.NoEntity
	if self, ok := c.Host().Self(); ok {
		c.target = c.pickTarget(self)
	}
	c.steps, c.misses = 0, 0
	c.committed, c.anticipating = false, false
	c.passing = c.passing[:0]
	c.end = ChargeNone
}

func (c *Charge) SelectSchedule() *ai.Schedule {
	if c.target == model.NoEntity {
		return nil
	}
	return &ai.Schedule{
		Name: c.Name(),
		Tasks: []ai.Task{
			{Kind: TaskChargeStart, Activity: model.ActChargeStart},
			{Kind: TaskChargeMove, Activity: model.ActChargeRun},
			{Kind: TaskChargeEnd},
		},
		Interrupts: ai.Conds(ai.CondHeavyDamage),
	}
}

func (c *Charge) EndScheduleSelection() {
	c.SetInterruptible(true)
}

func (c *Charge) StartTask(t ai.Task) (ai.Status, error) {
	h := c.Host()
	switch t.Kind {
	case TaskChargeStart:
		if !h.SetActivity(t.Activity) {
			return ai.Complete, nil
		}
		return ai.Running, nil
	case TaskChargeMove:
		c.startedAt = h.Now()
		c.nextCharge = h.Now() + c.cfg.Cooldown
		c.SetInterruptible(false)
		h.SetActivity(t.Activity)
		return ai.Running, nil
	case TaskChargeEnd:
		act := model.ActChargeStop
		if c.end == ChargeCrash {
			act = model.ActChargeCrash
		}
		if !h.SetActivity(act) {
			return ai.Complete, nil
		}
		return ai.Running, nil
	}
	return c.Base.StartTask(t)
}

func (c *Charge) RunTask(t ai.Task) (ai.Status, error) {
	h := c.Host()
	switch t.Kind {
	case TaskChargeStart, TaskChargeEnd:
		if h.World().ActivityFinished(h.ID()) {
			return ai.Complete, nil
		}
		return ai.Running, nil
	case TaskChargeMove:
		return c.move()
	}
	return c.Base.RunTask(t)
}

func (c *Charge) finish(end ChargeEnd) (ai.Status, error) {
	c.end = end
	c.Logger().Debug("charge finished", "end", end.String(), "misses", c.misses, "steps", c.steps)
	return ai.Complete, nil
}

func (c *Charge) move() (ai.Status, error) {
	h := c.Host()
	w := h.World()
	self, ok := h.Self()
	if !ok {
		return ai.Running, ai.ErrNoTarget
	}
	if h.Now()-c.startedAt > c.cfg.MaxTime {
		return c.finish(ChargeStop)
	}
	target, ok := w.Entity(c.target)
	if !ok || !target.Alive() {
		return c.finish(ChargeStop)
	}

	bearing := model.VecToYaw(target.Pos.Sub(self.Pos))
	if c.missed(math.Abs(model.AngleDiff(bearing, self.Yaw))) {
		return c.finish(ChargeStop)
	}
	steer := bearing + c.avoidance(self)
	h.TurnToward(self.Pos.Add(model.YawVector(steer).Scale(100)), c.cfg.TurnRate)
	c.anticipate(self)

	tr := h.AutoMove(c.moveFilter(self))
	c.steps++
	if !tr.Blocked {
		return ai.Running, nil
	}
	if c.steps == 1 {
		return ai.Running, fmt.Errorf("charge could not start: %w", ai.ErrBlocked)
	}
	if end, done := c.impact(self, tr); done {
		return c.finish(end)
	}
	c.passing = append(c.passing, tr.Hit)
	return ai.Running, nil
}

// missed tracks passes where the target drifted off the facing. It reports
// whether the charge should stop. The miss counter only grows on a fresh
// miss, and the run is forced to stop once it exceeds MaxMisses.
func (c *Charge) missed(offAngle float64) bool {
	if offAngle <= c.cfg.MissAngle {
		c.committed = false
		return false
	}
	if c.committed {
		return false
	}
	c.misses++
	if c.misses > c.cfg.MaxMisses {
		return true
	}
	if c.Host().World().RandomFloat(0, 1) >= c.cfg.ContinueChance {
		return true
	}
	c.committed = true
	return false
}

// filter is what the steering probes look for.
func (c *Charge) filter(self model.Entity) ai.TraceFilter {
	f := c.moveFilter(self)
	f.IgnoreTeam = self.Team
	return f
}

// moveFilter shoves light props aside and goes through anything the run
// already passed.
func (c *Charge) moveFilter(self model.Entity) ai.TraceFilter {
	return ai.TraceFilter{Ignore: self.ID, MinPropMass: c.cfg.HeavyMass, Pass: c.passing}
}

// avoidance probes both forward diagonals and returns a yaw offset steering
// away from whichever side is obstructed.
func (c *Charge) avoidance(self model.Entity) float64 {
	w := c.Host().World()
	probe := func(yaw float64) bool {
		end := self.Pos.Add(model.YawVector(yaw).Scale(c.cfg.ProbeDistance))
		tr := w.TraceHull(self.Pos, end, c.cfg.HullRadius, c.filter(self))
		return tr.Blocked && tr.Hit != c.target
	}
	offset := 0.0
	if probe(self.Yaw + c.cfg.ProbeAngle) {
		offset -= c.cfg.AvoidYaw
	}
	if probe(self.Yaw - c.cfg.ProbeAngle) {
		offset += c.cfg.AvoidYaw
	}
	return offset
}

func (c *Charge) anticipate(self model.Entity) {
	h := c.Host()
	end := self.Pos.Add(self.Forward().Scale(c.cfg.LookAhead))
	tr := h.World().TraceHull(self.Pos, end, c.cfg.HullRadius, c.filter(self))
	blocked := tr.Blocked && tr.Hit != c.target
	if blocked && !c.anticipating {
		h.World().AddGesture(h.ID(), model.ActChargeAnticipate)
	}
	c.anticipating = blocked
}

// impact classifies what blocked the run. Anything it does not end on is
// passed through from the next step on.
func (c *Charge) impact(self model.Entity, tr ai.Trace) (ChargeEnd, bool) {
	h := c.Host()
	w := h.World()
	if tr.Hit == model.WorldID || tr.Hit == model.NoEntity {
		return ChargeCrash, true
	}
	e, ok := w.Entity(tr.Hit)
	if !ok || e.Static {
		return ChargeCrash, true
	}
	if e.Class == model.ClassProp && e.Mass >= c.cfg.HeavyMass {
		return ChargeStop, true
	}
	if target, ok := hostileTarget(w, self.ID, tr.Hit); ok {
		force := self.Forward().Scale(c.cfg.Force)
		amount := rollDamage(w, c.cfg.MinDamage, c.cfg.MaxDamage)
		w.ApplyDamage(target.ID, blow(self, amount, model.DamageClub, force, h.Now()))
		if c.cfg.Knockdown {
			w.Knockdown(target.ID, force)
		}
		w.AddGesture(h.ID(), model.ActChargeHit)
		c.Logger().Debug("charge hit", "target", uint32(target.ID), "damage", amount)
		return ChargeHit, true
	}
	return ChargeNone, false
}
