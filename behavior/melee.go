package behavior

import (
	"log/slog"

	"github.com/nstehr/hive/ai"
	"github.com/nstehr/hive/model"
)

// MeleeSlot selects which of the two independent melee attacks a Melee is.
type MeleeSlot uint8

const (
	Primary MeleeSlot = iota + 1
	Secondary
)

// MeleeConfig tunes a melee attack. Angles are in degrees.
type MeleeConfig struct {
	MinRange       float64
	MaxRange       float64
	AttackDotAngle float64
	MinDamage      float64
	MaxDamage      float64
	Force          float64
	Knockdown      bool
	NoTurn         bool
	Cooldown       float64
	HullRadius     float64
}

func DefaultMeleeConfig() MeleeConfig {
	return MeleeConfig{
		MaxRange:       100,
		AttackDotAngle: 45,
		MinDamage:      8,
		MaxDamage:      12,
		Force:          150,
		Cooldown:       1,
		HullRadius:     12,
	}
}

// MeleeOutcome is how the last swing ended.
type MeleeOutcome uint8

const (
	MeleePending MeleeOutcome = iota
	MeleeHit
	MeleeMiss
)

func (o MeleeOutcome) String() string {
	switch o {
	case MeleeHit:
		return "hit"
	case MeleeMiss:
		return "miss"
	default:
		return "pending"
	}
}

// Melee swings at the current enemy when it is in range and roughly ahead.
// The blow lands on the hit anim event, or when the swing finishes if the
// sequence has no event.
type Melee struct {
	ai.Base
	cfg  MeleeConfig
	slot MeleeSlot

	nextAttack float64
	resolved   bool
	outcome    MeleeOutcome
}

func NewMelee(name string, slot MeleeSlot, cfg MeleeConfig) *Melee {
	if slot != Secondary {
		slot = Primary
	}
	return &Melee{Base: ai.NewBase(name), cfg: cfg, slot: slot}
}

// Configure applies spawn parameters.
func (m *Melee) Configure(params map[string]float64, log *slog.Logger) {
	configure(&m.Base, params, setters{
		"min_range":        setFloat(&m.cfg.MinRange),
		"max_range":        setFloat(&m.cfg.MaxRange),
		"attack_dot_angle": setFloat(&m.cfg.AttackDotAngle),
		"min_damage":       setFloat(&m.cfg.MinDamage),
		"max_damage":       setFloat(&m.cfg.MaxDamage),
		"force":            setFloat(&m.cfg.Force),
		"knockdown":        setBool(&m.cfg.Knockdown),
		"no_turn":          setBool(&m.cfg.NoTurn),
		"cooldown":         setFloat(&m.cfg.Cooldown),
		"hull_radius":      setFloat(&m.cfg.HullRadius),
	}, log)
}

func (m *Melee) Config() MeleeConfig   { return m.cfg }
func (m *Melee) Outcome() MeleeOutcome { return m.outcome }

func (m *Melee) cond() ai.Condition {
	if m.slot == Secondary {
		return ai.CondMelee2Ready
	}
	return ai.CondMelee1Ready
}

func (m *Melee) attackActivity() model.Activity {
	if m.slot == Secondary {
		return model.ActMeleeAttack2
	}
	return model.ActMeleeAttack1
}

func (m *Melee) GatherConditionsNotActive() {
	m.Host().Conditions().SetTo(m.cond(), m.ready())
}

func (m *Melee) ready() bool {
	h := m.Host()
	if h.Now() < m.nextAttack {
		return false
	}
	self, ok := h.Self()
	if !ok {
		return false
	}
	enemy, ok := h.Enemy()
	if !ok {
		return false
	}
	d := self.Pos.DistTo(enemy.Pos)
	if d < m.cfg.MinRange || d > m.cfg.MaxRange {
		return false
	}
	return withinAngle(self, enemy.Pos, m.cfg.AttackDotAngle)
}

func (m *Melee) CanSelectSchedule() bool {
	return m.Host().Conditions().Has(m.cond()) && !m.Deferred()
}

func (m *Melee) SelectSchedule() *ai.Schedule {
	tasks := make([]ai.Task, 0, 3)
	if !m.cfg.NoTurn {
		tasks = append(tasks, ai.FaceEnemy(m.cfg.AttackDotAngle))
	}
	tasks = append(tasks,
		ai.Task{Kind: TaskMeleeAttack, Activity: m.attackActivity()},
		ai.Task{Kind: TaskMeleeOutcome},
	)
	return &ai.Schedule{Name: m.Name(), Tasks: tasks, Interrupts: ai.Conds(ai.CondEnemyDead)}
}

func (m *Melee) StartTask(t ai.Task) (ai.Status, error) {
	h := m.Host()
	switch t.Kind {
	case TaskMeleeAttack:
		m.resolved = false
		m.outcome = MeleePending
		m.nextAttack = h.Now() + m.cfg.Cooldown
		h.SetActivity(t.Activity)
		return ai.Running, nil
	case TaskMeleeOutcome:
		if !m.resolved {
			m.strike()
		}
		act := model.ActMeleeMiss
		if m.outcome == MeleeHit {
			act = model.ActMeleeHit
		}
		if !h.SetActivity(act) {
			return ai.Complete, nil
		}
		return ai.Running, nil
	}
	return m.Base.StartTask(t)
}

func (m *Melee) RunTask(t ai.Task) (ai.Status, error) {
	switch t.Kind {
	case TaskMeleeAttack, TaskMeleeOutcome:
		h := m.Host()
		if h.World().ActivityFinished(h.ID()) {
			return ai.Complete, nil
		}
		return ai.Running, nil
	}
	return m.Base.RunTask(t)
}

func (m *Melee) HandleEvent(ev ai.Event) bool {
	if ev.Kind != ai.EventAnim || ev.Anim != model.AnimMeleeHit {
		return false
	}
	if !m.IsActive() || m.resolved {
		return false
	}
	m.strike()
	return true
}

// strike sweeps a hull along the facing for the attack's reach and damages
// whatever entity it meets first.
func (m *Melee) strike() {
	h := m.Host()
	w := h.World()
	m.resolved = true
	m.outcome = MeleeMiss

	self, ok := h.Self()
	if !ok {
		return
	}
	fwd := self.Forward()
	end := self.Pos.Add(fwd.Scale(m.cfg.MaxRange))
	tr := w.TraceHull(self.Pos, end, m.cfg.HullRadius, ai.TraceFilter{Ignore: self.ID, IgnoreTeam: self.Team})
	if !tr.Blocked || tr.Hit == model.WorldID {
		m.Logger().Debug("melee missed")
		return
	}
	target, ok := w.Entity(tr.Hit)
	if !ok || !target.Damageable() {
		m.Logger().Debug("melee hit something undamageable", "entity", uint32(tr.Hit))
		return
	}

	amount := rollDamage(w, m.cfg.MinDamage, m.cfg.MaxDamage)
	force := fwd.Scale(m.cfg.Force)
	w.ApplyDamage(target.ID, blow(self, amount, model.DamageSlash, force, h.Now()))
	if m.cfg.Knockdown {
		w.Knockdown(target.ID, force)
	}
	m.outcome = MeleeHit
	m.Logger().Debug("melee hit", "target", uint32(target.ID), "damage", amount)
}
