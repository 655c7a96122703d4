package behavior

import (
	"log/slog"

	"github.com/nstehr/hive/ai"
	"github.com/nstehr/hive/model"
)

type CombatStunConfig struct {
	// Types must all be present on a single remembered blow.
	Types         model.DamageType
	AttackerClass model.Class
	Duration      float64
}

func DefaultCombatStunConfig() CombatStunConfig {
	return CombatStunConfig{
		Types:         model.DamageShock | model.DamageBlast,
		AttackerClass: model.ClassPlayer,
		Duration:      2,
	}
}

// CombatStun freezes the actor after a stun blow from a player, such as an
// electrified grenade.
type CombatStun struct {
	ai.Base
	cfg   CombatStunConfig
	until float64
}

func NewCombatStun(name string, cfg CombatStunConfig) *CombatStun {
	return &CombatStun{Base: ai.NewBase(name), cfg: cfg}
}

func (s *CombatStun) Configure(params map[string]float64, log *slog.Logger) {
	configure(&s.Base, params, setters{
		"required_types": setDamageType(&s.cfg.Types),
		"attacker_class": func(v float64) { s.cfg.AttackerClass = model.Class(v) },
		"duration":       setFloat(&s.cfg.Duration),
	}, log)
}

func (s *CombatStun) Config() CombatStunConfig { return s.cfg }

func (s *CombatStun) Supports(c model.Class) bool { return c == model.ClassAlien }

func (s *CombatStun) Interrupts() ai.ConditionSet { return ai.Conds(ai.CondCombatStun) }

func (s *CombatStun) stunning(d model.DamageInfo) bool {
	return d.Types.Has(s.cfg.Types) && d.AttackerClass == s.cfg.AttackerClass
}

func (s *CombatStun) GatherConditionsNotActive() {
	h := s.Host()
	h.Conditions().SetTo(ai.CondCombatStun, h.History().Any(s.stunning))
}

func (s *CombatStun) CanSelectSchedule() bool {
	return s.Host().Conditions().Has(ai.CondCombatStun)
}

func (s *CombatStun) SelectSchedule() *ai.Schedule {
	return &ai.Schedule{Name: s.Name(), Tasks: []ai.Task{{Kind: TaskCombatStun, Activity: model.ActCombatStun}}}
}

func (s *CombatStun) EndScheduleSelection() {
	s.SetInterruptible(true)
}

func (s *CombatStun) StartTask(t ai.Task) (ai.Status, error) {
	if t.Kind != TaskCombatStun {
		return s.Base.StartTask(t)
	}
	h := s.Host()
	s.SetInterruptible(false)
	h.History().Clear()
	h.Conditions().Clear(ai.CondCombatStun)
	h.SetActivity(t.Activity)
	dur := h.World().SequenceDuration(h.ID(), t.Activity)
	if dur <= 0 {
		dur = s.cfg.Duration
	}
	s.until = h.Now() + dur
	s.Logger().Debug("combat stunned", "duration", dur)
	return ai.Running, nil
}

func (s *CombatStun) RunTask(t ai.Task) (ai.Status, error) {
	if t.Kind != TaskCombatStun {
		return s.Base.RunTask(t)
	}
	if s.Host().Now() >= s.until {
		return ai.Complete, nil
	}
	return ai.Running, nil
}
