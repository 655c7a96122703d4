package behavior

import (
	"log/slog"

	"github.com/nstehr/hive/ai"
	"github.com/nstehr/hive/model"
)

type RetreatConfig struct {
	Cooldown float64
	// MinRecentDamage is the damage that must have landed within
	// DamageWindow seconds before the actor backs off.
	MinRecentDamage float64
	DamageWindow    float64
	Timeout         float64
}

func DefaultRetreatConfig() RetreatConfig {
	return RetreatConfig{Cooldown: 3, DamageWindow: 3, Timeout: 2}
}

// Retreat steps back after being hurt.
type Retreat struct {
	ai.Base
	cfg  RetreatConfig
	next float64
}

func NewRetreat(name string, cfg RetreatConfig) *Retreat {
	return &Retreat{Base: ai.NewBase(name), cfg: cfg}
}

func (r *Retreat) Configure(params map[string]float64, log *slog.Logger) {
	configure(&r.Base, params, setters{
		"cooldown":          setFloat(&r.cfg.Cooldown),
		"min_recent_damage": setFloat(&r.cfg.MinRecentDamage),
		"damage_window":     setFloat(&r.cfg.DamageWindow),
		"timeout":           setFloat(&r.cfg.Timeout),
	}, log)
}

func (r *Retreat) Config() RetreatConfig { return r.cfg }

func (r *Retreat) GatherConditionsNotActive() {
	h := r.Host()
	conds := h.Conditions()
	hurt := conds.Any(ai.Conds(ai.CondLightDamage, ai.CondHeavyDamage))
	conds.SetTo(ai.CondRetreat, hurt && h.Now() >= r.next && r.recentDamage() >= r.cfg.MinRecentDamage)
}

func (r *Retreat) recentDamage() float64 {
	h := r.Host()
	since := h.Now() - r.cfg.DamageWindow
	total := 0.0
	for _, d := range h.History().Entries() {
		if d.Time >= since {
			total += d.Amount
		}
	}
	return total
}

func (r *Retreat) CanSelectSchedule() bool {
	return r.Host().Conditions().Has(ai.CondRetreat) && !r.Deferred()
}

func (r *Retreat) SelectSchedule() *ai.Schedule {
	return &ai.Schedule{
		Name:  r.Name(),
		Tasks: []ai.Task{{Kind: TaskRetreat, Arg: r.cfg.Timeout, Activity: model.ActStepBack}},
	}
}

func (r *Retreat) StartTask(t ai.Task) (ai.Status, error) {
	if t.Kind != TaskRetreat {
		return r.Base.StartTask(t)
	}
	h := r.Host()
	r.next = h.Now() + r.cfg.Cooldown
	if !h.SetActivity(t.Activity) {
		return ai.Complete, nil
	}
	return ai.Running, nil
}

func (r *Retreat) RunTask(t ai.Task) (ai.Status, error) {
	if t.Kind != TaskRetreat {
		return r.Base.RunTask(t)
	}
	h := r.Host()
	w := h.World()
	h.AutoMove(ai.TraceFilter{})
	if w.ActivityFinished(h.ID()) || (t.Arg > 0 && h.TaskElapsed() >= t.Arg) {
		return ai.Complete, nil
	}
	return ai.Running, nil
}
