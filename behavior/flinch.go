package behavior

import (
	"log/slog"
	"math"

	"github.com/nstehr/hive/ai"
	"github.com/nstehr/hive/model"
)

type FlinchConfig struct {
	Cooldown  float64
	MinDamage float64
	// StumbleClasses is a bitmask of attacker classes whose melee blows
	// knock the actor into a stumble.
	StumbleClasses uint32
	// Fallback durations when the model has no length for the sequence.
	GestureTime float64
	StumbleTime float64
}

func DefaultFlinchConfig() FlinchConfig {
	return FlinchConfig{
		Cooldown:       1.5,
		StumbleClasses: 1 << uint(model.ClassPlayer),
		GestureTime:    0.4,
		StumbleTime:    1,
	}
}

// Direction is the side a blow came from.
type Direction uint8

const (
	FromFront Direction = iota
	FromBack
	FromLeft
	FromRight
)

func (d Direction) String() string {
	switch d {
	case FromBack:
		return "back"
	case FromLeft:
		return "left"
	case FromRight:
		return "right"
	default:
		return "front"
	}
}

// FlinchDirection projects the attacker's bearing onto the actor's forward
// and right vectors and picks the dominant side.
func FlinchDirection(self model.Entity, from model.Vec3) Direction {
	rel := from.Sub(self.Pos).Flat().Normalize()
	f := rel.Dot(self.Forward())
	r := rel.Dot(self.Right())
	if math.Abs(f) >= math.Abs(r) {
		if f >= 0 {
			return FromFront
		}
		return FromBack
	}
	if r >= 0 {
		return FromRight
	}
	return FromLeft
}

var (
	flinchGestures = [...]model.Activity{
		FromFront: model.ActFlinchFront,
		FromBack:  model.ActFlinchBack,
		FromLeft:  model.ActFlinchLeft,
		FromRight: model.ActFlinchRight,
	}
	stumbles = [...]model.Activity{
		FromFront: model.ActStumbleFront,
		FromBack:  model.ActStumbleBack,
		FromLeft:  model.ActStumbleLeft,
		FromRight: model.ActStumbleRight,
	}
)

// Flinch reacts to blows. Ordinary hits play a short directional gesture;
// heavy ones play a full-body stumble during which the actor cannot be
// interrupted.
type Flinch struct {
	ai.Base
	cfg FlinchConfig

	next    float64
	pending bool
	dir     Direction
	stumble bool
	until   float64
	last    model.Activity
}

func NewFlinch(name string, cfg FlinchConfig) *Flinch {
	return &Flinch{Base: ai.NewBase(name), cfg: cfg}
}

func (f *Flinch) Configure(params map[string]float64, log *slog.Logger) {
	configure(&f.Base, params, setters{
		"cooldown":        setFloat(&f.cfg.Cooldown),
		"min_damage":      setFloat(&f.cfg.MinDamage),
		"stumble_classes": func(v float64) { f.cfg.StumbleClasses = uint32(v) },
		"gesture_time":    setFloat(&f.cfg.GestureTime),
		"stumble_time":    setFloat(&f.cfg.StumbleTime),
	}, log)
}

func (f *Flinch) Config() FlinchConfig { return f.cfg }

// LastActivity is the gesture or stumble most recently played.
func (f *Flinch) LastActivity() model.Activity { return f.last }

// Supports limits flinching to swarm creatures.
func (f *Flinch) Supports(c model.Class) bool { return c == model.ClassAlien }

func (f *Flinch) Interrupts() ai.ConditionSet { return ai.Conds(ai.CondFlinch) }

// ShouldStumble reports whether a blow is heavy enough for a full-body
// stumble. Shock and lingering damage never are.
func (f *Flinch) ShouldStumble(info model.DamageInfo) bool {
	if info.Types.Any(model.DamageShock | model.DamageOverTime) {
		return false
	}
	if info.Stumble || info.Types.Any(model.DamageBlast) {
		return true
	}
	return info.Types.Melee() && f.cfg.StumbleClasses&(1<<uint(info.AttackerClass)) != 0
}

func (f *Flinch) OnDamage(info model.DamageInfo) {
	h := f.Host()
	if h.Now() < f.next || info.Amount < f.cfg.MinDamage {
		return
	}
	// Lingering burns and poisons tick too often to flinch at.
	if info.Types != model.DamageGeneric && info.Types&^model.DamageOverTime == 0 {
		return
	}
	self, ok := h.Self()
	if !ok {
		return
	}
	from := info.AttackerPos
	if e, ok := h.World().Entity(info.Attacker); ok {
		from = e.Pos
	}
	f.dir = FlinchDirection(self, from)
	f.stumble = f.ShouldStumble(info)
	f.pending = true
	f.next = h.Now() + f.cfg.Cooldown
	h.Conditions().Set(ai.CondFlinch)
}

func (f *Flinch) CanSelectSchedule() bool {
	return f.pending && f.Host().Conditions().Has(ai.CondFlinch)
}

func (f *Flinch) SelectSchedule() *ai.Schedule {
	return &ai.Schedule{Name: f.Name(), Tasks: []ai.Task{{Kind: TaskFlinch}}}
}

func (f *Flinch) EndScheduleSelection() {
	f.SetInterruptible(true)
}

func (f *Flinch) StartTask(t ai.Task) (ai.Status, error) {
	if t.Kind != TaskFlinch {
		return f.Base.StartTask(t)
	}
	h := f.Host()
	w := h.World()
	h.Conditions().Clear(ai.CondFlinch)
	f.pending = false

	if f.stumble && !w.HasSequence(h.ID(), stumbles[f.dir]) {
		f.Logger().Debug("no stumble sequence, flinching instead", "direction", f.dir.String())
		f.stumble = false
	}
	if !f.stumble {
		f.last = flinchGestures[f.dir]
		w.AddGesture(h.ID(), f.last)
		dur := w.SequenceDuration(h.ID(), f.last)
		if dur <= 0 {
			dur = f.cfg.GestureTime
		}
		// The gesture plays over whatever runs next; it only pushes back
		// the next flinch.
		f.next = math.Max(f.next, h.Now()+dur)
		return ai.Complete, nil
	}

	f.last = stumbles[f.dir]
	f.SetInterruptible(false)
	h.SetActivity(f.last)
	dur := w.SequenceDuration(h.ID(), f.last)
	if dur <= 0 {
		dur = f.cfg.StumbleTime
	}
	f.until = h.Now() + dur
	f.Logger().Debug("stumbling", "direction", f.dir.String(), "duration", dur)
	return ai.Running, nil
}

func (f *Flinch) RunTask(t ai.Task) (ai.Status, error) {
	if t.Kind != TaskFlinch {
		return f.Base.RunTask(t)
	}
	if f.Host().Now() >= f.until {
		return ai.Complete, nil
	}
	return ai.Running, nil
}
