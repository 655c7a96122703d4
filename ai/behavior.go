package ai

import (
	"log/slog"

	"github.com/nstehr/hive/model"
)

// Behavior is one tactical capability of an actor. The host owns a list of
// them in priority order and activates at most one at a time.
type Behavior interface {
	Name() string
	// Bind attaches the behavior to its host. Called once, before any tick.
	Bind(h *Host)
	// Supports reports whether an actor of class c may run this behavior.
	// Unsupported behaviors are attached but never activated.
	Supports(c model.Class) bool
	// Interruptible gates preemption and host-wide interrupts.
	Interruptible() bool

	GatherCommonConditions()
	GatherConditionsNotActive()
	GatherConditions()

	CanSelectSchedule() bool
	BeginScheduleSelection()
	SelectSchedule() *Schedule
	EndScheduleSelection()

	// StartTask and RunTask return ErrTaskNotHandled for kinds the host
	// should run itself. Any other error fails the schedule.
	StartTask(t Task) (Status, error)
	RunTask(t Task) (Status, error)
	OnTaskFailed(t Task, err error)

	// HandleEvent receives anim events and touches while the behavior is
	// active (or was the last active one). It reports whether it consumed
	// the event.
	HandleEvent(ev Event) bool
	// OnDamage is called for every blow the actor takes, active or not.
	OnDamage(info model.DamageInfo)
}

// DefaultScheduleDefer is how long a behavior sits out after a failed
// schedule so it does not immediately reselect and fail again.
const DefaultScheduleDefer = 0.5

// Base implements the no-op parts of Behavior. Concrete behaviors embed it
// and override what they need.
type Base struct {
	name          string
	host          *Host
	interruptible bool
	deferTime     float64
	deferUntil    float64
}

// NewBase returns an interruptible base with the default defer window.
func NewBase(name string) Base {
	return Base{name: name, interruptible: true, deferTime: DefaultScheduleDefer}
}

func (b *Base) Name() string               { return b.name }
func (b *Base) Bind(h *Host)               { b.host = h }
func (b *Base) Host() *Host                { return b.host }
func (b *Base) Supports(model.Class) bool  { return true }
func (b *Base) Interruptible() bool        { return b.interruptible }
func (b *Base) SetInterruptible(v bool)    { b.interruptible = v }
func (b *Base) GatherCommonConditions()    {}
func (b *Base) GatherConditionsNotActive() {}
func (b *Base) GatherConditions()          {}
func (b *Base) CanSelectSchedule() bool    { return false }
func (b *Base) BeginScheduleSelection()    {}
func (b *Base) SelectSchedule() *Schedule  { return nil }
func (b *Base) EndScheduleSelection()      {}
func (b *Base) HandleEvent(Event) bool     { return false }
func (b *Base) OnDamage(model.DamageInfo)  {}
func (b *Base) StartTask(Task) (Status, error) {
	return Running, ErrTaskNotHandled
}
func (b *Base) RunTask(Task) (Status, error) {
	return Running, ErrTaskNotHandled
}

// OnTaskFailed starts the defer window.
func (b *Base) OnTaskFailed(Task, error) {
	if b.host != nil {
		b.deferUntil = b.host.Now() + b.deferTime
	}
}

// Deferred reports whether the behavior is sitting out after a failure.
func (b *Base) Deferred() bool {
	return b.host != nil && b.host.Now() < b.deferUntil
}

// IsActive reports whether this behavior is the host's running one.
func (b *Base) IsActive() bool {
	return b.host != nil && b.host.ActiveName() == b.name
}

// Logger returns the host logger tagged with the behavior name.
func (b *Base) Logger() *slog.Logger {
	if b.host == nil {
		return slog.Default().With("behavior", b.name)
	}
	return b.host.Logger().With("behavior", b.name)
}

// ApplyParam handles keys every behavior understands. Concrete parsers call
// it for keys they do not recognise; it reports whether the key was used.
func (b *Base) ApplyParam(key string, value float64) bool {
	switch key {
	case "schedule_defer":
		if value >= 0 {
			b.deferTime = value
		}
		return true
	}
	return false
}
