package ai

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/nstehr/hive/model"
)

const (
	// maxTaskStepsPerTick bounds how many tasks may complete in one tick so a
	// schedule of instant tasks cannot spin.
	maxTaskStepsPerTick = 8

	defaultYawSpeed    = 360.0 // degrees per second
	defaultFaceTol     = 10.0  // degrees
	defaultHeavyDamage = 20.0
)

// State is the host's per-actor scheduling state.
type State uint8

const (
	Idle State = iota
	RunningTask
)

func (s State) String() string {
	if s == RunningTask {
		return "running"
	}
	return "idle"
}

// Outcome is how the last schedule ended.
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomeCompleted
	OutcomeFailed
	OutcomeInterrupted
	OutcomePreempted
	OutcomeDied
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	case OutcomeInterrupted:
		return "interrupted"
	case OutcomePreempted:
		return "preempted"
	case OutcomeDied:
		return "died"
	default:
		return "none"
	}
}

// TransitionHook is called exactly once each time the running behavior
// changes. old is nil the first time anything runs.
type TransitionHook func(old, new Behavior)

type slot struct {
	b        Behavior
	guard    *Guard
	eligible bool
}

type runState struct {
	sched     *Schedule
	cursor    int
	started   bool
	startedAt float64
	deadline  float64
}

// Host drives the behaviors of a single actor. It is not safe for concurrent
// use; a simulation ticks each host from one goroutine.
type Host struct {
	id     model.EntityID
	class  model.Class
	world  World
	shared *Shared
	log    *slog.Logger

	slots    []*slot
	active   *slot
	previous *slot
	running  Behavior // last behavior that was activated, for transition hooks
	run      runState
	hooks    []TransitionHook

	conds   Conditions
	history DamageHistory
	params  map[string]int
	status  status

	enemy       model.EntityID
	now, dt     float64
	ticks       uint64
	started     bool
	yawSpeed    float64
	heavyDamage float64

	lastOutcome Outcome
	lastErr     error
}

// Option configures a Host.
type Option func(*Host)

func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.log = l
		}
	}
}

func WithTransitionHook(fn TransitionHook) Option {
	return func(h *Host) {
		if fn != nil {
			h.hooks = append(h.hooks, fn)
		}
	}
}

// WithYawSpeed sets how fast the host turns the actor in degrees per second.
func WithYawSpeed(degPerSec float64) Option {
	return func(h *Host) {
		if degPerSec > 0 {
			h.yawSpeed = degPerSec
		}
	}
}

// WithHeavyDamage sets the blow size that counts as heavy damage.
func WithHeavyDamage(amount float64) Option {
	return func(h *Host) {
		if amount > 0 {
			h.heavyDamage = amount
		}
	}
}

// NewHost creates the scheduler for one actor. shared may be nil for actors
// that use no throttled capability.
func NewHost(id model.EntityID, class model.Class, world World, shared *Shared, opts ...Option) *Host {
	h := &Host{
		id:          id,
		class:       class,
		world:       world,
		shared:      shared,
		log:         slog.Default(),
		params:      make(map[string]int),
		yawSpeed:    defaultYawSpeed,
		heavyDamage: defaultHeavyDamage,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With("actor", uint32(id), "class", class.String())
	return h
}

// BehaviorOption configures one attached behavior.
type BehaviorOption func(*slot)

// WithGuard makes selection also require g to pass.
func WithGuard(g *Guard) BehaviorOption {
	return func(s *slot) { s.guard = g }
}

// AddBehavior appends b at the lowest priority so far. A behavior that does
// not support the actor's class is kept but can never activate.
func (h *Host) AddBehavior(b Behavior, opts ...BehaviorOption) error {
	if b == nil {
		return errors.New("nil behavior")
	}
	for _, s := range h.slots {
		if s.b.Name() == b.Name() {
			return fmt.Errorf("duplicate behavior %q", b.Name())
		}
	}
	s := &slot{b: b, eligible: b.Supports(h.class)}
	for _, opt := range opts {
		opt(s)
	}
	b.Bind(h)
	if !s.eligible {
		h.log.Warn("behavior rejected for actor class", "behavior", b.Name())
	}
	h.slots = append(h.slots, s)
	return nil
}

// Behaviors returns the attached behaviors in priority order.
func (h *Host) Behaviors() []Behavior {
	out := make([]Behavior, len(h.slots))
	for i, s := range h.slots {
		out[i] = s.b
	}
	return out
}

// Behavior finds an attached behavior by name.
func (h *Host) Behavior(name string) (Behavior, bool) {
	for _, s := range h.slots {
		if s.b.Name() == name {
			return s.b, true
		}
	}
	return nil, false
}

func (h *Host) ID() model.EntityID      { return h.id }
func (h *Host) Class() model.Class      { return h.class }
func (h *Host) World() World            { return h.world }
func (h *Host) Shared() *Shared         { return h.shared }
func (h *Host) Logger() *slog.Logger    { return h.log }
func (h *Host) Now() float64            { return h.now }
func (h *Host) Dt() float64             { return h.dt }
func (h *Host) Ticks() uint64           { return h.ticks }
func (h *Host) Conditions() *Conditions { return &h.conds }
func (h *Host) History() *DamageHistory { return &h.history }
func (h *Host) State() State            { return stateOf(h.active) }
func (h *Host) LastOutcome() Outcome    { return h.lastOutcome }
func (h *Host) LastError() error        { return h.lastErr }
func (h *Host) EnemyID() model.EntityID { return h.enemy }

func stateOf(s *slot) State {
	if s == nil {
		return Idle
	}
	return RunningTask
}

// Active returns the running behavior, if any.
func (h *Host) Active() Behavior {
	if h.active == nil {
		return nil
	}
	return h.active.b
}

// ActiveName returns the running behavior's name or "".
func (h *Host) ActiveName() string {
	if h.active == nil {
		return ""
	}
	return h.active.b.Name()
}

// Previous returns the behavior that ran before the current idle period.
func (h *Host) Previous() Behavior {
	if h.previous == nil {
		return nil
	}
	return h.previous.b
}

// CurrentSchedule returns the running schedule and task cursor.
func (h *Host) CurrentSchedule() (*Schedule, int) {
	return h.run.sched, h.run.cursor
}

// CurrentTask returns the task under the cursor.
func (h *Host) CurrentTask() (Task, bool) {
	if h.run.sched == nil || h.run.cursor >= len(h.run.sched.Tasks) {
		return Task{}, false
	}
	return h.run.sched.Tasks[h.run.cursor], true
}

// TaskElapsed is how long the current task has been running.
func (h *Host) TaskElapsed() float64 {
	if !h.run.started {
		return 0
	}
	return h.now - h.run.startedAt
}

// Self returns the actor's current world snapshot.
func (h *Host) Self() (model.Entity, bool) {
	return h.world.Entity(h.id)
}

// Enemy returns the current enemy snapshot if there is a live one.
func (h *Host) Enemy() (model.Entity, bool) {
	if h.enemy == model.NoEntity {
		return model.Entity{}, false
	}
	e, ok := h.world.Entity(h.enemy)
	if !ok || !e.Alive() {
		return model.Entity{}, false
	}
	return e, true
}

// Param returns a host parameter, or 0 when unset.
func (h *Host) Param(name string) int { return h.params[name] }

// AddParam declares a parameter with its default value.
func (h *Host) AddParam(name string, def int) {
	if _, ok := h.params[name]; !ok {
		h.params[name] = def
	}
}

// SetParam changes a declared parameter. A real change raises
// CondParametersChanged so running schedules restart with the new value.
func (h *Host) SetParam(name string, v int) error {
	cur, ok := h.params[name]
	if !ok {
		return fmt.Errorf("unknown parameter %q", name)
	}
	if cur != v {
		h.params[name] = v
		h.conds.Set(CondParametersChanged)
		h.log.Debug("parameter changed", "param", name, "value", v)
	}
	return nil
}

// Params returns a copy of the parameter table.
func (h *Host) Params() map[string]int {
	out := make(map[string]int, len(h.params))
	for k, v := range h.params {
		out[k] = v
	}
	return out
}

// InterruptSource is implemented by behaviors whose trigger condition should
// abort whatever interruptible schedule is running, so they can take over.
type InterruptSource interface {
	Interrupts() ConditionSet
}

// customInterrupts are conditions that abort any interruptible schedule.
// A source only contributes while it could take over this tick.
func (h *Host) customInterrupts() ConditionSet {
	set := Conds(CondParametersChanged)
	for _, i := range h.raisedSources() {
		if s := h.slots[i]; s != h.active {
			set = set.Union(s.b.(InterruptSource).Interrupts())
		}
	}
	return set
}

// raisedSources returns the slot indexes of interrupt sources whose
// condition is set and that would pass selection right now.
func (h *Host) raisedSources() []int {
	var (
		out []int
		env *GuardEnv
	)
	for i, s := range h.slots {
		if !s.eligible {
			continue
		}
		src, ok := s.b.(InterruptSource)
		if !ok || !h.conds.Any(src.Interrupts()) {
			continue
		}
		if h.selectable(s, &env) {
			out = append(out, i)
		}
	}
	return out
}

// Tick advances the actor by one simulation step at absolute time now.
func (h *Host) Tick(now float64) {
	if h.started {
		h.dt = math.Max(0, now-h.now)
	}
	h.started = true
	h.now = now
	h.ticks++

	self, ok := h.Self()
	if !ok || !self.Alive() {
		if h.active != nil {
			h.finish(OutcomeDied)
		}
		return
	}
	h.updateStatus()

	// Damage conditions live for one tick once observed; blows landing
	// after this point are kept for the next tick.
	damage := h.conds.Snapshot() & Conds(CondLightDamage, CondHeavyDamage)
	h.conds.ClearVolatile()
	h.gatherHostConditions()
	for _, s := range h.slots {
		if s.eligible {
			s.b.GatherCommonConditions()
		}
	}
	for _, s := range h.slots {
		if !s.eligible {
			continue
		}
		if s == h.active {
			s.b.GatherConditions()
		} else {
			s.b.GatherConditionsNotActive()
		}
	}

	// Conditions gathered this tick are seen at the boundary before the
	// next step, never in the middle of one.
	if h.active != nil && h.interrupted() {
		h.finish(OutcomeInterrupted)
	}

	h.selectBehavior()
	if h.active != nil {
		h.step()
	}

	h.conds.Clear(damage.List()...)
}

func (h *Host) gatherHostConditions() {
	prev := h.enemy
	h.enemy = h.world.CurrentEnemy(h.id)
	if h.enemy != model.NoEntity {
		if h.enemy != prev {
			h.conds.Set(CondNewEnemy)
		}
		if h.world.Visible(h.id, h.enemy) {
			h.conds.Set(CondSeeEnemy)
		}
	}
	if prev != model.NoEntity {
		if e, ok := h.world.Entity(prev); !ok || !e.Alive() {
			h.conds.Set(CondEnemyDead)
		}
	}
}

func (h *Host) interrupted() bool {
	if h.run.sched == nil {
		return false
	}
	set := h.run.sched.Interrupts
	if h.active.b.Interruptible() {
		set |= h.customInterrupts()
	}
	return h.conds.Any(set)
}

// selectBehavior scans in priority order. The scan never looks past the
// active behavior and is skipped entirely while it is not interruptible.
// An interruptible behavior ranked above a raised interrupt source is passed
// over, since the source's condition would abort it at the first boundary.
func (h *Host) selectBehavior() {
	if h.active != nil && !h.active.b.Interruptible() {
		return
	}
	raised := h.raisedSources()
	var env *GuardEnv
	for i, s := range h.slots {
		if s == h.active {
			return
		}
		if !s.eligible {
			continue
		}
		if s.b.Interruptible() && outranked(raised, i) {
			continue
		}
		if !h.selectable(s, &env) {
			continue
		}
		if h.active != nil {
			h.finish(OutcomePreempted)
		}
		h.activate(s)
		return
	}
}

// outranked reports whether a raised source sits below slot i. Raised
// sources themselves keep their priority order.
func outranked(raised []int, i int) bool {
	if len(raised) == 0 || slices.Contains(raised, i) {
		return false
	}
	return raised[len(raised)-1] > i
}

// selectable runs the slot's guard, then CanSelectSchedule. env is built on
// first use and shared across calls.
func (h *Host) selectable(s *slot, env **GuardEnv) bool {
	if s.guard != nil {
		if *env == nil {
			self, _ := h.Self()
			e := h.guardEnv(self)
			*env = &e
		}
		ok, err := s.guard.Allows(**env)
		if err != nil {
			h.log.Warn("guard error", "behavior", s.b.Name(), "error", err)
			return false
		}
		if !ok {
			return false
		}
	}
	return s.b.CanSelectSchedule()
}

func (h *Host) guardEnv(self model.Entity) GuardEnv {
	env := GuardEnv{
		Now:        h.now,
		Health:     self.HealthFraction(),
		Conditions: make(map[string]bool),
		Params:     h.params,
	}
	for _, c := range h.conds.Snapshot().List() {
		env.Conditions[c.String()] = true
	}
	if e, ok := h.Enemy(); ok {
		env.HasEnemy = true
		env.EnemyDistance = self.Pos.DistTo(e.Pos)
	}
	return env
}

func (h *Host) activate(s *slot) {
	s.b.BeginScheduleSelection()
	sched := s.b.SelectSchedule()
	if sched == nil || len(sched.Tasks) == 0 {
		h.log.Debug("behavior selected no schedule", "behavior", s.b.Name())
		h.lastErr = &TaskError{Behavior: s.b.Name(), Err: ErrNoSchedule}
		s.b.OnTaskFailed(Task{}, ErrNoSchedule)
		s.b.EndScheduleSelection()
		h.previous = s
		h.lastOutcome = OutcomeFailed
		return
	}

	h.active = s
	h.run = runState{sched: sched}
	h.conds.Clear(CondNewEnemy, CondParametersChanged)
	h.log.Debug("behavior activated", "behavior", s.b.Name(), "schedule", sched.Name)

	if h.running != s.b {
		old := h.running
		h.running = s.b
		for _, fn := range h.hooks {
			fn(old, s.b)
		}
	}
}

// step drives the current schedule until a task is still running, the
// schedule ends, or the per-tick budget runs out. Interrupts are checked
// after every step and never inside one.
func (h *Host) step() {
	for i := 0; i < maxTaskStepsPerTick && h.active != nil; i++ {
		task := h.run.sched.Tasks[h.run.cursor]

		var (
			st  Status
			err error
		)
		if !h.run.started {
			h.run.started = true
			h.run.startedAt = h.now
			st, err = h.startTask(task)
		} else {
			st, err = h.runTask(task)
		}

		if err != nil {
			h.fail(task, err)
			return
		}
		if st == Complete {
			h.run.cursor++
			h.run.started = false
			if h.run.cursor >= len(h.run.sched.Tasks) {
				h.finish(OutcomeCompleted)
				return
			}
		}
		if h.interrupted() {
			h.finish(OutcomeInterrupted)
			return
		}
		if st == Running {
			return
		}
	}
}

func (h *Host) startTask(t Task) (Status, error) {
	st, err := h.active.b.StartTask(t)
	if errors.Is(err, ErrTaskNotHandled) {
		return h.startDefaultTask(t)
	}
	return st, err
}

func (h *Host) runTask(t Task) (Status, error) {
	st, err := h.active.b.RunTask(t)
	if errors.Is(err, ErrTaskNotHandled) {
		return h.runDefaultTask(t)
	}
	return st, err
}

func (h *Host) fail(t Task, err error) {
	te := &TaskError{Behavior: h.active.b.Name(), Schedule: h.run.sched.Name, Task: t, Err: err}
	h.lastErr = te
	h.log.Debug("task failed", "behavior", te.Behavior, "schedule", te.Schedule, "task", t.String(), "reason", err.Error())
	h.active.b.OnTaskFailed(t, err)
	h.finish(OutcomeFailed)
}

func (h *Host) finish(o Outcome) {
	s := h.active
	if s == nil {
		return
	}
	if o != OutcomeFailed {
		h.lastErr = nil
	}
	h.log.Debug("schedule ended", "behavior", s.b.Name(), "schedule", h.run.sched.Name, "outcome", o.String())
	h.active = nil
	h.previous = s
	h.run = runState{}
	h.lastOutcome = o
	s.b.EndScheduleSelection()
}

// Abandon stops the running schedule as if it were interrupted.
func (h *Host) Abandon() {
	h.finish(OutcomeInterrupted)
}

func (h *Host) startDefaultTask(t Task) (Status, error) {
	switch t.Kind {
	case TaskWait:
		h.run.deadline = h.now + t.Arg
		if t.Arg <= 0 {
			return Complete, nil
		}
		return Running, nil
	case TaskFaceEnemy:
		return h.faceEnemy(t)
	case TaskPlayActivity:
		h.SetActivity(t.Activity)
		return Complete, nil
	case TaskWaitForActivity:
		h.run.deadline = 0
		if t.Arg > 0 {
			h.run.deadline = h.now + t.Arg
		}
		return Running, nil
	}
	return Running, fmt.Errorf("%w: %s", ErrTaskNotHandled, t)
}

func (h *Host) runDefaultTask(t Task) (Status, error) {
	switch t.Kind {
	case TaskWait:
		if h.now >= h.run.deadline {
			return Complete, nil
		}
		return Running, nil
	case TaskFaceEnemy:
		return h.faceEnemy(t)
	case TaskPlayActivity:
		return Complete, nil
	case TaskWaitForActivity:
		if h.world.ActivityFinished(h.id) {
			return Complete, nil
		}
		if h.run.deadline > 0 && h.now >= h.run.deadline {
			return Complete, nil
		}
		return Running, nil
	}
	return Running, fmt.Errorf("%w: %s", ErrTaskNotHandled, t)
}

func (h *Host) faceEnemy(t Task) (Status, error) {
	e, ok := h.Enemy()
	if !ok {
		return Running, ErrNoTarget
	}
	tol := t.Arg
	if tol <= 0 {
		tol = defaultFaceTol
	}
	if h.FaceToward(e.Pos) <= tol {
		return Complete, nil
	}
	return Running, nil
}

// SetActivity plays a, logging when the model has no sequence for it. The
// actor keeps its previous pose in that case.
func (h *Host) SetActivity(a model.Activity) bool {
	if h.world.SetActivity(h.id, a) {
		return true
	}
	h.log.Warn("missing sequence, keeping previous pose", "activity", string(a))
	return false
}

// FaceToward turns the actor toward pos at the host's yaw speed for one tick
// and returns the remaining absolute yaw error in degrees.
func (h *Host) FaceToward(pos model.Vec3) float64 {
	return h.TurnToward(pos, h.yawSpeed)
}

// TurnToward is FaceToward with an explicit turn rate.
func (h *Host) TurnToward(pos model.Vec3, degPerSec float64) float64 {
	self, ok := h.Self()
	if !ok {
		return 180
	}
	want := model.VecToYaw(pos.Sub(self.Pos))
	yaw := model.ApproachAngle(want, self.Yaw, degPerSec*h.dt)
	if yaw != self.Yaw {
		h.world.SetYaw(h.id, yaw)
	}
	return math.Abs(model.AngleDiff(want, yaw))
}
