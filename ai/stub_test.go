package ai

import "github.com/nstehr/hive/model"

// stubWorld is a minimal World for host tests: no geometry, everything
// visible, activities finish when told to.
type stubWorld struct {
	ents     map[model.EntityID]*model.Entity
	enemy    model.EntityID
	finished bool
	missing  map[model.Activity]bool
	activity model.Activity
	gestures []model.Activity
	launched int
	damage   []model.DamageInfo
	moved    []float64
}

func newStubWorld() *stubWorld {
	return &stubWorld{
		ents:    make(map[model.EntityID]*model.Entity),
		missing: make(map[model.Activity]bool),
	}
}

func (w *stubWorld) add(e model.Entity) {
	w.ents[e.ID] = &e
}

func (w *stubWorld) TraceHull(start, end model.Vec3, radius float64, f TraceFilter) Trace {
	return Trace{Fraction: 1, End: end}
}

func (w *stubWorld) TraceLine(start, end model.Vec3, f TraceFilter) Trace {
	return Trace{Fraction: 1, End: end}
}

func (w *stubWorld) CurrentEnemy(self model.EntityID) model.EntityID { return w.enemy }
func (w *stubWorld) Memories(self model.EntityID) []model.Memory     { return nil }
func (w *stubWorld) Visible(self, target model.EntityID) bool        { return true }

func (w *stubWorld) SetActivity(self model.EntityID, a model.Activity) bool {
	if w.missing[a] {
		return false
	}
	w.activity = a
	w.finished = false
	return true
}

func (w *stubWorld) AddGesture(self model.EntityID, a model.Activity) bool {
	w.gestures = append(w.gestures, a)
	return true
}

func (w *stubWorld) ActivityFinished(self model.EntityID) bool { return w.finished }

func (w *stubWorld) HasSequence(self model.EntityID, a model.Activity) bool { return !w.missing[a] }

func (w *stubWorld) SequenceDuration(self model.EntityID, a model.Activity) float64 { return 1 }

func (w *stubWorld) AutoMove(self model.EntityID, dt float64, f TraceFilter) Trace {
	w.moved = append(w.moved, dt)
	return Trace{Fraction: 1}
}

func (w *stubWorld) SetYaw(self model.EntityID, yaw float64) {
	if e, ok := w.ents[self]; ok {
		e.Yaw = yaw
	}
}

func (w *stubWorld) Gravity() float64                              { return 800 }
func (w *stubWorld) SetVelocity(self model.EntityID, v model.Vec3) {}
func (w *stubWorld) SetGrounded(self model.EntityID, g bool)       {}

func (w *stubWorld) Entity(id model.EntityID) (model.Entity, bool) {
	e, ok := w.ents[id]
	if !ok {
		return model.Entity{}, false
	}
	return *e, true
}

func (w *stubWorld) ApplyDamage(target model.EntityID, info model.DamageInfo) {
	w.damage = append(w.damage, info)
}

func (w *stubWorld) Knockdown(target model.EntityID, force model.Vec3) {}

func (w *stubWorld) Relationship(self, other model.EntityID) model.Disposition {
	return model.Hostile
}

func (w *stubWorld) Priority(self, other model.EntityID) int { return 0 }
func (w *stubWorld) DamageScale() float64                    { return 1 }

func (w *stubWorld) LaunchProjectile(self model.EntityID, volley string, target model.Vec3) {
	w.launched++
}

func (w *stubWorld) RandomFloat(lo, hi float64) float64 { return lo }

// scripted is a behavior whose decisions are driven from the test.
type scripted struct {
	Base
	want     bool
	sched    *Schedule
	started  []TaskKind
	ran      []TaskKind
	failed   []error
	ends     int
	damage   int
	events   []Event
	supports func(model.Class) bool
	onStart  func(Task) (Status, error)
	onRun    func(Task) (Status, error)
	source   ConditionSet
}

func newScripted(name string, tasks ...Task) *scripted {
	return &scripted{
		Base:  NewBase(name),
		sched: &Schedule{Name: name, Tasks: tasks},
	}
}

func (s *scripted) Supports(c model.Class) bool {
	if s.supports != nil {
		return s.supports(c)
	}
	return true
}

func (s *scripted) CanSelectSchedule() bool   { return s.want && !s.Deferred() }
func (s *scripted) SelectSchedule() *Schedule { return s.sched }
func (s *scripted) EndScheduleSelection()     { s.ends++ }

func (s *scripted) StartTask(t Task) (Status, error) {
	s.started = append(s.started, t.Kind)
	if s.onStart != nil {
		return s.onStart(t)
	}
	return Running, ErrTaskNotHandled
}

func (s *scripted) RunTask(t Task) (Status, error) {
	s.ran = append(s.ran, t.Kind)
	if s.onRun != nil {
		return s.onRun(t)
	}
	return Running, ErrTaskNotHandled
}

func (s *scripted) OnTaskFailed(t Task, err error) {
	s.failed = append(s.failed, err)
	s.Base.OnTaskFailed(t, err)
}

func (s *scripted) HandleEvent(ev Event) bool {
	s.events = append(s.events, ev)
	return true
}

func (s *scripted) OnDamage(model.DamageInfo) { s.damage++ }

func (s *scripted) Interrupts() ConditionSet { return s.source }

const taskCustom = TaskBehaviorBase
