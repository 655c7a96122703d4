package ai

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nstehr/hive/model"
)

const (
	selfID  model.EntityID = 10
	enemyID model.EntityID = 20
)

func newTestHost(t *testing.T, bs ...Behavior) (*Host, *stubWorld) {
	t.Helper()
	w := newStubWorld()
	w.add(model.Entity{ID: selfID, Class: model.ClassAlien, Health: 100, MaxHealth: 100})
	w.add(model.Entity{ID: enemyID, Class: model.ClassPlayer, Pos: model.Vec3{X: 100}, Health: 100, MaxHealth: 100})
	h := NewHost(selfID, model.ClassAlien, w, NewShared(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	for _, b := range bs {
		if err := h.AddBehavior(b); err != nil {
			t.Fatalf("AddBehavior(%s): %v", b.Name(), err)
		}
	}
	return h, w
}

func TestHostStartsTaskBeforeRunning(t *testing.T) {
	b := newScripted("a", Task{Kind: taskCustom})
	b.want = true
	b.onStart = func(Task) (Status, error) { return Running, nil }
	b.onRun = func(Task) (Status, error) { return Running, nil }
	h, _ := newTestHost(t, b)

	h.Tick(0)
	if len(b.started) != 1 || len(b.ran) != 0 {
		t.Fatalf("after first tick expected 1 start and 0 runs, got %d and %d", len(b.started), len(b.ran))
	}
	h.Tick(0.1)
	if len(b.started) != 1 || len(b.ran) != 1 {
		t.Fatalf("after second tick expected 1 start and 1 run, got %d and %d", len(b.started), len(b.ran))
	}
	if h.State() != RunningTask {
		t.Errorf("expected running state, got %s", h.State())
	}
}

func TestHostPriorityOrder(t *testing.T) {
	high := newScripted("high", Wait(10))
	low := newScripted("low", Wait(10))
	high.want, low.want = true, true
	h, _ := newTestHost(t, high, low)

	h.Tick(0)
	if h.ActiveName() != "high" {
		t.Fatalf("expected high to activate, got %q", h.ActiveName())
	}
	for i := 1; i < 5; i++ {
		h.Tick(float64(i) * 0.1)
		if h.ActiveName() != "high" {
			t.Fatalf("tick %d: active changed to %q", i, h.ActiveName())
		}
	}
	if len(low.started) != 0 {
		t.Errorf("low priority behavior started %d tasks while high was active", len(low.started))
	}
}

func TestHostPreemptsInterruptible(t *testing.T) {
	high := newScripted("high", Wait(10))
	low := newScripted("low", Wait(10))
	low.want = true
	h, _ := newTestHost(t, high, low)

	h.Tick(0)
	if h.ActiveName() != "low" {
		t.Fatalf("expected low active, got %q", h.ActiveName())
	}
	high.want = true
	h.Tick(0.1)
	if h.ActiveName() != "high" {
		t.Fatalf("expected high to preempt, got %q", h.ActiveName())
	}
	if low.ends != 1 {
		t.Errorf("expected low to end once, got %d", low.ends)
	}
}

func TestHostSkipsScanWhileNotInterruptible(t *testing.T) {
	high := newScripted("high", Wait(10))
	low := newScripted("low", Wait(10))
	low.want = true
	h, _ := newTestHost(t, high, low)

	h.Tick(0)
	low.SetInterruptible(false)
	high.want = true
	for i := 1; i < 4; i++ {
		h.Tick(float64(i) * 0.1)
		if h.ActiveName() != "low" {
			t.Fatalf("tick %d: non-interruptible behavior was preempted by %q", i, h.ActiveName())
		}
	}
	low.SetInterruptible(true)
	h.Tick(0.5)
	if h.ActiveName() != "high" {
		t.Errorf("expected high once low became interruptible, got %q", h.ActiveName())
	}
}

func TestHostLowerPriorityNeverPreempts(t *testing.T) {
	high := newScripted("high", Wait(10))
	low := newScripted("low", Wait(10))
	high.want = true
	h, _ := newTestHost(t, high, low)

	h.Tick(0)
	low.want = true
	h.Tick(0.1)
	if h.ActiveName() != "high" {
		t.Errorf("expected high to stay active, got %q", h.ActiveName())
	}
}

func TestHostInterruptObservedAtBoundary(t *testing.T) {
	b := newScripted("a", Task{Kind: taskCustom}, Wait(1))
	b.want = true
	b.sched.Interrupts = Conds(CondRetreat)
	runs := 0
	var during string
	b.onStart = func(Task) (Status, error) { return Running, nil }
	b.onRun = func(Task) (Status, error) {
		runs++
		b.Host().Conditions().Set(CondRetreat)
		during = b.Host().ActiveName()
		return Running, nil
	}
	h, _ := newTestHost(t, b)

	h.Tick(0)
	b.want = false
	h.Tick(0.1)
	if during != "a" {
		t.Fatalf("schedule abandoned mid-step")
	}
	if runs != 1 {
		t.Fatalf("expected 1 run, got %d", runs)
	}
	if h.Active() != nil || h.LastOutcome() != OutcomeInterrupted {
		t.Errorf("expected interrupt after the step, active=%q outcome=%s", h.ActiveName(), h.LastOutcome())
	}
	h.Tick(0.2)
	if runs != 1 {
		t.Errorf("task ran again after the interrupt: %d runs", runs)
	}
}

func TestHostInterruptBetweenTasks(t *testing.T) {
	b := newScripted("a", Task{Kind: taskCustom}, Task{Kind: taskCustom + 1})
	b.want = true
	b.sched.Interrupts = Conds(CondEnemyDead)
	b.onStart = func(t Task) (Status, error) {
		if t.Kind == taskCustom {
			b.Host().Conditions().Set(CondEnemyDead)
			return Complete, nil
		}
		return Running, nil
	}
	h, _ := newTestHost(t, b)

	h.Tick(0)
	if len(b.started) != 1 {
		t.Fatalf("expected the second task to be skipped, started %v", b.started)
	}
	if h.LastOutcome() != OutcomeInterrupted {
		t.Errorf("expected interrupted outcome, got %s", h.LastOutcome())
	}
}

func TestHostRejectsUnsupportedClass(t *testing.T) {
	b := newScripted("players_only", Wait(1))
	b.want = true
	b.supports = func(c model.Class) bool { return c == model.ClassPlayer }
	h, _ := newTestHost(t, b)

	for i := 0; i < 3; i++ {
		h.Tick(float64(i) * 0.1)
	}
	if h.Active() != nil {
		t.Errorf("unsupported behavior %q activated", h.ActiveName())
	}
}

func TestHostRejectsDuplicateName(t *testing.T) {
	h, _ := newTestHost(t, newScripted("a", Wait(1)))
	if err := h.AddBehavior(newScripted("a", Wait(1))); err == nil {
		t.Error("expected duplicate behavior error")
	}
}

func TestHostTransitionHookOncePerSwitch(t *testing.T) {
	high := newScripted("high", Wait(10))
	low := newScripted("low", Wait(0))
	low.want = true
	w := newStubWorld()
	w.add(model.Entity{ID: selfID, Class: model.ClassAlien, Health: 1, MaxHealth: 1})

	type change struct{ old, new string }
	var changes []change
	name := func(b Behavior) string {
		if b == nil {
			return ""
		}
		return b.Name()
	}
	h := NewHost(selfID, model.ClassAlien, w, nil,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithTransitionHook(func(old, new Behavior) {
			changes = append(changes, change{name(old), name(new)})
		}))
	_ = h.AddBehavior(high)
	_ = h.AddBehavior(low)

	// low completes and reselects itself every tick.
	for i := 0; i < 4; i++ {
		h.Tick(float64(i) * 0.1)
	}
	high.want = true
	h.Tick(0.5)
	h.Tick(0.6)

	// A behavior that offers no schedule never runs, so it is not reported.
	empty := newScripted("empty")
	empty.sched = nil
	empty.want = true
	_ = h.AddBehavior(empty)
	high.want, low.want = false, false
	h.Tick(11)
	h.Tick(12)
	if len(empty.failed) == 0 {
		t.Fatalf("expected the empty behavior to be tried")
	}

	want := []change{{"", "low"}, {"low", "high"}}
	if len(changes) != len(want) {
		t.Fatalf("expected %v, got %v", want, changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change %d: expected %v, got %v", i, want[i], changes[i])
		}
	}
}

func TestHostParametersChangedInterrupts(t *testing.T) {
	b := newScripted("a", Wait(10))
	b.want = true
	h, _ := newTestHost(t, b)
	h.AddParam("aggression", 1)

	h.Tick(0)
	b.want = false
	if err := h.SetParam("aggression", 1); err != nil {
		t.Fatal(err)
	}
	h.Tick(0.1)
	if h.ActiveName() != "a" {
		t.Fatalf("unchanged parameter interrupted the schedule")
	}
	if err := h.SetParam("aggression", 3); err != nil {
		t.Fatal(err)
	}
	h.Tick(0.2)
	if h.Active() != nil || h.LastOutcome() != OutcomeInterrupted {
		t.Errorf("expected interrupt after a parameter change, active=%q outcome=%s", h.ActiveName(), h.LastOutcome())
	}
	if h.Param("aggression") != 3 {
		t.Errorf("expected aggression 3, got %d", h.Param("aggression"))
	}
	if err := h.SetParam("unknown", 1); err == nil {
		t.Error("expected error for undeclared parameter")
	}
}

func TestHostCustomInterruptOnlyWhileInterruptible(t *testing.T) {
	flinch := newScripted("flinch", Wait(1))
	flinch.source = Conds(CondFlinch)
	low := newScripted("low", Wait(10))
	low.want = true
	h, _ := newTestHost(t, flinch, low)

	h.Tick(0)
	low.SetInterruptible(false)
	h.Conditions().Set(CondFlinch)
	flinch.want = true
	h.Tick(0.1)
	if h.ActiveName() != "low" {
		t.Fatalf("custom interrupt fired while not interruptible")
	}
	low.SetInterruptible(true)
	h.Tick(0.2)
	if h.LastOutcome() != OutcomeInterrupted {
		t.Errorf("expected custom interrupt, got %s", h.LastOutcome())
	}
	if h.ActiveName() != "flinch" {
		t.Errorf("expected flinch to take over, got %q", h.ActiveName())
	}
}

func TestHostLowRankedInterruptSourceWins(t *testing.T) {
	attack := newScripted("attack", Wait(10))
	attack.want = true
	flinch := newScripted("flinch", Wait(0.15))
	flinch.source = Conds(CondFlinch)
	flinch.onStart = func(Task) (Status, error) {
		flinch.Host().Conditions().Clear(CondFlinch)
		flinch.want = false
		return Running, ErrTaskNotHandled
	}
	h, _ := newTestHost(t, attack, flinch)

	h.Tick(0)
	if h.ActiveName() != "attack" {
		t.Fatalf("expected attack to activate, got %q", h.ActiveName())
	}

	h.Conditions().Set(CondFlinch)
	flinch.want = true
	h.Tick(0.1)
	if h.ActiveName() != "flinch" {
		t.Fatalf("expected flinch to take over, got %q (outcome %s)", h.ActiveName(), h.LastOutcome())
	}
	for now := 0.2; now < 0.5; now += 0.1 {
		h.Tick(now)
	}
	if h.ActiveName() != "attack" {
		t.Errorf("expected attack to resume after the flinch, got %q", h.ActiveName())
	}
	if h.Conditions().Has(CondFlinch) {
		t.Errorf("expected the flinch condition to be consumed")
	}
}

func TestHostInterruptSourceThatCannotRun(t *testing.T) {
	attack := newScripted("attack", Wait(10))
	attack.want = true
	stun := newScripted("stun", Wait(1))
	stun.source = Conds(CondCombatStun)
	h, _ := newTestHost(t, attack, stun)

	h.Tick(0)
	h.Conditions().Set(CondCombatStun)
	for now := 0.1; now < 0.5; now += 0.1 {
		h.Tick(now)
		if h.ActiveName() != "attack" {
			t.Fatalf("t=%.1f: a source that cannot be selected interrupted attack (active %q)", now, h.ActiveName())
		}
	}
}

func TestHostNoScheduleDefers(t *testing.T) {
	b := newScripted("a")
	b.sched = nil
	b.want = true
	h, _ := newTestHost(t, b)

	h.Tick(0)
	if len(b.failed) != 1 || !errors.Is(b.failed[0], ErrNoSchedule) {
		t.Fatalf("expected ErrNoSchedule failure, got %v", b.failed)
	}
	if !b.Deferred() {
		t.Error("expected behavior to be deferred after failing")
	}
	h.Tick(0.1)
	if len(b.failed) != 1 {
		t.Errorf("deferred behavior was selected again")
	}
}

func TestHostTaskFailure(t *testing.T) {
	b := newScripted("a", Task{Kind: taskCustom})
	b.want = true
	b.onStart = func(Task) (Status, error) { return Running, ErrBlocked }
	h, _ := newTestHost(t, b)

	h.Tick(0)
	if h.LastOutcome() != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", h.LastOutcome())
	}
	var te *TaskError
	if !errors.As(h.LastError(), &te) {
		t.Fatalf("expected *TaskError, got %v", h.LastError())
	}
	if te.Behavior != "a" || !errors.Is(te, ErrBlocked) {
		t.Errorf("unexpected task error %v", te)
	}
}

func TestHostDefaultTasks(t *testing.T) {
	b := newScripted("a", Play(model.ActMeleeAttack1), WaitActivity(0), Wait(0.25))
	b.want = true
	h, w := newTestHost(t, b)
	w.missing[model.ActMeleeAttack1] = true

	h.Tick(0)
	// Missing sequence still completes; the wait for activity is running.
	if _, cur := h.CurrentSchedule(); cur != 1 {
		t.Fatalf("expected cursor at 1, got %d", cur)
	}
	b.want = false
	h.Tick(0.1)
	if _, cur := h.CurrentSchedule(); cur != 1 {
		t.Fatalf("wait for activity completed before the activity finished")
	}
	w.finished = true
	h.Tick(0.2)
	if _, cur := h.CurrentSchedule(); cur != 2 {
		t.Fatalf("expected cursor at 2, got %d", cur)
	}
	h.Tick(0.3)
	if h.Active() == nil {
		t.Fatal("wait finished early")
	}
	h.Tick(0.5)
	if h.Active() != nil || h.LastOutcome() != OutcomeCompleted {
		t.Errorf("expected completed schedule, got %s", h.LastOutcome())
	}
}

func TestHostFaceEnemy(t *testing.T) {
	b := newScripted("a", FaceEnemy(5))
	b.want = true
	h, w := newTestHost(t, b)
	w.ents[enemyID].Pos = model.Vec3{Y: 100} // 90 degrees to the left
	w.enemy = enemyID

	h.Tick(0)
	b.want = false
	h.Tick(0.1)
	self, _ := h.Self()
	if self.Yaw <= 0 || self.Yaw >= 90 {
		t.Fatalf("expected partial turn, yaw %.1f", self.Yaw)
	}
	for i := 2; i < 10 && h.Active() != nil; i++ {
		h.Tick(float64(i) * 0.1)
	}
	if h.LastOutcome() != OutcomeCompleted {
		t.Errorf("expected face enemy to complete, got %s", h.LastOutcome())
	}
}

func TestHostFaceEnemyWithoutEnemyFails(t *testing.T) {
	b := newScripted("a", FaceEnemy(5))
	b.want = true
	h, _ := newTestHost(t, b)

	h.Tick(0)
	if !errors.Is(h.LastError(), ErrNoTarget) {
		t.Errorf("expected ErrNoTarget, got %v", h.LastError())
	}
}

func TestHostDeadActorAbandons(t *testing.T) {
	b := newScripted("a", Wait(10))
	b.want = true
	h, w := newTestHost(t, b)

	h.Tick(0)
	w.ents[selfID].Health = 0
	h.Tick(0.1)
	if h.Active() != nil || h.LastOutcome() != OutcomeDied {
		t.Errorf("expected died outcome, got %s", h.LastOutcome())
	}
}

func TestHostEventsGoToPreviousWhenIdle(t *testing.T) {
	b := newScripted("a", Wait(0))
	b.want = true
	h, _ := newTestHost(t, b)

	h.Tick(0)
	if h.Active() != nil {
		t.Fatal("expected the instant schedule to finish")
	}
	if !h.HandleTouch(enemyID) {
		t.Fatal("touch not delivered")
	}
	if len(b.events) != 1 || b.events[0].Other != enemyID {
		t.Errorf("expected touch from %d, got %v", enemyID, b.events)
	}
}

func TestHostTakeDamage(t *testing.T) {
	a := newScripted("a", Wait(10))
	c := newScripted("c", Wait(10))
	h, _ := newTestHost(t, a, c)

	h.TakeDamage(model.DamageInfo{Amount: 5})
	if !h.Conditions().Has(CondLightDamage) {
		t.Error("expected light damage")
	}
	h.TakeDamage(model.DamageInfo{Amount: 50})
	if !h.Conditions().Has(CondHeavyDamage) {
		t.Error("expected heavy damage")
	}
	if a.damage != 2 || c.damage != 2 {
		t.Errorf("expected every behavior to see 2 blows, got %d and %d", a.damage, c.damage)
	}
	if h.History().Len() != 2 {
		t.Errorf("expected 2 blows in history, got %d", h.History().Len())
	}
	h.Tick(0)
	if h.Conditions().Has(CondLightDamage) || h.Conditions().Has(CondHeavyDamage) {
		t.Error("damage conditions survived an observing tick")
	}
}

func TestHostGuard(t *testing.T) {
	b := newScripted("a", Wait(10))
	b.want = true
	w := newStubWorld()
	w.add(model.Entity{ID: selfID, Class: model.ClassAlien, Health: 100, MaxHealth: 100})
	h := NewHost(selfID, model.ClassAlien, w, nil,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	g, err := CompileGuard(`Health < 0.5`)
	if err != nil {
		t.Fatal(err)
	}
	_ = h.AddBehavior(b, WithGuard(g))

	h.Tick(0)
	if h.Active() != nil {
		t.Fatal("guard did not block selection")
	}
	w.ents[selfID].Health = 30
	h.Tick(0.1)
	if h.ActiveName() != "a" {
		t.Errorf("expected guard to allow selection at 30%% health")
	}
}
