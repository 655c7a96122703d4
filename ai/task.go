package ai

import (
	"fmt"
	"sync"

	"github.com/nstehr/hive/model"
)

// TaskKind identifies what a task does. Kinds below TaskBehaviorBase are
// handled by the host itself; behaviors define their own above it.
type TaskKind uint16

const (
	TaskNone TaskKind = iota
	// TaskWait waits Arg seconds.
	TaskWait
	// TaskFaceEnemy turns toward the current enemy until within Arg degrees.
	TaskFaceEnemy
	// TaskPlayActivity sets Activity and completes immediately.
	TaskPlayActivity
	// TaskWaitForActivity waits until the current activity finishes, or Arg
	// seconds when Arg > 0.
	TaskWaitForActivity

	TaskBehaviorBase TaskKind = 100
)

var (
	taskNamesMu sync.RWMutex
	taskNames   = map[TaskKind]string{
		TaskNone:            "none",
		TaskWait:            "wait",
		TaskFaceEnemy:       "face_enemy",
		TaskPlayActivity:    "play_activity",
		TaskWaitForActivity: "wait_for_activity",
	}
)

// NameTasks registers display names for behavior-defined task kinds.
func NameTasks(names map[TaskKind]string) {
	taskNamesMu.Lock()
	defer taskNamesMu.Unlock()
	for k, v := range names {
		taskNames[k] = v
	}
}

func (k TaskKind) String() string {
	taskNamesMu.RLock()
	defer taskNamesMu.RUnlock()
	if n, ok := taskNames[k]; ok {
		return n
	}
	return fmt.Sprintf("task(%d)", uint16(k))
}

// Task is one step of a schedule.
type Task struct {
	Kind     TaskKind
	Arg      float64
	Activity model.Activity
}

func (t Task) String() string {
	if t.Activity != "" {
		return t.Kind.String() + ":" + string(t.Activity)
	}
	return t.Kind.String()
}

// Status is the non-failure result of a task step. Failure is reported as a
// non-nil error alongside it.
type Status uint8

const (
	Running Status = iota
	Complete
)

func (s Status) String() string {
	if s == Complete {
		return "complete"
	}
	return "running"
}

// Schedule is a stateless template: an ordered task list plus the conditions
// that abort it. The host's cursor is the only per-run state.
type Schedule struct {
	Name       string
	Tasks      []Task
	Interrupts ConditionSet
}

// Wait, FaceEnemy, Play and WaitActivity build the host-handled tasks.
func Wait(seconds float64) Task { return Task{Kind: TaskWait, Arg: seconds} }
func FaceEnemy(tolerance float64) Task {
	return Task{Kind: TaskFaceEnemy, Arg: tolerance}
}
func Play(a model.Activity) Task { return Task{Kind: TaskPlayActivity, Activity: a} }
func WaitActivity(timeout float64) Task {
	return Task{Kind: TaskWaitForActivity, Arg: timeout}
}
