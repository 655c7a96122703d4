package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskNotHandled tells the host to run its own implementation of a task.
	ErrTaskNotHandled = errors.New("task not handled")
	ErrNoTarget       = errors.New("no valid target")
	ErrNoSchedule     = errors.New("no schedule selected")
	ErrBlocked        = errors.New("movement blocked")
)

// TaskError records why a schedule was abandoned.
type TaskError struct {
	Behavior string
	Schedule string
	Task     Task
	Err      error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s/%s: task %s failed: %v", e.Behavior, e.Schedule, e.Task, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }
