package model

import (
	"context"
	"time"
)

// Task is a single unit of dispatched work. Payload is opaque to the
// scheduler; Buffer is attached by the dispatcher right before the task is
// handed to an execution unit.
type Task struct {
	ID      string  `json:"id" yaml:"id"`
	Payload any     `json:"payload,omitempty" yaml:"payload,omitempty"`
	Buffer  *Buffer `json:"-" yaml:"-"`
}

// NewTask creates a task for the supplied payload. An empty id is filled in by
// the dispatcher on submission.
func NewTask(id string, payload any) *Task {
	return &Task{ID: id, Payload: payload}
}

// Attach moves buffer ownership into the task.
func (t *Task) Attach(buffer *Buffer) {
	t.Buffer = buffer.Move()
}

// Detach moves buffer ownership out of the task.
func (t *Task) Detach() *Buffer {
	if t == nil {
		return nil
	}
	return t.Buffer.Move()
}

// Result is the single message an execution unit sends back for a task.
// Buffer carries the scratch memory back to the dispatcher; it is only valid
// for the duration of the continuation call.
type Result struct {
	TaskID   string        `json:"taskId" yaml:"taskId"`
	UnitID   int           `json:"unitId" yaml:"unitId"`
	Output   any           `json:"output,omitempty" yaml:"output,omitempty"`
	Err      error         `json:"-" yaml:"-"`
	Buffer   *Buffer       `json:"-" yaml:"-"`
	Started  time.Time     `json:"started" yaml:"started"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Continuation receives the result of a dispatched task.
type Continuation func(result *Result)

// DropFunc is notified when a submitted task is discarded without a result.
type DropFunc func(taskID string, reason error)

// Kernel is the entry point every execution unit runs. The context is
// cancelled when the owning pool shuts down.
type Kernel func(ctx context.Context, task *Task) (any, error)
