package idgen

import "github.com/google/uuid"

// NewFunc produces raw identifiers. Tests replace it for deterministic ids.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier.
func New() string { return NewFunc() }

// Task returns an identifier for a submitted task.
func Task() string { return "task-" + NewFunc() }
