package dispatcher

import (
	"slices"
	"time"

	"github.com/viant/scorepool/internal/clock"
	"github.com/viant/scorepool/progress"
	"github.com/viant/scorepool/service/buffer"
	"github.com/viant/scorepool/service/unit"
)

// Snapshot is a point in time view of the dispatcher.
type Snapshot struct {
	Closed        bool              `json:"closed" yaml:"closed"`
	PreciseCancel bool              `json:"preciseCancel" yaml:"preciseCancel"`
	Units         unit.Stats        `json:"units" yaml:"units"`
	Queue         QueueState        `json:"queue" yaml:"queue"`
	Buffers       buffer.Stats      `json:"buffers" yaml:"buffers"`
	Tokens        int               `json:"tokens" yaml:"tokens"`
	InFlight      []InFlight        `json:"inFlight,omitempty" yaml:"inFlight,omitempty"`
	Progress      progress.Counters `json:"progress" yaml:"progress"`
}

// QueueState describes the overflow queue.
type QueueState struct {
	Length int `json:"length" yaml:"length"`
	Limit  int `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// InFlight describes a dispatched task.
type InFlight struct {
	TaskID  string        `json:"taskId" yaml:"taskId"`
	UnitID  int           `json:"unitId" yaml:"unitId"`
	Token   string        `json:"token,omitempty" yaml:"token,omitempty"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// State returns a snapshot of pools, queue, registry and counters.
func (s *Service) State() Snapshot {
	s.mu.Lock()
	snapshot := Snapshot{
		Closed:        s.closed,
		PreciseCancel: s.config.PreciseCancel,
		Units:         s.pool.Stats(),
		Queue:         QueueState{Length: s.queue.Len(), Limit: s.queue.Limit()},
		Buffers:       s.recycler.Stats(),
		Tokens:        s.registry.Len(),
	}
	now := clock.Now()
	for _, f := range s.inflight {
		snapshot.InFlight = append(snapshot.InFlight, InFlight{
			TaskID:  f.taskID,
			UnitID:  f.unit.ID(),
			Token:   f.token,
			Elapsed: now.Sub(f.dispatched),
		})
	}
	s.mu.Unlock()

	slices.SortFunc(snapshot.InFlight, func(a, b InFlight) int { return a.UnitID - b.UnitID })
	snapshot.Progress = s.progress.Snapshot()
	return snapshot
}
