// Package progress provides a lightweight tracker that keeps aggregated
// dispatch counters for a scheduler instance. Every state transition is
// applied through Delta so the counters stay consistent under concurrency.

package progress

import (
	"sync"
	"time"
)

// Delta represents an incremental counter change emitted by the dispatcher.
// Fields are signed: Running and Pending move both ways.
type Delta struct {
	Submitted  int
	Dispatched int
	Queued     int
	Completed  int
	Failed     int
	Cancelled  int
	Dropped    int
	Lost       int
	Running    int
	Pending    int
}

// IsZero reports whether the delta carries no change.
func (d Delta) IsZero() bool {
	return d == Delta{}
}

// Counters is the value view of a tracker.
type Counters struct {
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	StartedAt time.Time `json:"startedAt" yaml:"startedAt"`

	Submitted  int `json:"submitted" yaml:"submitted"`
	Dispatched int `json:"dispatched" yaml:"dispatched"`
	Queued     int `json:"queued" yaml:"queued"`
	Completed  int `json:"completed" yaml:"completed"`
	Failed     int `json:"failed" yaml:"failed"`
	Cancelled  int `json:"cancelled" yaml:"cancelled"`
	Dropped    int `json:"dropped" yaml:"dropped"`
	Lost       int `json:"lost" yaml:"lost"`
	Running    int `json:"running" yaml:"running"`
	Pending    int `json:"pending" yaml:"pending"`
}

// Progress keeps aggregated counters. It is safe for concurrent use.
type Progress struct {
	mu       sync.Mutex
	counters Counters
	onChange func(Counters)
}

// New creates a tracker.
func New(name string, onChange func(Counters)) *Progress {
	return &Progress{
		counters: Counters{Name: name, StartedAt: time.Now()},
		onChange: onChange,
	}
}

// Update applies the supplied delta. If an onChange callback has been
// registered it is invoked with a copy of the counters outside the critical
// section, so the callback may call back into the dispatcher.
func (p *Progress) Update(d Delta) {
	if p == nil || d.IsZero() {
		return
	}

	p.mu.Lock()
	c := &p.counters
	c.Submitted += d.Submitted
	c.Dispatched += d.Dispatched
	c.Queued += d.Queued
	c.Completed += d.Completed
	c.Failed += d.Failed
	c.Cancelled += d.Cancelled
	c.Dropped += d.Dropped
	c.Lost += d.Lost
	c.Running += d.Running
	c.Pending += d.Pending
	snapshot := *c
	cb := p.onChange
	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters.
func (p *Progress) Snapshot() Counters {
	if p == nil {
		return Counters{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counters
}

// OnChange registers a callback invoked after every Update. Passing nil
// disables the callback; only one callback is active at a time.
func (p *Progress) OnChange(cb func(Counters)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}
