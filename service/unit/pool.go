package unit

import (
	"sync"
)

// Factory creates the unit with the supplied id.
type Factory func(id int) *Unit

// Stats describes pool occupancy.
type Stats struct {
	Limit   int `json:"limit" yaml:"limit"`
	Created int `json:"created" yaml:"created"`
	Idle    int `json:"idle" yaml:"idle"`
	Busy    int `json:"busy" yaml:"busy"`
	Retired int `json:"retired" yaml:"retired"`
	Spawned int `json:"spawned" yaml:"spawned"`
}

// Pool owns a bounded set of execution units.
type Pool struct {
	mu      sync.Mutex
	limit   int
	nextID  int
	live    map[int]*Unit
	idle    []*Unit
	retired int
	closed  bool
	factory Factory
}

// NewPool creates an empty pool; units are created on demand by Acquire.
func NewPool(limit int, factory Factory) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{
		limit:   limit,
		live:    make(map[int]*Unit, limit),
		factory: factory,
	}
}

// Acquire returns an idle unit, or creates one while under the limit. It
// reports false when every unit is busy and the limit is reached.
func (p *Pool) Acquire() (*Unit, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, false
	}
	if n := len(p.idle); n > 0 {
		u := p.idle[n-1]
		p.idle[n-1] = nil
		p.idle = p.idle[:n-1]
		u.pooled = false
		return u, true
	}
	if len(p.live) >= p.limit {
		return nil, false
	}
	p.nextID++
	u := p.factory(p.nextID)
	p.live[u.id] = u
	return u, true
}

// Release returns u to the idle set. Retired, foreign or already idle units
// are ignored.
func (p *Pool) Release(u *Unit) {
	if u == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || u.pooled || p.live[u.id] != u {
		return
	}
	u.pooled = true
	p.idle = append(p.idle, u)
}

// Retire stops u and frees its slot so that a replacement may be created.
func (p *Pool) Retire(u *Unit) {
	if u == nil {
		return
	}
	p.mu.Lock()
	if p.live[u.id] != u {
		p.mu.Unlock()
		return
	}
	delete(p.live, u.id)
	if u.pooled {
		for i, candidate := range p.idle {
			if candidate == u {
				p.idle = append(p.idle[:i], p.idle[i+1:]...)
				break
			}
		}
		u.pooled = false
	}
	p.retired++
	p.mu.Unlock()
	u.Stop()
}

// Limit returns the maximum number of live units.
func (p *Pool) Limit() int {
	return p.limit
}

// Stats returns a point in time view of the pool.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Limit:   p.limit,
		Created: len(p.live),
		Idle:    len(p.idle),
		Busy:    len(p.live) - len(p.idle),
		Retired: p.retired,
		Spawned: p.nextID,
	}
}

// Close stops every live unit and returns them so the caller can wait for
// their goroutines; subsequent Acquire calls fail.
func (p *Pool) Close() []*Unit {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	units := make([]*Unit, 0, len(p.live))
	for _, u := range p.live {
		units = append(units, u)
	}
	p.idle = nil
	p.mu.Unlock()
	for _, u := range units {
		u.Stop()
	}
	return units
}
