package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/viant/scorepool/model"
)

// Stats aggregates recycler accounting.
type Stats struct {
	Capacity  int   `json:"capacity" yaml:"capacity"`
	Allocated int64 `json:"allocated" yaml:"allocated"`
	Reused    int64 `json:"reused" yaml:"reused"`
	Idle      int   `json:"idle" yaml:"idle"`
}

// Recycler owns the idle buffer set.
type Recycler struct {
	mu        sync.Mutex
	idle      []*model.Buffer
	capacity  int
	provider  Provider
	allocated atomic.Int64
	reused    atomic.Int64
}

// NewRecycler creates a recycler handing out buffers of the supplied capacity.
// A nil provider selects FloatProvider; a non positive capacity selects
// DefaultCapacity.
func NewRecycler(capacity int, provider Provider) *Recycler {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if provider == nil {
		provider = NewFloatProvider()
	}
	return &Recycler{capacity: capacity, provider: provider}
}

// Obtain returns a cleared buffer, reusing the most recently reclaimed one
// when available.
func (r *Recycler) Obtain() *model.Buffer {
	r.mu.Lock()
	n := len(r.idle)
	if n == 0 {
		r.mu.Unlock()
		r.allocated.Add(1)
		return r.provider.Create(r.capacity)
	}
	buffer := r.idle[n-1]
	r.idle[n-1] = nil
	r.idle = r.idle[:n-1]
	r.mu.Unlock()

	r.provider.Reset(buffer)
	r.reused.Add(1)
	return buffer
}

// Reclaim takes ownership of a returned buffer. Moved or undersized buffers
// are dropped.
func (r *Recycler) Reclaim(buffer *model.Buffer) {
	owned := buffer.Move()
	if owned == nil || owned.Cap() < r.capacity {
		return
	}
	r.mu.Lock()
	r.idle = append(r.idle, owned)
	r.mu.Unlock()
}

// Capacity returns the element capacity of every handed out buffer.
func (r *Recycler) Capacity() int {
	return r.capacity
}

// Stats returns a point in time view of the recycler.
func (r *Recycler) Stats() Stats {
	r.mu.Lock()
	idle := len(r.idle)
	r.mu.Unlock()
	return Stats{
		Capacity:  r.capacity,
		Allocated: r.allocated.Load(),
		Reused:    r.reused.Load(),
		Idle:      idle,
	}
}
