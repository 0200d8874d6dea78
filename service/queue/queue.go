package queue

import (
	"errors"
	"sync"

	ring "github.com/eapache/queue"
	"github.com/viant/scorepool/model"
	"github.com/viant/scorepool/tracing"
)

// ErrFull is returned by Enqueue when a bounded queue reached its limit.
var ErrFull = errors.New("task queue is full")

// Entry is a pending (task, continuation) pair. Token is only populated when
// the dispatcher carries identity tokens through the queue. Dropped, when set,
// is notified if the entry is discarded instead of dispatched. Span follows
// the task from submission to completion.
type Entry struct {
	Task         *model.Task
	Continuation model.Continuation
	Token        string
	Dropped      model.DropFunc
	Span         *tracing.Span
}

// Queue is a FIFO of pending entries, unbounded unless a limit is set.
type Queue struct {
	mu    sync.Mutex
	items *ring.Queue
	limit int
}

// New creates a queue; limit <= 0 means unbounded.
func New(limit int) *Queue {
	if limit < 0 {
		limit = 0
	}
	return &Queue{items: ring.New(), limit: limit}
}

// Enqueue appends entry to the tail.
func (q *Queue) Enqueue(entry Entry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.limit > 0 && q.items.Length() >= q.limit {
		return ErrFull
	}
	q.items.Add(entry)
	return nil
}

// Next removes and returns the head entry.
func (q *Queue) Next() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Length() == 0 {
		return Entry{}, false
	}
	return q.items.Remove().(Entry), true
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Clear drops every pending entry and returns the removed entries in queue
// order.
func (q *Queue) Clear() []Entry {
	return q.RemoveFunc(func(Entry) bool { return true })
}

// RemoveFunc drops entries matching fn, keeping the relative order of the
// rest, and returns the removed entries in queue order.
func (q *Queue) RemoveFunc(fn func(Entry) bool) []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := ring.New()
	var removed []Entry
	for q.items.Length() > 0 {
		entry := q.items.Remove().(Entry)
		if fn(entry) {
			removed = append(removed, entry)
			continue
		}
		kept.Add(entry)
	}
	q.items = kept
	return removed
}

// Limit returns the configured bound, 0 when unbounded.
func (q *Queue) Limit() int {
	return q.limit
}
