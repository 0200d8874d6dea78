// Package dispatcher pairs submitted tasks with execution units and scratch
// buffers.
//
// A Service owns a unit pool, a buffer recycler, an overflow queue and a
// cancellation registry. Submit either hands the task to an idle unit right
// away or appends it to the queue; every completion releases the unit,
// reclaims the buffer and drains the queue while units are free. Cancel
// disables an identity token and flushes the pending queue.
//
// All dispatcher state is guarded by a single mutex, so the service behaves as
// a single-threaded coordinator even though completions arrive on unit
// goroutines. Continuations run outside that lock and may submit or cancel
// work themselves.
package dispatcher
