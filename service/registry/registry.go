// Package registry tracks which identity tokens may still dispatch work.
//
// Entries are created on first sight of a token, default to enabled and are
// never removed; a cancelled token stays disabled for the life of the
// registry.
package registry

import (
	"sync"
	"sync/atomic"
)

// Registry maps identity tokens to an enabled flag.
type Registry struct {
	flags sync.Map // token -> *atomic.Bool
	size  atomic.Int64
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

func (r *Registry) flag(token string) *atomic.Bool {
	if v, ok := r.flags.Load(token); ok {
		return v.(*atomic.Bool)
	}
	enabled := &atomic.Bool{}
	enabled.Store(true)
	v, loaded := r.flags.LoadOrStore(token, enabled)
	if !loaded {
		r.size.Add(1)
	}
	return v.(*atomic.Bool)
}

// Admit registers token when unknown and reports whether it is enabled.
func (r *Registry) Admit(token string) bool {
	return r.flag(token).Load()
}

// Enabled reports whether token may dispatch. Unknown tokens are enabled and
// are not registered by this call.
func (r *Registry) Enabled(token string) bool {
	v, ok := r.flags.Load(token)
	if !ok {
		return true
	}
	return v.(*atomic.Bool).Load()
}

// Disable marks token as cancelled.
func (r *Registry) Disable(token string) {
	r.flag(token).Store(false)
}

// Len returns the number of tokens ever seen.
func (r *Registry) Len() int {
	return int(r.size.Load())
}
