// Package backkey tracks whether the host has claimed the back key.
// Screens that would otherwise draw their own close control consult IsSet.
package backkey

import "sync"

type Registry struct {
	mu      sync.Mutex
	handler func() bool
}

func (r *Registry) Set(fn func() bool) {
	r.mu.Lock()
	r.handler = fn
	r.mu.Unlock()
}

func (r *Registry) Clear() {
	r.Set(nil)
}

func (r *Registry) IsSet() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handler != nil
}

// Handle runs the registered handler and reports whether it consumed the key.
func (r *Registry) Handle() bool {
	r.mu.Lock()
	fn := r.handler
	r.mu.Unlock()
	if fn == nil {
		return false
	}
	return fn()
}

var Default = &Registry{}

func Set(fn func() bool) { Default.Set(fn) }

func Clear() { Default.Clear() }

func IsSet() bool { return Default.IsSet() }
