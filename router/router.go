// Package router routes the three points of a dispatch cycle (before, after
// and change) to registered listeners.
//
// Emission is synchronous and unisolated: listeners run in registration
// order on the emitting goroutine, and the first listener error aborts the
// remaining deliveries for that emission and is returned to the emitter.
package router

import (
	"sync"

	"github.com/tailored-agentic-units/assist/action"
)

// Kind identifies a point in the dispatch cycle.
type Kind string

const (
	Before Kind = "before"
	After  Kind = "after"
	Change Kind = "change"
)

// Valid reports whether k is one of the three known kinds.
func (k Kind) Valid() bool {
	switch k {
	case Before, After, Change:
		return true
	}
	return false
}

// Listener receives an emission. Change emissions carry the zero Action.
type Listener func(a action.Action) error

// ListenerID identifies one registration. Zero is never issued.
type ListenerID uint64

// Emitter is the registration surface assistants consume.
type Emitter interface {
	On(kind Kind, listener Listener) ListenerID
	Remove(kind Kind, id ListenerID) bool
}

type entry struct {
	id       ListenerID
	listener Listener
}

// Router is the shared listener registry for one assistant tree.
type Router struct {
	listeners map[Kind][]entry
	next      ListenerID
	mu        sync.RWMutex
}

// New creates an empty Router.
func New() *Router {
	return &Router{
		listeners: make(map[Kind][]entry, 3),
	}
}

// On registers listener for kind and returns its registration ID.
// Registering the same function twice yields two independent registrations.
// Invalid kinds and nil listeners register nothing and return 0.
func (r *Router) On(kind Kind, listener Listener) ListenerID {
	if !kind.Valid() || listener == nil {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	r.listeners[kind] = append(r.listeners[kind], entry{id: r.next, listener: listener})
	return r.next
}

// Remove deregisters a listener. It reports whether the registration existed.
func (r *Router) Remove(kind Kind, id ListenerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.listeners[kind]
	for i, e := range entries {
		if e.id == id {
			// copy-on-write so in-flight emissions keep their snapshot
			updated := make([]entry, 0, len(entries)-1)
			updated = append(updated, entries[:i]...)
			updated = append(updated, entries[i+1:]...)
			r.listeners[kind] = updated
			return true
		}
	}
	return false
}

// Emit invokes every listener registered for kind at the moment Emit is
// called, in registration order. Delivery stops at the first error, which is
// returned as a *ListenerError.
func (r *Router) Emit(kind Kind, a action.Action) error {
	if !kind.Valid() {
		return ErrUnknownKind
	}

	r.mu.RLock()
	snapshot := r.listeners[kind]
	r.mu.RUnlock()

	for _, e := range snapshot {
		if err := e.listener(a); err != nil {
			return &ListenerError{Kind: kind, Action: a, Err: err}
		}
	}
	return nil
}

// Len returns the number of listeners registered for kind.
func (r *Router) Len(kind Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners[kind])
}
