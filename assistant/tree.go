package assistant

import (
	"context"
	"reflect"
	"sync"

	"github.com/tailored-agentic-units/assist/action"
	"github.com/tailored-agentic-units/assist/observability"
	"github.com/tailored-agentic-units/assist/router"
)

type handle struct {
	index int
	gen   uint32
}

type slot struct {
	scope *Scope
	gen   uint32
}

// tree is shared by every scope under one root: the dispatch function, the
// event router, the observer, and the arena owning all live scopes. Parents
// hold handles into the arena; destroying a scope releases its slot, which
// bumps the generation so stale handles resolve to nil.
type tree struct {
	dispatch action.Dispatch
	events   router.Emitter
	observer observability.Observer

	slots []slot
	free  []int
	count int
	mu    sync.Mutex
}

func newTree(dispatch action.Dispatch, events router.Emitter, observer observability.Observer) *tree {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &tree{
		dispatch: dispatch,
		events:   events,
		observer: observer,
	}
}

func (t *tree) acquire(s *Scope) handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.count++
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		t.slots[idx].scope = s
		return handle{index: idx, gen: t.slots[idx].gen}
	}

	t.slots = append(t.slots, slot{scope: s})
	return handle{index: len(t.slots) - 1}
}

func (t *tree) release(h handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if h.index >= len(t.slots) {
		return
	}
	sl := &t.slots[h.index]
	if sl.gen != h.gen || sl.scope == nil {
		return
	}
	sl.scope = nil
	sl.gen++
	t.free = append(t.free, h.index)
	t.count--
}

func (t *tree) lookup(h handle) *Scope {
	t.mu.Lock()
	defer t.mu.Unlock()

	if h.index >= len(t.slots) || t.slots[h.index].gen != h.gen {
		return nil
	}
	return t.slots[h.index].scope
}

// size returns the number of live scopes.
func (t *tree) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

func (t *tree) emit(event observability.Event) {
	observability.Emit(context.Background(), t.observer, event)
}

// initialized records every assistant instance that has ever been bound, by
// pointer identity, so one instance is never initialized twice. Entries
// outlive Destroy; only instances no caller can reach again are forgotten.
var initialized = struct {
	instances map[Assistant]struct{}
	mu        sync.Mutex
}{instances: make(map[Assistant]struct{})}

func claim(a Assistant) error {
	key, ok := identity(a)
	if !ok {
		return nil
	}

	initialized.mu.Lock()
	defer initialized.mu.Unlock()

	if _, exists := initialized.instances[key]; exists {
		return ErrAlreadyInitialized
	}
	initialized.instances[key] = struct{}{}
	return nil
}

// forget drops a from the initialized set. It is only called for instances
// built by a constructor config and never handed out through Scope.Assistant.
func forget(a Assistant) {
	key, ok := identity(a)
	if !ok {
		return
	}

	initialized.mu.Lock()
	delete(initialized.instances, key)
	initialized.mu.Unlock()
}

// identity returns a as a map key when its dynamic type has reference
// identity. Value types cannot be told apart and are never tracked, nor are
// pointers to zero-size types, which may share one address.
func identity(a Assistant) (Assistant, bool) {
	v := reflect.ValueOf(a)
	switch v.Kind() {
	case reflect.Pointer:
		return a, !v.IsNil() && v.Type().Elem().Size() > 0
	case reflect.Chan:
		return a, !v.IsNil()
	}
	return nil, false
}

func isNil(a Assistant) bool {
	if a == nil {
		return true
	}
	v := reflect.ValueOf(a)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
