package assistant

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/assist/action"
	"github.com/tailored-agentic-units/assist/observability"
	"github.com/tailored-agentic-units/assist/router"
	"github.com/tailored-agentic-units/assist/selector"
)

// Bindings are the dependencies injected into an assistant when it is bound.
// State, Dispatch and Events are required.
type Bindings struct {
	// State returns the parent's current state; the assistant's selector is
	// applied to it on every read.
	State func() any

	Dispatch action.Dispatch
	Events   router.Emitter

	// OnDestroy runs last during Destroy.
	OnDestroy func()

	Observer observability.Observer
}

func (b Bindings) validate() error {
	switch {
	case b.State == nil:
		return fmt.Errorf("%w: missing state accessor", ErrUnbound)
	case b.Dispatch == nil:
		return fmt.Errorf("%w: missing dispatch", ErrUnbound)
	case b.Events == nil:
		return fmt.Errorf("%w: missing event router", ErrUnbound)
	}
	return nil
}

type phase uint8

const (
	phaseBound phase = iota + 1
	phaseActive
	phaseDestroying
	phaseDestroyed
)

// Scope is the runtime side of one bound assistant.
type Scope struct {
	id        string
	name      string
	assistant Assistant
	tree      *tree
	handle    handle

	getState  func() any
	onDestroy func()

	unsubscribes registry

	// owned is set when a constructor config built the instance; exposed
	// once Assistant has returned it.
	owned   bool
	exposed atomic.Bool

	children []handle
	prev     any
	phase    phase
	mu       sync.Mutex
}

// Create resolves cfg, builds the assistant and binds it as the root of a
// new tree. b.State is the parent state the config's selector projects.
func Create(cfg Config, b Bindings) (*Scope, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	return instantiate(newTree(b.Dispatch, b.Events, b.Observer), cfg, b.State, b.OnDestroy)
}

// Bind binds an existing assistant instance as the root of a new tree,
// observing b.State unchanged. An instance is initialized at most once:
// binding it again, even after its scope was destroyed, fails with
// ErrAlreadyInitialized.
func Bind(a Assistant, b Bindings) (*Scope, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	if isNil(a) {
		return nil, fmt.Errorf("%w: nil assistant", ErrMalformedConfig)
	}
	return bind(newTree(b.Dispatch, b.Events, b.Observer), a, "", b.State, b.OnDestroy, false)
}

func instantiate(t *tree, cfg Config, parentState func() any, onDestroy func()) (*Scope, error) {
	r, err := cfg.resolve()
	if err != nil {
		return nil, err
	}

	a := r.create()
	if isNil(a) {
		return nil, fmt.Errorf("%w: factory returned nil", ErrMalformedConfig)
	}

	sel := r.selector
	getState := func() any {
		return sel(parentState())
	}
	return bind(t, a, r.name, getState, onDestroy, r.fresh)
}

func bind(t *tree, a Assistant, name string, getState func() any, onDestroy func(), owned bool) (*Scope, error) {
	if name == "" {
		name = fmt.Sprintf("%T", a)
	}
	if err := claim(a); err != nil {
		return nil, fmt.Errorf("bind %s: %w", name, err)
	}

	s := &Scope{
		id:        uuid.Must(uuid.NewV7()).String(),
		name:      name,
		assistant: a,
		tree:      t,
		getState:  getState,
		onDestroy: onDestroy,
		owned:     owned,
		phase:     phaseBound,
	}
	s.handle = t.acquire(s)

	if err := s.init(); err != nil {
		s.abort()
		return nil, fmt.Errorf("init %s: %w", name, err)
	}
	return s, nil
}

func (s *Scope) init() error {
	s.mu.Lock()
	if s.phase != phaseBound {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.phase = phaseActive
	s.mu.Unlock()

	if err := s.assistant.OnInit(s); err != nil {
		return err
	}

	// capture the projection before every action for OnChange
	s.setPrevious(s.State())
	s.BeforeAction(func(action.Action) error {
		s.setPrevious(s.State())
		return nil
	})

	s.tree.emit(observability.Event{
		Type:   EventAssistantInit,
		Level:  observability.LevelVerbose,
		Source: "assistant",
		Data:   map[string]any{"scope_id": s.id, "name": s.name},
	})
	return nil
}

// abort unwinds a scope whose OnInit failed. Hooks and the destroy
// callback do not run: the scope was never handed to its parent.
func (s *Scope) abort() {
	s.mu.Lock()
	s.phase = phaseDestroying
	children := s.children
	s.children = nil
	s.mu.Unlock()

	for _, h := range children {
		if c := s.tree.lookup(h); c != nil {
			c.Destroy()
		}
	}
	s.unsubscribes.drain()
	s.tree.release(s.handle)
	s.retire()

	s.mu.Lock()
	s.phase = phaseDestroyed
	s.mu.Unlock()
}

// retire keeps the instance marked as initialized unless it was built by a
// constructor config and never returned by Assistant, in which case nothing
// outside the scope can bind it again.
func (s *Scope) retire() {
	if s.owned && !s.exposed.Load() {
		forget(s.assistant)
	}
}

// ID returns the scope's unique identifier.
func (s *Scope) ID() string { return s.id }

// Name returns the config name, or the assistant's type when unnamed.
func (s *Scope) Name() string { return s.name }

// Assistant returns the bound assistant instance.
func (s *Scope) Assistant() Assistant {
	s.exposed.Store(true)
	return s.assistant
}

// State returns the current projection. It is evaluated on every call
// against the store's current snapshot.
func (s *Scope) State() any {
	return s.getState()
}

// StateAs returns the current projection of s asserted to T.
func StateAs[T any](s *Scope) (T, bool) {
	v, ok := s.State().(T)
	return v, ok
}

// Dispatch sends a through the store's full dispatch chain.
func (s *Scope) Dispatch(a action.Action) error {
	if s.Destroyed() {
		return ErrDestroyed
	}
	return s.tree.dispatch(a)
}

// BeforeAction registers l for every action, before it reaches the reducer.
func (s *Scope) BeforeAction(l Listener) Unsubscribe {
	return s.listen(router.Before, l)
}

// BeforeActionOf registers l for actions matching id: a type string, an
// action.Typed value such as an action.Creator, or any other value by its
// fmt.Sprint form.
func (s *Scope) BeforeActionOf(id any, l Listener) Unsubscribe {
	return s.listen(router.Before, filtered(id, l))
}

// AfterAction registers l for every action, after the reducer has run and
// change listeners have been notified.
func (s *Scope) AfterAction(l Listener) Unsubscribe {
	return s.listen(router.After, l)
}

// AfterActionOf registers l for actions matching id, as in BeforeActionOf.
func (s *Scope) AfterActionOf(id any, l Listener) Unsubscribe {
	return s.listen(router.After, filtered(id, l))
}

// OnChange registers fn to run when a dispatch changes the identity of this
// scope's projection. fn receives the projection observed before the
// dispatch began; the current one is s.State().
func (s *Scope) OnChange(fn func(prev any) error) Unsubscribe {
	if fn == nil {
		return func() {}
	}
	return s.listen(router.Change, func(action.Action) error {
		prev := s.previous()
		if selector.Same(prev, s.State()) {
			return nil
		}
		return fn(prev)
	})
}

// BeforePayload registers fn for actions built by c, passing the typed
// payload. Actions whose payload is not a P are skipped.
func BeforePayload[P any](s *Scope, c action.Creator[P], fn func(P) error) Unsubscribe {
	return s.BeforeActionOf(c, payloadListener(c, fn))
}

// AfterPayload is the after-action counterpart of BeforePayload.
func AfterPayload[P any](s *Scope, c action.Creator[P], fn func(P) error) Unsubscribe {
	return s.AfterActionOf(c, payloadListener(c, fn))
}

func payloadListener[P any](c action.Creator[P], fn func(P) error) Listener {
	return func(a action.Action) error {
		p, ok := c.Payload(a)
		if !ok {
			return nil
		}
		return fn(p)
	}
}

func filtered(id any, l Listener) Listener {
	if l == nil {
		return nil
	}
	match := action.Match(id)
	return func(a action.Action) error {
		if !match(a) {
			return nil
		}
		return l(a)
	}
}

func (s *Scope) listen(kind router.Kind, l Listener) Unsubscribe {
	if l == nil {
		return func() {}
	}
	if !s.active() {
		s.tree.emit(observability.Event{
			Type:   EventAssistantRejected,
			Level:  observability.LevelWarning,
			Source: "assistant",
			Data:   map[string]any{"scope_id": s.id, "name": s.name, "kind": string(kind)},
		})
		return func() {}
	}

	events := s.tree.events
	id := events.On(kind, l)
	return s.unsubscribes.add(func() {
		events.Remove(kind, id)
	})
}

// CreateAssistant builds a child from cfg. The child's selector projects
// this scope's state, and it shares this tree's dispatch and router.
func (s *Scope) CreateAssistant(cfg Config) (*Scope, error) {
	if !s.active() {
		return nil, ErrDestroyed
	}

	child, err := instantiate(s.tree, cfg, s.State, nil)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.phase != phaseActive {
		s.mu.Unlock()
		child.Destroy()
		return nil, ErrDestroyed
	}
	if len(s.children) == cap(s.children) {
		s.pruneLocked()
	}
	s.children = append(s.children, child.handle)
	s.mu.Unlock()

	return child, nil
}

// Children returns the live children in creation order.
func (s *Scope) Children() []*Scope {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	out := make([]*Scope, 0, len(s.children))
	for _, h := range s.children {
		if c := s.tree.lookup(h); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// pruneLocked drops handles of children destroyed on their own. s.mu must
// be held.
func (s *Scope) pruneLocked() {
	kept := s.children[:0]
	for _, h := range s.children {
		if s.tree.lookup(h) != nil {
			kept = append(kept, h)
		}
	}
	clear(s.children[len(kept):])
	s.children = kept
}

// Destroy tears the scope down: children first in creation order, then the
// OnDestroy hook, then every registration in registration order, then the
// destroy callback from the bindings. Later calls are no-ops.
func (s *Scope) Destroy() {
	s.mu.Lock()
	if s.phase == phaseDestroying || s.phase == phaseDestroyed {
		s.mu.Unlock()
		return
	}
	s.phase = phaseDestroying
	children := s.children
	s.children = nil
	s.mu.Unlock()

	for _, h := range children {
		if c := s.tree.lookup(h); c != nil {
			c.Destroy()
		}
	}

	if d, ok := s.assistant.(Destroyer); ok {
		d.OnDestroy(s)
	}

	s.unsubscribes.drain()
	s.tree.release(s.handle)
	s.retire()

	s.mu.Lock()
	s.phase = phaseDestroyed
	s.mu.Unlock()

	if s.onDestroy != nil {
		s.onDestroy()
	}

	s.tree.emit(observability.Event{
		Type:   EventAssistantDestroy,
		Level:  observability.LevelVerbose,
		Source: "assistant",
		Data:   map[string]any{"scope_id": s.id, "name": s.name},
	})
}

// Destroyed reports whether Destroy has completed.
func (s *Scope) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == phaseDestroyed
}

func (s *Scope) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == phaseActive
}

func (s *Scope) previous() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prev
}

func (s *Scope) setPrevious(v any) {
	s.mu.Lock()
	s.prev = v
	s.mu.Unlock()
}
