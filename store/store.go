// Package store is a minimal reducer-based state container: the external
// collaborator the assistant tree observes. State snapshots are treated as
// immutable; reducers return the same value when nothing changed and a new
// value otherwise.
package store

import (
	"slices"
	"sync"

	"github.com/tailored-agentic-units/assist/action"
)

// Reducer computes the next state from the current state and an action.
type Reducer func(state any, a action.Action) any

// API is the store surface handed to middleware. Dispatch runs the fully
// composed chain, so actions dispatched through it re-enter every middleware.
type API struct {
	GetState func() any
	Dispatch action.Dispatch
}

// Middleware wraps the dispatch chain.
type Middleware func(api API) func(next action.Dispatch) action.Dispatch

// Store holds the current snapshot and runs actions through the reducer.
type Store struct {
	reducer Reducer
	state   any

	dispatching bool
	mu          sync.RWMutex

	dispatch action.Dispatch
	cycle    cycleLock

	subscribers map[uint64]func()
	nextSub     uint64
	subsMu      sync.RWMutex
}

// New creates a Store whose initial state is reducer(initial, Init) and
// installs middleware in order; the first middleware sees actions first.
func New(reducer Reducer, initial any, middleware ...Middleware) *Store {
	s := &Store{
		reducer:     reducer,
		subscribers: make(map[uint64]func()),
	}
	s.state = reducer(initial, action.Action{Type: action.Init})

	api := API{
		GetState: s.GetState,
		Dispatch: s.Dispatch,
	}

	chain := s.baseDispatch
	for i := len(middleware) - 1; i >= 0; i-- {
		chain = middleware[i](api)(chain)
	}
	s.dispatch = chain

	return s
}

// GetState returns the current snapshot.
func (s *Store) GetState() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch sends a through the middleware chain and the reducer. Calls
// from different goroutines run one whole cycle at a time; a nested
// Dispatch from the goroutine running the current cycle proceeds at once.
func (s *Store) Dispatch(a action.Action) error {
	release := s.cycle.acquire()
	defer release()
	return s.dispatch(a)
}

// Subscribe registers fn to run after every reduced action. The returned
// function removes it and is safe to call more than once.
func (s *Store) Subscribe(fn func()) func() {
	s.subsMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subscribers[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subscribers, id)
		s.subsMu.Unlock()
	}
}

// ReplaceReducer swaps the reducer and re-runs Init over the current state.
func (s *Store) ReplaceReducer(reducer Reducer) error {
	release := s.cycle.acquire()
	defer release()

	s.mu.Lock()
	s.reducer = reducer
	s.mu.Unlock()
	return s.baseDispatch(action.Action{Type: action.Init})
}

func (s *Store) baseDispatch(a action.Action) error {
	s.mu.Lock()
	if s.dispatching {
		s.mu.Unlock()
		return ErrReducerDispatch
	}
	s.dispatching = true
	reducer, current := s.reducer, s.state
	s.mu.Unlock()

	next := reducer(current, a)

	s.mu.Lock()
	s.state = next
	s.dispatching = false
	s.mu.Unlock()

	s.notify()
	return nil
}

func (s *Store) notify() {
	s.subsMu.RLock()
	ids := make([]uint64, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subscribers[id])
	}
	s.subsMu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}
