package store_test

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/tailored-agentic-units/assist/action"
	"github.com/tailored-agentic-units/assist/selector"
	"github.com/tailored-agentic-units/assist/store"
)

func counterReducer(state any, a action.Action) any {
	n, _ := state.(int)
	switch a.Type {
	case "inc":
		return n + 1
	case "dec":
		return n - 1
	}
	return n
}

func TestStore_InitialState(t *testing.T) {
	s := store.New(counterReducer, 5)
	if got := s.GetState(); got != 5 {
		t.Errorf("GetState() = %v, want 5", got)
	}

	s = store.New(counterReducer, nil)
	if got := s.GetState(); got != 0 {
		t.Errorf("GetState() with nil initial = %v, want 0", got)
	}
}

func TestStore_Dispatch(t *testing.T) {
	s := store.New(counterReducer, 0)

	for range 3 {
		if err := s.Dispatch(action.New("inc", nil)); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
	}
	_ = s.Dispatch(action.New("dec", nil))

	if got := s.GetState(); got != 2 {
		t.Errorf("GetState() = %v, want 2", got)
	}
}

func TestStore_MiddlewareOrder(t *testing.T) {
	var log []string
	tag := func(name string) store.Middleware {
		return func(api store.API) func(next action.Dispatch) action.Dispatch {
			return func(next action.Dispatch) action.Dispatch {
				return func(a action.Action) error {
					log = append(log, name+">")
					err := next(a)
					log = append(log, "<"+name)
					return err
				}
			}
		}
	}

	s := store.New(counterReducer, 0, tag("outer"), tag("inner"))
	_ = s.Dispatch(action.New("inc", nil))

	want := []string{"outer>", "inner>", "<inner", "<outer"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("middleware order = %v, want %v", log, want)
	}
}

func TestStore_MiddlewareAPIDispatchReenters(t *testing.T) {
	var seen []string
	mw := func(api store.API) func(next action.Dispatch) action.Dispatch {
		return func(next action.Dispatch) action.Dispatch {
			return func(a action.Action) error {
				seen = append(seen, a.Type)
				if err := next(a); err != nil {
					return err
				}
				if a.Type == "inc" && api.GetState() == 1 {
					return api.Dispatch(action.New("dec", nil))
				}
				return nil
			}
		}
	}

	s := store.New(counterReducer, 0, mw)
	if err := s.Dispatch(action.New("inc", nil)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if !reflect.DeepEqual(seen, []string{"inc", "dec"}) {
		t.Errorf("middleware saw %v, want [inc dec]", seen)
	}
	if got := s.GetState(); got != 0 {
		t.Errorf("GetState() = %v, want 0", got)
	}
}

func TestStore_Subscribe(t *testing.T) {
	s := store.New(counterReducer, 0)

	calls := 0
	unsubscribe := s.Subscribe(func() { calls++ })

	_ = s.Dispatch(action.New("inc", nil))
	unsubscribe()
	unsubscribe()
	_ = s.Dispatch(action.New("inc", nil))

	if calls != 1 {
		t.Errorf("subscriber calls = %d, want 1", calls)
	}
}

func TestStore_ReducerMayNotDispatch(t *testing.T) {
	var s *store.Store
	var inner error
	s = store.New(func(state any, a action.Action) any {
		if a.Type == "nested" {
			inner = s.Dispatch(action.New("inc", nil))
		}
		return state
	}, 0)

	if err := s.Dispatch(action.New("nested", nil)); err != nil {
		t.Fatalf("outer Dispatch() error = %v", err)
	}
	if !errors.Is(inner, store.ErrReducerDispatch) {
		t.Errorf("nested Dispatch() error = %v, want %v", inner, store.ErrReducerDispatch)
	}
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	var inside, overlaps atomic.Int32
	exclusive := func(api store.API) func(next action.Dispatch) action.Dispatch {
		return func(next action.Dispatch) action.Dispatch {
			return func(a action.Action) error {
				if inside.Add(1) > 1 {
					overlaps.Add(1)
				}
				defer inside.Add(-1)
				return next(a)
			}
		}
	}
	s := store.New(counterReducer, 0, exclusive)

	const workers, each = 8, 100
	errs := make(chan error, workers*each)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range each {
				if err := s.Dispatch(action.New("inc", nil)); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Dispatch() error = %v", err)
	}
	if n := overlaps.Load(); n != 0 {
		t.Errorf("overlapping dispatch cycles = %d, want 0", n)
	}
	if got := s.GetState(); got != workers*each {
		t.Errorf("GetState() = %v, want %d", got, workers*each)
	}
}

func TestStore_ReplaceReducer(t *testing.T) {
	s := store.New(counterReducer, 1)

	if err := s.ReplaceReducer(func(state any, a action.Action) any {
		n, _ := state.(int)
		if a.Type == "inc" {
			return n + 10
		}
		return n
	}); err != nil {
		t.Fatalf("ReplaceReducer() error = %v", err)
	}

	_ = s.Dispatch(action.New("inc", nil))
	if got := s.GetState(); got != 11 {
		t.Errorf("GetState() = %v, want 11", got)
	}
}

func TestCombine(t *testing.T) {
	reducer := store.Combine(map[string]store.Reducer{
		"count": counterReducer,
		"other": func(state any, a action.Action) any { return state },
	})

	s := store.New(reducer, map[string]any{"extra": "kept"})
	initial := s.GetState().(map[string]any)

	if initial["count"] != 0 || initial["extra"] != "kept" {
		t.Fatalf("initial state = %v, want count=0 and extra kept", initial)
	}

	_ = s.Dispatch(action.New("noop", nil))
	if !selector.Same(s.GetState(), initial) {
		t.Error("unchanged slices produced a new top-level map")
	}

	_ = s.Dispatch(action.New("inc", nil))
	next := s.GetState().(map[string]any)
	if selector.Same(next, initial) {
		t.Fatal("changed slice did not produce a new top-level map")
	}
	if next["count"] != 1 || next["extra"] != "kept" {
		t.Errorf("next state = %v, want count=1 and extra kept", next)
	}
	if initial["count"] != 0 {
		t.Error("Combine mutated the previous snapshot")
	}
}
