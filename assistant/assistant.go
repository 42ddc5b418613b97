// Package assistant implements the assistant tree: observers bound to a
// projection of a shared store state that react to the before, change and
// after points of every dispatch, own child assistants scoped to narrower
// projections, and are torn down with their whole subtree.
//
// An assistant is any type implementing Assistant. Its runtime companion is
// the *Scope handed to OnInit, which carries the bindings (projected state
// accessor, dispatch, event router) and every registration the assistant
// makes:
//
//	type Counter struct{ changes int }
//
//	func (c *Counter) OnInit(s *assistant.Scope) error {
//		s.OnChange(func(prev any) error {
//			c.changes++
//			return nil
//		})
//		return nil
//	}
//
// Trees are rooted in a Binder installed as store middleware:
//
//	binder := assistant.NewBinder()
//	st := store.New(reducer, initial, binder.Middleware())
//	err := binder.Apply(assistant.OfKey("counter", assistant.New[Counter]()))
package assistant

import "github.com/tailored-agentic-units/assist/router"

// Assistant is implemented by observers attached to the tree. OnInit runs
// once, after binding and before the assistant is visible to its parent;
// listeners and children are registered from here.
type Assistant interface {
	OnInit(s *Scope) error
}

// Destroyer is implemented by assistants with a teardown hook. OnDestroy
// runs once, after every child has been destroyed and before the scope's
// own listeners are removed.
type Destroyer interface {
	OnDestroy(s *Scope)
}

// Func adapts a function to the Assistant interface.
type Func func(s *Scope) error

func (f Func) OnInit(s *Scope) error {
	return f(s)
}

// Listener receives before and after emissions.
type Listener = router.Listener
