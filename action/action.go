// Package action defines the tagged values that request state transitions,
// typed action creators, and the type-filter rule used by assistants when
// subscribing to a subset of actions.
package action

import "fmt"

// Init is dispatched through the bare reducer when a store is created.
const Init = "@@assist/INIT"

// Action is an immutable, tagged request for a state transition.
type Action struct {
	Type    string `json:"type" yaml:"type"`
	Payload any    `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// New creates an Action with the given type tag and payload.
func New(actionType string, payload any) Action {
	return Action{Type: actionType, Payload: payload}
}

// ActionType lets an Action double as a type filter for itself.
func (a Action) ActionType() string {
	return a.Type
}

// Dispatch sends an action through a store. Errors raised by listeners or
// middleware during the dispatch cycle are returned to the caller.
type Dispatch func(a Action) error

// Typed is implemented by values that carry an action type tag, such as
// Creator. Filters built from a Typed value match on ActionType.
type Typed interface {
	ActionType() string
}

// Creator builds actions of a single type carrying a payload of type P.
type Creator[P any] struct {
	Type string
}

// NewCreator returns a Creator for the given action type.
func NewCreator[P any](actionType string) Creator[P] {
	return Creator[P]{Type: actionType}
}

func (c Creator[P]) ActionType() string {
	return c.Type
}

// With builds an action carrying payload.
func (c Creator[P]) With(payload P) Action {
	return Action{Type: c.Type, Payload: payload}
}

// Match reports whether a was built by this creator's type.
func (c Creator[P]) Match(a Action) bool {
	return a.Type == c.Type
}

// Payload extracts the typed payload of a when it matches this creator.
func (c Creator[P]) Payload(a Action) (P, bool) {
	if !c.Match(a) {
		var zero P
		return zero, false
	}
	return PayloadOf[P](a)
}

// PayloadOf asserts the payload of a to P.
func PayloadOf[P any](a Action) (P, bool) {
	p, ok := a.Payload.(P)
	return p, ok
}

// Bind returns a helper that builds an action from the creator and sends it
// through dispatch in one call.
func Bind[P any](dispatch Dispatch, c Creator[P]) func(P) error {
	return func(payload P) error {
		return dispatch(c.With(payload))
	}
}

// Matcher reports whether an action passes a type filter.
type Matcher func(a Action) bool

// Any matches every action.
func Any() Matcher {
	return func(Action) bool { return true }
}

// TypeOf resolves a filter identifier to the action type it expects.
//
// Resolution order: a string is used as-is; a Typed value contributes its
// ActionType; anything else falls back to its fmt.Sprint form.
func TypeOf(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case Typed:
		return v.ActionType()
	default:
		return fmt.Sprint(v)
	}
}

// Match builds a Matcher accepting actions whose Type equals TypeOf(id).
// A nil id matches every action.
func Match(id any) Matcher {
	if id == nil {
		return Any()
	}
	expected := TypeOf(id)
	return func(a Action) bool {
		return a.Type == expected
	}
}
