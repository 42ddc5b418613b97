// Package selector provides projections that narrow a parent state shape to
// the slice an assistant observes, and the identity comparison used for
// change detection.
//
// Selectors never fail: an absent key or a state of the wrong shape yields
// nil. Avoiding such projections is the caller's responsibility.
package selector

import (
	"reflect"
	"strings"
)

// Selector projects a parent state into a child state.
type Selector func(state any) any

// Getter is implemented by state containers exposing keyed reads.
type Getter interface {
	Get(key string) (any, bool)
}

// Identity returns state unchanged.
func Identity(state any) any {
	return state
}

// Key projects the named field of the state.
//
// Supported shapes, in order: Getter, map[string]any, any map with a string
// key type, and structs (or pointers to structs) with an exported field of
// that name.
func Key(name string) Selector {
	return func(state any) any {
		return Field(state, name)
	}
}

// Path projects a nested field by applying Key for each element in turn.
// A single dotted string is split on ".".
func Path(keys ...string) Selector {
	if len(keys) == 1 && strings.Contains(keys[0], ".") {
		keys = strings.Split(keys[0], ".")
	}

	var sel Selector
	for _, k := range keys {
		sel = Compose(sel, Key(k))
	}
	if sel == nil {
		return Identity
	}
	return sel
}

// Compose returns the selector x -> inner(outer(x)). A nil selector on
// either side is treated as Identity.
func Compose(outer, inner Selector) Selector {
	switch {
	case outer == nil && inner == nil:
		return Identity
	case outer == nil:
		return inner
	case inner == nil:
		return outer
	}
	return func(state any) any {
		return inner(outer(state))
	}
}

// Field reads the named field of state, returning nil when it is absent.
func Field(state any, name string) any {
	switch s := state.(type) {
	case nil:
		return nil
	case Getter:
		v, _ := s.Get(name)
		return v
	case map[string]any:
		return s[name]
	}

	v := reflect.ValueOf(state)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil
		}
		mv := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
		if !mv.IsValid() {
			return nil
		}
		return mv.Interface()
	case reflect.Struct:
		sf, ok := v.Type().FieldByName(name)
		if !ok || !sf.IsExported() {
			return nil
		}
		fv, err := v.FieldByIndexErr(sf.Index)
		if err != nil || !fv.CanInterface() {
			return nil
		}
		return fv.Interface()
	}
	return nil
}
