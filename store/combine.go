package store

import (
	"maps"
	"slices"

	"github.com/tailored-agentic-units/assist/action"
	"github.com/tailored-agentic-units/assist/selector"
)

// Combine builds a reducer over map[string]any that delegates each key to
// its reducer. The incoming map is returned unchanged when no slice changed
// identity; otherwise a copy with the new slices is returned. Keys without a
// reducer are carried over untouched. A nil or non-map state starts empty.
func Combine(reducers map[string]Reducer) Reducer {
	keys := slices.Sorted(maps.Keys(reducers))

	return func(state any, a action.Action) any {
		current, _ := state.(map[string]any)

		var next map[string]any
		for _, k := range keys {
			prev, had := current[k]
			updated := reducers[k](prev, a)
			if had && selector.Same(prev, updated) {
				continue
			}
			if next == nil {
				next = make(map[string]any, len(current)+len(keys))
				maps.Copy(next, current)
			}
			next[k] = updated
		}

		if next == nil {
			if current == nil {
				return map[string]any{}
			}
			return current
		}
		return next
	}
}
