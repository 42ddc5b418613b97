package main

import (
	"maps"
	"strings"

	"github.com/tailored-agentic-units/assist/action"
	"github.com/tailored-agentic-units/assist/selector"
)

// Script actions understood by the path reducer. Payloads are maps with a
// dotted "path" and, depending on the type, a "value" or a numeric "by".
const (
	actionSet    = "set"
	actionInc    = "inc"
	actionAppend = "append"
	actionDelete = "delete"
)

// pathReducer edits a map[string]any state at dotted paths. Only the maps
// along the edited path are copied; every other branch keeps its identity.
func pathReducer(state any, a action.Action) any {
	root, _ := state.(map[string]any)
	if root == nil {
		root = map[string]any{}
	}

	path, ok := payloadPath(a)
	if !ok {
		return root
	}
	payload, _ := a.Payload.(map[string]any)

	switch a.Type {
	case actionSet:
		return update(root, path, func(any, bool) (any, bool) {
			return payload["value"], true
		})
	case actionInc:
		by := payload["by"]
		if by == nil {
			by = 1
		}
		return update(root, path, func(current any, _ bool) (any, bool) {
			return add(current, by)
		})
	case actionAppend:
		return update(root, path, func(current any, _ bool) (any, bool) {
			list, _ := current.([]any)
			out := make([]any, len(list), len(list)+1)
			copy(out, list)
			return append(out, payload["value"]), true
		})
	case actionDelete:
		return remove(root, path)
	}
	return root
}

func payloadPath(a action.Action) ([]string, bool) {
	payload, ok := a.Payload.(map[string]any)
	if !ok {
		return nil, false
	}
	raw, ok := payload["path"].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, false
	}
	return strings.Split(raw, "."), true
}

// update applies fn to the value at path, creating intermediate maps. When
// fn reports no change m is returned as is.
func update(m map[string]any, path []string, fn func(current any, exists bool) (any, bool)) map[string]any {
	current, exists := m[path[0]]

	var next any
	if len(path) == 1 {
		v, changed := fn(current, exists)
		if !changed {
			return m
		}
		next = v
	} else {
		child, _ := current.(map[string]any)
		if child == nil {
			child = map[string]any{}
		}
		updated := update(child, path[1:], fn)
		if exists && selector.Same(updated, child) {
			return m
		}
		next = updated
	}

	out := maps.Clone(m)
	if out == nil {
		out = make(map[string]any, 1)
	}
	out[path[0]] = next
	return out
}

func remove(m map[string]any, path []string) map[string]any {
	current, exists := m[path[0]]
	if !exists {
		return m
	}

	out := maps.Clone(m)
	if len(path) == 1 {
		delete(out, path[0])
		return out
	}

	child, ok := current.(map[string]any)
	if !ok {
		return m
	}
	updated := remove(child, path[1:])
	if selector.Same(updated, child) {
		return m
	}
	out[path[0]] = updated
	return out
}

// add sums two numbers, keeping integers integral.
func add(current, by any) (any, bool) {
	switch d := by.(type) {
	case int:
		switch c := current.(type) {
		case nil:
			return d, true
		case int:
			return c + d, true
		case float64:
			return c + float64(d), true
		}
	case float64:
		switch c := current.(type) {
		case nil:
			return d, true
		case int:
			return float64(c) + d, true
		case float64:
			return c + d, true
		}
	}
	return current, false
}
