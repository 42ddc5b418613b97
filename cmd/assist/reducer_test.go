package main

import (
	"reflect"
	"testing"

	"github.com/tailored-agentic-units/assist/action"
	"github.com/tailored-agentic-units/assist/selector"
)

func TestPathReducer(t *testing.T) {
	tests := []struct {
		name   string
		state  map[string]any
		action action.Action
		want   map[string]any
	}{
		{
			name:   "set creates path",
			state:  map[string]any{},
			action: action.New("set", map[string]any{"path": "a.b", "value": "x"}),
			want:   map[string]any{"a": map[string]any{"b": "x"}},
		},
		{
			name:   "inc defaults to one",
			state:  map[string]any{"n": 1},
			action: action.New("inc", map[string]any{"path": "n"}),
			want:   map[string]any{"n": 2},
		},
		{
			name:   "inc float by int",
			state:  map[string]any{"n": 1.5},
			action: action.New("inc", map[string]any{"path": "n", "by": 2}),
			want:   map[string]any{"n": 3.5},
		},
		{
			name:   "append",
			state:  map[string]any{"l": []any{1}},
			action: action.New("append", map[string]any{"path": "l", "value": 2}),
			want:   map[string]any{"l": []any{1, 2}},
		},
		{
			name:   "delete nested",
			state:  map[string]any{"a": map[string]any{"b": 1, "c": 2}},
			action: action.New("delete", map[string]any{"path": "a.b"}),
			want:   map[string]any{"a": map[string]any{"c": 2}},
		},
		{
			name:   "unknown type",
			state:  map[string]any{"n": 1},
			action: action.New("other", map[string]any{"path": "n"}),
			want:   map[string]any{"n": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pathReducer(tt.state, tt.action); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("pathReducer() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPathReducer_PreservesIdentity(t *testing.T) {
	untouched := map[string]any{"x": 1}
	state := map[string]any{"keep": untouched, "edit": map[string]any{"n": 1}}

	next := pathReducer(state, action.New("inc", map[string]any{"path": "edit.n"})).(map[string]any)
	if selector.Same(next, state) {
		t.Fatal("edited state kept its identity")
	}
	if !selector.Same(next["keep"], untouched) {
		t.Error("untouched branch was copied")
	}
	if state["edit"].(map[string]any)["n"] != 1 {
		t.Error("previous snapshot was mutated")
	}

	for _, a := range []action.Action{
		action.New("inc", map[string]any{"path": "keep.x", "by": "nan"}),
		action.New("delete", map[string]any{"path": "missing"}),
		action.New("set", "no path"),
	} {
		if got := pathReducer(next, a); !selector.Same(got, next) {
			t.Errorf("no-op %s produced a new state", a.Type)
		}
	}
}
