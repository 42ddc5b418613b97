package module_test

import (
	"errors"
	"testing"

	"github.com/tailored-agentic-units/assist/action"
	"github.com/tailored-agentic-units/assist/assistant"
	"github.com/tailored-agentic-units/assist/module"
)

func counter(step int) func(state any, a action.Action) any {
	return func(state any, a action.Action) any {
		n, _ := state.(int)
		if a.Type == "inc" {
			return n + step
		}
		return n
	}
}

type watcher struct {
	seen *[]any
}

func watch(seen *[]any) assistant.Config {
	return assistant.FromFactory(func() assistant.Assistant {
		return &watcher{seen: seen}
	}, nil)
}

func (w *watcher) OnInit(s *assistant.Scope) error {
	s.AfterAction(func(action.Action) error {
		*w.seen = append(*w.seen, s.State())
		return nil
	})
	return nil
}

func TestModule_Reducer(t *testing.T) {
	root := &module.Module{
		Children: map[string]*module.Module{
			"count": {Model: counter(1)},
			"nested": {
				Children: map[string]*module.Module{
					"big": {Model: counter(10)},
				},
			},
		},
	}

	s, _, err := module.NewStore(root, nil, nil)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	_ = s.Dispatch(action.New("inc", nil))

	state := s.GetState().(map[string]any)
	if state["count"] != 1 {
		t.Errorf("count = %v, want 1", state["count"])
	}
	nested := state["nested"].(map[string]any)
	if nested["big"] != 10 {
		t.Errorf("nested.big = %v, want 10", nested["big"])
	}
}

func TestModule_ModelRunsBeforeChildren(t *testing.T) {
	root := &module.Module{
		Model: func(state any, a action.Action) any {
			m, _ := state.(map[string]any)
			if a.Type != "reset" {
				return m
			}
			out := map[string]any{}
			for k, v := range m {
				out[k] = v
			}
			out["count"] = 0
			return out
		},
		Children: map[string]*module.Module{"count": {Model: counter(1)}},
	}

	s, _, err := module.NewStore(root, map[string]any{"count": 5}, nil)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	_ = s.Dispatch(action.New("reset", nil))

	if got := s.GetState().(map[string]any)["count"]; got != 0 {
		t.Errorf("count after reset = %v, want 0", got)
	}
}

func TestModule_ConfigsScopedByKey(t *testing.T) {
	var rootSeen, countSeen, bigSeen []any
	root := &module.Module{
		Assistants: []assistant.Config{watch(&rootSeen)},
		Children: map[string]*module.Module{
			"count": {Model: counter(1), Assistants: []assistant.Config{watch(&countSeen)}},
			"nested": {
				Children: map[string]*module.Module{
					"big": {Model: counter(10), Assistants: []assistant.Config{watch(&bigSeen)}},
				},
			},
		},
	}

	if n := len(root.Configs()); n != 3 {
		t.Fatalf("Configs() = %d configs, want 3", n)
	}

	s, b, err := module.NewStore(root, nil, nil)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer b.Close()

	_ = s.Dispatch(action.New("inc", nil))

	if len(rootSeen) != 1 {
		t.Fatalf("root assistant saw %d actions, want 1", len(rootSeen))
	}
	if _, ok := rootSeen[0].(map[string]any); !ok {
		t.Errorf("root assistant state = %T, want map", rootSeen[0])
	}
	if len(countSeen) != 1 || countSeen[0] != 1 {
		t.Errorf("count assistant saw %v, want [1]", countSeen)
	}
	if len(bigSeen) != 1 || bigSeen[0] != 10 {
		t.Errorf("nested.big assistant saw %v, want [10]", bigSeen)
	}

	children := b.Root().Children()
	if len(children) != 3 {
		t.Errorf("top-level assistants = %d, want 3", len(children))
	}
}

func TestNewStore_MalformedConfig(t *testing.T) {
	root := &module.Module{
		Children: map[string]*module.Module{
			"count": {Model: counter(1), Assistants: []assistant.Config{{}}},
		},
	}

	if _, _, err := module.NewStore(root, nil, nil); !errors.Is(err, assistant.ErrMalformedConfig) {
		t.Errorf("NewStore() error = %v, want %v", err, assistant.ErrMalformedConfig)
	}
}
