// Package module groups a reducer with the assistants that observe it and
// nests groups under state keys. A module tree yields one reducer for the
// store and one flat list of top-level assistant configs, each scoped to
// its module's slice of state.
//
//	root := &module.Module{
//		Children: map[string]*module.Module{
//			"todos": {Model: todosReducer, Assistants: []assistant.Config{assistant.New[Saver]()}},
//		},
//	}
//	s, binder, err := module.NewStore(root, nil)
package module

import (
	"fmt"
	"maps"
	"slices"

	"github.com/tailored-agentic-units/assist/action"
	"github.com/tailored-agentic-units/assist/assistant"
	"github.com/tailored-agentic-units/assist/store"
)

// Module is one node of a state tree.
type Module struct {
	// Model reduces this module's slice. When the module has children it
	// receives the whole map slice, child keys included.
	Model store.Reducer

	// Children are mounted under their key in this module's slice.
	Children map[string]*Module

	// Assistants observe this module's slice.
	Assistants []assistant.Config
}

// Reducer returns the reducer for this module's slice: Model first, then
// every child reducer under its key.
func (m *Module) Reducer() store.Reducer {
	if len(m.Children) == 0 {
		if m.Model == nil {
			return func(state any, _ action.Action) any { return state }
		}
		return m.Model
	}

	children := make(map[string]store.Reducer, len(m.Children))
	for key, child := range m.Children {
		children[key] = child.Reducer()
	}
	combined := store.Combine(children)

	model := m.Model
	return func(state any, a action.Action) any {
		if model != nil {
			state = model(state, a)
		}
		return combined(state, a)
	}
}

// Configs returns this module's assistants followed by every descendant's,
// children in key order, each scoped to its key.
func (m *Module) Configs() []assistant.Config {
	cfgs := slices.Clone(m.Assistants)
	for _, key := range slices.Sorted(maps.Keys(m.Children)) {
		cfgs = append(cfgs, assistant.OfKeyAll(key, m.Children[key].Configs())...)
	}
	return cfgs
}

// Mount applies the module's configs to b, replacing its top-level
// assistants.
func (m *Module) Mount(b *assistant.Binder) error {
	if err := b.Apply(m.Configs()...); err != nil {
		return fmt.Errorf("mount module: %w", err)
	}
	return nil
}

// NewStore builds a store for m with a binder installed and the module's
// assistants applied. Extra middleware runs after the binder.
func NewStore(m *Module, initial any, opts []assistant.Option, middleware ...store.Middleware) (*store.Store, *assistant.Binder, error) {
	b := assistant.NewBinder(opts...)
	s := store.New(m.Reducer(), initial, append([]store.Middleware{b.Middleware()}, middleware...)...)

	if err := m.Mount(b); err != nil {
		b.Close()
		return nil, nil, err
	}
	return s, b, nil
}
