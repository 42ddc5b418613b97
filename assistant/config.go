package assistant

import (
	"reflect"

	"github.com/tailored-agentic-units/assist/selector"
)

type configKind uint8

const (
	kindNone configKind = iota
	kindConstructor
	kindFactory
)

// Config declares how to build an assistant and which slice of its parent's
// state it observes. The zero Config is malformed; build one with New,
// FromConstructor or FromFactory.
type Config struct {
	kind     configKind
	create   func() Assistant
	selector selector.Selector
	name     string

	// fresh marks configs whose create builds a new instance per call.
	fresh bool
}

// New is the bare-constructor configuration: a fresh *T observing its
// parent's state unchanged.
//
//	assistant.New[Counter]()
func New[T any, PT interface {
	*T
	Assistant
}]() Config {
	return FromConstructor[T, PT](nil)
}

// FromConstructor configures a fresh *T per instantiation, observing the
// projection sel of its parent's state. A nil sel observes the parent's
// state unchanged.
func FromConstructor[T any, PT interface {
	*T
	Assistant
}](sel selector.Selector) Config {
	return Config{
		kind:     kindConstructor,
		create:   func() Assistant { return PT(new(T)) },
		selector: sel,
		name:     reflect.TypeFor[T]().String(),
		fresh:    true,
	}
}

// FromFactory configures an assistant built by create, observing the
// projection sel of its parent's state. A nil create yields a malformed
// Config.
func FromFactory(create func() Assistant, sel selector.Selector) Config {
	if create == nil {
		return Config{}
	}
	return Config{
		kind:     kindFactory,
		create:   create,
		selector: sel,
	}
}

// Named returns a copy of c reporting name in scope metadata and events.
func (c Config) Named(name string) Config {
	c.name = name
	return c
}

// Valid reports whether c resolves.
func (c Config) Valid() bool {
	_, err := c.resolve()
	return err == nil
}

type resolved struct {
	create   func() Assistant
	selector selector.Selector
	name     string
	fresh    bool
}

func (c Config) resolve() (resolved, error) {
	switch c.kind {
	case kindConstructor, kindFactory:
		if c.create == nil {
			return resolved{}, ErrMalformedConfig
		}
		sel := c.selector
		if sel == nil {
			sel = selector.Identity
		}
		return resolved{create: c.create, selector: sel, name: c.name, fresh: c.fresh}, nil
	default:
		return resolved{}, ErrMalformedConfig
	}
}

// OfStatePart scopes cfg to the projection sel of the parent state: the
// resulting select is cfg's select applied after sel, and creation is
// unchanged. Applying OfStatePart twice composes the selectors, outermost
// first. A malformed cfg stays malformed.
func OfStatePart(sel selector.Selector, cfg Config) Config {
	if _, err := cfg.resolve(); err != nil {
		return Config{}
	}
	return Config{
		kind:     kindFactory,
		create:   cfg.create,
		selector: selector.Compose(sel, cfg.selector),
		name:     cfg.name,
		fresh:    cfg.fresh,
	}
}

// OfStatePartAll applies OfStatePart to each config, preserving order.
func OfStatePartAll(sel selector.Selector, cfgs []Config) []Config {
	out := make([]Config, len(cfgs))
	for i, cfg := range cfgs {
		out[i] = OfStatePart(sel, cfg)
	}
	return out
}

// AddSelect is an alias of OfStatePart.
func AddSelect(sel selector.Selector, cfg Config) Config {
	return OfStatePart(sel, cfg)
}

// OfKey scopes cfg to the named field of the parent state.
func OfKey(key string, cfg Config) Config {
	return OfStatePart(selector.Key(key), cfg)
}

// OfKeyAll scopes every config to the named field of the parent state.
func OfKeyAll(key string, cfgs []Config) []Config {
	return OfStatePartAll(selector.Key(key), cfgs)
}
