package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/assist/action"
	"github.com/tailored-agentic-units/assist/observability"
	"github.com/tailored-agentic-units/assist/router"
	"github.com/tailored-agentic-units/assist/selector"
	"github.com/tailored-agentic-units/assist/store"
)

// Option configures a Binder.
type Option func(*Binder)

// WithName sets the name reported in binder events.
func WithName(name string) Option {
	return func(b *Binder) {
		b.name = name
	}
}

// WithObserver sets the observer receiving lifecycle and dispatch events.
func WithObserver(obs observability.Observer) Option {
	return func(b *Binder) {
		if obs != nil {
			b.observer = obs
		}
	}
}

// WithLogger routes events to logger through a SlogObserver.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Binder) {
		b.observer = observability.NewSlogObserver(logger)
	}
}

// Binder connects an assistant tree to a store. Install Middleware when
// building the store, then Apply the top-level configurations.
type Binder struct {
	id       string
	name     string
	router   *router.Router
	observer observability.Observer
	metrics  *Metrics

	root *Scope
	mu   sync.Mutex
}

// NewBinder creates a Binder with its own event router.
func NewBinder(opts ...Option) *Binder {
	b := &Binder{
		id:       uuid.Must(uuid.NewV7()).String(),
		name:     "assist",
		router:   router.New(),
		observer: observability.NoOpObserver{},
		metrics:  NewMetrics(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ID returns the binder's unique identifier.
func (b *Binder) ID() string { return b.id }

// Name returns the binder's name.
func (b *Binder) Name() string { return b.name }

type rootAssistant struct{}

func (*rootAssistant) OnInit(*Scope) error { return nil }

// Middleware binds the root assistant to the store it is installed in and
// wraps each dispatch as before, reduce, change (only when the top-level
// state identity changed), after. Installing it in a second store rebinds
// the root and destroys every assistant of the first.
func (b *Binder) Middleware() store.Middleware {
	return func(api store.API) func(next action.Dispatch) action.Dispatch {
		b.bindRoot(api)

		return func(next action.Dispatch) action.Dispatch {
			return func(a action.Action) error {
				return b.dispatch(api, next, a)
			}
		}
	}
}

func (b *Binder) bindRoot(api store.API) {
	root, err := Bind(&rootAssistant{}, Bindings{
		State:    api.GetState,
		Dispatch: api.Dispatch,
		Events:   b.router,
		Observer: b.observer,
	})
	if err != nil {
		b.emit(EventDispatchFault, observability.LevelError, map[string]any{
			"stage": "bind",
			"error": err.Error(),
		})
		return
	}

	b.mu.Lock()
	previous := b.root
	b.root = root
	b.mu.Unlock()

	if previous != nil {
		previous.Destroy()
		b.emit(EventBinderRebind, observability.LevelWarning, map[string]any{
			"previous_root": previous.ID(),
			"root":          root.ID(),
		})
	}
}

func (b *Binder) dispatch(api store.API, next action.Dispatch, a action.Action) error {
	b.metrics.RecordDispatch()
	b.emit(EventDispatchStart, observability.LevelVerbose, map[string]any{"action": a.Type})

	prev := api.GetState()

	if err := b.router.Emit(router.Before, a); err != nil {
		return b.fault(a, err)
	}

	if err := next(a); err != nil {
		return b.fault(a, err)
	}

	if !selector.Same(prev, api.GetState()) {
		b.metrics.RecordChange()
		b.emit(EventDispatchChange, observability.LevelVerbose, map[string]any{"action": a.Type})

		if err := b.router.Emit(router.Change, action.Action{}); err != nil {
			return b.fault(a, err)
		}
	}

	if err := b.router.Emit(router.After, a); err != nil {
		return b.fault(a, err)
	}

	b.emit(EventDispatchComplete, observability.LevelVerbose, map[string]any{"action": a.Type})
	return nil
}

func (b *Binder) fault(a action.Action, err error) error {
	b.metrics.RecordFault()
	b.emit(EventDispatchFault, observability.LevelError, map[string]any{
		"action": a.Type,
		"error":  err.Error(),
	})
	return err
}

// Apply replaces the top-level assistants: every child of the root is
// destroyed, then cfgs are instantiated in order. The first failing config
// aborts the rest; assistants created before it stay live.
func (b *Binder) Apply(cfgs ...Config) error {
	root := b.Root()
	if root == nil {
		return ErrNotInitialized
	}

	for _, child := range root.Children() {
		child.Destroy()
	}

	for i, cfg := range cfgs {
		if _, err := root.CreateAssistant(cfg); err != nil {
			return fmt.Errorf("apply config %d: %w", i, err)
		}
	}

	b.emit(EventBinderApply, observability.LevelInfo, map[string]any{
		"root":       root.ID(),
		"configs":    len(cfgs),
		"assistants": len(root.Children()),
	})
	return nil
}

// Root returns the root scope, or nil before Middleware has been installed
// in a store.
func (b *Binder) Root() *Scope {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.root
}

// Close destroys the whole tree. Apply fails afterwards until Middleware is
// installed again.
func (b *Binder) Close() {
	b.mu.Lock()
	root := b.root
	b.root = nil
	b.mu.Unlock()

	if root != nil {
		root.Destroy()
	}
}

// Metrics returns the binder's counters and the number of live assistants,
// the root excluded.
func (b *Binder) Metrics() MetricsSnapshot {
	snap := b.metrics.Snapshot()
	if root := b.Root(); root != nil {
		snap.Assistants = int64(root.tree.size() - 1)
	}
	return snap
}

func (b *Binder) emit(typ observability.EventType, level observability.Level, data map[string]any) {
	if data == nil {
		data = make(map[string]any, 2)
	}
	data["binder"] = b.name
	data["binder_id"] = b.id
	observability.Emit(context.Background(), b.observer, observability.Event{
		Type:   typ,
		Level:  level,
		Source: "binder",
		Data:   data,
	})
}
