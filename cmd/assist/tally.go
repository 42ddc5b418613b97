package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/tailored-agentic-units/assist/observability"
)

// tally counts binder events by type for the run summary.
type tally struct {
	counts map[observability.EventType]int
	mu     sync.Mutex
}

func newTally() *tally {
	return &tally{counts: make(map[observability.EventType]int)}
}

func (t *tally) observer() observability.Observer {
	return observability.ObserverFunc(func(_ context.Context, e observability.Event) {
		t.mu.Lock()
		t.counts[e.Type]++
		t.mu.Unlock()
	})
}

// summary lists the counts as "type=n", sorted by type.
func (t *tally) summary() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	types := make([]string, 0, len(t.counts))
	for typ := range t.counts {
		types = append(types, string(typ))
	}
	slices.Sort(types)

	parts := make([]string, len(types))
	for i, typ := range types {
		parts[i] = fmt.Sprintf("%s=%d", typ, t.counts[observability.EventType(typ)])
	}
	return strings.Join(parts, " ")
}
