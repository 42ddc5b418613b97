// Package journal records the dispatch cycles an assistant observes: every
// action before and after reduction, and every change of the observed
// projection. Entries are kept in a bounded ring, oldest dropped first, and
// can be exported as JSON or YAML.
package journal

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/assist/action"
	"github.com/tailored-agentic-units/assist/assistant"
	"github.com/tailored-agentic-units/assist/router"
	"github.com/tailored-agentic-units/assist/selector"
)

// DefaultCapacity is used when a journal is created with a non-positive
// capacity.
const DefaultCapacity = 256

// Entry is one recorded point of a dispatch cycle. Change entries carry the
// projection after the change and no action type.
type Entry struct {
	ID      string      `json:"id" yaml:"id"`
	Seq     uint64      `json:"seq" yaml:"seq"`
	Kind    router.Kind `json:"kind" yaml:"kind"`
	Type    string      `json:"type,omitempty" yaml:"type,omitempty"`
	Payload any         `json:"payload,omitempty" yaml:"payload,omitempty"`
	State   any         `json:"state,omitempty" yaml:"state,omitempty"`
	Time    time.Time   `json:"time" yaml:"time"`
}

// Journal holds the entries recorded by the assistants its Config builds.
type Journal struct {
	capacity int
	ring     []Entry
	start    int
	seq      uint64
	dropped  uint64
	mu       sync.Mutex
}

// New creates a Journal keeping at most capacity entries.
func New(capacity int) *Journal {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Journal{capacity: capacity}
}

// Config returns a configuration recording into j from the projection sel
// of its parent's state. A nil sel records the parent's state unchanged.
// Every instantiation builds a new recorder, so the config can be applied
// again after the previous recorder was destroyed.
func (j *Journal) Config(sel selector.Selector) assistant.Config {
	return assistant.FromFactory(func() assistant.Assistant {
		return &recorder{journal: j}
	}, sel).Named("journal")
}

// recorder is the assistant side of a Journal.
type recorder struct {
	journal *Journal
}

func (r *recorder) OnInit(s *assistant.Scope) error {
	j := r.journal
	s.BeforeAction(func(a action.Action) error {
		j.record(Entry{Kind: router.Before, Type: a.Type, Payload: a.Payload})
		return nil
	})
	s.OnChange(func(any) error {
		j.record(Entry{Kind: router.Change, State: s.State()})
		return nil
	})
	s.AfterAction(func(a action.Action) error {
		j.record(Entry{Kind: router.After, Type: a.Type, Payload: a.Payload})
		return nil
	})
	return nil
}

func (j *Journal) record(e Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.seq++
	e.ID = uuid.Must(uuid.NewV7()).String()
	e.Seq = j.seq
	e.Time = time.Now()

	if len(j.ring) < j.capacity {
		j.ring = append(j.ring, e)
		return
	}
	j.ring[j.start] = e
	j.dropped++
	j.start = (j.start + 1) % j.capacity
}

// Entries returns the retained entries, oldest first.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]Entry, 0, len(j.ring))
	out = append(out, j.ring[j.start:]...)
	out = append(out, j.ring[:j.start]...)
	return out
}

// Len returns the number of retained entries.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.ring)
}

// Dropped returns how many entries were evicted by the capacity bound.
func (j *Journal) Dropped() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.dropped
}

// Reset discards every entry. Sequence numbers keep increasing and the
// Dropped count is kept.
func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ring = slices.Delete(j.ring, 0, len(j.ring))
	j.start = 0
}
