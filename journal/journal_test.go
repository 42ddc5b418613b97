package journal_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/assist/action"
	"github.com/tailored-agentic-units/assist/assistant"
	"github.com/tailored-agentic-units/assist/journal"
	"github.com/tailored-agentic-units/assist/router"
	"github.com/tailored-agentic-units/assist/selector"
	"github.com/tailored-agentic-units/assist/store"
	"gopkg.in/yaml.v3"
)

func counterReducer(state any, a action.Action) any {
	m, _ := state.(map[string]any)
	if m == nil {
		m = map[string]any{"value": 0}
	}
	if a.Type == "inc" {
		n, _ := m["value"].(int)
		return map[string]any{"value": n + 1}
	}
	return m
}

func recorded(t *testing.T, capacity int, actions ...string) *journal.Journal {
	t.Helper()

	b := assistant.NewBinder()
	s := store.New(counterReducer, nil, b.Middleware())
	t.Cleanup(b.Close)

	j := journal.New(capacity)
	if err := b.Apply(j.Config(selector.Key("value"))); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	for _, typ := range actions {
		if err := s.Dispatch(action.New(typ, nil)); err != nil {
			t.Fatalf("Dispatch(%s) error = %v", typ, err)
		}
	}
	return j
}

func kinds(entries []journal.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = string(e.Kind)
		if e.Type != "" {
			out[i] += ":" + e.Type
		}
	}
	return out
}

func TestJournal_RecordsCycle(t *testing.T) {
	j := recorded(t, 0, "inc", "noop")

	want := []string{"before:inc", "change", "after:inc", "before:noop", "after:noop"}
	entries := j.Entries()
	if got := kinds(entries); !reflect.DeepEqual(got, want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}

	if entries[1].State != 1 {
		t.Errorf("change entry state = %v, want 1", entries[1].State)
	}
	for i, e := range entries {
		if e.Seq != uint64(i+1) {
			t.Errorf("entry %d seq = %d, want %d", i, e.Seq, i+1)
		}
		if e.ID == "" || e.Time.IsZero() {
			t.Errorf("entry %d missing id or time: %+v", i, e)
		}
	}
}

func TestJournal_Capacity(t *testing.T) {
	j := recorded(t, 2, "noop", "noop", "inc")

	entries := j.Entries()
	if got := kinds(entries); !reflect.DeepEqual(got, []string{"change", "after:inc"}) {
		t.Errorf("entries = %v, want the two newest", got)
	}
	if j.Dropped() != 5 {
		t.Errorf("Dropped() = %d, want 5", j.Dropped())
	}

	j.Reset()
	if j.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", j.Len())
	}
	if j.Dropped() != 5 {
		t.Errorf("Dropped() after Reset = %d, want 5", j.Dropped())
	}
}

func TestJournal_ConfigAppliesAgain(t *testing.T) {
	b := assistant.NewBinder()
	s := store.New(counterReducer, nil, b.Middleware())
	t.Cleanup(b.Close)

	j := journal.New(0)
	for round := range 2 {
		if err := b.Apply(j.Config(nil)); err != nil {
			t.Fatalf("Apply() round %d error = %v", round, err)
		}
		if err := s.Dispatch(action.New("noop", nil)); err != nil {
			t.Fatalf("Dispatch() round %d error = %v", round, err)
		}
	}

	want := []string{"before:noop", "after:noop", "before:noop", "after:noop"}
	if got := kinds(j.Entries()); !reflect.DeepEqual(got, want) {
		t.Errorf("entries = %v, want %v", got, want)
	}
}

func TestJournal_Marshal(t *testing.T) {
	j := recorded(t, 0, "inc")

	data, err := json.Marshal(j)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if len(decoded) != 3 || decoded[0]["kind"] != string(router.Before) {
		t.Errorf("json export = %s", data)
	}

	out, err := yaml.Marshal(j)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	if !strings.Contains(string(out), "kind: change") {
		t.Errorf("yaml export missing change entry:\n%s", out)
	}
}

func TestJournal_Save(t *testing.T) {
	j := recorded(t, 0, "inc", "inc")
	dir := t.TempDir()

	for _, name := range []string{"run.json", "run.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "nested", name)
			if err := j.Save(path); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			entries, err := journal.Decode(data, journal.FormatOf(path))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if len(entries) != j.Len() {
				t.Errorf("decoded %d entries, want %d", len(entries), j.Len())
			}
		})
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "nested", ".tmp-*"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want journal.Format
	}{
		{path: "a.json", want: journal.FormatJSON},
		{path: "a.yaml", want: journal.FormatYAML},
		{path: "a.YML", want: journal.FormatYAML},
		{path: "a", want: journal.FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := journal.FormatOf(tt.path); got != tt.want {
				t.Errorf("FormatOf(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestEncode_UnknownFormat(t *testing.T) {
	if _, err := journal.Encode(nil, "xml"); !errors.Is(err, journal.ErrUnknownFormat) {
		t.Errorf("Encode() error = %v, want %v", err, journal.ErrUnknownFormat)
	}
	if _, err := journal.Decode(nil, "xml"); !errors.Is(err, journal.ErrUnknownFormat) {
		t.Errorf("Decode() error = %v, want %v", err, journal.ErrUnknownFormat)
	}
}

func TestFileStore(t *testing.T) {
	for _, format := range []journal.Format{journal.FormatJSON, journal.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			ctx := context.Background()
			root := t.TempDir()
			s := journal.NewFileStore(root, format)

			names, err := s.List(ctx)
			if err != nil || len(names) != 0 {
				t.Fatalf("List() on empty store = %v, %v", names, err)
			}

			entries := recorded(t, 0, "inc").Entries()
			for _, name := range []string{"b", "a", "runs/c"} {
				if err := s.Save(ctx, name, entries); err != nil {
					t.Fatalf("Save(%s) error = %v", name, err)
				}
			}

			names, err = s.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if !reflect.DeepEqual(names, []string{"a", "b", "runs/c"}) {
				t.Errorf("List() = %v, want [a b runs/c]", names)
			}

			loaded, err := s.Load(ctx, "runs/c")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got := kinds(loaded); !reflect.DeepEqual(got, kinds(entries)) {
				t.Errorf("Load() = %v, want %v", got, kinds(entries))
			}

			if err := s.Delete(ctx, "a", "missing"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := s.Load(ctx, "a"); !errors.Is(err, journal.ErrNotFound) {
				t.Errorf("Load() after Delete error = %v, want %v", err, journal.ErrNotFound)
			}
		})
	}
}

func TestFileStore_MissingRoot(t *testing.T) {
	s := journal.NewFileStore(filepath.Join(t.TempDir(), "absent"), journal.FormatJSON)

	names, err := s.List(context.Background())
	if err != nil || len(names) != 0 {
		t.Errorf("List() = %v, %v, want empty and no error", names, err)
	}
}
