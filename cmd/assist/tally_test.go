package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/assist/action"
	"github.com/tailored-agentic-units/assist/assistant"
	"github.com/tailored-agentic-units/assist/observability"
	"github.com/tailored-agentic-units/assist/store"
)

func TestTally_CountsFannedOutEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	events := newTally()
	obs := observability.NewMultiObserver(observability.NewSlogObserver(logger), events.observer())
	b := assistant.NewBinder(assistant.WithObserver(obs))
	t.Cleanup(b.Close)

	st := store.New(pathReducer, map[string]any{}, b.Middleware())
	if err := b.Apply(); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	for range 2 {
		if err := st.Dispatch(action.New("inc", map[string]any{"path": "n"})); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
	}

	got := events.summary()
	for _, want := range []string{"binder.apply=1", "dispatch.complete=2", "dispatch.start=2"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary() = %q, missing %q", got, want)
		}
	}
	if !strings.Contains(buf.String(), "dispatch.complete") {
		t.Error("slog observer did not receive the fanned-out events")
	}
}
