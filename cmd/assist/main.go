package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/assist/action"
	"github.com/tailored-agentic-units/assist/assistant"
	"github.com/tailored-agentic-units/assist/config"
	"github.com/tailored-agentic-units/assist/journal"
	"github.com/tailored-agentic-units/assist/observability"
	"github.com/tailored-agentic-units/assist/store"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to config file (.json, .yaml or .toml)")
		scriptFile  = flag.String("script", "", "Path to a YAML or JSON list of actions to replay (required)")
		stateFile   = flag.String("state", "", "Path to a JSON or YAML initial state")
		journalPath = flag.String("journal", "", "Path to write the journal (overrides config)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	if *scriptFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: assist -script <file> [-config <file>] [-state <file>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}
	if *journalPath != "" {
		cfg.Journal.Path = *journalPath
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var base observability.Observer
	if cfg.Observer == "slog" {
		base = observability.NewSlogObserver(logger)
	} else {
		obs, err := observability.GetObserver(cfg.Observer)
		if err != nil {
			log.Fatalf("Failed to resolve observer: %v", err)
		}
		base = obs
	}
	events := newTally()
	opts := []assistant.Option{
		assistant.WithName(cfg.Name),
		assistant.WithObserver(observability.NewMultiObserver(base, events.observer())),
	}

	var initial any
	if *stateFile != "" {
		if err := readYAML(*stateFile, &initial); err != nil {
			log.Fatalf("Failed to read state: %v", err)
		}
	}

	var script []action.Action
	if err := readYAML(*scriptFile, &script); err != nil {
		log.Fatalf("Failed to read script: %v", err)
	}

	binder := assistant.NewBinder(opts...)
	defer binder.Close()
	st := store.New(pathReducer, initial, binder.Middleware())

	j := journal.New(cfg.Journal.Capacity)
	watches, err := watchConfigs(cfg.Watches, logger)
	if err != nil {
		log.Fatalf("Failed to build watches: %v", err)
	}
	if err := binder.Apply(append([]assistant.Config{j.Config(nil)}, watches...)...); err != nil {
		log.Fatalf("Failed to apply assistants: %v", err)
	}

	for i, a := range script {
		if err := st.Dispatch(a); err != nil {
			log.Fatalf("Action %d (%s) failed: %v", i, a.Type, err)
		}
	}

	state, err := json.MarshalIndent(st.GetState(), "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode state: %v", err)
	}
	fmt.Printf("State:\n%s\n", state)

	m := binder.Metrics()
	fmt.Printf("\nDispatches: %d, changes: %d, assistants: %d\n", m.Dispatches, m.Changes, m.Assistants)
	fmt.Printf("Events: %s\n", events.summary())

	if cfg.Journal.Path != "" {
		if err := j.Save(cfg.Journal.Path); err != nil {
			log.Fatalf("Failed to save journal: %v", err)
		}
		fmt.Printf("Journal: %d entries written to %s\n", j.Len(), cfg.Journal.Path)
		return
	}

	data, err := journal.Encode(j.Entries(), journal.Format(cfg.Journal.Format))
	if err != nil {
		log.Fatalf("Failed to encode journal: %v", err)
	}
	fmt.Printf("\nJournal (%d dropped):\n%s\n", j.Dropped(), data)
}

// readYAML decodes a YAML file into v. JSON documents are valid YAML.
func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
