package main

import (
	"log/slog"

	"github.com/tailored-agentic-units/assist/action"
	"github.com/tailored-agentic-units/assist/assistant"
	"github.com/tailored-agentic-units/assist/config"
)

// watch logs the value of an expression over the state, either whenever it
// changes or after each of a fixed set of action types.
type watch struct {
	name    string
	actions []string
	logger  *slog.Logger
}

func (w *watch) OnInit(s *assistant.Scope) error {
	if len(w.actions) == 0 {
		s.OnChange(func(prev any) error {
			w.logger.Info("watch changed",
				slog.String("watch", w.name),
				slog.Any("prev", prev),
				slog.Any("value", s.State()))
			return nil
		})
		return nil
	}

	for _, t := range w.actions {
		s.AfterActionOf(t, func(a action.Action) error {
			w.logger.Info("watch",
				slog.String("watch", w.name),
				slog.String("action", a.Type),
				slog.Any("value", s.State()))
			return nil
		})
	}
	return nil
}

func watchConfigs(watches []config.WatchConfig, logger *slog.Logger) ([]assistant.Config, error) {
	cfgs := make([]assistant.Config, 0, len(watches))
	for _, wc := range watches {
		sel, err := wc.Selector()
		if err != nil {
			return nil, err
		}
		cfgs = append(cfgs, assistant.FromFactory(func() assistant.Assistant {
			return &watch{name: wc.Name, actions: wc.Actions, logger: logger}
		}, sel).Named(wc.Name))
	}
	return cfgs, nil
}
