package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/pump1090/pump1090/pump/internal/trigger"
)

// Watch reloads the configuration each time the YAML file at path changes
// and passes the result to onChange. It runs until ctx is cancelled.
//
// A reload that fails validation is logged and skipped; onChange only ever
// sees valid configurations.
func Watch(ctx context.Context, path string, fs *pflag.FlagSet, logger *slog.Logger, onChange func(*Config)) error {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := trigger.NewWatcher(ctx, path, logger)
	if err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}
	defer w.Close()

	var last string
	for ev := range w.Events() {
		if ev.Token != "" && ev.Token == last {
			continue
		}
		last = ev.Token

		cfg, err := Load(path, fs)
		if err != nil {
			logger.Error("config: reload failed, keeping previous config", "path", path, "err", err)
			continue
		}
		logger.Info("config: reloaded", "path", path)
		onChange(cfg)
	}
	return nil
}
