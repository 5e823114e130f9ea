package main

import (
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pump1090/pump1090/pump/internal/config"
	"github.com/pump1090/pump1090/pump/internal/pump"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pump",
		Short: "Forward dump1090 aircraft data to a serve1090 endpoint",
		Long: `pump watches a dump1090 aircraft.json file and forwards every new
snapshot to a remote endpoint, reconnecting forever when the endpoint is away.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPump,
	}
	config.RegisterFlags(root.Flags())

	root.AddCommand(newStatusCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func runPump(cmd *cobra.Command, _ []string) error {
	// Until the config is known, log with the defaults.
	slog.SetDefault(newLogger(os.Stdout, config.DefaultLogFormat, slog.LevelInfo))

	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "err", err)
		return err
	}
	cfg, err := config.Load("", cmd.Flags())
	if err != nil {
		slog.Error("failed to load config", "err", err)
		return err
	}

	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())
	logger := newLogger(os.Stdout, cfg.Log.Format, level)
	slog.SetDefault(logger)

	logger.Info("pump1090 starting",
		"version", version,
		"dumpfile", cfg.Path,
		"endpoint", cfg.Endpoint,
		"trigger", cfg.Trigger,
		"mode", cfg.Mode,
		"backoff", cfg.Backoff)

	p, err := pump.New(cfg, logger)
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Run(ctx) })

	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return pump.Serve(ctx, cfg.MetricsAddr, p.Metrics(), p.Health(), logger.With("component", "metrics"))
		})
	}

	if path := config.FilePath(cmd.Flags()); path != "" {
		g.Go(func() error {
			err := config.Watch(ctx, path, cmd.Flags(), logger, func(updated *config.Config) {
				level.Set(updated.SlogLevel())
				logger.Info("log level applied; other settings take effect on restart", "level", updated.Log.Level)
			})
			if err != nil {
				logger.Error("config watcher stopped", "err", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("pump1090 stopped with error", "err", err)
		return err
	}
	logger.Info("pump1090 shutting down")
	return nil
}

func newLogger(w io.Writer, format string, level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
