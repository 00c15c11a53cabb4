package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/joss/calc/internal/config"
	"github.com/joss/calc/internal/dispatch"
	"github.com/joss/calc/internal/history"
	"github.com/joss/calc/internal/logging"
	"github.com/joss/calc/internal/metrics"
	"github.com/joss/calc/internal/operation"
	"github.com/joss/calc/internal/plugin"
	"github.com/joss/calc/internal/render"
	"github.com/joss/calc/internal/repl"
	"github.com/joss/calc/internal/runtime"
)

// App is the composition root: everything a command needs, built once
// from the loaded configuration.
type App struct {
	Env        *config.Env
	Logger     *zap.Logger
	Registry   *operation.Registry
	Ledger     *history.Ledger
	Metrics    *metrics.Metrics
	Dispatcher *dispatch.Dispatcher
	Renderer   *render.Renderer
	Shutdown   *runtime.ShutdownManager
	// AutoSave starts as Env.AutoSave and is turned off when the history
	// file exists but could not be loaded, so the session never overwrites it.
	AutoSave bool
}

type appOptions struct {
	configFile  string
	pretty      bool
	loadHistory bool
	stderr      io.Writer
}

// newApp loads configuration, discovers plugins and optionally the saved
// history. Configuration and discovery failures are startup failures.
func newApp(ctx context.Context, opts appOptions) (*App, error) {
	env, err := config.Load(config.WithConfigFile(opts.configFile))
	if err != nil {
		return nil, &exitError{code: repl.ExitStartup, err: err}
	}

	logger, err := logging.New(logging.Options{
		Dir:      env.LogDir,
		FileName: config.LogFileName,
		Level:    env.LogLevel,
	})
	if err != nil {
		logger.Warn("log_file_unavailable", zap.String("dir", env.LogDir), zap.Error(err))
	}
	logger.Info("startup",
		zap.String("version", version),
		zap.String("history_file", env.HistoryFile),
		zap.String("plugin_dir", env.PluginDir),
		zap.Int("max_history_size", env.MaxHistorySize),
	)

	shutdown := runtime.NewShutdownManager(runtime.DefaultShutdownTimeout, logger)
	shutdown.RegisterSimple("logger_sync", func() { _ = logger.Sync() })

	reg := operation.NewRegistry()
	report := plugin.Discover(ctx, reg, plugin.Options{Dir: env.PluginDir, Logger: logger})
	if err := report.Err(); err != nil {
		shutdown.Shutdown()
		return nil, &exitError{code: repl.ExitStartup, err: fmt.Errorf("plugin discovery: %w", err)}
	}

	m := metrics.New()
	ledger := history.NewLedger(env.MaxHistorySize)
	d := dispatch.New(reg, ledger, env,
		dispatch.WithLogger(logger),
		dispatch.WithMetrics(m),
	)

	app := &App{
		Env:        env,
		Logger:     logger,
		Registry:   reg,
		Ledger:     ledger,
		Metrics:    m,
		Dispatcher: d,
		Renderer:   render.New(opts.pretty, env.Precision),
		Shutdown:   shutdown,
		AutoSave:   env.AutoSave,
	}

	shutdown.RegisterSimple("session_stats", func() {
		s := m.Snapshot()
		logger.Info("session_stats",
			zap.Duration("uptime", s.Uptime),
			zap.Int64("commands", s.Commands),
			zap.Int64("calculations", s.Calculations),
			zap.Int64("domain_errors", s.DomainErrors),
		)
	})

	if opts.loadHistory {
		if _, _, err := d.Load(""); err != nil {
			logger.Warn("history_load_failed", zap.Error(err), zap.Bool("autosave_disabled", app.AutoSave))
			if app.AutoSave {
				fmt.Fprintf(opts.stderr, "Warning: %v; starting with empty history, autosave disabled to keep %s\n", err, env.HistoryFile)
				app.AutoSave = false
			} else {
				fmt.Fprintf(opts.stderr, "Warning: %v; starting with empty history\n", err)
			}
		}
	}
	return app, nil
}

// Close runs the shutdown handlers.
func (a *App) Close() {
	_ = a.Shutdown.Shutdown()
}
