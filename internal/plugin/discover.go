package plugin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/joss/calc/internal/logging"
	"github.com/joss/calc/internal/operation"
)

// ErrNoOperations is reported when discovery registered nothing.
var ErrNoOperations = errors.New("no operations registered")

// BuiltinSource is the Result.Source of catalog providers.
const BuiltinSource = "builtin"

// Result is the outcome of loading one plugin: either an operation was
// registered under Name, or Err explains why the plugin was skipped.
type Result struct {
	Name   string
	Source string
	Err    error
}

// OK reports whether the plugin was registered.
func (r Result) OK() bool { return r.Err == nil }

// Report collects the results of a discovery pass.
type Report struct {
	Results []Result
}

// Loaded returns the successful results.
func (r *Report) Loaded() []Result {
	return r.filter(true)
}

// Failed returns the skipped plugins.
func (r *Report) Failed() []Result {
	return r.filter(false)
}

func (r *Report) filter(ok bool) []Result {
	var out []Result
	for _, res := range r.Results {
		if res.OK() == ok {
			out = append(out, res)
		}
	}
	return out
}

// Err is non-nil only when no plugin could be registered.
func (r *Report) Err() error {
	if len(r.Loaded()) == 0 {
		return ErrNoOperations
	}
	return nil
}

// Options configures Discover.
type Options struct {
	// Dir is scanned recursively for *.go script plugins. Empty skips scripts.
	Dir string
	// Providers overrides the catalog, for tests.
	Providers []Provider
	Logger    *zap.Logger
}

// Discover registers every catalog provider, then every script plugin in
// opts.Dir. A plugin that fails to load is logged and skipped; the pass
// only stops early when ctx is cancelled.
func Discover(ctx context.Context, reg *operation.Registry, opts Options) *Report {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logging.Component(logger, "plugin")

	providers := opts.Providers
	if providers == nil {
		providers = Providers()
	}

	d := &discovery{reg: reg, logger: logger, report: &Report{}}

	for _, p := range providers {
		if ctx.Err() != nil {
			return d.report
		}
		d.add(p.Name, BuiltinSource, func() (operation.Operation, error) {
			return p.Factory()
		})
	}

	if opts.Dir != "" {
		d.scanDir(ctx, opts.Dir)
	}

	logger.Info("plugin_discovery_complete",
		zap.Int("loaded", len(d.report.Loaded())),
		zap.Int("failed", len(d.report.Failed())),
	)
	return d.report
}

type discovery struct {
	reg    *operation.Registry
	logger *zap.Logger
	report *Report
}

// add builds one plugin and registers it. Factories run under panic
// recovery so one broken plugin cannot abort startup.
func (d *discovery) add(name, source string, build func() (operation.Operation, error)) {
	var op operation.Operation
	rh := logging.NewRecoveryHandler("plugin:"+name, d.logger)
	err := rh.WrapError(func() error {
		var err error
		op, err = build()
		return err
	})
	if err == nil && op == nil {
		err = errors.New("factory returned no operation")
	}
	if err == nil {
		name = op.Name()
		err = d.reg.Register(guard(op, d.logger))
	}

	d.report.Results = append(d.report.Results, Result{Name: name, Source: source, Err: err})
	if err != nil {
		d.logger.Warn("plugin_skipped", zap.String("plugin", name), zap.String("source", source), zap.Error(err))
		return
	}
	d.logger.Debug("plugin_registered", zap.String("plugin", name), zap.String("source", source))
}

func (d *discovery) scanDir(ctx context.Context, dir string) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		d.logger.Debug("plugin_dir_missing", zap.String("dir", dir))
		return
	}

	fsys := os.DirFS(dir)
	err := doublestar.GlobWalk(fsys, "**/*.go", func(path string, entry fs.DirEntry) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		full := filepath.Join(dir, filepath.FromSlash(path))
		d.add(strings.TrimSuffix(filepath.Base(path), ".go"), full, func() (operation.Operation, error) {
			return LoadScript(full)
		})
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		d.logger.Warn("plugin_dir_scan_failed", zap.String("dir", dir), zap.Error(err))
	}
}

// guarded runs an operation under panic recovery.
type guarded struct {
	operation.Operation
	rh *logging.RecoveryHandler
}

func guard(op operation.Operation, logger *zap.Logger) operation.Operation {
	return &guarded{Operation: op, rh: logging.NewRecoveryHandler("plugin:"+op.Name(), logger)}
}

func (g *guarded) Description() string {
	return operation.Describe(g.Operation)
}

func (g *guarded) Apply(a, b float64) (result float64, err error) {
	err = g.rh.WrapError(func() error {
		var applyErr error
		result, applyErr = g.Operation.Apply(a, b)
		return applyErr
	})
	var pe *logging.PanicError
	if errors.As(err, &pe) {
		return 0, fmt.Errorf("%w: %s: %v", operation.ErrPluginFault, g.Name(), pe.Value)
	}
	return result, err
}
