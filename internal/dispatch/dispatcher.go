// Package dispatch turns one line of input into an executed action: a
// meta-command against the history ledger or an arithmetic operation from
// the registry.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/joss/calc/internal/config"
	"github.com/joss/calc/internal/history"
	"github.com/joss/calc/internal/logging"
	"github.com/joss/calc/internal/metrics"
	"github.com/joss/calc/internal/operation"
)

// Kind tells the caller how to present a Result.
type Kind int

const (
	KindNone          Kind = iota // blank line
	KindValue                     // arithmetic result
	KindHistory                   // Records listing
	KindHistoryDetail             // Records table with timestamps
	KindOps                       // Ops listing
	KindHelp                      // Commands and Ops
	KindMessage                   // Message, optionally about Record
	KindStats                     // Stats and History
	KindExit                      // end of session
)

// OpInfo describes a registered operation.
type OpInfo struct {
	Name        string
	Description string
}

// HistoryInfo describes the ledger's occupancy.
type HistoryInfo struct {
	Visible int
	Stored  int
	MaxSize int
}

// Result is the outcome of one dispatched line.
type Result struct {
	Kind     Kind
	Value    float64
	Record   history.Record
	Records  []history.Record
	Ops      []OpInfo
	Commands []Command
	Stats    metrics.Snapshot
	History  HistoryInfo
	Message  string
}

// Dispatcher executes lines against a registry and a ledger.
type Dispatcher struct {
	registry *operation.Registry
	ledger   *history.Ledger
	env      *config.Env
	metrics  *metrics.Metrics
	logger   *zap.Logger
	commands map[string]Command
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics sets the session counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

// New creates a dispatcher. env supplies the default history file and the
// directory relative save/load paths are resolved against.
func New(reg *operation.Registry, ledger *history.Ledger, env *config.Env, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		ledger:   ledger,
		env:      env,
		metrics:  metrics.New(),
		logger:   logging.Nop(),
		commands: builtinCommands(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.Component(d.logger, "dispatch")
	return d
}

// Ledger returns the ledger the dispatcher mutates.
func (d *Dispatcher) Ledger() *history.Ledger { return d.ledger }

// Metrics returns the session counters.
func (d *Dispatcher) Metrics() *metrics.Metrics { return d.metrics }

// HistoryInfo reports how full the ledger is.
func (d *Dispatcher) HistoryInfo() HistoryInfo {
	return HistoryInfo{
		Visible: d.ledger.Len(),
		Stored:  d.ledger.Size(),
		MaxSize: d.ledger.MaxSize(),
	}
}

// Dispatch parses and executes line. Every failure is returned as an error
// for the caller to report; none is fatal to the session.
func (d *Dispatcher) Dispatch(ctx context.Context, line string) (Result, error) {
	name, args := Parse(line)
	if name == "" {
		return Result{Kind: KindNone}, nil
	}
	d.metrics.RecordCommand()

	if cmd, ok := d.commands[name]; ok {
		return cmd.Handler(ctx, d, args)
	}

	if op, err := d.registry.Resolve(name); err == nil {
		return d.calculate(op, args)
	}

	// Postfix form: <a> <b> <op>
	if len(args) == 2 && isNumber(name) {
		if op, err := d.registry.Resolve(args[1]); err == nil {
			return d.calculate(op, []string{name, args[0]})
		}
	}

	d.metrics.UnknownCommands.Add(1)
	d.logger.Info("command_not_found", zap.String("command", name))
	return Result{}, &CommandNotFoundError{Name: name}
}

// Calculate runs op on two operand strings; it backs both the REPL and
// one-shot evaluation.
func (d *Dispatcher) Calculate(name string, a, b string) (Result, error) {
	d.metrics.RecordCommand()
	op, err := d.registry.Resolve(name)
	if err != nil {
		d.logger.Info("operation_not_found", zap.String("operation", name))
		return Result{}, err
	}
	return d.calculate(op, []string{a, b})
}

func (d *Dispatcher) calculate(op operation.Operation, args []string) (Result, error) {
	name := op.Name()
	if len(args) != 2 {
		d.metrics.InvalidInputs.Add(1)
		return Result{}, invalidArg(name, "expected 2 operands, got %d", len(args))
	}

	var operands [2]float64
	for i, arg := range args {
		v, ok := parseOperand(arg)
		if !ok {
			d.metrics.InvalidInputs.Add(1)
			return Result{}, invalidArg(name, "operand %q is not a finite number", arg)
		}
		operands[i] = v
	}
	a, b := operands[0], operands[1]

	start := time.Now()
	value, err := operation.Apply(op, a, b)
	elapsed := time.Since(start)

	if err != nil {
		var de *operation.DomainError
		if errors.As(err, &de) {
			d.metrics.RecordCalculation(false, elapsed)
			d.logger.Warn("domain_error",
				zap.String("operation", name),
				zap.Float64("a", a),
				zap.Float64("b", b),
				zap.Error(de.Err),
			)
			return Result{}, &OperationDomainError{Op: name, A: a, B: b, Err: de.Err}
		}
		d.logger.Error("operation_failed", zap.String("operation", name), zap.Error(err))
		return Result{}, fmt.Errorf("%s: %w", name, err)
	}

	rec := history.NewRecord(name, a, b, value)
	evicted := d.ledger.Append(rec)
	d.metrics.RecordCalculation(true, elapsed)
	d.metrics.RecordEvictions(evicted)
	d.logger.Debug("calculation",
		zap.String("operation", name),
		zap.Float64("a", a),
		zap.Float64("b", b),
		zap.Float64("result", value),
		zap.Int("evicted", evicted),
	)
	return Result{Kind: KindValue, Value: value, Record: rec}, nil
}

// Save writes the visible history to path, resolved against the data
// directory; an empty path means the configured history file.
func (d *Dispatcher) Save(path string) (int, string, error) {
	target := d.env.DataPath(path)
	n, err := history.NewStore(target).Export(d.ledger)
	d.metrics.RecordSave(err == nil)
	if err != nil {
		d.logger.Error("history_save_failed", zap.String("path", target), zap.Error(err))
		return 0, target, err
	}
	d.logger.Info("history_saved", zap.String("path", target), zap.Int("records", n))
	return n, target, nil
}

// Load replaces the history with the file at path, resolved like Save. A
// missing file loads as empty history.
func (d *Dispatcher) Load(path string) (int, string, error) {
	target := d.env.DataPath(path)
	n, err := history.NewStore(target).Import(d.ledger)
	d.metrics.RecordLoad(err == nil)
	if err != nil {
		d.logger.Error("history_load_failed", zap.String("path", target), zap.Error(err))
		return 0, target, err
	}
	d.logger.Info("history_loaded", zap.String("path", target), zap.Int("records", n))
	return n, target, nil
}

// Operations lists the registered operations in registration order.
func (d *Dispatcher) Operations() []OpInfo {
	ops := d.registry.Operations()
	out := make([]OpInfo, 0, len(ops))
	for _, op := range ops {
		out = append(out, OpInfo{Name: op.Name(), Description: operation.Describe(op)})
	}
	return out
}
