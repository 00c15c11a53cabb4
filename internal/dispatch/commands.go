package dispatch

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/joss/calc/internal/history"
)

// Command is a built-in meta-command.
type Command struct {
	Name        string
	Usage       string
	Description string
	Handler     func(ctx context.Context, d *Dispatcher, args []string) (Result, error)
}

// builtinCommands returns the meta-commands, which take precedence over
// operations of the same name.
func builtinCommands() map[string]Command {
	cmds := map[string]Command{
		"history": {
			Name:        "history",
			Usage:       "history [detail] [limit]",
			Description: "Show calculation history, optionally only the last <limit> entries; 'detail' adds timestamps",
			Handler:     cmdHistory,
		},
		"add-record": {
			Name:        "add-record",
			Usage:       "add-record <op> <a> <b> <result>",
			Description: "Add an entry to history without computing it",
			Handler:     cmdAddRecord,
		},
		"undo": {
			Name:        "undo",
			Usage:       "undo",
			Description: "Undo the last calculation",
			Handler:     cmdUndo,
		},
		"redo": {
			Name:        "redo",
			Usage:       "redo",
			Description: "Redo the last undone calculation",
			Handler:     cmdRedo,
		},
		"clear": {
			Name:        "clear",
			Usage:       "clear",
			Description: "Clear calculation history",
			Handler:     cmdClear,
		},
		"delete": {
			Name:        "delete",
			Usage:       "delete <n>",
			Description: "Delete history entry <n> as numbered by 'history'",
			Handler:     cmdDelete,
		},
		"save": {
			Name:        "save",
			Usage:       "save [path]",
			Description: "Save history to a CSV file",
			Handler:     cmdSave,
		},
		"load": {
			Name:        "load",
			Usage:       "load [path]",
			Description: "Load history from a CSV file, replacing the current one",
			Handler:     cmdLoad,
		},
		"ops": {
			Name:        "ops",
			Usage:       "ops",
			Description: "List available operations",
			Handler:     cmdOps,
		},
		"stats": {
			Name:        "stats",
			Usage:       "stats",
			Description: "Show session statistics",
			Handler:     cmdStats,
		},
		"help": {
			Name:        "help",
			Usage:       "help",
			Description: "Show available commands",
			Handler:     cmdHelp,
		},
		"exit": {
			Name:        "exit",
			Usage:       "exit",
			Description: "Save history (if enabled) and exit",
			Handler:     cmdExit,
		},
	}
	cmds["menu"] = cmds["ops"]
	return cmds
}

// Commands returns the meta-commands sorted by name, without aliases.
func (d *Dispatcher) Commands() []Command {
	var out []Command
	for _, name := range slices.Sorted(maps.Keys(d.commands)) {
		if cmd := d.commands[name]; cmd.Name == name {
			out = append(out, cmd)
		}
	}
	return out
}

func noArgs(name string, args []string) error {
	if len(args) > 0 {
		return invalidArg(name, "takes no arguments")
	}
	return nil
}

func optionalArg(name string, args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", nil
	case 1:
		return args[0], nil
	default:
		return "", invalidArg(name, "takes at most one argument")
	}
}

func positiveInt(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, invalidArg(name, "%q is not a positive integer", s)
	}
	return n, nil
}

func cmdHistory(_ context.Context, d *Dispatcher, args []string) (Result, error) {
	kind := KindHistory
	if len(args) > 0 && strings.EqualFold(args[0], "detail") {
		kind, args = KindHistoryDetail, args[1:]
	}

	arg, err := optionalArg("history", args)
	if err != nil {
		return Result{}, err
	}
	if arg == "" {
		return Result{Kind: kind, Records: d.ledger.Visible()}, nil
	}
	limit, err := positiveInt("history", arg)
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: kind, Records: d.ledger.Tail(limit)}, nil
}

// cmdAddRecord appends an entry as given. The operation must be registered
// but its result is not recomputed.
func cmdAddRecord(_ context.Context, d *Dispatcher, args []string) (Result, error) {
	if len(args) != 4 {
		d.metrics.InvalidInputs.Add(1)
		return Result{}, invalidArg("add-record", "expected <op> <a> <b> <result>, got %d argument(s)", len(args))
	}
	op, err := d.registry.Resolve(args[0])
	if err != nil {
		return Result{}, err
	}

	var values [3]float64
	for i, arg := range args[1:] {
		v, ok := parseOperand(arg)
		if !ok {
			d.metrics.InvalidInputs.Add(1)
			return Result{}, invalidArg("add-record", "%q is not a finite number", arg)
		}
		values[i] = v
	}

	rec := history.NewRecord(op.Name(), values[0], values[1], values[2])
	evicted := d.ledger.Append(rec)
	d.metrics.RecordEvictions(evicted)
	d.logger.Info("history_record_added", zap.String("operation", rec.Operation), zap.Int("evicted", evicted))
	return Result{Kind: KindMessage, Record: rec, Message: "Added: " + rec.String()}, nil
}

func cmdUndo(_ context.Context, d *Dispatcher, args []string) (Result, error) {
	if err := noArgs("undo", args); err != nil {
		return Result{}, err
	}
	rec, err := d.ledger.Undo()
	if err != nil {
		return Result{}, err
	}
	d.metrics.Undos.Add(1)
	return Result{Kind: KindMessage, Record: rec, Message: "Undone: " + rec.String()}, nil
}

func cmdRedo(_ context.Context, d *Dispatcher, args []string) (Result, error) {
	if err := noArgs("redo", args); err != nil {
		return Result{}, err
	}
	rec, err := d.ledger.Redo()
	if err != nil {
		return Result{}, err
	}
	d.metrics.Redos.Add(1)
	return Result{Kind: KindMessage, Record: rec, Message: "Redone: " + rec.String()}, nil
}

func cmdClear(_ context.Context, d *Dispatcher, args []string) (Result, error) {
	if err := noArgs("clear", args); err != nil {
		return Result{}, err
	}
	d.ledger.Clear()
	d.logger.Info("history_cleared")
	return Result{Kind: KindMessage, Message: "History cleared"}, nil
}

func cmdDelete(_ context.Context, d *Dispatcher, args []string) (Result, error) {
	if len(args) != 1 {
		return Result{}, invalidArg("delete", "expected an entry number")
	}
	n, err := positiveInt("delete", args[0])
	if err != nil {
		return Result{}, err
	}
	rec, err := d.ledger.Delete(n - 1)
	if err != nil {
		return Result{}, invalidArg("delete", "no entry %d (history has %d)", n, d.ledger.Len())
	}
	d.logger.Info("history_entry_deleted", zap.Int("entry", n))
	return Result{Kind: KindMessage, Record: rec, Message: "Deleted: " + rec.String()}, nil
}

func cmdSave(_ context.Context, d *Dispatcher, args []string) (Result, error) {
	arg, err := optionalArg("save", args)
	if err != nil {
		return Result{}, err
	}
	n, path, err := d.Save(arg)
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: KindMessage, Message: fmt.Sprintf("Saved %d record(s) to %s", n, path)}, nil
}

func cmdLoad(_ context.Context, d *Dispatcher, args []string) (Result, error) {
	arg, err := optionalArg("load", args)
	if err != nil {
		return Result{}, err
	}
	n, path, err := d.Load(arg)
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: KindMessage, Message: fmt.Sprintf("Loaded %d record(s) from %s", n, path)}, nil
}

func cmdOps(_ context.Context, d *Dispatcher, args []string) (Result, error) {
	if err := noArgs("ops", args); err != nil {
		return Result{}, err
	}
	return Result{Kind: KindOps, Ops: d.Operations()}, nil
}

func cmdStats(_ context.Context, d *Dispatcher, args []string) (Result, error) {
	if err := noArgs("stats", args); err != nil {
		return Result{}, err
	}
	return Result{Kind: KindStats, Stats: d.metrics.Snapshot(), History: d.HistoryInfo()}, nil
}

func cmdHelp(_ context.Context, d *Dispatcher, _ []string) (Result, error) {
	return Result{Kind: KindHelp, Commands: d.Commands(), Ops: d.Operations()}, nil
}

func cmdExit(_ context.Context, _ *Dispatcher, _ []string) (Result, error) {
	return Result{Kind: KindExit}, nil
}
