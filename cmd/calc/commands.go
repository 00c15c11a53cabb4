package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joss/calc/internal/config"
	"github.com/joss/calc/internal/dispatch"
	"github.com/joss/calc/internal/render"
	"github.com/joss/calc/internal/repl"
	"github.com/joss/calc/internal/selftest"
)

// runREPL starts the interactive loop; SIGINT ends it like 'exit'.
func runREPL(app *App, cmd *cobra.Command, args []string) error {
	app.Shutdown.ListenForSignals()

	loop := repl.New(app.Dispatcher, app.Renderer, repl.Options{
		AutoSave: app.AutoSave,
		Logger:   app.Logger,
	})
	code := loop.Run(app.Shutdown.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	if code != repl.ExitOK {
		return &exitError{code: code}
	}
	return nil
}

func replCmd() *cobra.Command {
	return newCommand(CommandConfig{
		Use:         "repl",
		Short:       "Start the interactive REPL (default)",
		Args:        cobra.NoArgs,
		LoadHistory: true,
		RunFunc:     runREPL,
	})
}

func evalCmd() *cobra.Command {
	return newCommand(CommandConfig{
		Use:   "eval <operation> <a> <b>",
		Short: "Compute one result and exit",
		Example: `  calc eval add 2 3
  calc eval divide -9 4`,
		Args:        cobra.ExactArgs(3),
		LoadHistory: true,
		Positional:  true,
		RunFunc: func(app *App, cmd *cobra.Command, args []string) error {
			w := render.NewWriter(cmd.OutOrStdout(), app.Renderer)

			res, err := app.Dispatcher.Calculate(args[0], args[1], args[2])
			if err != nil {
				return &exitError{code: repl.ExitStartup, err: err}
			}
			w.Result(res)

			if app.AutoSave {
				if _, _, err := app.Dispatcher.Save(""); err != nil {
					return &exitError{code: repl.ExitPersistence, err: err}
				}
			}
			return nil
		},
	})
}

// historyLimit parses the optional [limit] argument; 0 means all.
func historyLimit(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, &exitError{code: repl.ExitStartup, err: fmt.Errorf("limit must be a positive integer, got %q", args[0])}
	}
	return n, nil
}

func historyCmd() *cobra.Command {
	cmd := newCommand(CommandConfig{
		Use:         "history [limit]",
		Short:       "Show saved calculation history",
		Args:        cobra.MaximumNArgs(1),
		LoadHistory: true,
		RunFunc: func(app *App, cmd *cobra.Command, args []string) error {
			limit, err := historyLimit(args)
			if err != nil {
				return err
			}
			w := render.NewWriter(cmd.OutOrStdout(), app.Renderer)
			w.Result(dispatch.Result{Kind: dispatch.KindHistory, Records: app.Ledger.Tail(limit)})
			return nil
		},
	})

	cmd.AddCommand(newCommand(CommandConfig{
		Use:         "detail [limit]",
		Short:       "Show saved history as a table with timestamps",
		Args:        cobra.MaximumNArgs(1),
		LoadHistory: true,
		RunFunc: func(app *App, cmd *cobra.Command, args []string) error {
			limit, err := historyLimit(args)
			if err != nil {
				return err
			}
			w := render.NewWriter(cmd.OutOrStdout(), app.Renderer)
			w.Result(dispatch.Result{Kind: dispatch.KindHistoryDetail, Records: app.Ledger.Tail(limit)})
			return nil
		},
	}))

	cmd.AddCommand(newCommand(CommandConfig{
		Use:   "clear",
		Short: "Delete all saved history",
		Args:  cobra.NoArgs,
		RunFunc: func(app *App, cmd *cobra.Command, args []string) error {
			app.Ledger.Clear()
			_, path, err := app.Dispatcher.Save("")
			if err != nil {
				return &exitError{code: repl.ExitPersistence, err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "History cleared (%s)\n", path)
			return nil
		},
	}))
	return cmd
}

func opsCmd() *cobra.Command {
	return newCommand(CommandConfig{
		Use:     "ops",
		Short:   "List available operations",
		Aliases: []string{"menu"},
		Args:    cobra.NoArgs,
		RunFunc: func(app *App, cmd *cobra.Command, args []string) error {
			w := render.NewWriter(cmd.OutOrStdout(), app.Renderer)
			w.Result(dispatch.Result{Kind: dispatch.KindOps, Ops: app.Dispatcher.Operations()})
			return nil
		},
	})
}

func versionCmd() *cobra.Command {
	return newInfoCommand("version", "Show calc version", func(cmd *cobra.Command) {
		fmt.Fprintf(cmd.OutOrStdout(), "calc version %s\n", version)
	})
}

// doctorCmd checks the environment without building the App, so it can
// report the failures that would stop startup.
func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, history file and plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.Load(config.WithConfigFile(configFile))
			if err != nil {
				return &exitError{code: repl.ExitStartup, err: err}
			}

			status := selftest.CheckHealth(cmd.Context(), env)
			fmt.Fprint(cmd.OutOrStdout(), status.Summary())
			if !status.Healthy() {
				return &exitError{code: repl.ExitStartup}
			}
			return nil
		},
	}
}
