package main

import (
	"github.com/spf13/cobra"
)

// CommandFunc defines the function signature for command execution.
type CommandFunc func(app *App, cmd *cobra.Command, args []string) error

// CommandConfig holds configuration for creating standardized commands.
type CommandConfig struct {
	Use     string
	Short   string
	Long    string
	Args    cobra.PositionalArgs
	Example string
	Aliases []string
	// LoadHistory imports the history file before RunFunc.
	LoadHistory bool
	// Positional lets arguments start with '-', e.g. negative operands.
	Positional bool
	RunFunc    CommandFunc
}

// newCommand creates a cobra command that builds the App, runs
// cfg.RunFunc and then shuts the App down.
func newCommand(cfg CommandConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:     cfg.Use,
		Short:   cfg.Short,
		Long:    cfg.Long,
		Args:    cfg.Args,
		Example: cfg.Example,
		Aliases: cfg.Aliases,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), appOptions{
				configFile:  configFile,
				pretty:      pretty,
				loadHistory: cfg.LoadHistory,
				stderr:      cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			runErr := cfg.RunFunc(app, cmd, args)
			app.Close()
			return runErr
		},
	}
	if cfg.Positional {
		cmd.Flags().SetInterspersed(false)
	}
	return cmd
}

// newInfoCommand creates a command that needs no App.
func newInfoCommand(use, short string, run func(cmd *cobra.Command)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			run(cmd)
		},
	}
}
