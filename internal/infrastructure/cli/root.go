package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/doeshing/mathool/internal/app"
	"github.com/doeshing/mathool/internal/infrastructure/cli/commands"
	"github.com/doeshing/mathool/internal/infrastructure/config"
	"github.com/doeshing/mathool/internal/pkg/logger"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose   bool
	Ephemeral bool
	// ConfigCommand marks a config subcommand invocation, which still runs
	// when the configuration file is broken.
	ConfigCommand bool
}

// NewRootCmd builds the container and wires the cobra root command. The
// returned cleanup releases the container and must be called after Execute.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, func() error, error) {
	container, err := app.BuildContainer(ctx, app.BuildOptions{Verbose: opts.Verbose, Ephemeral: opts.Ephemeral})
	if err != nil {
		if !opts.ConfigCommand {
			return nil, nil, err
		}
		log := logger.NewWithLevel("warn", opts.Verbose)
		log.Warn("running config command without a loaded configuration", map[string]interface{}{"error": err.Error()})
		container = app.NewConfigContainer(config.NewFileLoader(""), log)
	}
	return NewRootCmdWithContainer(container), container.Close, nil
}

// NewRootCmdWithContainer wires the command tree around an existing container.
func NewRootCmdWithContainer(container *app.Container) *cobra.Command {
	var submitOpts commands.SubmitOptions

	root := &cobra.Command{
		Use:   "mathool [number]",
		Short: "mathool - prime and factorial lookups with history",
		Long:  "mathool asks a remote math service whether numbers are prime and what their factorials are, and keeps a persistent history of the answers.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return commands.RunSubmit(cmd, container, args[0], submitOpts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	submitOpts.Bind(root)

	// Read by ParseGlobalFlags before the container exists; registered so
	// cobra accepts them anywhere on the command line.
	var globals Options
	root.PersistentFlags().BoolVar(&globals.Verbose, "verbose", false, "Log debug output to stderr")
	root.PersistentFlags().BoolVar(&globals.Ephemeral, "ephemeral", false, "Keep history in memory for this run only")

	root.AddCommand(commands.NewSubmitCommand(container))
	root.AddCommand(commands.NewHistoryCommand(container))
	root.AddCommand(commands.NewSessionCommand(container))
	root.AddCommand(commands.NewConfigCommand(container))
	root.AddCommand(commands.NewDoctorCommand(container))
	root.AddCommand(commands.NewVersionCommand())
	return root
}
