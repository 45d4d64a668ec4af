package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/doeshing/mathool/internal/app"
	"github.com/doeshing/mathool/internal/domain"
	"github.com/doeshing/mathool/internal/infrastructure/cli/helpers"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and complete recorded results",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistoryStatsCommand(container),
		newHistoryCheckPrimeCommand(container),
		newHistoryFactorialCommand(container),
		newHistoryFillCommand(container),
		newHistoryClearCommand(container),
		newHistoryExportCommand(container),
	)

	return historyCmd
}

// newHistoryListCommand creates the 'history list' subcommand
func newHistoryListCommand(container *app.Container) *cobra.Command {
	var asJSON, full bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistoryEntries(cmd.OutOrStdout(), container, asJSON, full)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the persisted JSON form")
	cmd.Flags().BoolVar(&full, "full", false, "Do not abbreviate long factorials")
	return cmd
}

// newHistoryStatsCommand creates the 'history stats' subcommand
func newHistoryStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize recorded results",
		RunE: func(cmd *cobra.Command, args []string) error {
			helpers.RenderStats(cmd.OutOrStdout(), domain.Stats(container.History.Entries()))
			return nil
		},
	}
}

// newHistoryCheckPrimeCommand creates the 'history check-prime' subcommand
func newHistoryCheckPrimeCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "check-prime <row>",
		Short: "Fill in primality for a recorded row (e.g. #1)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fillHistoryRow(cmd, container, args[0], domain.ModePrime)
		},
	}
}

// newHistoryFactorialCommand creates the 'history factorial' subcommand
func newHistoryFactorialCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "factorial <row>",
		Short: "Fill in the factorial for a recorded row (e.g. #1)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fillHistoryRow(cmd, container, args[0], domain.ModeFactorial)
		},
	}
}

// newHistoryFillCommand creates the 'history fill' subcommand
func newHistoryFillCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "fill",
		Short: "Fill every missing primality and factorial",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fillAllMissing(cmd, container)
		},
	}
}

// newHistoryClearCommand creates the 'history clear' subcommand
func newHistoryClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Erase the history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return clearHistory(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}
}

// newHistoryExportCommand creates the 'history export' subcommand
func newHistoryExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export history to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportHistory(cmd.OutOrStdout(), container, args[0])
		},
	}
}

// listHistoryEntries prints the history table or its JSON form
func listHistoryEntries(out io.Writer, container *app.Container, asJSON, full bool) error {
	entries := container.History.Entries()
	if asJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode history: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}
	helpers.RenderHistory(out, entries, full)
	return nil
}

// fillHistoryRow resolves a displayed row and fills one of its fields
func fillHistoryRow(cmd *cobra.Command, container *app.Container, arg string, mode domain.Mode) error {
	if container.QueryService == nil {
		return errors.New(ErrQueryServiceUnavailable)
	}
	index, err := helpers.ParseRow(arg, container.History.Len())
	if err != nil {
		return err
	}

	rec, err := helpers.Spin(cmd.ErrOrStderr(), func() (domain.ResultRecord, error) {
		if mode == domain.ModePrime {
			return container.QueryService.FillPrime(cmd.Context(), index)
		}
		return container.QueryService.FillFactorial(cmd.Context(), index)
	})
	if err != nil {
		return helpers.UserError(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "#%d\n", index+1)
	helpers.RenderResult(cmd.OutOrStdout(), rec)
	return nil
}

// fillAllMissing fills every absent field and prints the updated table
func fillAllMissing(cmd *cobra.Command, container *app.Container) error {
	if container.QueryService == nil {
		return errors.New(ErrQueryServiceUnavailable)
	}
	out := cmd.OutOrStdout()
	stats := domain.Stats(container.History.Entries())
	if stats.MissingPrime+stats.MissingFactorial == 0 {
		fmt.Fprintln(out, MsgNothingToFill)
		return nil
	}

	filled, err := helpers.Spin(cmd.ErrOrStderr(), func() (int, error) {
		return container.QueryService.FillMissing(cmd.Context())
	})
	fmt.Fprintf(out, "Filled %d of %d missing fields.\n", filled, stats.MissingPrime+stats.MissingFactorial)
	helpers.RenderHistory(out, container.History.Entries(), false)
	return helpers.UserError(err)
}

// clearHistory erases the history and the persisted key
func clearHistory(ctx context.Context, out io.Writer, container *app.Container) error {
	if container.QueryService == nil {
		return errors.New(ErrQueryServiceUnavailable)
	}
	if err := container.QueryService.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	fmt.Fprintln(out, MsgHistoryCleared)
	return nil
}

// exportHistory writes the history in its persisted JSON form to path
func exportHistory(out io.Writer, container *app.Container, path string) error {
	entries := container.History.Entries()
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), domain.SecureFilePermissions); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(out, "Exported %d entries to %s\n", len(entries), path)
	return nil
}
