package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/mathool/internal/app"
	"github.com/doeshing/mathool/internal/domain"
	"github.com/doeshing/mathool/internal/infrastructure/cli/helpers"
)

// SubmitOptions are the flags shared by 'submit' and the root shorthand.
type SubmitOptions struct {
	Mode string
	JSON bool
}

// Bind registers the submit flags on cmd.
func (o *SubmitOptions) Bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Mode, "mode", "m", "", "prime, factorial or both (default from config)")
	cmd.Flags().BoolVar(&o.JSON, "json", false, "Print the recorded result as JSON")
}

// NewSubmitCommand creates the submit command
func NewSubmitCommand(container *app.Container) *cobra.Command {
	var opts SubmitOptions

	cmd := &cobra.Command{
		Use:   "submit <number>",
		Short: "Check a number and record the result",
		Long:  "Validates the number, asks the math service for its primality and/or factorial, and appends the answer to the history.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunSubmit(cmd, container, args[0], opts)
		},
	}

	opts.Bind(cmd)
	return cmd
}

// RunSubmit submits raw in the selected mode and prints the result card.
func RunSubmit(cmd *cobra.Command, container *app.Container, raw string, opts SubmitOptions) error {
	if container.QueryService == nil {
		return errors.New(ErrQueryServiceUnavailable)
	}

	mode := container.Config.GetDefaultMode()
	if opts.Mode != "" {
		parsed, err := domain.ParseMode(opts.Mode)
		if err != nil {
			return err
		}
		mode = parsed
	}

	rec, err := helpers.Spin(cmd.ErrOrStderr(), func() (domain.ResultRecord, error) {
		return container.QueryService.Submit(cmd.Context(), raw, mode)
	})
	if err != nil {
		return helpers.UserError(err)
	}

	out := cmd.OutOrStdout()
	if opts.JSON {
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	fmt.Fprintf(out, "%s\n", mode.Label())
	helpers.RenderResult(out, rec)
	return nil
}
