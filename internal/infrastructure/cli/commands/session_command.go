package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/mathool/internal/app"
	"github.com/doeshing/mathool/internal/domain"
	"github.com/doeshing/mathool/internal/infrastructure/cli/helpers"
)

const sessionHelp = `Commands:
  <number>             submit in the current mode
  prime <n>            check whether n is prime
  factorial <n>        calculate n!
  both <n>             both at once
  mode [m]             show or set the mode (prime, factorial, both)
  list                 show the history
  check-prime <row>    fill primality of a row (e.g. #2)
  factorial-row <row>  fill the factorial of a row
  fill                 fill every missing value
  stats                summarize the history
  clear                erase the history
  help                 show this help
  quit                 leave the session
`

// NewSessionCommand creates the interactive session command
func NewSessionCommand(container *app.Container) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Start an interactive session",
		RunE: func(cmd *cobra.Command, args []string) error {
			session := NewSession(container, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if mode != "" {
				if err := session.SetMode(mode); err != nil {
					return err
				}
			}
			return session.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Initial mode (default from config)")
	return cmd
}

// Session is the line-oriented form: one command per line, answers printed
// inline. Errors are reported and the loop continues.
type Session struct {
	container *app.Container
	in        *bufio.Reader
	out       io.Writer
	status    io.Writer
	mode      domain.Mode
}

// NewSession builds a session reading from in. status receives the spinner.
func NewSession(container *app.Container, in io.Reader, out, status io.Writer) *Session {
	return &Session{
		container: container,
		in:        bufio.NewReader(in),
		out:       out,
		status:    status,
		mode:      container.Config.GetDefaultMode(),
	}
}

// Mode returns the mode bare numbers are submitted in.
func (s *Session) Mode() domain.Mode {
	return s.mode
}

// SetMode changes the current mode.
func (s *Session) SetMode(name string) error {
	mode, err := domain.ParseMode(name)
	if err != nil {
		return err
	}
	s.mode = mode
	return nil
}

// Run reads commands until quit, end of input or cancellation.
func (s *Session) Run(ctx context.Context) error {
	if s.container.QueryService == nil {
		return errors.New(ErrQueryServiceUnavailable)
	}
	fmt.Fprintln(s.out, "Type a number, or 'help' for commands.")
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprintf(s.out, "mathool [%s]> ", s.mode.Label())

		line, err := s.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		atEOF := errors.Is(err, io.EOF)

		if strings.TrimSpace(line) != "" {
			if quit := s.Execute(ctx, line); quit {
				return nil
			}
		}
		if atEOF {
			fmt.Fprintln(s.out)
			return nil
		}
	}
}

// Execute runs one session line and reports whether the session should end.
func (s *Session) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]

	var err error
	switch verb {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprint(s.out, sessionHelp)
	case "mode":
		err = s.modeCommand(args)
	case "prime", "factorial", "both":
		err = s.submitIn(ctx, verb, args)
	case "list", "history":
		s.list()
	case "check-prime":
		err = s.fillRow(ctx, args, domain.ModePrime)
	case "factorial-row":
		err = s.fillRow(ctx, args, domain.ModeFactorial)
	case "fill":
		err = s.fillAll(ctx)
	case "stats":
		helpers.RenderStats(s.out, domain.Stats(s.container.History.Entries()))
	case "clear":
		err = clearHistory(ctx, s.out, s.container)
	default:
		err = s.submit(ctx, strings.TrimSpace(line), s.mode)
	}

	if err != nil {
		fmt.Fprintln(s.out, helpers.DescribeError(err))
	}
	return false
}

func (s *Session) modeCommand(args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(s.out, "Mode: %s\n", s.mode.Label())
		return nil
	}
	if err := s.SetMode(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Mode: %s\n", s.mode.Label())
	return nil
}

func (s *Session) submitIn(ctx context.Context, verb string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <number>", verb)
	}
	mode, err := domain.ParseMode(verb)
	if err != nil {
		return err
	}
	return s.submit(ctx, args[0], mode)
}

func (s *Session) submit(ctx context.Context, raw string, mode domain.Mode) error {
	rec, err := helpers.Spin(s.status, func() (domain.ResultRecord, error) {
		return s.container.QueryService.Submit(ctx, raw, mode)
	})
	if err != nil {
		return err
	}
	helpers.RenderResult(s.out, rec)
	return nil
}

func (s *Session) list() {
	entries := s.container.History.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(s.out, MsgNoHistoryRecorded)
		return
	}
	helpers.RenderHistory(s.out, entries, false)
}

func (s *Session) fillRow(ctx context.Context, args []string, mode domain.Mode) error {
	if len(args) != 1 {
		return errors.New("usage: check-prime <row> | factorial-row <row>")
	}
	index, err := helpers.ParseRow(args[0], s.container.History.Len())
	if err != nil {
		return err
	}
	rec, err := helpers.Spin(s.status, func() (domain.ResultRecord, error) {
		if mode == domain.ModePrime {
			return s.container.QueryService.FillPrime(ctx, index)
		}
		return s.container.QueryService.FillFactorial(ctx, index)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "#%d\n", index+1)
	helpers.RenderResult(s.out, rec)
	return nil
}

func (s *Session) fillAll(ctx context.Context) error {
	filled, err := helpers.Spin(s.status, func() (int, error) {
		return s.container.QueryService.FillMissing(ctx)
	})
	if filled == 0 && err == nil {
		fmt.Fprintln(s.out, MsgNothingToFill)
		return nil
	}
	fmt.Fprintf(s.out, "Filled %d fields.\n", filled)
	return err
}
