package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"biletmaster/models"
	"biletmaster/presenter"
	"biletmaster/utils"
	"biletmaster/views"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Browse events interactively in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			in, out, closeInput, err := terminal()
			if err != nil {
				return err
			}
			defer closeInput()

			console := views.NewConsole(in, out, a.loc)
			sessionID := utils.NewSessionID("cli")

			sessionCtx, stop := context.WithCancel(ctx)
			defer stop()

			p := presenter.NewEventsPresenter(a.source, a.prober, a.cfg.GroupKeys, presenter.GoScheduler{}, a.log.With("session", sessionID))
			if err := p.Attach(sessionCtx, views.Tee(sessionCtx, console, a.mirrors(sessionCtx, sessionID)...)); err != nil {
				return err
			}
			defer p.Detach()

			fmt.Fprintln(out, "Type a location number or name, \"retry\" after a failure, Ctrl-D to quit.")
			errc := make(chan error, 1)
			go func() { errc <- console.Run(ctx) }()

			select {
			case err = <-errc:
			case <-ctx.Done():
				// Readline may still be blocked on stdin.
				return nil
			}
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// terminal uses readline on an interactive stdin and plain lines otherwise.
func terminal() (views.LineReader, io.Writer, func(), error) {
	if !readline.DefaultIsTerminal() {
		return views.Lines(os.Stdin), os.Stdout, func() {}, nil
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("readline: %w", err)
	}
	return rl, rl.Stdout(), func() { rl.Close() }, nil
}

func newLocationsCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "locations",
		Short: "List locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			var locations []models.Location
			if raw {
				locations, err = a.source.Locations(cmd.Context())
			} else {
				locations, err = a.source.GroupedLocations(cmd.Context(), a.cfg.GroupKeys)
			}
			if err != nil {
				return err
			}
			views.NewConsole(nil, cmd.OutOrStdout(), a.loc).SetLocations(locations)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "list locations without grouping")
	return cmd
}

func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events <location>",
		Short: "Print the events of one location",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			name := strings.Join(args, " ")
			locations, err := a.source.GroupedLocations(cmd.Context(), a.cfg.GroupKeys)
			if err != nil {
				return err
			}
			for _, l := range locations {
				if strings.EqualFold(l.Name, name) {
					events, err := a.source.EventsForLocation(cmd.Context(), l)
					if err != nil {
						return err
					}
					views.NewConsole(nil, cmd.OutOrStdout(), a.loc).SetEvents(events)
					return nil
				}
			}
			return fmt.Errorf("%q: location not found", name)
		},
	}
}
