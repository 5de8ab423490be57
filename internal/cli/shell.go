package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mmynk/roster/internal/controller"
)

const shellHelp = `Commands:
  list          show everyone, sorted by name
  add           add a person
  edit <row>    rename the person at row
  delete <row>  delete the person at row
  family        create "Abc Family" with "Maggie"
  families      show families and their members
  quit          leave the shell`

// NewShellCommand creates the interactive shell command.
func NewShellCommand(opts *RootOptions) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Manage the list interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("metrics-addr") {
				opts.Config.MetricsAddr = metricsAddr
			}
			return runShell(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}

func runShell(ctx context.Context, opts *RootOptions, in io.Reader, out io.Writer) error {
	queue := controller.NewMainQueue()
	defer queue.Close()

	a, err := openApp(opts.Config, out, queue)
	if err != nil {
		return err
	}
	defer a.Close()

	if addr := opts.Config.MetricsAddr; addr != "" {
		srv := &http.Server{
			Addr:    addr,
			Handler: promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		defer srv.Close()
		slog.Info("Serving metrics", "address", addr)
	}

	s := &shell{
		app:     a,
		queue:   queue,
		out:     out,
		scanner: bufio.NewScanner(in),
	}
	return s.run(ctx)
}

type shell struct {
	app     *app
	queue   *controller.MainQueue
	out     io.Writer
	scanner *bufio.Scanner
}

func (s *shell) run(ctx context.Context) error {
	fmt.Fprintln(s.out, `Type "help" for commands.`)
	s.app.list.Load(ctx)
	s.queue.Flush()

	for {
		fmt.Fprint(s.out, "> ")
		line, ok := s.readLine()
		if !ok {
			fmt.Fprintln(s.out)
			return s.scanner.Err()
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			fmt.Fprintln(s.out)
			return nil
		case "help":
			fmt.Fprintln(s.out, shellHelp)
		case "list":
			s.app.list.Load(ctx)
		case "add":
			s.add(ctx)
		case "edit":
			s.edit(ctx, fields[1:])
		case "delete":
			s.delete(ctx, fields[1:])
		case "family":
			s.app.list.RelationshipDemo(ctx)
		case "families":
			families, err := s.app.records.FetchFamilies(ctx)
			if err != nil {
				slog.Error("Error fetching families", "error", err)
				break
			}
			writeFamilies(s.out, families)
		default:
			fmt.Fprintf(s.out, "unknown command %q\n", fields[0])
		}

		// Let the refresh print before the next prompt.
		s.queue.Flush()
	}
}

func (s *shell) readLine() (string, bool) {
	if !s.scanner.Scan() {
		return "", false
	}
	return strings.TrimRight(s.scanner.Text(), "\r"), true
}

// prompt asks for one line of text. End of input cancels, like dismissing a dialog.
func (s *shell) prompt(title, message string) (string, bool) {
	fmt.Fprintf(s.out, "%s - %s ", title, message)
	return s.readLine()
}

func (s *shell) add(ctx context.Context) {
	name, ok := s.prompt("Add Person", "What is their name?")
	if !ok {
		return
	}
	s.app.list.Add(ctx, name)
}

func (s *shell) edit(ctx context.Context, args []string) {
	row, ok := s.row(args)
	if !ok {
		return
	}
	current, err := s.app.list.Prefill(row)
	if err != nil {
		fmt.Fprintf(s.out, "no such row: %s\n", args[0])
		return
	}
	name, ok := s.prompt("Edit Person", fmt.Sprintf("Edit name (currently %q):", current))
	if !ok {
		return
	}
	if err := s.app.list.EditAt(ctx, row, name); err != nil {
		fmt.Fprintf(s.out, "no such row: %s\n", args[0])
	}
}

func (s *shell) delete(ctx context.Context, args []string) {
	row, ok := s.row(args)
	if !ok {
		return
	}
	if err := s.app.list.DeleteAt(ctx, row); err != nil {
		fmt.Fprintf(s.out, "no such row: %s\n", args[0])
	}
}

func (s *shell) row(args []string) (int, bool) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: <command> <row>")
		return 0, false
	}
	row, err := parseRow(args[0])
	if err != nil {
		fmt.Fprintln(s.out, err)
		return 0, false
	}
	return row, true
}
