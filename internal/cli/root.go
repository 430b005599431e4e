package cli

import (
	stdcontext "context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/orsh/internal/config"
	"github.com/Paintersrp/orsh/internal/dispatch"
	"github.com/Paintersrp/orsh/internal/log"
	"github.com/Paintersrp/orsh/internal/runtime"
	"github.com/Paintersrp/orsh/internal/runtime/process"
)

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *context) {
	ctx := &context{}

	root := &cobra.Command{
		Use:   "orsh",
		Short: "Minimal shell that dispatches foreground, background, piped and redirected commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.run(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&ctx.configFile, "file", "f", "", "Path to shell configuration")
	root.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Override the configured log level")
	root.Flags().StringVarP(&ctx.command, "command", "c", "", "Dispatch a single command line and exit")
	root.Flags().BoolVar(&ctx.trace, "trace", false, "Write lifecycle events to stderr as JSON lines")

	root.AddCommand(newConfigCmd(ctx))

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint.
func Execute() {
	// SIGINT belongs to the dispatcher's signal policy and must not cancel the
	// session. SIGTERM ends it after the current command line.
	ctx, stop := signal.NotifyContext(stdcontext.Background(), syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "orsh:", err)
		os.Exit(1)
	}
}

type context struct {
	configFile string
	logLevel   string
	command    string
	trace      bool
}

func (c *context) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return nil, err
	}
	if c.logLevel != "" {
		cfg.Log.Level = strings.ToLower(c.logLevel)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *context) run(cmd *cobra.Command) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	stdout, stderr := process.SyncStdio(cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := log.Setup(cfg.Log.Level, cfg.Log.Format, stderr)
	cliLog := log.WithComponent("cli")

	observers := []runtime.Observer{logEvents(cliLog)}
	if c.trace {
		observers = append(observers, newEventEncoder(stderr).Observe)
	}

	d, err := dispatch.New(
		dispatch.WithStdio(cmd.InOrStdin(), stdout, stderr),
		dispatch.WithLogger(logger),
		dispatch.WithObserver(fanOut(observers...)),
		dispatch.WithMetricsTextfile(cfg.Metrics.Textfile),
	)
	if err != nil {
		return err
	}
	if err := d.Initialize(); err != nil {
		return err
	}

	runErr := c.session(cmd, cfg, d, stdout, stderr, cliLog)
	if err := d.Finalize(); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func (c *context) session(cmd *cobra.Command, cfg *config.Config, d dispatcher, stdout, stderr io.Writer, logger *slog.Logger) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = stdcontext.Background()
	}

	if cmd.Flags().Changed("command") {
		_, err := runLine(ctx, d, c.command, stderr)
		return err
	}

	reader, err := newLineReader(cmd.InOrStdin(), stdout, stderr, cfg)
	if err != nil {
		return err
	}
	defer reader.Close()

	logger.Debug("session started", "interactive", reader.Interactive())
	return repl(ctx, d, reader, stderr)
}

func logEvents(logger *slog.Logger) runtime.Observer {
	return func(evt runtime.Event) {
		attrs := []any{
			"event", string(evt.Type),
			"dispatch_id", evt.DispatchID,
		}
		if evt.Pattern != "" {
			attrs = append(attrs, "pattern", evt.Pattern)
		}
		if evt.Pid > 0 {
			attrs = append(attrs, "pid", evt.Pid)
		}
		switch evt.Type {
		case runtime.EventTypeExited, runtime.EventTypeReaped:
			attrs = append(attrs, "exit_code", evt.ExitCode)
			if evt.Signal != "" {
				attrs = append(attrs, "signal", evt.Signal)
			}
		case runtime.EventTypeChildFailed:
			attrs = append(attrs, "op", evt.Op, "error", evt.Err)
		}
		logger.Debug("lifecycle event", attrs...)
	}
}

func fanOut(observers ...runtime.Observer) runtime.Observer {
	return func(evt runtime.Event) {
		for _, o := range observers {
			o.Emit(evt)
		}
	}
}
