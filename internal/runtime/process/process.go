package process

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"

	"github.com/Paintersrp/orsh/internal/command"
	"github.com/Paintersrp/orsh/internal/log"
	"github.com/Paintersrp/orsh/internal/runtime"
	"github.com/Paintersrp/orsh/internal/signals"
)

// ErrEmptyCommand is reported when a stage has no program to execute.
var ErrEmptyCommand = errors.New("empty command")

// Runner executes classified command lines as child processes.
type Runner struct {
	spawner runtime.Spawner
	observe runtime.Observer
	log     *slog.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Option customises a Runner.
type Option func(*Runner)

// WithStdio overrides the standard streams handed to children. Nil values
// keep the controlling process's own streams.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		if stdin != nil {
			r.stdin = stdin
		}
		if stdout != nil {
			r.stdout = stdout
		}
		if stderr != nil {
			r.stderr = stderr
		}
	}
}

// WithObserver registers a lifecycle event observer.
func WithObserver(o runtime.Observer) Option {
	return func(r *Runner) { r.observe = o }
}

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// New constructs a runner that starts children through spawner.
func New(spawner runtime.Spawner, opts ...Option) *Runner {
	r := &Runner{
		spawner: spawner,
		log:     log.WithComponent("process"),
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.stdout, r.stderr = SyncStdio(r.stdout, r.stderr)
	return r
}

// Registry exposes the runner's strategies keyed by pattern.
func (r *Runner) Registry() runtime.Registry {
	return runtime.Registry{
		command.Foreground: runtime.StrategyFunc(r.Foreground),
		command.Background: runtime.StrategyFunc(r.Background),
		command.Pipeline:   runtime.StrategyFunc(r.Pipeline),
		command.Redirect:   runtime.StrategyFunc(r.Redirect),
	}
}

// command builds a child that is stopped when ctx is done.
func (r *Runner) command(ctx context.Context, argv []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	gracefulStop(cmd)
	return r.withStdio(cmd)
}

// detached builds a child that outlives the dispatch call.
func (r *Runner) detached(argv []string) *exec.Cmd {
	return r.withStdio(exec.Command(argv[0], argv[1:]...))
}

func (r *Runner) withStdio(cmd *exec.Cmd) *exec.Cmd {
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	return cmd
}

func (r *Runner) start(req runtime.Request, stage int, cmd *exec.Cmd, d signals.Disposition) error {
	if err := r.spawner.StartChild(cmd, d); err != nil {
		return r.failed(req, stage, startError(cmd.Args, err))
	}

	evt := r.event(req, runtime.EventTypeStarted, stage, cmd.Args)
	evt.Pid = cmd.Process.Pid
	r.observe.Emit(evt)
	r.log.Debug("child started", "dispatch_id", req.DispatchID, "pid", evt.Pid, "stage", stage, "argv", cmd.Args)
	return nil
}

// wait blocks until cmd exits. Exit statuses are reported as events only;
// EINTR is retried inside exec.Cmd.Wait.
func (r *Runner) wait(ctx context.Context, req runtime.Request, stage int, cmd *exec.Cmd) error {
	err := cmd.Wait()

	evt := r.event(req, runtime.EventTypeExited, stage, cmd.Args)
	evt.Pid = cmd.Process.Pid
	if state := cmd.ProcessState; state != nil {
		evt.ExitCode = state.ExitCode()
		if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			evt.Signal = ws.Signal().String()
		}
	}
	r.observe.Emit(evt)

	var exitErr *exec.ExitError
	switch {
	case err == nil, errors.As(err, &exitErr):
		return nil
	case errors.Is(err, exec.ErrWaitDelay):
		r.log.Debug("child output still open after exit", "dispatch_id", req.DispatchID, "pid", evt.Pid)
		return nil
	case ctx.Err() != nil:
		return nil
	default:
		return runtime.Fatal("wait", err)
	}
}

func (r *Runner) failed(req runtime.Request, stage int, err error) error {
	var childErr *runtime.ChildError
	if errors.As(err, &childErr) {
		evt := r.event(req, runtime.EventTypeChildFailed, stage, childErr.Argv)
		evt.Op = childErr.Op
		evt.Err = childErr.Err
		r.observe.Emit(evt)
	}
	return err
}

func (r *Runner) event(req runtime.Request, t runtime.EventType, stage int, argv []string) runtime.Event {
	evt := runtime.NewEvent(req.DispatchID, t)
	evt.Pattern = req.Class.Pattern.String()
	evt.Stage = stage
	evt.Argv = argv
	return evt
}

// startError separates fork failures, which leave the controlling process
// unable to create children at all, from failures to become the requested
// program.
func startError(argv []string, err error) error {
	if errors.Is(err, signals.ErrNotInstalled) {
		return runtime.Fatal("start child", err)
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EAGAIN, syscall.ENOMEM, syscall.EMFILE, syscall.ENFILE:
			return runtime.Fatal("fork", err)
		}
	}
	return &runtime.ChildError{Op: "exec", Argv: argv, Err: err}
}

func emptyCommand(op string) error {
	return &runtime.ChildError{Op: op, Err: ErrEmptyCommand}
}
