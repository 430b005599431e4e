package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Paintersrp/orsh/internal/command"
	"github.com/Paintersrp/orsh/internal/log"
	"github.com/Paintersrp/orsh/internal/metrics"
	"github.com/Paintersrp/orsh/internal/runtime"
	"github.com/Paintersrp/orsh/internal/runtime/process"
	"github.com/Paintersrp/orsh/internal/signals"
)

// Dispatcher owns the signal policy and the execution strategies.
type Dispatcher struct {
	policy   *signals.Policy
	registry runtime.Registry
	observe  runtime.Observer
	base     *slog.Logger
	log      *slog.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	metricsTextfile string
	overrides       runtime.Registry
	newID           func() string

	// serializes Dispatch calls; only one command line is in flight.
	run sync.Mutex

	mu          sync.Mutex
	initialized bool
	finalized   bool
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithStdio overrides the standard streams children inherit and where
// child-local failures are reported.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(d *Dispatcher) {
		d.stdin = stdin
		d.stdout = stdout
		d.stderr = stderr
	}
}

// WithObserver registers a lifecycle event observer.
func WithObserver(o runtime.Observer) Option {
	return func(d *Dispatcher) { d.observe = o }
}

// WithLogger sets the base logger of the dispatcher and its components. Each
// component adds its own component attribute.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.base = l
		}
	}
}

// WithMetricsTextfile makes Finalize write all metrics to path.
func WithMetricsTextfile(path string) Option {
	return func(d *Dispatcher) { d.metricsTextfile = path }
}

// WithStrategy replaces the strategy used for pattern p.
func WithStrategy(p command.Pattern, s runtime.Strategy) Option {
	return func(d *Dispatcher) {
		if d.overrides == nil {
			d.overrides = make(runtime.Registry)
		}
		d.overrides[p] = s
	}
}

// New constructs a dispatcher. Initialize must be called before Dispatch.
func New(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		base:   log.Get(),
		stderr: os.Stderr,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.stderr == nil {
		d.stderr = os.Stderr
	}
	d.stdout, d.stderr = process.SyncStdio(d.stdout, d.stderr)
	d.log = d.base.With(slog.String("component", "dispatch"))

	d.policy = signals.NewPolicy(
		signals.WithLogger(d.base.With(slog.String("component", "signals"))),
		signals.WithInterruptHook(d.interrupted),
		signals.WithReapHook(d.reaped),
	)
	runner := process.New(d.policy,
		process.WithStdio(d.stdin, d.stdout, d.stderr),
		process.WithObserver(d.emit),
		process.WithLogger(d.base.With(slog.String("component", "process"))),
	)

	d.registry = runner.Registry()
	for p, s := range d.overrides {
		d.registry[p] = s
	}
	if err := d.registry.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Initialize installs the startup signal policy. It must be called exactly
// once; any error is fatal to the controlling process.
func (d *Dispatcher) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return runtime.Fatal("initialize", errors.New("already initialized"))
	}
	if err := d.policy.InstallStartupPolicy(); err != nil {
		return runtime.Fatal("install signal policy", err)
	}
	d.initialized = true
	d.log.Debug("dispatcher initialized")
	return nil
}

// Dispatch executes one command line. tokens is never modified.
func (d *Dispatcher) Dispatch(ctx context.Context, tokens []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !d.ready() {
		return runtime.Fatal("dispatch", runtime.ErrNotInitialized)
	}
	if len(tokens) == 0 {
		return nil
	}

	d.run.Lock()
	defer d.run.Unlock()

	id := d.newID()
	class := command.Classify(tokens)
	metrics.IncDispatch(class.Pattern.String())

	evt := runtime.NewEvent(id, runtime.EventTypeClassified)
	evt.Pattern = class.Pattern.String()
	evt.Stage = class.Split
	evt.Argv = append([]string(nil), tokens...)
	d.emit(evt)
	d.log.Debug("dispatching command line", "dispatch_id", id, "pattern", class.Pattern.String(), "split", class.Split)

	err := d.registry[class.Pattern].Execute(ctx, runtime.Request{
		DispatchID: id,
		Tokens:     tokens,
		Class:      class,
	})
	if class.Pattern == command.Background {
		metrics.SetBackgroundTracked(d.policy.Pending())
	}

	switch {
	case err == nil:
		return nil
	case runtime.IsFatal(err):
		d.log.Error("controlling process failure", "dispatch_id", id, "error", err)
		return err
	default:
		d.report(id, err)
		return nil
	}
}

// Finalize releases the signal policy and writes the metrics textfile when
// configured. Calling it more than once is a no-op.
func (d *Dispatcher) Finalize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.finalized {
		return nil
	}
	d.finalized = true

	if err := d.policy.Restore(); err != nil {
		return runtime.Fatal("restore signal policy", err)
	}
	pending := d.policy.Pending()
	metrics.SetBackgroundTracked(pending)
	if pending > 0 {
		d.log.Debug("background children still running at finalize", "count", pending)
	}
	if err := metrics.WriteTextfile(d.metricsTextfile); err != nil {
		return err
	}
	return nil
}

func (d *Dispatcher) ready() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized && !d.finalized
}

func (d *Dispatcher) report(id string, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Fprintf(d.stderr, "orsh: %s\n", line)
	}
	d.log.Warn("child failed", "dispatch_id", id, "error", err)
}

func (d *Dispatcher) emit(evt runtime.Event) {
	if evt.Type == runtime.EventTypeChildFailed {
		metrics.IncChildFailure(evt.Op)
	}
	d.observe.Emit(evt)
}

func (d *Dispatcher) reaped(r signals.Reaped) {
	metrics.IncReaped()
	metrics.SetBackgroundTracked(d.policy.Pending())

	evt := runtime.NewEvent("", runtime.EventTypeReaped)
	evt.Pattern = command.Background.String()
	evt.Pid = r.Pid
	evt.Argv = r.Argv
	evt.ExitCode = r.ExitCode
	evt.Signal = r.Signal
	d.emit(evt)
}

func (d *Dispatcher) interrupted() {
	metrics.IncInterrupts()
	d.emit(runtime.NewEvent("", runtime.EventTypeInterrupted))
}
