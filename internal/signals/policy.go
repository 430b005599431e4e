// Package signals owns the process-wide signal dispositions of the shell.
//
// The controlling process catches SIGINT and drops it, so an interrupt sent
// to the terminal's foreground process group never terminates the shell.
// Because caught signals revert to their default action across execve, every
// child started normally runs with the default interrupt behaviour. Children
// that must keep ignoring SIGINT are started while the shell briefly switches
// SIGINT to SIG_IGN, which is inherited through execve.
//
// Terminated background children are reclaimed by a Reaper driven by SIGCHLD.
package signals

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/Paintersrp/orsh/internal/log"
)

// ErrNotInstalled is returned when a child is started before
// InstallStartupPolicy.
var ErrNotInstalled = errors.New("signal policy not installed")

// Disposition names the three signal configurations the shell applies.
type Disposition int

const (
	// ReapChildren reclaims terminated children asynchronously.
	ReapChildren Disposition = iota
	// IgnoreInterrupt makes SIGINT a no-op.
	IgnoreInterrupt
	// DefaultInterrupt terminates the process on SIGINT.
	DefaultInterrupt
)

func (d Disposition) String() string {
	switch d {
	case ReapChildren:
		return "reap-children"
	case IgnoreInterrupt:
		return "ignore-interrupt"
	case DefaultInterrupt:
		return "default-interrupt"
	default:
		return fmt.Sprintf("disposition(%d)", int(d))
	}
}

// Reaped describes a background child collected by the reaper. ExitCode is -1
// when the child was terminated by a signal or its status was unavailable.
type Reaped struct {
	Pid      int
	Argv     []string
	ExitCode int
	Signal   string
}

type childReaper interface {
	Start()
	Track(proc *os.Process, argv []string)
	Drain() int
	Pending() int
	Stop()
}

// Policy installs and applies the shell's signal dispositions. One Policy
// should exist per process.
type Policy struct {
	log         *slog.Logger
	onInterrupt func()
	onReap      func(Reaped)

	mu         sync.Mutex
	installed  bool
	interrupts chan os.Signal
	done       chan struct{}
	wg         sync.WaitGroup
	reaper     childReaper
}

// Option customises a Policy.
type Option func(*Policy)

// WithLogger sets the logger used for signal diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Policy) {
		if l != nil {
			p.log = l
		}
	}
}

// WithInterruptHook registers fn to run whenever the controlling process
// absorbs a SIGINT.
func WithInterruptHook(fn func()) Option {
	return func(p *Policy) { p.onInterrupt = fn }
}

// WithReapHook registers fn to run for every reclaimed background child.
func WithReapHook(fn func(Reaped)) Option {
	return func(p *Policy) { p.onReap = fn }
}

// NewPolicy constructs an uninstalled policy.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{log: log.WithComponent("signals")}
	for _, opt := range opts {
		opt(p)
	}
	p.reaper = newChildReaper(p.log, p.reaped)
	return p
}

// Installed reports whether InstallStartupPolicy succeeded.
func (p *Policy) Installed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.installed
}

// Track hands a background child to the reaper.
func (p *Policy) Track(proc *os.Process, argv []string) {
	if p.reaper == nil || proc == nil {
		return
	}
	p.reaper.Track(proc, argv)
}

// Pending returns the number of background children not yet reclaimed.
func (p *Policy) Pending() int {
	if p.reaper == nil {
		return 0
	}
	return p.reaper.Pending()
}

// Drain reclaims every tracked child that has already terminated without
// blocking and returns how many were collected.
func (p *Policy) Drain() int {
	if p.reaper == nil {
		return 0
	}
	return p.reaper.Drain()
}

func (p *Policy) reaped(r Reaped) {
	if p.onReap != nil {
		p.onReap(r)
	}
}

func (p *Policy) absorbInterrupts(ch <-chan os.Signal, done <-chan struct{}) {
	defer p.wg.Done()
	for {
		select {
		case <-done:
			return
		case sig := <-ch:
			p.log.Debug("interrupt absorbed by controlling process", "signal", sig.String())
			if p.onInterrupt != nil {
				p.onInterrupt()
			}
		}
	}
}
