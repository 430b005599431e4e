//go:build unix

package signals

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
)

func newChildReaper(l *slog.Logger, onReap func(Reaped)) childReaper {
	return NewReaper(onReap, l)
}

// InstallStartupPolicy activates asynchronous reclamation and makes the
// controlling process immune to SIGINT. It must be called once, before the
// first child is started.
func (p *Policy) InstallStartupPolicy() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.installed {
		return errors.New("signal policy already installed")
	}

	p.reaper.Start()

	p.interrupts = make(chan os.Signal, 1)
	p.done = make(chan struct{})
	signal.Notify(p.interrupts, os.Interrupt)
	p.wg.Add(1)
	go p.absorbInterrupts(p.interrupts, p.done)

	p.installed = true
	p.log.Debug("signal policy installed",
		"reaper", ReapChildren.String(),
		"interrupt", IgnoreInterrupt.String())
	return nil
}

// StartChild starts cmd so that the new program image runs with SIGINT set
// to d. Only DefaultInterrupt and IgnoreInterrupt are valid child
// dispositions.
func (p *Policy) StartChild(cmd *exec.Cmd, d Disposition) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.installed {
		return ErrNotInstalled
	}

	switch d {
	case DefaultInterrupt:
		return cmd.Start()
	case IgnoreInterrupt:
		signal.Ignore(os.Interrupt)
		err := cmd.Start()
		signal.Notify(p.interrupts, os.Interrupt)
		return err
	default:
		return fmt.Errorf("start child: unsupported disposition %s", d)
	}
}

// Restore stops the reaper and releases the interrupt subscription. SIGINT
// reverts to its default action afterwards.
func (p *Policy) Restore() error {
	p.mu.Lock()
	if !p.installed {
		p.mu.Unlock()
		return nil
	}
	p.installed = false
	signal.Stop(p.interrupts)
	close(p.done)
	p.mu.Unlock()

	p.wg.Wait()
	p.reaper.Drain()
	p.reaper.Stop()
	return nil
}
