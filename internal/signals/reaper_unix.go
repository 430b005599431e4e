//go:build unix

package signals

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
)

type trackedChild struct {
	pid  int
	argv []string
}

// Reaper reclaims background children. It wakes on SIGCHLD and polls every
// tracked child with a non-blocking wait4 until none is left to collect.
//
// Only tracked children are polled, so statuses that exec.Cmd.Wait is
// blocked on elsewhere are never consumed here.
type Reaper struct {
	log    *slog.Logger
	onReap func(Reaped)

	mu      sync.Mutex
	tracked map[int]trackedChild

	// serializes passes so a status is collected by exactly one wait4.
	drainMu sync.Mutex

	sigs  chan os.Signal
	nudge chan struct{}
	stop  chan struct{}
	done  chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewReaper constructs a reaper. onReap may be nil.
func NewReaper(onReap func(Reaped), l *slog.Logger) *Reaper {
	if l == nil {
		l = slog.Default()
	}
	return &Reaper{
		log:     l,
		onReap:  onReap,
		tracked: make(map[int]trackedChild),
		sigs:    make(chan os.Signal, 1),
		nudge:   make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start subscribes to SIGCHLD and launches the reaping goroutine.
func (r *Reaper) Start() {
	r.startOnce.Do(func() {
		signal.Notify(r.sigs, unix.SIGCHLD)
		go r.loop()
	})
}

// Stop terminates the reaping goroutine. Children still tracked stay
// tracked and can be collected with Drain.
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() {
		signal.Stop(r.sigs)
		close(r.stop)
		started := true
		r.startOnce.Do(func() { started = false })
		if started {
			<-r.done
		}
	})
}

// Track registers proc for asynchronous reclamation. A child that already
// exited before it was tracked is collected on the next pass. Only the pid is
// retained; proc itself is never modified.
func (r *Reaper) Track(proc *os.Process, argv []string) {
	pid := proc.Pid
	r.mu.Lock()
	r.tracked[pid] = trackedChild{pid: pid, argv: append([]string(nil), argv...)}
	r.mu.Unlock()

	select {
	case r.nudge <- struct{}{}:
	default:
	}
}

// Pending returns the number of tracked children not yet reclaimed.
func (r *Reaper) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tracked)
}

// Drain collects every tracked child that has terminated, without blocking.
func (r *Reaper) Drain() int {
	r.drainMu.Lock()
	defer r.drainMu.Unlock()

	r.mu.Lock()
	candidates := make([]int, 0, len(r.tracked))
	for pid := range r.tracked {
		candidates = append(candidates, pid)
	}
	r.mu.Unlock()

	var reaped []Reaped
	for _, pid := range candidates {
		res, gone := r.poll(pid)
		if !gone {
			continue
		}
		r.mu.Lock()
		child, ok := r.tracked[pid]
		delete(r.tracked, pid)
		r.mu.Unlock()
		if !ok {
			continue
		}
		res.Argv = child.argv
		reaped = append(reaped, res)
	}

	for _, res := range reaped {
		r.log.Debug("reaped background child", "pid", res.Pid, "exit_code", res.ExitCode, "signal", res.Signal)
		if r.onReap != nil {
			r.onReap(res)
		}
	}
	return len(reaped)
}

// poll performs one non-blocking wait4 on pid. gone reports whether the
// child no longer needs tracking.
func (r *Reaper) poll(pid int) (res Reaped, gone bool) {
	for {
		var ws unix.WaitStatus
		got, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			return Reaped{Pid: pid, ExitCode: -1}, true
		case err != nil:
			r.log.Warn("wait4 failed", "pid", pid, "error", err)
			return Reaped{}, false
		case got == 0:
			return Reaped{}, false
		}
		return describe(got, ws), true
	}
}

func (r *Reaper) loop() {
	defer close(r.done)
	for {
		select {
		case <-r.stop:
			return
		case <-r.sigs:
		case <-r.nudge:
		}
		r.Drain()
	}
}

func describe(pid int, ws unix.WaitStatus) Reaped {
	res := Reaped{Pid: pid, ExitCode: -1}
	switch {
	case ws.Exited():
		res.ExitCode = ws.ExitStatus()
	case ws.Signaled():
		res.Signal = ws.Signal().String()
	}
	return res
}
