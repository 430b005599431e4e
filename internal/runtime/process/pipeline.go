package process

import (
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/Paintersrp/orsh/internal/runtime"
	"github.com/Paintersrp/orsh/internal/signals"
)

// Pipeline connects the stdout of the command before "|" to the stdin of the
// command after it. Both stages are started before either is waited on, and
// the controlling process closes its pipe ends in between so neither stage
// can be held open by the shell.
func (r *Runner) Pipeline(ctx context.Context, req runtime.Request) error {
	left := req.Class.Argv(req.Tokens)
	right := req.Class.Right(req.Tokens)

	pr, pw, err := os.Pipe()
	if err != nil {
		return runtime.Fatal("create pipe", err)
	}

	var (
		stages    [2]*exec.Cmd
		childErrs []error
	)
	for stage, argv := range [][]string{left, right} {
		if len(argv) == 0 {
			childErrs = append(childErrs, r.failed(req, stage, emptyCommand("exec")))
			continue
		}
		cmd := r.command(ctx, argv)
		if stage == 0 {
			cmd.Stdout = pw
		} else {
			cmd.Stdin = pr
		}
		if err := r.start(req, stage, cmd, signals.DefaultInterrupt); err != nil {
			if runtime.IsFatal(err) {
				_ = pw.Close()
				_ = pr.Close()
				return err
			}
			childErrs = append(childErrs, err)
			continue
		}
		stages[stage] = cmd
	}

	if err := pw.Close(); err != nil {
		_ = pr.Close()
		return runtime.Fatal("close pipe write end", err)
	}
	if err := pr.Close(); err != nil {
		return runtime.Fatal("close pipe read end", err)
	}

	var fatalErrs []error
	for stage, cmd := range stages {
		if cmd == nil {
			continue
		}
		if err := r.wait(ctx, req, stage, cmd); err != nil {
			fatalErrs = append(fatalErrs, err)
		}
	}
	if len(fatalErrs) > 0 {
		return errors.Join(fatalErrs...)
	}
	return errors.Join(childErrs...)
}
