package process

import (
	"context"

	"github.com/Paintersrp/orsh/internal/runtime"
	"github.com/Paintersrp/orsh/internal/signals"
)

// Foreground runs the command in front of the delimiter and waits for it.
func (r *Runner) Foreground(ctx context.Context, req runtime.Request) error {
	argv := req.Class.Argv(req.Tokens)
	if len(argv) == 0 {
		return r.failed(req, 0, emptyCommand("exec"))
	}

	cmd := r.command(ctx, argv)
	if err := r.start(req, 0, cmd, signals.DefaultInterrupt); err != nil {
		return err
	}
	return r.wait(ctx, req, 0, cmd)
}
