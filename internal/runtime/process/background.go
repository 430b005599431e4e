package process

import (
	"context"

	"github.com/Paintersrp/orsh/internal/runtime"
	"github.com/Paintersrp/orsh/internal/signals"
)

// Background starts the command without the trailing marker and returns
// immediately. The child keeps SIGINT ignored and is reclaimed by the reaper.
func (r *Runner) Background(_ context.Context, req runtime.Request) error {
	argv := req.Class.Argv(req.Tokens)
	if len(argv) == 0 {
		return r.failed(req, 0, emptyCommand("exec"))
	}

	cmd := r.detached(argv)
	if err := r.start(req, 0, cmd, signals.IgnoreInterrupt); err != nil {
		return err
	}
	r.spawner.Track(cmd.Process, cmd.Args)
	return nil
}
