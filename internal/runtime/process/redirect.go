package process

import (
	"context"
	"errors"
	"os"

	"github.com/Paintersrp/orsh/internal/runtime"
	"github.com/Paintersrp/orsh/internal/signals"
)

// RedirectFileMode is the creation mode of redirect targets: owner
// read/write/execute, subject to the umask.
const RedirectFileMode os.FileMode = 0o700

// ErrMissingRedirectTarget is reported when ">" is the final token.
var ErrMissingRedirectTarget = errors.New("missing redirect target")

// Redirect runs the command in front of ">" with stdout connected to the
// token after it, truncating or creating that file. Tokens after the target
// are ignored.
func (r *Runner) Redirect(ctx context.Context, req runtime.Request) error {
	argv := req.Class.Argv(req.Tokens)
	path, ignored, ok := req.Class.Target(req.Tokens)
	if !ok {
		return r.failed(req, 0, &runtime.ChildError{Op: "open redirect target", Argv: argv, Err: ErrMissingRedirectTarget})
	}
	if ignored > 0 {
		r.log.Debug("ignoring tokens after redirect target", "dispatch_id", req.DispatchID, "target", path, "ignored", ignored)
	}
	if len(argv) == 0 {
		return r.failed(req, 0, emptyCommand("exec"))
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, RedirectFileMode)
	if err != nil {
		return r.failed(req, 0, &runtime.ChildError{Op: "open redirect target", Argv: argv, Err: err})
	}

	cmd := r.command(ctx, argv)
	cmd.Stdout = f
	if err := r.start(req, 0, cmd, signals.DefaultInterrupt); err != nil {
		_ = f.Close()
		return err
	}

	closeErr := f.Close()
	if err := r.wait(ctx, req, 0, cmd); err != nil {
		return err
	}
	if closeErr != nil {
		return runtime.Fatal("close redirect target", closeErr)
	}
	return nil
}
