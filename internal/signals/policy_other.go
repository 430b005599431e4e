//go:build !unix

package signals

import (
	"errors"
	"log/slog"
	"os/exec"
)

// ErrUnsupported is returned on platforms without POSIX process signals.
var ErrUnsupported = errors.New("signal policy requires a unix platform")

func newChildReaper(*slog.Logger, func(Reaped)) childReaper { return nil }

func (p *Policy) InstallStartupPolicy() error { return ErrUnsupported }

func (p *Policy) StartChild(*exec.Cmd, Disposition) error { return ErrUnsupported }

func (p *Policy) Restore() error { return nil }
