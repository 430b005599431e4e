//go:build unix

package process

import (
	"os/exec"
	"syscall"
	"time"
)

// StopGrace is how long a cancelled child has to exit after SIGTERM before it
// is killed.
const StopGrace = 2 * time.Second

// gracefulStop makes context cancellation terminate cmd with SIGTERM first.
// os/exec sends SIGKILL once StopGrace has passed.
func gracefulStop(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = StopGrace
}
