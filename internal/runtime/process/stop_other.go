//go:build !unix

package process

import (
	"os/exec"
	"time"
)

const StopGrace = 2 * time.Second

func gracefulStop(cmd *exec.Cmd) {
	cmd.WaitDelay = StopGrace
}
