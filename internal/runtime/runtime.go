package runtime

import (
	"os"
	"os/exec"

	"github.com/Paintersrp/orsh/internal/signals"
)

// Spawner starts children under a signal disposition and hands background
// children over to asynchronous reclamation.
type Spawner interface {
	// StartChild starts cmd with SIGINT set to the provided disposition in
	// the new process image.
	StartChild(cmd *exec.Cmd, d signals.Disposition) error

	// Track registers a child that will never be waited on synchronously.
	Track(proc *os.Process, argv []string)
}

// Observer receives lifecycle events. Implementations must not block.
type Observer func(Event)

// Emit delivers evt to o when o is set.
func (o Observer) Emit(evt Event) {
	if o == nil {
		return
	}
	o(evt)
}
