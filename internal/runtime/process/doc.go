// Package process implements the four execution strategies of the shell on
// top of os/exec.
//
// Foreground, Pipeline and Redirect children run with the default SIGINT
// action and are waited on before the strategy returns. Background children
// keep SIGINT ignored, are never waited on, and are handed to the signal
// policy's reaper instead.
//
// A failure that only concerns one child (program not found, redirect target
// not writable, empty command) is returned as *runtime.ChildError and leaves
// the controlling process untouched. Failures in the controlling process's own
// plumbing (pipe creation, closing its descriptor copies, fork exhaustion) are
// returned as *runtime.FatalError.
package process
