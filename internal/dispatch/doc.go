// Package dispatch is the single entry point the read-eval loop calls for
// every command line: Initialize once, Dispatch per line, Finalize at exit.
//
// Dispatch classifies the tokens, runs exactly one execution strategy and
// returns once that strategy's synchronous obligations are met. It returns a
// non-nil error only for failures of the controlling process itself
// (*runtime.FatalError); failures confined to a child are reported to stderr
// and the shell continues.
package dispatch
