package runtime

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotInitialized is returned when commands are dispatched before the
// signal policy has been installed.
var ErrNotInitialized = errors.New("dispatcher not initialized")

// FatalError reports a failure the controlling process cannot recover from.
// The caller is expected to report it and terminate.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Fatal wraps err as a controlling-process failure for op.
func Fatal(op string, err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Op: op, Err: err}
}

// ChildError reports a failure confined to a single child: the program could
// not be started or its standard streams could not be prepared. The
// controlling process continues.
type ChildError struct {
	Op   string
	Argv []string
	Err  error
}

func (e *ChildError) Error() string {
	if len(e.Argv) == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, strings.Join(e.Argv, " "), e.Err)
}

func (e *ChildError) Unwrap() error { return e.Err }

// IsFatal reports whether err carries a FatalError.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
