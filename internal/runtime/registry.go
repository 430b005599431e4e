package runtime

import (
	"context"
	"fmt"

	"github.com/Paintersrp/orsh/internal/command"
)

// Request is a classified command line handed to a strategy. Tokens is the
// caller's slice; strategies only take views of it.
type Request struct {
	DispatchID string
	Tokens     []string
	Class      command.Classification
}

// Strategy owns the start/wait choreography for one execution pattern.
// Returned errors are *FatalError or *ChildError.
type Strategy interface {
	Execute(ctx context.Context, req Request) error
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(ctx context.Context, req Request) error

func (f StrategyFunc) Execute(ctx context.Context, req Request) error {
	return f(ctx, req)
}

// Registry maps execution patterns to their strategies.
type Registry map[command.Pattern]Strategy

var allPatterns = []command.Pattern{
	command.Foreground,
	command.Background,
	command.Pipeline,
	command.Redirect,
}

// Validate reports the first pattern without a strategy.
func (r Registry) Validate() error {
	for _, p := range allPatterns {
		if r[p] == nil {
			return fmt.Errorf("no strategy registered for %s", p)
		}
	}
	return nil
}
