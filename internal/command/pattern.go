// Package command classifies a tokenized command line into one of the four
// execution patterns the dispatcher understands.
package command

import "fmt"

// Delimiter tokens. Matching is exact, never by prefix.
const (
	BackgroundMarker = "&"
	PipeMarker       = "|"
	RedirectMarker   = ">"
)

// Pattern enumerates the execution strategies.
type Pattern int

const (
	Foreground Pattern = iota
	Background
	Pipeline
	Redirect
)

func (p Pattern) String() string {
	switch p {
	case Foreground:
		return "foreground"
	case Background:
		return "background"
	case Pipeline:
		return "pipeline"
	case Redirect:
		return "redirect"
	default:
		return fmt.Sprintf("pattern(%d)", int(p))
	}
}

// Classification is the result of a single left-to-right scan. Split is the
// index of the delimiter token that selected the pattern; it equals
// len(tokens) for Foreground and len(tokens)-1 for Background.
type Classification struct {
	Pattern Pattern
	Split   int
}

// Classify picks the pattern for tokens. A trailing "&" wins outright;
// otherwise the first "|" or ">" decides, whichever comes first.
func Classify(tokens []string) Classification {
	n := len(tokens)
	if n > 0 && tokens[n-1] == BackgroundMarker {
		return Classification{Pattern: Background, Split: n - 1}
	}
	for i, tok := range tokens {
		switch tok {
		case PipeMarker:
			return Classification{Pattern: Pipeline, Split: i}
		case RedirectMarker:
			return Classification{Pattern: Redirect, Split: i}
		}
	}
	return Classification{Pattern: Foreground, Split: n}
}

// Argv returns the argument vector in front of the delimiter. The result
// aliases tokens and must not be retained past the dispatch call.
func (c Classification) Argv(tokens []string) []string {
	return tokens[:c.clamp(tokens)]
}

// Right returns the second pipeline stage: every token strictly after the
// pipe marker. It is empty for every other pattern.
func (c Classification) Right(tokens []string) []string {
	if c.Pattern != Pipeline || c.Split+1 > len(tokens) {
		return nil
	}
	return tokens[c.Split+1:]
}

// Target returns the redirect destination and the number of tokens after it
// that are ignored. ok is false when ">" is the final token.
func (c Classification) Target(tokens []string) (path string, ignored int, ok bool) {
	if c.Pattern != Redirect || c.Split+1 >= len(tokens) {
		return "", 0, false
	}
	return tokens[c.Split+1], len(tokens) - c.Split - 2, true
}

func (c Classification) String() string {
	return fmt.Sprintf("%s@%d", c.Pattern, c.Split)
}

func (c Classification) clamp(tokens []string) int {
	switch {
	case c.Split < 0:
		return 0
	case c.Split > len(tokens):
		return len(tokens)
	default:
		return c.Split
	}
}
