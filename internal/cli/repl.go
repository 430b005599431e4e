package cli

import (
	"bufio"
	stdcontext "context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/abiosoft/readline"
	"github.com/anmitsu/go-shlex"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/Paintersrp/orsh/internal/config"
)

const exitBuiltin = "exit"

var (
	promptColor = color.New(color.FgGreen, color.Bold)
	errorColor  = color.New(color.FgRed)
)

type dispatcher interface {
	Dispatch(ctx stdcontext.Context, tokens []string) error
}

// lineReader yields one command line per call and io.EOF once input ends.
type lineReader interface {
	ReadLine() (string, error)
	Interactive() bool
	Close() error
}

var errInterrupted = errors.New("interrupted")

func newLineReader(in io.Reader, out, errOut io.Writer, cfg *config.Config) (lineReader, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return newScannerReader(in), nil
	}

	prompt := cfg.Prompt
	if cfg.ColorEnabled() {
		prompt = promptColor.Sprint(prompt)
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       exitBuiltin,
		Stdin:           readline.NewCancelableStdin(f),
		Stdout:          out,
		Stderr:          errOut,
	})
	if err != nil {
		return nil, fmt.Errorf("init line editor: %w", err)
	}
	return &readlineReader{rl: rl}, nil
}

type readlineReader struct {
	rl *readline.Instance
}

func (r *readlineReader) ReadLine() (string, error) {
	line, err := r.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", errInterrupted
	}
	return line, err
}

func (r *readlineReader) Interactive() bool { return true }

func (r *readlineReader) Close() error { return r.rl.Close() }

type scannerReader struct {
	scanner *bufio.Scanner
}

func newScannerReader(in io.Reader) *scannerReader {
	return &scannerReader{scanner: bufio.NewScanner(in)}
}

func (r *scannerReader) ReadLine() (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *scannerReader) Interactive() bool { return false }

func (r *scannerReader) Close() error { return nil }

// repl reads and dispatches lines until input ends, the exit builtin is
// entered, ctx is cancelled or a controlling-process failure occurs.
func repl(ctx stdcontext.Context, d dispatcher, r lineReader, errOut io.Writer) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := r.ReadLine()
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, errInterrupted):
			continue
		case err != nil:
			return fmt.Errorf("read command line: %w", err)
		}

		done, err := runLine(ctx, d, line, errOut)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// runLine tokenizes and dispatches a single line. done reports whether the
// exit builtin was entered.
func runLine(ctx stdcontext.Context, d dispatcher, line string, errOut io.Writer) (done bool, err error) {
	tokens, err := shlex.Split(line, true)
	if err != nil {
		errorColor.Fprintf(errOut, "orsh: syntax error: %v\n", err)
		return false, nil
	}
	if len(tokens) == 0 {
		return false, nil
	}
	if tokens[0] == exitBuiltin {
		return true, nil
	}
	return false, d.Dispatch(ctx, tokens)
}
