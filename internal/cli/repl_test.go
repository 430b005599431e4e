package cli

import (
	"bytes"
	stdcontext "context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Paintersrp/orsh/internal/config"
	"github.com/Paintersrp/orsh/internal/runtime"
)

type fakeDispatcher struct {
	lines [][]string
	errAt int
	err   error
}

func (f *fakeDispatcher) Dispatch(_ stdcontext.Context, tokens []string) error {
	f.lines = append(f.lines, tokens)
	if f.err != nil && len(f.lines) == f.errAt {
		return f.err
	}
	return nil
}

type scriptedReader struct {
	results []readResult
}

type readResult struct {
	line string
	err  error
}

func (r *scriptedReader) ReadLine() (string, error) {
	if len(r.results) == 0 {
		return "", io.EOF
	}
	next := r.results[0]
	r.results = r.results[1:]
	return next.line, next.err
}

func (r *scriptedReader) Interactive() bool { return true }

func (r *scriptedReader) Close() error { return nil }

func TestRunLineTokenizesQuotes(t *testing.T) {
	d := &fakeDispatcher{}
	done, err := runLine(stdcontext.Background(), d, `echo "hello world" > 'out file'`, io.Discard)
	require.NoError(t, err)
	assert.False(t, done)
	require.Len(t, d.lines, 1)
	assert.Equal(t, []string{"echo", "hello world", ">", "out file"}, d.lines[0])
}

func TestRunLineBlankIsSkipped(t *testing.T) {
	d := &fakeDispatcher{}
	done, err := runLine(stdcontext.Background(), d, "   \t ", io.Discard)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Empty(t, d.lines)
}

func TestRunLineExitBuiltin(t *testing.T) {
	d := &fakeDispatcher{}
	done, err := runLine(stdcontext.Background(), d, "exit", io.Discard)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Empty(t, d.lines)
}

func TestRunLineSyntaxError(t *testing.T) {
	d := &fakeDispatcher{}
	var stderr bytes.Buffer
	done, err := runLine(stdcontext.Background(), d, `echo "unterminated`, &stderr)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Empty(t, d.lines)
	assert.Contains(t, stderr.String(), "syntax error")
}

func TestReplDispatchesUntilEOF(t *testing.T) {
	d := &fakeDispatcher{}
	r := newScannerReader(strings.NewReader("echo one\n\nsleep 1 &\nls | wc -l\n"))

	require.NoError(t, repl(stdcontext.Background(), d, r, io.Discard))
	assert.Equal(t, [][]string{
		{"echo", "one"},
		{"sleep", "1", "&"},
		{"ls", "|", "wc", "-l"},
	}, d.lines)
}

func TestReplStopsAtExit(t *testing.T) {
	d := &fakeDispatcher{}
	r := newScannerReader(strings.NewReader("echo one\nexit\necho two\n"))

	require.NoError(t, repl(stdcontext.Background(), d, r, io.Discard))
	assert.Equal(t, [][]string{{"echo", "one"}}, d.lines)
}

func TestReplReturnsFatalError(t *testing.T) {
	fatal := runtime.Fatal("pipe", errors.New("too many open files"))
	d := &fakeDispatcher{err: fatal, errAt: 2}
	r := newScannerReader(strings.NewReader("echo one\nls | wc\necho three\n"))

	err := repl(stdcontext.Background(), d, r, io.Discard)
	require.Error(t, err)
	assert.True(t, runtime.IsFatal(err))
	assert.Len(t, d.lines, 2)
}

func TestReplContinuesAfterInterrupt(t *testing.T) {
	d := &fakeDispatcher{}
	r := &scriptedReader{results: []readResult{
		{err: errInterrupted},
		{line: "echo after"},
	}}

	require.NoError(t, repl(stdcontext.Background(), d, r, io.Discard))
	assert.Equal(t, [][]string{{"echo", "after"}}, d.lines)
}

func TestReplWrapsReadError(t *testing.T) {
	d := &fakeDispatcher{}
	r := &scriptedReader{results: []readResult{{err: errors.New("device gone")}}}

	err := repl(stdcontext.Background(), d, r, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read command line")
}

func TestReplStopsWhenContextDone(t *testing.T) {
	d := &fakeDispatcher{}
	r := newScannerReader(strings.NewReader("echo one\n"))
	ctx, cancel := stdcontext.WithCancel(stdcontext.Background())
	cancel()

	require.NoError(t, repl(ctx, d, r, io.Discard))
	assert.Empty(t, d.lines)
}

func TestNewLineReaderNonTerminal(t *testing.T) {
	r, err := newLineReader(strings.NewReader(""), io.Discard, io.Discard, config.Default())
	require.NoError(t, err)
	defer r.Close()
	assert.False(t, r.Interactive())
}
