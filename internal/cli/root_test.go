//go:build unix

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeRoot(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCmd()
	outBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestRootCommandFlag(t *testing.T) {
	stdout, stderr, err := executeRoot(t, "", "-c", "echo hello world")
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", stdout)
	assert.Empty(t, stderr)
}

func TestRootScriptFromStdin(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	script := strings.Join([]string{
		"echo first",
		"printf 'a\\nb\\n' | wc -l",
		"echo redirected > " + out,
		"exit",
		"echo never",
	}, "\n") + "\n"

	stdout, _, err := executeRoot(t, script)
	require.NoError(t, err)
	lines := strings.Fields(stdout)
	assert.Equal(t, []string{"first", "2"}, lines)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "redirected\n", string(data))
}

func TestRootChildFailureIsNotFatal(t *testing.T) {
	stdout, stderr, err := executeRoot(t, "definitely-not-a-command-orsh\necho still here\n")
	require.NoError(t, err)
	assert.Equal(t, "still here\n", stdout)
	assert.Contains(t, stderr, "orsh: ")
	assert.Contains(t, stderr, "definitely-not-a-command-orsh")
}

func TestRootTraceEmitsEvents(t *testing.T) {
	_, stderr, err := executeRoot(t, "", "--trace", "-c", "true")
	require.NoError(t, err)

	var types []string
	for _, line := range strings.Split(strings.TrimSpace(stderr), "\n") {
		var record eventRecord
		require.NoError(t, json.Unmarshal([]byte(line), &record), line)
		types = append(types, record.Event)
	}
	assert.Equal(t, []string{"classified", "started", "exited"}, types)
}

func TestRootRejectsInvalidConfig(t *testing.T) {
	path := writeManifest(t, configManifest("log:", "  format: xml"))
	_, _, err := executeRoot(t, "", "--file", path, "-c", "true")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.format")
}

func TestRootWritesMetricsTextfile(t *testing.T) {
	dir := t.TempDir()
	textfile := filepath.Join(dir, "orsh.prom")
	path := writeManifest(t, configManifest("metrics:", "  textfile: "+textfile))

	_, _, err := executeRoot(t, "", "--file", path, "-c", "true")
	require.NoError(t, err)

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "orsh_dispatches_total")
}
