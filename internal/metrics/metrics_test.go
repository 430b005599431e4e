package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfileExposesMetrics(t *testing.T) {
	EmitBuildInfo()
	IncDispatch("pipeline")
	IncChildFailure("exec")
	SetBackgroundTracked(3)

	path := filepath.Join(t.TempDir(), "orsh.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(data)

	assert.Contains(t, body, `orsh_dispatches_total{pattern="pipeline"}`)
	assert.Contains(t, body, `orsh_child_failures_total{op="exec"}`)
	assert.Contains(t, body, "orsh_background_tracked 3")
	assert.Contains(t, body, "orsh_build_info{")
	assert.Contains(t, body, "go_version=")
}

func TestWriteTextfileEmptyPath(t *testing.T) {
	assert.NoError(t, WriteTextfile(""))
}

func TestDispatchCounterByPattern(t *testing.T) {
	before := testutil.ToFloat64(dispatches.WithLabelValues("redirect"))
	IncDispatch("redirect")
	IncDispatch("redirect")
	IncDispatch("")
	assert.Equal(t, before+2, testutil.ToFloat64(dispatches.WithLabelValues("redirect")))
}

func TestChildFailureDefaultsOp(t *testing.T) {
	before := testutil.ToFloat64(childFailures.WithLabelValues("unknown"))
	IncChildFailure("")
	assert.Equal(t, before+1, testutil.ToFloat64(childFailures.WithLabelValues("unknown")))
}

func TestReapedAndInterruptCounters(t *testing.T) {
	reapedBefore := testutil.ToFloat64(childrenReaped)
	interruptsBefore := testutil.ToFloat64(interrupts)

	IncReaped()
	IncInterrupts()

	assert.Equal(t, reapedBefore+1, testutil.ToFloat64(childrenReaped))
	assert.Equal(t, interruptsBefore+1, testutil.ToFloat64(interrupts))

	count, err := testutil.GatherAndCount(Registry(), "orsh_children_reaped_total", "orsh_interrupts_absorbed_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
