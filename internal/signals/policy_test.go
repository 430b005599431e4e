//go:build unix

package signals

import (
	"bufio"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/Paintersrp/orsh/internal/log"
)

func TestDispositionString(t *testing.T) {
	assert.Equal(t, "reap-children", ReapChildren.String())
	assert.Equal(t, "ignore-interrupt", IgnoreInterrupt.String())
	assert.Equal(t, "default-interrupt", DefaultInterrupt.String())
	assert.Equal(t, "disposition(7)", Disposition(7).String())
}

func TestStartChildRequiresInstall(t *testing.T) {
	p := NewPolicy(WithLogger(log.Discard()))
	err := p.StartChild(exec.Command("true"), DefaultInterrupt)
	assert.ErrorIs(t, err, ErrNotInstalled)
	assert.False(t, p.Installed())
}

func TestInstallStartupPolicyOnce(t *testing.T) {
	p := NewPolicy(WithLogger(log.Discard()))
	require.NoError(t, p.InstallStartupPolicy())
	t.Cleanup(func() { _ = p.Restore() })

	assert.True(t, p.Installed())
	assert.Error(t, p.InstallStartupPolicy())
}

func TestStartChildRejectsReapDisposition(t *testing.T) {
	p := NewPolicy(WithLogger(log.Discard()))
	require.NoError(t, p.InstallStartupPolicy())
	t.Cleanup(func() { _ = p.Restore() })

	err := p.StartChild(exec.Command("true"), ReapChildren)
	assert.ErrorContains(t, err, "unsupported disposition")
}

func TestControllingProcessAbsorbsInterrupt(t *testing.T) {
	got := make(chan struct{}, 4)
	p := NewPolicy(WithLogger(log.Discard()), WithInterruptHook(func() { got <- struct{}{} }))
	require.NoError(t, p.InstallStartupPolicy())
	t.Cleanup(func() { _ = p.Restore() })

	require.NoError(t, unix.Kill(os.Getpid(), unix.SIGINT))
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("interrupt was not absorbed")
	}
}

func TestChildDispositions(t *testing.T) {
	if _, err := os.Stat("/proc/self/status"); err != nil {
		t.Skip("procfs not available")
	}

	got := make(chan struct{}, 4)
	p := NewPolicy(WithLogger(log.Discard()), WithInterruptHook(func() { got <- struct{}{} }))
	require.NoError(t, p.InstallStartupPolicy())
	t.Cleanup(func() { _ = p.Restore() })

	cases := []struct {
		disposition Disposition
		ignored     bool
	}{
		{DefaultInterrupt, false},
		{IgnoreInterrupt, true},
	}
	for _, tc := range cases {
		t.Run(tc.disposition.String(), func(t *testing.T) {
			cmd := exec.Command("sleep", "5")
			require.NoError(t, p.StartChild(cmd, tc.disposition))
			t.Cleanup(func() {
				_ = cmd.Process.Kill()
				_ = cmd.Wait()
			})

			assert.Equal(t, tc.ignored, sigintIgnored(t, cmd.Process.Pid))
		})
	}

	// The controlling process is back to catching SIGINT after the ignore window.
	require.NoError(t, unix.Kill(os.Getpid(), unix.SIGINT))
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("interrupt subscription was not restored")
	}
}

func sigintIgnored(t *testing.T, pid int) bool {
	t.Helper()
	f, err := os.Open("/proc/" + strconv.Itoa(pid) + "/status")
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "SigIgn:") {
			continue
		}
		mask, err := strconv.ParseUint(strings.TrimSpace(strings.TrimPrefix(line, "SigIgn:")), 16, 64)
		require.NoError(t, err)
		return mask&(1<<(uint(unix.SIGINT)-1)) != 0
	}
	t.Fatalf("SigIgn not found for pid %d", pid)
	return false
}
