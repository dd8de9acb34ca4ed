//go:build unix

package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func script(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candidate.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestRunSucceeded(t *testing.T) {
	path := script(t, `echo "[METRICS] BFS_TIME_START=1000"
echo "[METRICS] BFS_TIME_END=1500"
echo "oops" >&2
`)
	res := Run(context.Background(), Spec{Path: path, Timeout: 5 * time.Second, Markers: defaultOpts()})

	require.NoError(t, res.Err)
	assert.Equal(t, types.OutcomeSucceeded, res.Outcome)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Stdout, "BFS_TIME_END")
	assert.Equal(t, "oops\n", res.Stderr)
	require.NotNil(t, res.Markers.Window)
	assert.Equal(t, int64(500), res.Markers.Window.DurationMs())
}

func TestRunArgsAndDir(t *testing.T) {
	dir := t.TempDir()
	path := script(t, `pwd; echo "$1 $2"`)
	res := Run(context.Background(), Spec{Path: path, Args: []string{"graph.txt", "0"}, Dir: dir, Timeout: 5 * time.Second})

	require.Equal(t, types.OutcomeSucceeded, res.Outcome)
	assert.Contains(t, res.Stdout, "graph.txt 0")
}

func TestRunFailed(t *testing.T) {
	path := script(t, "echo partial\nexit 3\n")
	res := Run(context.Background(), Spec{Path: path, Timeout: 5 * time.Second})

	assert.Equal(t, types.OutcomeFailed, res.Outcome)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "partial\n", res.Stdout)
	assert.Error(t, res.Err)
}

func TestRunTimedOut(t *testing.T) {
	path := script(t, "echo started\nsleep 30\n")
	timeout := 300 * time.Millisecond
	res := Run(context.Background(), Spec{Path: path, Timeout: timeout, KillGrace: 500 * time.Millisecond})

	assert.Equal(t, types.OutcomeTimedOut, res.Outcome)
	assert.GreaterOrEqual(t, res.Elapsed, timeout)
	assert.Less(t, res.Elapsed, 3*time.Second)
	assert.Contains(t, res.Stdout, "started")
}

func TestRunTimeoutKillsGroup(t *testing.T) {
	// the grandchild keeps stdout open; the group kill must reach it
	path := script(t, "sleep 30 &\nsleep 30\n")
	res := Run(context.Background(), Spec{Path: path, Timeout: 200 * time.Millisecond, KillGrace: 5 * time.Second})

	assert.Equal(t, types.OutcomeTimedOut, res.Outcome)
	assert.Less(t, res.Elapsed, 3*time.Second)
}

func TestRunLaunchFailed(t *testing.T) {
	res := Run(context.Background(), Spec{Path: filepath.Join(t.TempDir(), "missing")})

	assert.Equal(t, types.OutcomeLaunchFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrLaunchFailed)
}

func TestRunCanceled(t *testing.T) {
	path := script(t, "sleep 30\n")
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	res := Run(ctx, Spec{Path: path, Timeout: 10 * time.Second})
	assert.Equal(t, types.OutcomeCanceled, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestStartExposesPid(t *testing.T) {
	path := script(t, "sleep 0.1\n")
	p, err := Start(context.Background(), Spec{Path: path, Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Positive(t, p.Pid())

	res := p.Wait()
	assert.Equal(t, types.OutcomeSucceeded, res.Outcome)
}
