package probes

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusyPercent(t *testing.T) {
	prev := cpu.TimesStat{User: 10, System: 5, Idle: 85}
	cur := cpu.TimesStat{User: 20, System: 10, Idle: 95}
	pct, ok := busyPercent(prev, cur)
	assert.True(t, ok)
	assert.InDelta(t, 60.0, pct, 1e-9)

	_, ok = busyPercent(cur, cur)
	assert.False(t, ok)

	// counters that went backwards never yield a negative figure
	pct, _ = busyPercent(cur, prev)
	assert.Zero(t, pct)

	pct, ok = busyPercent(prev, cpu.TimesStat{User: 10, System: 5, Idle: 95})
	assert.True(t, ok)
	assert.Zero(t, pct)
}

func TestGopsutilHostBaselineKeptOnEarlyRead(t *testing.T) {
	h := NewGopsutilHost()
	base := h.prevAt
	h.now = func() time.Time { return base.Add(minCPUWindow / 2) }

	_, _, err := h.CPUPercent()
	assert.ErrorIs(t, err, errCPUBaseline)
	assert.Equal(t, base, h.prevAt)
}

func TestGopsutilHostSelf(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("process tree counters are read from procfs")
	}
	h := NewGopsutilHost()
	time.Sleep(50 * time.Millisecond)

	total, perCore, err := h.CPUPercent()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, 0.0)
	assert.LessOrEqual(t, total, 100.0)
	assert.NotEmpty(t, perCore)

	stat, err := h.ProcessTree(int32(os.Getpid()))
	require.NoError(t, err)
	assert.Positive(t, stat.RSS)
	assert.GreaterOrEqual(t, stat.Processes, 1)
}

func TestGopsutilHostMissingProcess(t *testing.T) {
	h := NewGopsutilHost()
	_, err := h.ProcessTree(1 << 30)
	assert.Error(t, err)
}

func TestGopsutilHostZombieRoot(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("process status is read from procfs")
	}
	cmd := exec.Command("/bin/sh", "-c", "exit 0")
	require.NoError(t, cmd.Start())
	defer cmd.Wait()

	h := NewGopsutilHost()
	pid := int32(cmd.Process.Pid)
	assert.Eventually(t, func() bool {
		_, err := h.ProcessTree(pid)
		return errors.Is(err, ErrProcessExited)
	}, 2*time.Second, 10*time.Millisecond)
}

type stubGpu struct{ NoGpu }

func (stubGpu) Devices() []types.GpuDevice {
	return []types.GpuDevice{{Index: 0, Name: "stub"}}
}

func (stubGpu) ComputeCapability() string { return "86" }

func TestDetectHardware(t *testing.T) {
	hw := DetectHardware(context.Background(), stubGpu{})
	assert.Positive(t, hw.CPUThreads)
	assert.Positive(t, hw.MemoryTotal)
	assert.Equal(t, 1, hw.GpuCount)
	assert.Equal(t, "86", hw.ComputeCapability)

	none := DetectHardware(context.Background(), NoGpu{})
	assert.Zero(t, none.GpuCount)
	assert.Empty(t, none.ComputeCapability)
}

func TestDetectCapabilitiesDisabled(t *testing.T) {
	caps := Detect(context.Background(), Options{})
	assert.Empty(t, caps.Gpu.Devices())
	assert.Nil(t, caps.Cache)
	assert.Zero(t, caps.Hardware.GpuCount)
}
