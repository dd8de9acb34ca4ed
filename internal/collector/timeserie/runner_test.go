package timeserie

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	cpuErr  error
	treeErr error
	calls   atomic.Int64
	ctx     atomic.Int64
}

func (h *fakeHost) CPUPercent() (float64, []float64, error) {
	h.calls.Add(1)
	if h.cpuErr != nil {
		return 0, nil, h.cpuErr
	}
	return 50, []float64{40, 60}, nil
}

func (h *fakeHost) ProcessTree(pid int32) (types.ProcessTreeStat, error) {
	if h.treeErr != nil {
		return types.ProcessTreeStat{}, h.treeErr
	}
	n := h.ctx.Add(3)
	return types.ProcessTreeStat{
		RSS:         2 << 20,
		CtxSwitches: types.CtxSwitches{Voluntary: n, Involuntary: n / 3},
		Processes:   1,
	}, nil
}

type fakeGpu struct {
	devices []types.GpuDevice
	err     error
}

func (g *fakeGpu) Devices() []types.GpuDevice { return g.devices }

func (g *fakeGpu) Query(ctx context.Context) ([]types.GpuReading, error) {
	if g.err != nil {
		return nil, g.err
	}
	out := make([]types.GpuReading, len(g.devices))
	for i := range out {
		out[i] = types.GpuReading{Usage: 30, Mem: types.GpuMem{Used: 1 << 30, Total: 4 << 30}}
	}
	return out, nil
}

func TestSamplerCollectsAtInterval(t *testing.T) {
	const interval = 10 * time.Millisecond
	ticks := make(chan time.Time)
	base := time.Unix(1_700_000_000, 0)
	var n atomic.Int64

	s := NewSampler(Config{Interval: interval}, &fakeHost{}, nil)
	s.tick = func(d time.Duration) (<-chan time.Time, func()) {
		assert.Equal(t, interval, d)
		return ticks, func() {}
	}
	s.now = func() time.Time {
		return base.Add(time.Duration(n.Add(1)-1) * interval)
	}
	require.NoError(t, s.Start(context.Background()))

	// 200ms of ticks at 10ms plus the immediate first sample
	for range 20 {
		ticks <- time.Time{}
	}
	require.Eventually(t, func() bool { return s.log.Len() == 21 }, time.Second, time.Millisecond)
	samples := s.Stop()

	require.Len(t, samples, 21)
	for i := 1; i < len(samples); i++ {
		assert.InDelta(t, interval.Seconds(), samples[i].Timestamp-samples[i-1].Timestamp, 1e-6)
	}
	assert.True(t, samples[0].HasCPU)
	assert.Equal(t, 50.0, samples[0].CPUTotal)
	assert.Equal(t, []float64{40, 60}, samples[0].CPUPerCore)
}

func TestSamplerRealTicker(t *testing.T) {
	const interval = 20 * time.Millisecond
	s := NewSampler(Config{Interval: interval}, &fakeHost{}, nil)

	start := time.Now()
	require.NoError(t, s.Start(context.Background()))
	time.Sleep(200 * time.Millisecond)
	samples := s.Stop()
	elapsed := time.Since(start)

	want := int(elapsed/interval) + 1
	assert.InDelta(t, want, len(samples), 1)
	for i := 1; i < len(samples); i++ {
		assert.Greater(t, samples[i].Timestamp, samples[i-1].Timestamp)
	}
}

func TestSamplerStopFreezesLog(t *testing.T) {
	host := &fakeHost{}
	s := NewSampler(Config{Interval: 5 * time.Millisecond}, host, nil)
	require.NoError(t, s.Start(context.Background()))
	time.Sleep(30 * time.Millisecond)

	first := s.Stop()
	time.Sleep(30 * time.Millisecond)
	second := s.Stop()

	assert.Equal(t, len(first), len(second))
}

func TestSamplerStartTwice(t *testing.T) {
	s := NewSampler(Config{Interval: time.Second}, &fakeHost{}, nil)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)
}

func TestSamplerStopWithoutStart(t *testing.T) {
	s := NewSampler(Config{}, &fakeHost{}, nil)
	assert.Nil(t, s.Stop())
}

func TestSamplerProcessFieldsAfterAttach(t *testing.T) {
	host := &fakeHost{}
	s := NewSampler(Config{Interval: 5 * time.Millisecond}, host, nil)
	require.NoError(t, s.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)
	s.Attach(1234)
	time.Sleep(30 * time.Millisecond)
	samples := s.Stop()

	require.NotEmpty(t, samples)
	assert.False(t, samples[0].HasProcess)
	assert.Zero(t, samples[0].MemBytes)
	last := samples[len(samples)-1]
	assert.True(t, last.HasProcess)
	assert.Equal(t, uint64(2<<20), last.MemBytes)
	assert.Positive(t, last.CtxSwitches.Voluntary)
}

func TestSamplerToleratesReadErrors(t *testing.T) {
	host := &fakeHost{cpuErr: errors.New("boom"), treeErr: errors.New("gone")}
	gpu := &fakeGpu{devices: []types.GpuDevice{{Index: 0}}, err: errors.New("smi failed")}
	s := NewSampler(Config{Interval: 5 * time.Millisecond}, host, gpu)
	s.Attach(42)
	require.NoError(t, s.Start(context.Background()))
	time.Sleep(30 * time.Millisecond)
	samples := s.Stop()

	require.NotEmpty(t, samples)
	for _, sm := range samples {
		assert.False(t, sm.HasCPU)
		assert.False(t, sm.HasProcess)
		assert.Zero(t, sm.CPUTotal)
		assert.Empty(t, sm.CPUPerCore)
		assert.Zero(t, sm.MemBytes)
		assert.Empty(t, sm.GpuUsage)
	}
}

func TestSamplerGpuReadings(t *testing.T) {
	gpu := &fakeGpu{devices: []types.GpuDevice{{Index: 0}, {Index: 1}}}
	s := NewSampler(Config{Interval: 5 * time.Millisecond}, &fakeHost{}, gpu)
	require.NoError(t, s.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)
	samples := s.Stop()

	require.NotEmpty(t, samples)
	assert.Equal(t, []float64{30, 30}, samples[0].GpuUsage)
	require.Len(t, samples[0].GpuMem, 2)
	assert.Equal(t, uint64(4<<30), samples[0].GpuMem[1].Total)
}

func TestSamplerParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSampler(Config{Interval: 5 * time.Millisecond}, &fakeHost{}, nil)
	require.NoError(t, s.Start(ctx))
	time.Sleep(20 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop blocked after parent cancel")
	}
}
