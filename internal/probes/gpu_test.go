package probes

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	run func(name string, args ...string) ([]byte, error)
}

func (f fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f.run(name, args...)
}

func smiRunner(discover, sample string) fakeRunner {
	return fakeRunner{run: func(name string, args ...string) ([]byte, error) {
		if name != "nvidia-smi" || len(args) == 0 {
			return nil, errors.New("unknown command")
		}
		switch args[0] {
		case smiDiscoverQuery:
			return []byte(discover), nil
		case smiSampleQuery:
			return []byte(sample), nil
		}
		return nil, errors.New("unknown query")
	}}
}

func TestSmiQuerierDiscovery(t *testing.T) {
	r := smiRunner("0, NVIDIA A100-SXM4-40GB, 40960, 8.0\n1, NVIDIA A100-SXM4-40GB, 40960, 8.0\n", "")
	q := NewSmiQuerier(context.Background(), "", r)

	devs := q.Devices()
	require.Len(t, devs, 2)
	assert.Equal(t, 1, devs[1].Index)
	assert.Equal(t, "NVIDIA A100-SXM4-40GB", devs[0].Name)
	assert.Equal(t, uint64(40960*mib), devs[0].MemoryTotal)
	assert.Equal(t, "80", q.ComputeCapability())
}

func TestSmiQuerierLegacyDriver(t *testing.T) {
	r := fakeRunner{run: func(name string, args ...string) ([]byte, error) {
		if args[0] == smiLegacyQuery {
			return []byte("0, Tesla T4, 15360\n"), nil
		}
		return []byte("Field \"compute_cap\" is not a valid field to query."), errors.New("exit status 2")
	}}
	q := NewSmiQuerier(context.Background(), "nvidia-smi", r)

	require.Len(t, q.Devices(), 1)
	assert.Empty(t, q.ComputeCapability())
}

func TestSmiQuerierNoGpu(t *testing.T) {
	r := fakeRunner{run: func(name string, args ...string) ([]byte, error) {
		return nil, errors.New("nvidia-smi not found")
	}}
	q := NewSmiQuerier(context.Background(), "nvidia-smi", r)
	assert.Empty(t, q.Devices())
}

func TestSmiQuerierQuery(t *testing.T) {
	r := smiRunner("0, GPU, 1024, 7.5\n1, GPU, 1024, 7.5\n", "35, 512, 1024\n[N/A], [N/A], [N/A]\n")
	q := NewSmiQuerier(context.Background(), "", r)

	readings, err := q.Query(context.Background())
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, 35.0, readings[0].Usage)
	assert.Equal(t, uint64(512*mib), readings[0].Mem.Used)
	assert.Equal(t, uint64(1024*mib), readings[0].Mem.Total)
	assert.Zero(t, readings[1].Usage)
	assert.Zero(t, readings[1].Mem.Total)
}

func TestParseSmiReadingsMalformed(t *testing.T) {
	_, err := parseSmiReadings([]byte("garbage\n"))
	assert.Error(t, err)

	readings, err := parseSmiReadings([]byte("\n\n"))
	require.NoError(t, err)
	assert.Empty(t, readings)
}

func TestNewGpuQuerier(t *testing.T) {
	q, err := NewGpuQuerier(context.Background(), GpuBackendNone, "", nil)
	require.NoError(t, err)
	assert.Empty(t, q.Devices())

	_, err = NewGpuQuerier(context.Background(), "rocm", "", nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "rocm"))
}
