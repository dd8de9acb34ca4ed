package types

import "context"

type ProcessTreeStat struct {
	RSS         uint64
	CtxSwitches CtxSwitches
	Processes   int
}

// HostReader reads system-wide CPU usage and the resource usage of a process
// tree. Implementations keep their own CPU time baseline.
type HostReader interface {
	CPUPercent() (total float64, perCore []float64, err error)
	ProcessTree(pid int32) (ProcessTreeStat, error)
}

type GpuReading struct {
	Usage float64
	Mem   GpuMem
}

// GpuQuerier exposes devices discovered once at construction and per-sample readings.
type GpuQuerier interface {
	Devices() []GpuDevice
	Query(ctx context.Context) ([]GpuReading, error)
}

// CacheReader attaches an external profiler to a pid and reports cache counters.
type CacheReader interface {
	Available() bool
	Start(ctx context.Context, pid int) error
	Stop() CacheCounters
}
