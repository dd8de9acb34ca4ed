package probes

import (
	"context"

	"github.com/ALEYI17/InfraSight_bench/pkg/logutil"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"go.uber.org/zap"
)

type Options struct {
	GpuEnabled bool
	GpuBackend string
	SmiPath    string

	PerfEnabled bool
	Perf        PerfConfig

	Runner CommandRunner
}

// Capabilities is what one run may sample. It is detected once per run and
// never shared between runs; Close releases the GPU backend.
type Capabilities struct {
	Hardware types.Hardware
	Gpu      types.GpuQuerier
	Cache    types.CacheReader
}

func (c Capabilities) Close() {
	if c.Gpu != nil {
		closeGpu(c.Gpu)
	}
}

func Detect(ctx context.Context, opts Options) Capabilities {
	logger := logutil.GetLogger()

	var gpu types.GpuQuerier = NoGpu{}
	if opts.GpuEnabled {
		q, err := NewGpuQuerier(ctx, opts.GpuBackend, opts.SmiPath, opts.Runner)
		if err != nil {
			logger.Warn("gpu sampling disabled", zap.Error(err))
		} else {
			gpu = q
		}
	}

	caps := Capabilities{
		Hardware: DetectHardware(ctx, gpu),
		Gpu:      gpu,
	}
	if opts.PerfEnabled {
		caps.Cache = NewPerfReader(ctx, opts.Perf, opts.Runner)
	}
	return caps
}
