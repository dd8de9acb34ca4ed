package timeserie

import (
	"context"
	"time"

	"github.com/ALEYI17/InfraSight_bench/pkg/logutil"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"go.uber.org/zap"
)

// readSample takes one snapshot. Every read is independent: a failed read
// leaves its fields zero, clears its Has flag and never aborts the snapshot.
func readSample(ctx context.Context, now time.Time, host types.HostReader, gpu types.GpuQuerier, pid int32) types.Sample {
	logger := logutil.GetLogger()

	sample := types.Sample{
		Timestamp: float64(now.UnixNano()) / 1e9,
	}

	if host != nil {
		total, perCore, err := host.CPUPercent()
		if err != nil {
			logger.Debug("cpu read failed", zap.Error(err))
		} else {
			sample.HasCPU = true
			sample.CPUTotal = total
			sample.CPUPerCore = perCore
		}

		if pid > 0 {
			tree, err := host.ProcessTree(pid)
			if err != nil {
				logger.Debug("process tree read failed", zap.Int32("pid", pid), zap.Error(err))
			} else {
				sample.HasProcess = true
				sample.MemBytes = tree.RSS
				sample.CtxSwitches = tree.CtxSwitches
			}
		}
	}

	if gpu != nil && len(gpu.Devices()) > 0 {
		readings, err := gpu.Query(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Debug("gpu query failed", zap.Error(err))
			}
		} else {
			sample.GpuUsage = make([]float64, 0, len(readings))
			sample.GpuMem = make([]types.GpuMem, 0, len(readings))
			for _, r := range readings {
				sample.GpuUsage = append(sample.GpuUsage, r.Usage)
				sample.GpuMem = append(sample.GpuMem, r.Mem)
			}
		}
	}

	return sample
}
