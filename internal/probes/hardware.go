package probes

import (
	"context"

	"github.com/ALEYI17/InfraSight_bench/pkg/logutil"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"
)

type computeCapper interface {
	ComputeCapability() string
}

func DetectHardware(ctx context.Context, gpu types.GpuQuerier) types.Hardware {
	logger := logutil.GetLogger()
	var hw types.Hardware

	if n, err := cpu.CountsWithContext(ctx, false); err == nil {
		hw.CPUCores = n
	} else {
		logger.Warn("physical core count unavailable", zap.Error(err))
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		hw.CPUThreads = n
	} else {
		logger.Warn("logical core count unavailable", zap.Error(err))
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		hw.MemoryTotal = vm.Total
	} else {
		logger.Warn("memory total unavailable", zap.Error(err))
	}

	if gpu != nil {
		hw.Gpus = gpu.Devices()
		hw.GpuCount = len(hw.Gpus)
		if cc, ok := gpu.(computeCapper); ok {
			hw.ComputeCapability = cc.ComputeCapability()
		}
	}
	return hw
}
