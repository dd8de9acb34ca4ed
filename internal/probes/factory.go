package probes

import (
	"context"
	"fmt"
	"io"

	"github.com/ALEYI17/InfraSight_bench/pkg/logutil"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"go.uber.org/zap"
)

const (
	GpuBackendAuto = "auto"
	GpuBackendNvml = "nvml"
	GpuBackendSmi  = "nvidia-smi"
	GpuBackendNone = "none"
)

// NewGpuQuerier builds the querier for backend. "auto" prefers NVML and falls
// back to nvidia-smi when the library cannot be loaded.
func NewGpuQuerier(ctx context.Context, backend, path string, runner CommandRunner) (types.GpuQuerier, error) {
	switch backend {
	case GpuBackendAuto, "":
		q, err := NewNvmlQuerier(loadNvml())
		if err == nil {
			return q, nil
		}
		logutil.GetLogger().Info("NVML unavailable, falling back to nvidia-smi", zap.Error(err))
		return NewSmiQuerier(ctx, path, runner), nil
	case GpuBackendNvml:
		return NewNvmlQuerier(loadNvml())
	case GpuBackendSmi:
		return NewSmiQuerier(ctx, path, runner), nil
	case GpuBackendNone:
		return NoGpu{}, nil
	default:
		return nil, fmt.Errorf("unsupported gpu backend %q", backend)
	}
}

func closeGpu(gpu types.GpuQuerier) {
	c, ok := gpu.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		logutil.GetLogger().Warn("failed to release GPU backend", zap.Error(err))
	}
}
