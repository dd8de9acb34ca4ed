package probes

import (
	"context"
	"fmt"
	"sync"

	"github.com/ALEYI17/InfraSight_bench/pkg/logutil"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"go.uber.org/zap"
)

// nvmlDevice is the subset of nvml.Device the querier reads.
type nvmlDevice interface {
	GetName() (string, nvml.Return)
	GetMemoryInfo() (nvml.Memory, nvml.Return)
	GetUtilizationRates() (nvml.Utilization, nvml.Return)
	GetCudaComputeCapability() (int, int, nvml.Return)
}

type nvmlLibrary interface {
	Init() nvml.Return
	Shutdown() nvml.Return
	DeviceGetCount() (int, nvml.Return)
	DeviceGetHandleByIndex(index int) (nvmlDevice, nvml.Return)
}

// systemNvml binds to libnvidia-ml through go-nvml.
type systemNvml struct{}

func (systemNvml) Init() nvml.Return     { return nvml.Init() }
func (systemNvml) Shutdown() nvml.Return { return nvml.Shutdown() }

func (systemNvml) DeviceGetCount() (int, nvml.Return) { return nvml.DeviceGetCount() }

func (systemNvml) DeviceGetHandleByIndex(index int) (nvmlDevice, nvml.Return) {
	dev, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return nil, ret
	}
	return dev, ret
}

var loadNvml = func() nvmlLibrary { return systemNvml{} }

func nvmlError(op string, ret nvml.Return) error {
	return fmt.Errorf("nvml %s: return code %d", op, int32(ret))
}

// NvmlQuerier reads NVIDIA GPU counters in-process through NVML. Devices are
// discovered once at construction; Close releases the library.
type NvmlQuerier struct {
	lib        nvmlLibrary
	handles    []nvmlDevice
	devices    []types.GpuDevice
	computeCap string
	closeOnce  sync.Once
}

func NewNvmlQuerier(lib nvmlLibrary) (*NvmlQuerier, error) {
	if ret := lib.Init(); ret != nvml.SUCCESS {
		return nil, nvmlError("init", ret)
	}

	count, ret := lib.DeviceGetCount()
	if ret != nvml.SUCCESS {
		lib.Shutdown()
		return nil, nvmlError("device count", ret)
	}

	q := &NvmlQuerier{lib: lib}
	for i := range count {
		dev, ret := lib.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			logutil.GetLogger().Warn("skipping GPU without NVML handle", zap.Int("index", i), zap.Error(nvmlError("device handle", ret)))
			continue
		}

		gd := types.GpuDevice{Index: i}
		if name, ret := dev.GetName(); ret == nvml.SUCCESS {
			gd.Name = name
		}
		if mem, ret := dev.GetMemoryInfo(); ret == nvml.SUCCESS {
			gd.MemoryTotal = mem.Total
		}
		if q.computeCap == "" {
			if major, minor, ret := dev.GetCudaComputeCapability(); ret == nvml.SUCCESS {
				q.computeCap = fmt.Sprintf("%d%d", major, minor)
			}
		}

		q.handles = append(q.handles, dev)
		q.devices = append(q.devices, gd)
	}

	logutil.GetLogger().Info("GPU devices detected through NVML",
		zap.Int("count", len(q.devices)), zap.String("compute_capability", q.computeCap))
	return q, nil
}

func (q *NvmlQuerier) Devices() []types.GpuDevice {
	return q.devices
}

// ComputeCapability is the first device's capability without the dot, e.g. "80".
func (q *NvmlQuerier) ComputeCapability() string {
	return q.computeCap
}

// Query reads one utilisation and memory figure per device. A device that
// fails a read reports zeros, like an "[N/A]" field from nvidia-smi.
func (q *NvmlQuerier) Query(ctx context.Context) ([]types.GpuReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	readings := make([]types.GpuReading, len(q.handles))
	for i, dev := range q.handles {
		util, uret := dev.GetUtilizationRates()
		mem, mret := dev.GetMemoryInfo()
		if uret != nvml.SUCCESS || mret != nvml.SUCCESS {
			continue
		}
		readings[i] = types.GpuReading{
			Usage: float64(util.Gpu),
			Mem:   types.GpuMem{Used: mem.Used, Total: mem.Total},
		}
	}
	return readings, nil
}

func (q *NvmlQuerier) Close() error {
	var err error
	q.closeOnce.Do(func() {
		if ret := q.lib.Shutdown(); ret != nvml.SUCCESS {
			err = nvmlError("shutdown", ret)
		}
	})
	return err
}
