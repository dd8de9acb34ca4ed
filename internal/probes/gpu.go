package probes

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ALEYI17/InfraSight_bench/pkg/logutil"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"go.uber.org/zap"
)

const mib = 1024 * 1024

const (
	smiDiscoverQuery = "--query-gpu=index,name,memory.total,compute_cap"
	smiLegacyQuery   = "--query-gpu=index,name,memory.total"
	smiSampleQuery   = "--query-gpu=utilization.gpu,memory.used,memory.total"
	smiFormat        = "--format=csv,noheader,nounits"
)

// SmiQuerier reads NVIDIA GPU counters through nvidia-smi. Devices are
// discovered once at construction.
type SmiQuerier struct {
	path       string
	runner     CommandRunner
	devices    []types.GpuDevice
	computeCap string
}

func NewSmiQuerier(ctx context.Context, path string, runner CommandRunner) *SmiQuerier {
	if path == "" {
		path = "nvidia-smi"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	q := &SmiQuerier{path: path, runner: runner}
	q.discover(ctx)
	return q
}

func (q *SmiQuerier) discover(ctx context.Context) {
	logger := logutil.GetLogger()

	out, err := q.runner.Run(ctx, q.path, smiDiscoverQuery, smiFormat)
	if err != nil {
		// drivers older than 510 do not know compute_cap
		out, err = q.runner.Run(ctx, q.path, smiLegacyQuery, smiFormat)
	}
	if err != nil {
		logger.Info("no NVIDIA GPU detected", zap.String("path", q.path), zap.Error(err))
		return
	}

	devices, computeCap := parseSmiDevices(out)
	q.devices = devices
	q.computeCap = computeCap
	logger.Info("GPU devices detected", zap.Int("count", len(devices)), zap.String("compute_capability", computeCap))
}

func (q *SmiQuerier) Devices() []types.GpuDevice {
	return q.devices
}

// ComputeCapability is the first device's capability with the dot removed,
// e.g. "80" for 8.0. Empty when unknown.
func (q *SmiQuerier) ComputeCapability() string {
	return q.computeCap
}

func (q *SmiQuerier) Query(ctx context.Context) ([]types.GpuReading, error) {
	out, err := q.runner.Run(ctx, q.path, smiSampleQuery, smiFormat)
	if err != nil {
		return nil, err
	}
	return parseSmiReadings(out)
}

func parseSmiDevices(out []byte) ([]types.GpuDevice, string) {
	var devices []types.GpuDevice
	var computeCap string

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := splitCSV(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		index, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		dev := types.GpuDevice{Index: index, Name: fields[1]}
		if total, err := strconv.ParseFloat(fields[2], 64); err == nil && total > 0 {
			dev.MemoryTotal = uint64(total * mib)
		}
		devices = append(devices, dev)

		if computeCap == "" && len(fields) >= 4 && fields[3] != "[N/A]" {
			computeCap = strings.ReplaceAll(fields[3], ".", "")
		}
	}
	return devices, computeCap
}

func parseSmiReadings(out []byte) ([]types.GpuReading, error) {
	var readings []types.GpuReading

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := splitCSV(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("unexpected nvidia-smi line %q", line)
		}
		usage, uerr := strconv.ParseFloat(fields[0], 64)
		used, merr := strconv.ParseFloat(fields[1], 64)
		total, terr := strconv.ParseFloat(fields[2], 64)
		if uerr != nil || merr != nil || terr != nil {
			// [N/A] fields on unsupported boards
			readings = append(readings, types.GpuReading{})
			continue
		}
		readings = append(readings, types.GpuReading{
			Usage: usage,
			Mem:   types.GpuMem{Used: uint64(used * mib), Total: uint64(total * mib)},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}

func splitCSV(line string) []string {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// NoGpu is the querier used when GPU sampling is disabled.
type NoGpu struct{}

func (NoGpu) Devices() []types.GpuDevice { return nil }

func (NoGpu) Query(context.Context) ([]types.GpuReading, error) { return nil, nil }
