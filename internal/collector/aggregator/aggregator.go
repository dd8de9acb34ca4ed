package aggregator

import (
	"errors"
	"time"

	"github.com/ALEYI17/InfraSight_bench/pkg/types"
)

const bytesPerGB = 1e9

var ErrNoSamples = errors.New("no samples to aggregate")

// Input is everything known about one run. ReportedMs is the candidate's own
// "Time:" figure, zero when it printed none.
type Input struct {
	RunID      string
	TaskType   string
	Label      string
	Outcome    types.Outcome
	StartedAt  time.Time
	RuntimeMs  int64
	ReportedMs int64
	Verified   *bool
	Hardware   types.Hardware
	Samples    []types.Sample
	Window     *types.PhaseWindow
	Cache      *types.CacheCounters
}

// Bare is the hardware-only report used when nothing can be aggregated.
func Bare(in Input) *types.Report {
	rep := &types.Report{
		RunID:        in.RunID,
		TaskType:     in.TaskType,
		Label:        in.Label,
		Outcome:      in.Outcome,
		StartedAt:    in.StartedAt,
		RuntimeMs:    in.RuntimeMs,
		ReportedMs:   in.ReportedMs,
		Verified:     in.Verified,
		Hardware:     in.Hardware,
		CacheMetrics: in.Cache,
	}
	if in.Window != nil && in.Window.Validate() == nil {
		rep.TimeWindow = types.NewTimeWindow(*in.Window)
	}
	return rep
}

// Aggregate reduces a sample log to a Report. With a window, only samples
// inside it are used and the reported window is clamped to the sampled time
// range. If no sample falls inside, the full log is used, the report is
// flagged with WindowFallback and the window is reported as supplied.
func Aggregate(in Input) (*types.Report, error) {
	if in.Window != nil {
		if err := in.Window.Validate(); err != nil {
			return nil, err
		}
	}
	if len(in.Samples) == 0 {
		return nil, ErrNoSamples
	}

	rep := Bare(in)
	selected := in.Samples
	if in.Window != nil {
		filtered := Filter(in.Samples, *in.Window)
		if len(filtered) == 0 {
			rep.WindowFallback = true
		} else {
			selected = filtered
			rep.TimeWindow = types.NewTimeWindow(clamp(*in.Window, in.Samples))
		}
	}

	rep.Metrics = compute(selected, in.Hardware.GpuCount)
	return rep, nil
}

// clamp intersects w with the span of the sample log. Callers only clamp when
// at least one sample lies inside w, so the result is never inverted.
func clamp(w types.PhaseWindow, samples []types.Sample) types.PhaseWindow {
	first := samples[0].Timestamp
	last := samples[len(samples)-1].Timestamp
	return types.PhaseWindow{Start: max(w.Start, first), End: min(w.End, last)}
}

func Filter(samples []types.Sample, w types.PhaseWindow) []types.Sample {
	var out []types.Sample
	for _, s := range samples {
		if w.Contains(s.Timestamp) {
			out = append(out, s)
		}
	}
	return out
}

func compute(samples []types.Sample, gpuCount int) *types.Metrics {
	return &types.Metrics{
		SampleCount: len(samples),
		CPU:         cpuMetrics(samples),
		Contention:  contentionMetrics(samples),
		Memory:      memoryMetrics(samples),
		Gpu:         gpuMetrics(samples, gpuCount),
	}
}

// cpuMetrics skips samples without a CPU reading. Per-core statistics follow
// the core count of the first reading; a sample with a different vector
// length still counts towards the total but not towards any core.
func cpuMetrics(samples []types.Sample) types.CPUMetrics {
	var total series
	var cores []series
	for _, s := range samples {
		if !s.HasCPU {
			continue
		}
		total.add(s.CPUTotal)
		if cores == nil {
			cores = make([]series, len(s.CPUPerCore))
		}
		if len(s.CPUPerCore) != len(cores) {
			continue
		}
		for i, v := range s.CPUPerCore {
			cores[i].add(v)
		}
	}

	m := types.CPUMetrics{
		AvgUsage:    total.mean(),
		MaxUsage:    total.max,
		LoadBalance: make([]types.CoreStats, 0, len(cores)),
	}
	for i := range cores {
		m.LoadBalance = append(m.LoadBalance, types.CoreStats{
			CoreID:   i,
			AvgUsage: cores[i].mean(),
			StdUsage: cores[i].std(),
			MinUsage: cores[i].min,
			MaxUsage: cores[i].max,
		})
	}
	return m
}

func withProcess(samples []types.Sample) []types.Sample {
	var out []types.Sample
	for _, s := range samples {
		if s.HasProcess {
			out = append(out, s)
		}
	}
	return out
}

// contentionMetrics treats the counters as cumulative. Totals are last minus
// first clamped at zero; rates only count forward progress between
// consecutive samples, so a counter reset never yields a negative figure.
// Samples without a process reading are ignored.
func contentionMetrics(samples []types.Sample) types.ContentionMetrics {
	samples = withProcess(samples)
	if len(samples) == 0 {
		return types.ContentionMetrics{}
	}
	first := samples[0].CtxSwitches
	last := samples[len(samples)-1].CtxSwitches

	m := types.ContentionMetrics{
		TotalVoluntary:   max(0, last.Voluntary-first.Voluntary),
		TotalInvoluntary: max(0, last.Involuntary-first.Involuntary),
	}

	var sumVol, sumInvol, sumDt float64
	for i := 1; i < len(samples); i++ {
		dt := samples[i].Timestamp - samples[i-1].Timestamp
		if dt <= 0 {
			continue
		}
		dv := float64(max(0, samples[i].CtxSwitches.Voluntary-samples[i-1].CtxSwitches.Voluntary))
		di := float64(max(0, samples[i].CtxSwitches.Involuntary-samples[i-1].CtxSwitches.Involuntary))
		sumVol += dv
		sumInvol += di
		sumDt += dt
		m.PeakRate = max(m.PeakRate, (dv+di)/dt)
	}
	if sumDt > 0 {
		m.VoluntaryRate = sumVol / sumDt
		m.InvoluntaryRate = sumInvol / sumDt
	}
	return m
}

// memoryMetrics only reads samples taken while the process tree was alive.
func memoryMetrics(samples []types.Sample) types.MemoryMetrics {
	samples = withProcess(samples)
	if len(samples) == 0 {
		return types.MemoryMetrics{}
	}
	var mem series
	var maxBytes uint64
	for _, s := range samples {
		mem.add(float64(s.MemBytes))
		maxBytes = max(maxBytes, s.MemBytes)
	}
	return types.MemoryMetrics{
		MaxGB:    float64(maxBytes) / bytesPerGB,
		AvgGB:    mem.mean() / bytesPerGB,
		FinalGB:  float64(samples[len(samples)-1].MemBytes) / bytesPerGB,
		MaxBytes: maxBytes,
	}
}

func gpuMetrics(samples []types.Sample, gpuCount int) types.GpuMetrics {
	if gpuCount == 0 {
		return types.GpuMetrics{}
	}

	var usage, memPct series
	for _, s := range samples {
		for _, u := range s.GpuUsage {
			usage.add(u)
		}
		for _, gm := range s.GpuMem {
			if gm.Total > 0 {
				memPct.add(float64(gm.Used) / float64(gm.Total) * 100)
			}
		}
	}
	return types.GpuMetrics{
		AvgUsage:      types.Percent(usage.mean()),
		MaxUsage:      types.Percent(usage.max),
		AvgMemPercent: types.Percent(memPct.mean()),
		MaxMemPercent: types.Percent(memPct.max),
	}
}
