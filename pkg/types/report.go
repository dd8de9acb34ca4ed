package types

import "time"

type GpuDevice struct {
	Index       int    `json:"index" yaml:"index"`
	Name        string `json:"name" yaml:"name"`
	MemoryTotal uint64 `json:"memory_total" yaml:"memory_total"`
}

type Hardware struct {
	CPUCores          int         `json:"cpu_cores" yaml:"cpu_cores"`
	CPUThreads        int         `json:"cpu_threads" yaml:"cpu_threads"`
	MemoryTotal       uint64      `json:"memory_total" yaml:"memory_total"`
	GpuCount          int         `json:"gpu_count" yaml:"gpu_count"`
	ComputeCapability string      `json:"compute_capability,omitempty" yaml:"compute_capability,omitempty"`
	Gpus              []GpuDevice `json:"gpus,omitempty" yaml:"gpus,omitempty"`
}

type CoreStats struct {
	CoreID   int     `json:"core_id" yaml:"core_id"`
	AvgUsage float64 `json:"avg_usage" yaml:"avg_usage"`
	StdUsage float64 `json:"std_usage" yaml:"std_usage"`
	MinUsage float64 `json:"min_usage" yaml:"min_usage"`
	MaxUsage float64 `json:"max_usage" yaml:"max_usage"`
}

type CPUMetrics struct {
	AvgUsage    float64     `json:"avg_usage" yaml:"avg_usage"`
	MaxUsage    float64     `json:"max_usage" yaml:"max_usage"`
	LoadBalance []CoreStats `json:"load_balance" yaml:"load_balance"`
}

type ContentionMetrics struct {
	TotalVoluntary   int64   `json:"total_voluntary" yaml:"total_voluntary"`
	TotalInvoluntary int64   `json:"total_involuntary" yaml:"total_involuntary"`
	VoluntaryRate    float64 `json:"voluntary_per_sec" yaml:"voluntary_per_sec"`
	InvoluntaryRate  float64 `json:"involuntary_per_sec" yaml:"involuntary_per_sec"`
	PeakRate         float64 `json:"peak_per_sec" yaml:"peak_per_sec"`
}

// MemoryMetrics values are decimal gigabytes (1e9 bytes).
type MemoryMetrics struct {
	MaxGB    float64 `json:"max_gb" yaml:"max_gb"`
	AvgGB    float64 `json:"avg_gb" yaml:"avg_gb"`
	FinalGB  float64 `json:"final_gb" yaml:"final_gb"`
	MaxBytes uint64  `json:"max_bytes" yaml:"max_bytes"`
}

type GpuMetrics struct {
	AvgUsage      OptionalPercent `json:"avg_usage" yaml:"avg_usage"`
	MaxUsage      OptionalPercent `json:"max_usage" yaml:"max_usage"`
	AvgMemPercent OptionalPercent `json:"avg_mem_percent" yaml:"avg_mem_percent"`
	MaxMemPercent OptionalPercent `json:"max_mem_percent" yaml:"max_mem_percent"`
}

type Metrics struct {
	SampleCount int               `json:"sample_count" yaml:"sample_count"`
	CPU         CPUMetrics        `json:"cpu" yaml:"cpu"`
	Contention  ContentionMetrics `json:"cpu_contention" yaml:"cpu_contention"`
	Memory      MemoryMetrics     `json:"memory" yaml:"memory"`
	Gpu         GpuMetrics        `json:"gpu" yaml:"gpu"`
}

type TimeWindow struct {
	Start      float64 `json:"start" yaml:"start"`
	End        float64 `json:"end" yaml:"end"`
	DurationMs int64   `json:"duration_ms" yaml:"duration_ms"`
}

func NewTimeWindow(w PhaseWindow) *TimeWindow {
	return &TimeWindow{Start: w.Start, End: w.End, DurationMs: w.DurationMs()}
}

// Report is the persisted summary of one benchmark run. Metrics is nil when
// nothing was sampled (launch failures, empty logs).
type Report struct {
	RunID          string         `json:"run_id" yaml:"run_id"`
	TaskType       string         `json:"task_type" yaml:"task_type"`
	Label          string         `json:"label,omitempty" yaml:"label,omitempty"`
	Outcome        Outcome        `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	StartedAt      time.Time      `json:"started_at" yaml:"started_at"`
	RuntimeMs      int64          `json:"runtime_ms" yaml:"runtime_ms"`
	ReportedMs     int64          `json:"reported_ms,omitempty" yaml:"reported_ms,omitempty"`
	Verified       *bool          `json:"verified,omitempty" yaml:"verified,omitempty"`
	Hardware       Hardware       `json:"hardware" yaml:"hardware"`
	Metrics        *Metrics       `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	TimeWindow     *TimeWindow    `json:"time_window,omitempty" yaml:"time_window,omitempty"`
	WindowFallback bool           `json:"window_fallback,omitempty" yaml:"window_fallback,omitempty"`
	CacheMetrics   *CacheCounters `json:"cache_metrics,omitempty" yaml:"cache_metrics,omitempty"`
}
