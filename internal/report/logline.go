package report

import (
	"fmt"
	"strings"

	"github.com/ALEYI17/InfraSight_bench/pkg/types"
)

const logTimeLayout = "2006-01-02 15:04:05"

// LogLine renders the human-readable run log entry: a header line and, for
// successful runs with metrics, indented key: value lines.
func LogLine(rep *types.Report) string {
	var b strings.Builder

	label := rep.Label
	if label == "" {
		label = "-"
	}
	fmt.Fprintf(&b, "%s | %s | %s | %s | %d ms\n",
		rep.StartedAt.Local().Format(logTimeLayout), label, rep.TaskType, rep.Outcome, rep.RuntimeMs)

	if rep.Outcome != types.OutcomeSucceeded {
		return b.String()
	}

	kv := func(k string, v any) {
		fmt.Fprintf(&b, "  %s: %v\n", k, v)
	}

	if rep.ReportedMs > 0 {
		kv("reported_ms", rep.ReportedMs)
	}
	if rep.Verified != nil {
		kv("verified", *rep.Verified)
	}
	if rep.TimeWindow != nil {
		kv("phase_ms", rep.TimeWindow.DurationMs)
	}
	if rep.WindowFallback {
		kv("window_fallback", true)
	}
	if m := rep.Metrics; m != nil {
		kv("samples", m.SampleCount)
		kv("avg_cpu", types.Percent(m.CPU.AvgUsage))
		kv("max_cpu", types.Percent(m.CPU.MaxUsage))
		kv("max_mem", fmt.Sprintf("%.3f GB", m.Memory.MaxGB))
		kv("ctx_switches", fmt.Sprintf("%d voluntary / %d involuntary", m.Contention.TotalVoluntary, m.Contention.TotalInvoluntary))
		kv("avg_gpu", m.Gpu.AvgUsage)
		kv("max_gpu", m.Gpu.MaxUsage)
		kv("max_gpu_mem", m.Gpu.MaxMemPercent)
	}
	if c := rep.CacheMetrics; c != nil && c.Available {
		kv("l1_hit_ratio", fmt.Sprintf("%.4f", c.L1HitRatio))
		kv("llc_hit_ratio", fmt.Sprintf("%.4f", c.LLCHitRatio))
	}
	return b.String()
}
