package sink

import (
	"context"
	"sync"

	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
)

var runLabels = []string{"task_type", "label", "outcome"}

// PrometheusTextfile keeps gauges for every run seen and rewrites a
// node_exporter textfile-collector file after each one.
type PrometheusTextfile struct {
	path     string
	mu       sync.Mutex
	registry *prometheus.Registry

	runtime     *prometheus.GaugeVec
	cpuAvg      *prometheus.GaugeVec
	cpuMax      *prometheus.GaugeVec
	memMax      *prometheus.GaugeVec
	ctxSwitches *prometheus.GaugeVec
	gpuAvg      *prometheus.GaugeVec
	gpuMemMax   *prometheus.GaugeVec
	cacheHit    *prometheus.GaugeVec
	phase       *prometheus.GaugeVec
}

func NewPrometheusTextfile(path string) *PrometheusTextfile {
	gauge := func(name, help string, extra ...string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "infrasight_bench",
			Name:      name,
			Help:      help,
		}, append(append([]string{}, runLabels...), extra...))
	}

	p := &PrometheusTextfile{
		path:        path,
		registry:    prometheus.NewRegistry(),
		runtime:     gauge("runtime_milliseconds", "Wall-clock runtime of the last run."),
		cpuAvg:      gauge("cpu_usage_avg_percent", "Mean host CPU utilisation during the measured window."),
		cpuMax:      gauge("cpu_usage_max_percent", "Peak host CPU utilisation during the measured window."),
		memMax:      gauge("memory_max_bytes", "Peak resident memory of the candidate process tree."),
		ctxSwitches: gauge("context_switches", "Context switches of the candidate process tree.", "kind"),
		gpuAvg:      gauge("gpu_usage_avg_percent", "Mean GPU utilisation across devices."),
		gpuMemMax:   gauge("gpu_memory_max_percent", "Peak GPU memory utilisation across devices."),
		cacheHit:    gauge("cache_hit_ratio", "Cache hit ratio derived from perf counters.", "level"),
		phase:       gauge("phase_milliseconds", "Duration of the self-reported measured phase."),
	}
	p.registry.MustRegister(p.runtime, p.cpuAvg, p.cpuMax, p.memMax, p.ctxSwitches,
		p.gpuAvg, p.gpuMemMax, p.cacheHit, p.phase)
	return p
}

func (p *PrometheusTextfile) Name() string { return "prometheus" }

func (p *PrometheusTextfile) Registry() *prometheus.Registry { return p.registry }

func (p *PrometheusTextfile) Observe(rep *types.Report) {
	lv := []string{rep.TaskType, rep.Label, string(rep.Outcome)}

	p.runtime.WithLabelValues(lv...).Set(float64(rep.RuntimeMs))
	if tw := rep.TimeWindow; tw != nil {
		p.phase.WithLabelValues(lv...).Set(float64(tw.DurationMs))
	}
	if m := rep.Metrics; m != nil {
		p.cpuAvg.WithLabelValues(lv...).Set(m.CPU.AvgUsage)
		p.cpuMax.WithLabelValues(lv...).Set(m.CPU.MaxUsage)
		p.memMax.WithLabelValues(lv...).Set(float64(m.Memory.MaxBytes))
		p.ctxSwitches.WithLabelValues(append(lv, "voluntary")...).Set(float64(m.Contention.TotalVoluntary))
		p.ctxSwitches.WithLabelValues(append(lv, "involuntary")...).Set(float64(m.Contention.TotalInvoluntary))
		if m.Gpu.AvgUsage.Valid {
			p.gpuAvg.WithLabelValues(lv...).Set(m.Gpu.AvgUsage.Value)
		}
		if m.Gpu.MaxMemPercent.Valid {
			p.gpuMemMax.WithLabelValues(lv...).Set(m.Gpu.MaxMemPercent.Value)
		}
	}
	if c := rep.CacheMetrics; c != nil && c.Available {
		p.cacheHit.WithLabelValues(append(lv, "l1")...).Set(c.L1HitRatio)
		p.cacheHit.WithLabelValues(append(lv, "llc")...).Set(c.LLCHitRatio)
	}
}

func (p *PrometheusTextfile) Send(_ context.Context, rep *types.Report) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Observe(rep)
	return prometheus.WriteToTextfile(p.path, p.registry)
}

func (p *PrometheusTextfile) Close() error { return nil }
