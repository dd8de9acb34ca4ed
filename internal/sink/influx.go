package sink

import (
	"context"

	"github.com/ALEYI17/InfraSight_bench/internal/config"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const influxMeasurement = "benchmark_runs"

// Influx writes one point per run into an InfluxDB v2 bucket.
type Influx struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

func NewInflux(cfg config.InfluxConfig) *Influx {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Influx{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

func (i *Influx) Name() string { return "influx" }

func reportPoint(rep *types.Report) *write.Point {
	p := influxdb2.NewPointWithMeasurement(influxMeasurement).
		AddTag("run_id", rep.RunID).
		AddTag("task_type", rep.TaskType).
		AddTag("outcome", string(rep.Outcome)).
		AddField("runtime_ms", rep.RuntimeMs).
		AddField("window_fallback", rep.WindowFallback).
		SetTime(rep.StartedAt)
	if rep.Label != "" {
		p.AddTag("label", rep.Label)
	}
	if tw := rep.TimeWindow; tw != nil {
		p.AddField("phase_ms", tw.DurationMs)
	}
	if m := rep.Metrics; m != nil {
		p.AddField("samples", m.SampleCount).
			AddField("cpu_avg", m.CPU.AvgUsage).
			AddField("cpu_max", m.CPU.MaxUsage).
			AddField("mem_max_gb", m.Memory.MaxGB).
			AddField("mem_avg_gb", m.Memory.AvgGB).
			AddField("ctx_voluntary", m.Contention.TotalVoluntary).
			AddField("ctx_involuntary", m.Contention.TotalInvoluntary).
			AddField("ctx_peak_rate", m.Contention.PeakRate)
		if m.Gpu.AvgUsage.Valid {
			p.AddField("gpu_avg", m.Gpu.AvgUsage.Value)
			p.AddField("gpu_max", m.Gpu.MaxUsage.Value)
		}
	}
	if c := rep.CacheMetrics; c != nil && c.Available {
		p.AddField("l1_hit_ratio", c.L1HitRatio).
			AddField("llc_hit_ratio", c.LLCHitRatio).
			AddField("instructions", c.Instructions)
	}
	return p
}

func (i *Influx) Send(ctx context.Context, rep *types.Report) error {
	return i.writeAPI.WritePoint(ctx, reportPoint(rep))
}

func (i *Influx) Close() error {
	i.client.Close()
	return nil
}
