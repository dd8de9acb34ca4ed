package collector

import (
	"context"
	"errors"
	"time"

	"github.com/ALEYI17/InfraSight_bench/internal/collector/aggregator"
	"github.com/ALEYI17/InfraSight_bench/internal/collector/timeserie"
	"github.com/ALEYI17/InfraSight_bench/internal/config"
	"github.com/ALEYI17/InfraSight_bench/internal/executor"
	"github.com/ALEYI17/InfraSight_bench/internal/probes"
	"github.com/ALEYI17/InfraSight_bench/internal/telemetry"
	"github.com/ALEYI17/InfraSight_bench/pkg/logutil"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Job is one candidate to benchmark. Input and Output are passed to the
// binary as its first two arguments when set, followed by Args.
type Job struct {
	Label        string        `yaml:"label"`
	TaskType     string        `yaml:"task_type"`
	Binary       string        `yaml:"binary"`
	Input        string        `yaml:"input"`
	Output       string        `yaml:"output"`
	Args         []string      `yaml:"args"`
	Dir          string        `yaml:"dir"`
	Timeout      time.Duration `yaml:"timeout"`
	CompileError string        `yaml:"compile_error"`
}

func (j Job) args() []string {
	var out []string
	if j.Input != "" {
		out = append(out, j.Input)
	}
	if j.Output != "" {
		out = append(out, j.Output)
	}
	return append(out, j.Args...)
}

// Run is the outcome of one Job: the process result and its report.
type Run struct {
	ID        string
	Job       Job
	StartedAt time.Time
	Result    executor.Result
	Report    *types.Report
}

type Option func(*Bench)

// WithHostReader replaces the gopsutil host reader, mainly for tests.
func WithHostReader(f func() types.HostReader) Option {
	return func(b *Bench) { b.newHost = f }
}

// WithDetector replaces capability detection, mainly for tests.
func WithDetector(f func(ctx context.Context) probes.Capabilities) Option {
	return func(b *Bench) { b.detect = f }
}

// Bench runs candidates under monitoring. Every Run builds its own probes,
// sampler and perf reader, so one Bench can serve concurrent jobs.
type Bench struct {
	cfg     *config.Config
	newHost func() types.HostReader
	detect  func(ctx context.Context) probes.Capabilities
}

func NewBench(cfg *config.Config, opts ...Option) *Bench {
	b := &Bench{
		cfg:     cfg,
		newHost: func() types.HostReader { return probes.NewGopsutilHost() },
	}
	b.detect = func(ctx context.Context) probes.Capabilities {
		return probes.Detect(ctx, ProbeOptions(cfg))
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func ProbeOptions(cfg *config.Config) probes.Options {
	return probes.Options{
		GpuEnabled:  cfg.Gpu.Enabled,
		GpuBackend:  cfg.Gpu.Backend,
		SmiPath:     cfg.Gpu.SmiPath,
		PerfEnabled: cfg.Perf.Enabled,
		Perf: probes.PerfConfig{
			Path:      cfg.Perf.Path,
			Events:    cfg.Perf.Events,
			StopGrace: cfg.Perf.StopGrace,
		},
	}
}

func (b *Bench) spec(job Job) executor.Spec {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = b.cfg.Runner.Timeout
	}
	return executor.Spec{
		Path:      job.Binary,
		Args:      job.args(),
		Dir:       job.Dir,
		Timeout:   timeout,
		KillGrace: b.cfg.Runner.KillGrace,
		Markers: executor.MarkerOptions{
			Tag:           b.cfg.Runner.MarkerTag,
			SuccessTokens: b.cfg.Runner.SuccessTokens,
			FailureTokens: b.cfg.Runner.FailureTokens,
		},
	}
}

// Run benchmarks one job. The sampler starts before the candidate and stops
// after it, so the sample log always covers the whole execution. Only launch
// failures and malformed phase markers are returned as errors; both still
// come with a hardware-only report.
func (b *Bench) Run(ctx context.Context, job Job) (*Run, error) {
	logger := logutil.GetLogger()

	run := &Run{ID: uuid.NewString(), Job: job, StartedAt: time.Now()}
	ctx, span := telemetry.StartSpan(ctx, "bench.run",
		attribute.String("run_id", run.ID),
		attribute.String("task_type", job.TaskType),
		attribute.String("label", job.Label))
	defer span.End()

	in := aggregator.Input{
		RunID:     run.ID,
		TaskType:  job.TaskType,
		Label:     job.Label,
		StartedAt: run.StartedAt,
	}

	if job.CompileError != "" {
		in.Outcome = types.OutcomeCompileFailed
		caps := b.detect(ctx)
		caps.Close()
		in.Hardware = caps.Hardware
		run.Result = executor.Result{Outcome: types.OutcomeCompileFailed, ExitCode: -1, Stderr: job.CompileError}
		run.Report = aggregator.Bare(in)
		logger.Warn("Skipping candidate that failed to compile", zap.String("label", job.Label), zap.String("task_type", job.TaskType))
		return run, nil
	}

	caps := b.detect(ctx)
	defer caps.Close()
	in.Hardware = caps.Hardware

	sampler := timeserie.NewSampler(timeserie.Config{
		Interval:  b.cfg.Sampler.Interval,
		StopGrace: b.cfg.Sampler.StopGrace,
	}, b.newHost(), caps.Gpu)
	if err := sampler.Start(ctx); err != nil {
		return nil, err
	}

	candCtx, candSpan := telemetry.StartSpan(ctx, "bench.candidate", attribute.String("binary", job.Binary))
	proc, err := executor.Start(candCtx, b.spec(job))
	if err != nil {
		sampler.Stop()
		candSpan.RecordError(err)
		candSpan.End()
		span.SetStatus(codes.Error, "launch failed")

		in.Outcome = types.OutcomeLaunchFailed
		run.Result = executor.Result{Outcome: types.OutcomeLaunchFailed, ExitCode: -1, Err: err}
		run.Report = aggregator.Bare(in)
		logger.Error("Candidate launch failed", zap.String("binary", job.Binary), zap.Error(err))
		return run, err
	}

	sampler.Attach(proc.Pid())
	if caps.Cache != nil {
		if err := caps.Cache.Start(ctx, proc.Pid()); err != nil {
			logger.Warn("perf counters unavailable for this run", zap.Error(err))
		}
	}

	res := proc.Wait()
	candSpan.SetAttributes(attribute.String("outcome", string(res.Outcome)))
	candSpan.End()

	samples := sampler.Stop()
	if caps.Cache != nil {
		counters := caps.Cache.Stop()
		in.Cache = &counters
	}

	run.Result = res
	in.Outcome = res.Outcome
	in.RuntimeMs = res.Elapsed.Milliseconds()
	in.Samples = samples
	in.Window = res.Markers.Window
	in.Verified = res.Markers.Verified
	if res.Markers.HasReportedTime {
		in.ReportedMs = res.Markers.ReportedTimeMs
	}

	logger.Info("Candidate finished",
		zap.String("run_id", run.ID),
		zap.String("label", job.Label),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("elapsed", res.Elapsed),
		zap.Int("samples", len(samples)))
	if res.Outcome != types.OutcomeSucceeded && res.Stderr != "" {
		logger.Warn("Candidate stderr", zap.String("run_id", run.ID), zap.String("stderr", tail(res.Stderr, 2048)))
	}

	_, aggSpan := telemetry.StartSpan(ctx, "bench.aggregate", attribute.Int("samples", len(samples)))
	defer aggSpan.End()

	rep, err := aggregator.Aggregate(in)
	switch {
	case errors.Is(err, aggregator.ErrNoSamples):
		logger.Warn("No samples collected, reporting hardware only", zap.String("run_id", run.ID))
		run.Report = aggregator.Bare(in)
		return run, nil
	case err != nil:
		aggSpan.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		run.Report = aggregator.Bare(in)
		return run, err
	}

	if rep.WindowFallback {
		logger.Warn("No samples inside the phase window, used the full run",
			zap.String("run_id", run.ID), zap.Int64("window_ms", rep.TimeWindow.DurationMs))
	}
	run.Report = rep
	return run, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
