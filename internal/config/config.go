package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const EnvPrefix = "INFRASIGHT_BENCH"

var ErrInvalidConfig = errors.New("invalid configuration")

var (
	knownFormats     = []string{"json", "yaml"}
	knownGpuBackends = []string{"auto", "nvml", "nvidia-smi", "none"}
)

func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Sampler: SamplerConfig{
			Interval:  100 * time.Millisecond,
			StopGrace: 2 * time.Second,
		},
		Runner: RunnerConfig{
			Timeout:       300 * time.Second,
			KillGrace:     2 * time.Second,
			MarkerTag:     "BFS",
			SuccessTokens: []string{"验证成功"},
			FailureTokens: []string{"验证失败"},
		},
		Perf: PerfConfig{
			Enabled:   true,
			Path:      "perf",
			Events:    []string{"L1-dcache-load-misses", "LLC-load-misses", "instructions"},
			StopGrace: 2 * time.Second,
		},
		Gpu: GpuConfig{
			Enabled: true,
			Backend: "auto",
			SmiPath: "nvidia-smi",
		},
		Output: OutputConfig{
			Dir:     "results",
			Formats: []string{"json"},
		},
		Tracing: TracingConfig{ServiceName: "infrasight-bench"},
		Batch:   BatchConfig{Parallel: 1},
	}
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("sampler.interval", d.Sampler.Interval)
	v.SetDefault("sampler.stop_grace", d.Sampler.StopGrace)
	v.SetDefault("runner.timeout", d.Runner.Timeout)
	v.SetDefault("runner.kill_grace", d.Runner.KillGrace)
	v.SetDefault("runner.marker_tag", d.Runner.MarkerTag)
	v.SetDefault("runner.success_tokens", d.Runner.SuccessTokens)
	v.SetDefault("runner.failure_tokens", d.Runner.FailureTokens)
	v.SetDefault("perf.enabled", d.Perf.Enabled)
	v.SetDefault("perf.path", d.Perf.Path)
	v.SetDefault("perf.events", d.Perf.Events)
	v.SetDefault("perf.stop_grace", d.Perf.StopGrace)
	v.SetDefault("gpu.enabled", d.Gpu.Enabled)
	v.SetDefault("gpu.backend", d.Gpu.Backend)
	v.SetDefault("gpu.smi_path", d.Gpu.SmiPath)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.formats", d.Output.Formats)
	v.SetDefault("output.log_file", d.Output.LogFile)
	v.SetDefault("prometheus.textfile", d.Prometheus.Textfile)
	v.SetDefault("influx.url", d.Influx.URL)
	v.SetDefault("influx.token", d.Influx.Token)
	v.SetDefault("influx.org", d.Influx.Org)
	v.SetDefault("influx.bucket", d.Influx.Bucket)
	v.SetDefault("object_store.endpoint", d.ObjectStore.Endpoint)
	v.SetDefault("object_store.access_key", d.ObjectStore.AccessKey)
	v.SetDefault("object_store.secret_key", d.ObjectStore.SecretKey)
	v.SetDefault("object_store.bucket", d.ObjectStore.Bucket)
	v.SetDefault("object_store.prefix", d.ObjectStore.Prefix)
	v.SetDefault("object_store.use_ssl", d.ObjectStore.UseSSL)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("batch.parallel", d.Batch.Parallel)
}

// LoadConfig layers defaults, the optional YAML file at path and
// INFRASIGHT_BENCH_* environment variables, then validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var err error
	if c.Sampler.Interval <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: sampler.interval must be positive", ErrInvalidConfig))
	}
	if c.Sampler.StopGrace <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: sampler.stop_grace must be positive", ErrInvalidConfig))
	}
	if c.Runner.Timeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: runner.timeout must be positive", ErrInvalidConfig))
	}
	if c.Runner.KillGrace < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: runner.kill_grace must not be negative", ErrInvalidConfig))
	}
	for _, f := range c.Output.Formats {
		if !slices.Contains(knownFormats, strings.ToLower(f)) {
			err = multierr.Append(err, fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, f))
		}
	}
	if c.Gpu.Backend != "" && !slices.Contains(knownGpuBackends, c.Gpu.Backend) {
		err = multierr.Append(err, fmt.Errorf("%w: unknown gpu backend %q", ErrInvalidConfig, c.Gpu.Backend))
	}
	if c.Batch.Parallel < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: batch.parallel must be at least 1", ErrInvalidConfig))
	}
	return err
}
