package config

import "time"

type Config struct {
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
	Sampler     SamplerConfig     `mapstructure:"sampler" yaml:"sampler"`
	Runner      RunnerConfig      `mapstructure:"runner" yaml:"runner"`
	Perf        PerfConfig        `mapstructure:"perf" yaml:"perf"`
	Gpu         GpuConfig         `mapstructure:"gpu" yaml:"gpu"`
	Output      OutputConfig      `mapstructure:"output" yaml:"output"`
	Prometheus  PrometheusConfig  `mapstructure:"prometheus" yaml:"prometheus"`
	Influx      InfluxConfig      `mapstructure:"influx" yaml:"influx"`
	ObjectStore ObjectStoreConfig `mapstructure:"object_store" yaml:"object_store"`
	History     HistoryConfig     `mapstructure:"history" yaml:"history"`
	Tracing     TracingConfig     `mapstructure:"tracing" yaml:"tracing"`
	Batch       BatchConfig       `mapstructure:"batch" yaml:"batch"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

type SamplerConfig struct {
	Interval  time.Duration `mapstructure:"interval" yaml:"interval"`
	StopGrace time.Duration `mapstructure:"stop_grace" yaml:"stop_grace"`
}

type RunnerConfig struct {
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	KillGrace     time.Duration `mapstructure:"kill_grace" yaml:"kill_grace"`
	MarkerTag     string        `mapstructure:"marker_tag" yaml:"marker_tag"`
	SuccessTokens []string      `mapstructure:"success_tokens" yaml:"success_tokens"`
	FailureTokens []string      `mapstructure:"failure_tokens" yaml:"failure_tokens"`
}

type PerfConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	Path      string        `mapstructure:"path" yaml:"path"`
	Events    []string      `mapstructure:"events" yaml:"events"`
	StopGrace time.Duration `mapstructure:"stop_grace" yaml:"stop_grace"`
}

type GpuConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Backend string `mapstructure:"backend" yaml:"backend"`
	SmiPath string `mapstructure:"smi_path" yaml:"smi_path"`
}

type OutputConfig struct {
	Dir     string   `mapstructure:"dir" yaml:"dir"`
	Formats []string `mapstructure:"formats" yaml:"formats"`
	LogFile string   `mapstructure:"log_file" yaml:"log_file"`
}

// PrometheusConfig enables the textfile-collector sink when Textfile is set.
type PrometheusConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// InfluxConfig enables the InfluxDB sink when URL is set.
type InfluxConfig struct {
	URL    string `mapstructure:"url" yaml:"url"`
	Token  string `mapstructure:"token" yaml:"token"`
	Org    string `mapstructure:"org" yaml:"org"`
	Bucket string `mapstructure:"bucket" yaml:"bucket"`
}

// ObjectStoreConfig enables the S3-compatible upload sink when Endpoint is set.
type ObjectStoreConfig struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
}

// HistoryConfig enables the run history store when Path is set.
type HistoryConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
}

type BatchConfig struct {
	Parallel int `mapstructure:"parallel" yaml:"parallel"`
}
