package sink

import (
	"github.com/ALEYI17/InfraSight_bench/internal/config"
	"github.com/ALEYI17/InfraSight_bench/internal/store"
	"github.com/ALEYI17/InfraSight_bench/pkg/logutil"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// FromConfig builds the dispatcher for every sink the configuration enables.
// The report file sink is always present.
func FromConfig(cfg *config.Config) (*Dispatcher, error) {
	logger := logutil.GetLogger()

	sinks := []Sink{NewFile(cfg.Output.Dir, cfg.Output.Formats)}

	if cfg.Output.LogFile != "" {
		sinks = append(sinks, NewLogFile(cfg.Output.LogFile))
	}
	if cfg.Prometheus.Textfile != "" {
		sinks = append(sinks, NewPrometheusTextfile(cfg.Prometheus.Textfile))
	}
	if cfg.Influx.URL != "" {
		sinks = append(sinks, NewInflux(cfg.Influx))
	}
	if cfg.ObjectStore.Endpoint != "" {
		o, err := NewObjectStore(cfg.ObjectStore)
		if err != nil {
			return nil, multierr.Append(err, NewDispatcher(sinks...).Close())
		}
		sinks = append(sinks, o)
	}
	if cfg.History.Path != "" {
		h, err := store.Open(cfg.History.Path)
		if err != nil {
			return nil, multierr.Append(err, NewDispatcher(sinks...).Close())
		}
		sinks = append(sinks, NewHistory(h))
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	logger.Debug("report sinks configured", zap.Strings("sinks", names))
	return NewDispatcher(sinks...), nil
}
