package sink

import (
	"context"
	"fmt"

	"github.com/ALEYI17/InfraSight_bench/internal/telemetry"
	"github.com/ALEYI17/InfraSight_bench/pkg/logutil"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Sink persists or exports a finished report.
type Sink interface {
	Name() string
	Send(ctx context.Context, rep *types.Report) error
	Close() error
}

// Dispatcher fans a report out to every configured sink. One failing sink
// does not stop the others.
type Dispatcher struct {
	sinks []Sink
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks}
}

func (d *Dispatcher) Sinks() []Sink {
	return d.sinks
}

func (d *Dispatcher) Send(ctx context.Context, rep *types.Report) error {
	logger := logutil.GetLogger()

	var errs error
	for _, s := range d.sinks {
		spanCtx, span := telemetry.StartSpan(ctx, "bench.sink", attribute.String("sink", s.Name()))
		err := s.Send(spanCtx, rep)
		if err != nil {
			span.RecordError(err)
			logger.Error("Error from sink", zap.String("sink", s.Name()), zap.String("run_id", rep.RunID), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
		span.End()
	}
	return errs
}

func (d *Dispatcher) Close() error {
	var errs error
	for _, s := range d.sinks {
		errs = multierr.Append(errs, s.Close())
	}
	return errs
}
