package timeserie

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ALEYI17/InfraSight_bench/pkg/logutil"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"go.uber.org/zap"
)

const (
	DefaultInterval  = 100 * time.Millisecond
	DefaultStopGrace = 2 * time.Second
)

var ErrAlreadyStarted = errors.New("sampler already started")

type Config struct {
	Interval  time.Duration
	StopGrace time.Duration
}

// Sampler polls host, process-tree and GPU counters on a fixed interval into
// its own SampleLog. A Sampler serves exactly one monitoring session.
type Sampler struct {
	cfg  Config
	host types.HostReader
	gpu  types.GpuQuerier
	log  *SampleLog
	now  func() time.Time
	tick func(time.Duration) (<-chan time.Time, func())

	pid      atomic.Int32
	started  atomic.Bool
	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewSampler(cfg Config, host types.HostReader, gpu types.GpuQuerier) *Sampler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = DefaultStopGrace
	}
	return &Sampler{
		cfg:  cfg,
		host: host,
		gpu:  gpu,
		log:  NewSampleLog(),
		now:  time.Now,
		tick: newTicker,
		done: make(chan struct{}),
	}
}

func newTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Attach sets the root of the monitored process tree. Samples taken before
// Attach carry no process fields.
func (s *Sampler) Attach(pid int) {
	s.pid.Store(int32(pid))
}

func (s *Sampler) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	s.log.Reset()

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go s.run(loopCtx)
	return nil
}

func (s *Sampler) run(ctx context.Context) {
	defer close(s.done)

	ticks, stop := s.tick(s.cfg.Interval)
	defer stop()

	s.collect(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			s.collect(ctx)
		}
	}
}

func (s *Sampler) collect(ctx context.Context) {
	sample := readSample(ctx, s.now(), s.host, s.gpu, s.pid.Load())
	if ctx.Err() != nil {
		return
	}
	s.log.Append(sample)
}

// Stop signals the loop and waits up to StopGrace for it to exit. The log is
// frozen either way, so a late loop iteration cannot add samples.
func (s *Sampler) Stop() []types.Sample {
	if !s.started.Load() {
		return nil
	}

	s.stopOnce.Do(func() {
		s.cancel()

		timer := time.NewTimer(s.cfg.StopGrace)
		defer timer.Stop()

		select {
		case <-s.done:
		case <-timer.C:
			logutil.GetLogger().Warn("sampler loop did not exit within grace period",
				zap.Duration("grace", s.cfg.StopGrace))
		}
	})

	return s.log.Freeze()
}
