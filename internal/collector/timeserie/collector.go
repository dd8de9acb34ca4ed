package timeserie

import (
	"sync"

	"github.com/ALEYI17/InfraSight_bench/pkg/types"
)

// SampleLog is the append-only sample buffer of one monitoring session. The
// sampler loop is the only writer; Freeze hands the samples to the reader and
// rejects any later append.
type SampleLog struct {
	mu      sync.Mutex
	samples []types.Sample
	frozen  bool
}

func NewSampleLog() *SampleLog {
	return &SampleLog{}
}

func (l *SampleLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples = nil
	l.frozen = false
}

func (l *SampleLog) Append(s types.Sample) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frozen {
		return false
	}
	l.samples = append(l.samples, s)
	return true
}

func (l *SampleLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.samples)
}

// Freeze stops the log from growing and returns its samples.
func (l *SampleLog) Freeze() []types.Sample {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frozen = true
	out := make([]types.Sample, len(l.samples))
	copy(out, l.samples)
	return out
}
