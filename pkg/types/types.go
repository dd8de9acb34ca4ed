package types

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidWindow = errors.New("invalid phase window")

type Outcome string

const (
	OutcomeSucceeded     Outcome = "succeeded"
	OutcomeFailed        Outcome = "failed"
	OutcomeTimedOut      Outcome = "timed-out"
	OutcomeLaunchFailed  Outcome = "launch-failed"
	OutcomeCompileFailed Outcome = "failed-to-compile"
	OutcomeCanceled      Outcome = "canceled"
)

type CtxSwitches struct {
	Voluntary   int64
	Involuntary int64
}

type GpuMem struct {
	Used  uint64
	Total uint64
}

// Sample is one timestamped snapshot of host, process-tree and GPU counters.
// Timestamp is in seconds since the Unix epoch. HasCPU and HasProcess report
// whether the CPU and process-tree fields hold a real reading; a zero value
// in a field without its flag means "not read", not "idle".
type Sample struct {
	Timestamp   float64
	HasCPU      bool
	CPUTotal    float64
	CPUPerCore  []float64
	HasProcess  bool
	MemBytes    uint64
	CtxSwitches CtxSwitches
	GpuUsage    []float64
	GpuMem      []GpuMem
}

// PhaseWindow is the self-reported interval of the candidate's measured core, in seconds.
type PhaseWindow struct {
	Start float64
	End   float64
}

func (w PhaseWindow) Validate() error {
	if math.IsNaN(w.Start) || math.IsNaN(w.End) {
		return fmt.Errorf("%w: NaN bound", ErrInvalidWindow)
	}
	if w.Start > w.End {
		return fmt.Errorf("%w: start %.3f after end %.3f", ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

func (w PhaseWindow) Contains(ts float64) bool {
	return w.Start <= ts && ts <= w.End
}

func (w PhaseWindow) DurationMs() int64 {
	return int64(math.Round((w.End - w.Start) * 1000))
}

type CacheCounters struct {
	L1Miss       uint64  `json:"l1_miss" yaml:"l1_miss"`
	LLCMiss      uint64  `json:"llc_miss" yaml:"llc_miss"`
	Instructions uint64  `json:"instructions" yaml:"instructions"`
	L1HitRatio   float64 `json:"l1_hit_ratio" yaml:"l1_hit_ratio"`
	LLCHitRatio  float64 `json:"llc_hit_ratio" yaml:"llc_hit_ratio"`
	Available    bool    `json:"available" yaml:"available"`
}

// DeriveRatios fills the hit ratios from the raw counters. A ratio stays zero
// when its denominator is zero.
func (c *CacheCounters) DeriveRatios() {
	c.L1HitRatio = 0
	c.LLCHitRatio = 0
	if c.Instructions > 0 {
		c.L1HitRatio = math.Max(0, 1-float64(c.L1Miss)/float64(c.Instructions))
	}
	if c.L1Miss > 0 {
		c.LLCHitRatio = math.Max(0, 1-float64(c.LLCMiss)/float64(c.L1Miss))
	}
}
