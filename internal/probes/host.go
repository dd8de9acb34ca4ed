package probes

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
)

// minCPUWindow is one kernel clock tick; CPU time deltas over a shorter span
// are quantisation noise.
const minCPUWindow = 10 * time.Millisecond

var errCPUBaseline = errors.New("cpu times have not advanced since the last read")

// GopsutilHost reads CPU utilisation and process-tree counters through
// gopsutil. CPU percentages are computed from deltas against the previous
// call, so every instance keeps its own baseline.
type GopsutilHost struct {
	mu       sync.Mutex
	now      func() time.Time
	prevAt   time.Time
	prevAll  cpu.TimesStat
	prevCore []cpu.TimesStat
}

func NewGopsutilHost() *GopsutilHost {
	h := &GopsutilHost{now: time.Now}
	h.prevAt = h.now()
	if all, err := cpu.Times(false); err == nil && len(all) > 0 {
		h.prevAll = all[0]
	}
	if cores, err := cpu.Times(true); err == nil {
		h.prevCore = cores
	}
	return h
}

// CPUPercent returns busy percentages since the previous successful call. A
// call less than one clock tick after the baseline, or one where the CPU
// times did not advance, returns errCPUBaseline and keeps the old baseline.
func (h *GopsutilHost) CPUPercent() (float64, []float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	if now.Sub(h.prevAt) < minCPUWindow {
		return 0, nil, errCPUBaseline
	}

	all, err := cpu.Times(false)
	if err != nil {
		return 0, nil, err
	}
	if len(all) == 0 {
		return 0, nil, errors.New("no cpu times reported")
	}
	cores, err := cpu.Times(true)
	if err != nil {
		return 0, nil, err
	}

	total, ok := busyPercent(h.prevAll, all[0])
	if !ok {
		return 0, nil, errCPUBaseline
	}
	perCore := make([]float64, len(cores))
	for i, c := range cores {
		if i < len(h.prevCore) {
			perCore[i], _ = busyPercent(h.prevCore[i], c)
		}
	}

	h.prevAt = now
	h.prevAll = all[0]
	h.prevCore = cores
	return total, perCore, nil
}

func splitTimes(t cpu.TimesStat) (busy, total float64) {
	idle := t.Idle + t.Iowait
	busy = t.User + t.System + t.Nice + t.Irq + t.Softirq + t.Steal
	return busy, busy + idle
}

// busyPercent reports false when no CPU time elapsed between the two readings.
func busyPercent(prev, cur cpu.TimesStat) (float64, bool) {
	pBusy, pTotal := splitTimes(prev)
	cBusy, cTotal := splitTimes(cur)
	dTotal := cTotal - pTotal
	if dTotal <= 0 {
		return 0, false
	}
	pct := (cBusy - pBusy) / dTotal * 100
	return min(max(pct, 0), 100), true
}

// ErrProcessExited is returned for a root that has exited but not been reaped.
var ErrProcessExited = errors.New("process has exited")

func isZombie(p *process.Process) bool {
	status, err := p.Status()
	return err == nil && slices.Contains(status, process.Zombie)
}

// ProcessTree sums RSS and context switches over pid and all of its live
// descendants. Descendants that exit mid-walk are skipped, as are zombies,
// whose counters read as zero.
func (h *GopsutilHost) ProcessTree(pid int32) (types.ProcessTreeStat, error) {
	root, err := process.NewProcess(pid)
	if err != nil {
		return types.ProcessTreeStat{}, err
	}

	var stat types.ProcessTreeStat
	seen := map[int32]bool{}
	queue := []*process.Process{root}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if seen[p.Pid] {
			continue
		}
		seen[p.Pid] = true

		if isZombie(p) {
			if p.Pid == pid {
				return types.ProcessTreeStat{}, ErrProcessExited
			}
			continue
		}

		mem, err := p.MemoryInfo()
		if err != nil {
			if p.Pid == pid {
				return types.ProcessTreeStat{}, err
			}
			continue
		}
		stat.RSS += mem.RSS
		stat.Processes++

		if cs, err := p.NumCtxSwitches(); err == nil {
			stat.CtxSwitches.Voluntary += cs.Voluntary
			stat.CtxSwitches.Involuntary += cs.Involuntary
		}

		children, err := p.Children()
		if err != nil {
			continue
		}
		queue = append(queue, children...)
	}

	return stat, nil
}
