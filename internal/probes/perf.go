package probes

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ALEYI17/InfraSight_bench/pkg/logutil"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

const (
	EventL1Miss       = "L1-dcache-load-misses"
	EventLLCMiss      = "LLC-load-misses"
	EventInstructions = "instructions"
)

var DefaultPerfEvents = []string{EventL1Miss, EventLLCMiss, EventInstructions}

// matches "instructions", "instructions:u" and "cpu_core/instructions/"
var perfEventRegex = regexp.MustCompile(`^(?:[\w-]+/)?(L1-dcache-load-misses|LLC-load-misses|instructions)/?(?::[a-zA-Z]+)?$`)

type PerfConfig struct {
	Path      string
	Events    []string
	StopGrace time.Duration
}

// PerfReader counts cache events for one process with `perf stat -p`.
// It degrades to an all-zero result when perf is missing or fails.
type PerfReader struct {
	cfg       PerfConfig
	available bool

	mu     sync.Mutex
	cmd    *exec.Cmd
	stderr bytes.Buffer
	waitCh chan error
}

func NewPerfReader(ctx context.Context, cfg PerfConfig, runner CommandRunner) *PerfReader {
	if cfg.Path == "" {
		cfg.Path = "perf"
	}
	if len(cfg.Events) == 0 {
		cfg.Events = DefaultPerfEvents
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = 2 * time.Second
	}
	if runner == nil {
		runner = ExecRunner{}
	}

	r := &PerfReader{cfg: cfg}
	if _, err := runner.Run(ctx, cfg.Path, "--version"); err != nil {
		logutil.GetLogger().Info("perf not available, cache metrics disabled", zap.String("path", cfg.Path), zap.Error(err))
		return r
	}
	r.available = true
	return r
}

func (r *PerfReader) Available() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.available
}

// Start attaches perf to pid. Canceling ctx interrupts perf the same way Stop
// does; the counters are still collected by Stop.
func (r *PerfReader) Start(ctx context.Context, pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.available {
		return nil
	}
	if r.cmd != nil {
		return errors.New("perf reader already started")
	}

	cmd := exec.CommandContext(ctx, r.cfg.Path, "stat",
		"-e", strings.Join(r.cfg.Events, ","),
		"-p", strconv.Itoa(pid))
	// a canceled run still gets its totals printed
	cmd.Cancel = func() error { return cmd.Process.Signal(unix.SIGINT) }
	cmd.WaitDelay = r.cfg.StopGrace
	r.stderr.Reset()
	cmd.Stderr = &r.stderr

	if err := cmd.Start(); err != nil {
		r.available = false
		return fmt.Errorf("start perf stat: %w", err)
	}

	r.cmd = cmd
	r.waitCh = make(chan error, 1)
	go func() {
		r.waitCh <- cmd.Wait()
	}()

	logutil.GetLogger().Debug("perf stat attached", zap.Int("pid", pid), zap.Int("perf_pid", cmd.Process.Pid))
	return nil
}

// Stop interrupts perf so it prints its totals, then parses them. A perf that
// ignores SIGINT past StopGrace is killed and reports zeros.
func (r *PerfReader) Stop() types.CacheCounters {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.available {
		return types.CacheCounters{}
	}
	if r.cmd == nil {
		return types.CacheCounters{Available: true}
	}

	logger := logutil.GetLogger()
	cmd := r.cmd
	r.cmd = nil

	if err := cmd.Process.Signal(unix.SIGINT); err != nil {
		logger.Debug("perf interrupt failed", zap.Error(err))
	}

	timer := time.NewTimer(r.cfg.StopGrace)
	defer timer.Stop()

	select {
	case err := <-r.waitCh:
		if err != nil {
			// perf exits non-zero when the target is already gone
			logger.Debug("perf stat exited", zap.Error(err))
		}
	case <-timer.C:
		logger.Warn("perf stat did not exit after SIGINT, killing", zap.Duration("grace", r.cfg.StopGrace))
		_ = cmd.Process.Kill()
		<-r.waitCh
	}

	counters := ParsePerfOutput(r.stderr.String())
	counters.Available = true
	return counters
}

// ParsePerfOutput extracts the cache counters from `perf stat` output and
// derives the hit ratios. Missing or "<not counted>" events read as zero.
func ParsePerfOutput(out string) types.CacheCounters {
	var c types.CacheCounters

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		for i, f := range fields {
			m := perfEventRegex.FindStringSubmatch(f)
			if m == nil {
				continue
			}
			if i == 0 {
				break
			}
			v := parseCount(fields[:i])
			switch m[1] {
			case EventL1Miss:
				c.L1Miss += v
			case EventLLCMiss:
				c.LLCMiss += v
			case EventInstructions:
				c.Instructions += v
			}
			break
		}
	}

	c.DeriveRatios()
	return c
}

// parseCount joins the tokens before the event name and keeps only digits,
// which absorbs locale thousands separators.
func parseCount(tokens []string) uint64 {
	var b strings.Builder
	for _, t := range tokens {
		if strings.HasPrefix(t, "<") {
			return 0
		}
		for _, r := range t {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
	}
	if b.Len() == 0 {
		return 0
	}
	v, err := strconv.ParseUint(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
