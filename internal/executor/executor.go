package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/ALEYI17/InfraSight_bench/pkg/logutil"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"go.uber.org/zap"
)

const (
	DefaultTimeout   = 300 * time.Second
	DefaultKillGrace = 2 * time.Second
)

var ErrLaunchFailed = errors.New("candidate launch failed")

// Spec describes one candidate invocation.
type Spec struct {
	Path      string
	Args      []string
	Dir       string
	Env       []string
	Timeout   time.Duration
	KillGrace time.Duration
	Markers   MarkerOptions
}

type Result struct {
	Outcome  types.Outcome
	ExitCode int
	Stdout   string
	Stderr   string
	Elapsed  time.Duration
	Markers  Markers
	Err      error
}

// Process is a launched candidate. Its pid is valid between Start and Wait.
type Process struct {
	spec    Spec
	cmd     *exec.Cmd
	parent  context.Context
	runCtx  context.Context
	cancel  context.CancelFunc
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	started time.Time
}

// Start launches the candidate in its own process group under a hard timeout.
// On timeout or ctx cancellation the whole group is killed.
func Start(ctx context.Context, spec Spec) (*Process, error) {
	if spec.Timeout <= 0 {
		spec.Timeout = DefaultTimeout
	}
	if spec.KillGrace <= 0 {
		spec.KillGrace = DefaultKillGrace
	}

	runCtx, cancel := context.WithTimeout(ctx, spec.Timeout)
	p := &Process{spec: spec, parent: ctx, runCtx: runCtx, cancel: cancel}

	cmd := exec.CommandContext(runCtx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = spec.Env
	}
	cmd.Stdout = &p.stdout
	cmd.Stderr = &p.stderr
	cmd.WaitDelay = spec.KillGrace
	configureProcessGroup(cmd)

	p.started = time.Now()
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %s: %w", ErrLaunchFailed, spec.Path, err)
	}
	p.cmd = cmd

	logutil.GetLogger().Debug("candidate started",
		zap.String("path", spec.Path),
		zap.Int("pid", cmd.Process.Pid),
		zap.Duration("timeout", spec.Timeout))
	return p, nil
}

func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Wait blocks until the candidate exits or is killed and classifies the outcome.
func (p *Process) Wait() Result {
	err := p.cmd.Wait()
	elapsed := time.Since(p.started)
	timedOut := errors.Is(p.runCtx.Err(), context.DeadlineExceeded) && p.parent.Err() == nil
	p.cancel()

	res := Result{
		ExitCode: p.cmd.ProcessState.ExitCode(),
		Stdout:   p.stdout.String(),
		Stderr:   p.stderr.String(),
		Elapsed:  elapsed,
	}
	res.Markers = ParseMarkers(res.Stdout, p.spec.Markers)

	switch {
	case err != nil && timedOut:
		res.Outcome = types.OutcomeTimedOut
		res.Err = fmt.Errorf("candidate exceeded timeout of %s", p.spec.Timeout)
	case err != nil && p.parent.Err() != nil:
		res.Outcome = types.OutcomeCanceled
		res.Err = p.parent.Err()
	case err == nil:
		res.Outcome = types.OutcomeSucceeded
	default:
		res.Outcome = types.OutcomeFailed
		res.Err = err
	}
	return res
}

// Run is Start followed by Wait. A launch failure is reported as a Result.
func Run(ctx context.Context, spec Spec) Result {
	p, err := Start(ctx, spec)
	if err != nil {
		return Result{Outcome: types.OutcomeLaunchFailed, ExitCode: -1, Err: err}
	}
	return p.Wait()
}
