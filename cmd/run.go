package main

import (
	"fmt"
	"time"

	"github.com/ALEYI17/InfraSight_bench/internal/collector"
	"github.com/ALEYI17/InfraSight_bench/internal/report"
	"github.com/ALEYI17/InfraSight_bench/internal/sink"
	"github.com/ALEYI17/InfraSight_bench/pkg/logutil"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type runFlags struct {
	label    string
	taskType string
	input    string
	output   string
	dir      string
	timeout  time.Duration
	interval time.Duration
	outDir   string
	formats  []string
	noPerf   bool
	noGpu    bool
}

// apply copies explicitly set flags over the loaded configuration.
func (f *runFlags) apply(cmd *cobra.Command, a *app) {
	cfg := a.cfg
	if cmd.Flags().Changed("interval") {
		cfg.Sampler.Interval = f.interval
	}
	if cmd.Flags().Changed("out-dir") {
		cfg.Output.Dir = f.outDir
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Formats = f.formats
	}
	if f.noPerf {
		cfg.Perf.Enabled = false
	}
	if f.noGpu {
		cfg.Gpu.Enabled = false
	}
}

func addCollectorFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().DurationVar(&f.interval, "interval", 0, "sampling interval (default from config, 100ms)")
	cmd.Flags().StringVar(&f.outDir, "out-dir", "", "directory for report files")
	cmd.Flags().StringSliceVar(&f.formats, "format", nil, "report formats: json, yaml")
	cmd.Flags().BoolVar(&f.noPerf, "no-perf", false, "disable perf cache counters")
	cmd.Flags().BoolVar(&f.noGpu, "no-gpu", false, "disable GPU sampling")
}

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [flags] -- <binary> [args...]",
		Short: "Benchmark a single candidate binary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.apply(cmd, a)
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			logger := logutil.GetLogger()

			dispatcher, err := sink.FromConfig(a.cfg)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := dispatcher.Close(); cerr != nil {
					logger.Warn("closing sinks", zap.Error(cerr))
				}
			}()

			job := collector.Job{
				Label:    f.label,
				TaskType: f.taskType,
				Binary:   args[0],
				Input:    f.input,
				Output:   f.output,
				Args:     args[1:],
				Dir:      f.dir,
				Timeout:  f.timeout,
			}

			bench := collector.NewBench(a.cfg)
			run, runErr := bench.Run(cmd.Context(), job)
			if run == nil {
				return runErr
			}

			sendErr := dispatcher.Send(cmd.Context(), run.Report)
			fmt.Fprintln(cmd.OutOrStdout(), report.Summary(run.Report))

			err = multierr.Combine(runErr, sendErr)
			if err == nil && run.Report.Outcome != types.OutcomeSucceeded {
				err = fmt.Errorf("%w: %s", errCandidateFailed, run.Report.Outcome)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&f.label, "label", "l", "", "label identifying the candidate (team, build)")
	cmd.Flags().StringVarP(&f.taskType, "task", "t", "bfs", "task type the candidate implements")
	cmd.Flags().StringVar(&f.input, "input", "", "input file passed as the first argument")
	cmd.Flags().StringVar(&f.output, "output", "", "output file passed as the second argument")
	cmd.Flags().StringVar(&f.dir, "dir", "", "working directory of the candidate")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "hard timeout (default from config, 300s)")
	addCollectorFlags(cmd, f)
	return cmd
}
