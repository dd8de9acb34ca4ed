package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/ALEYI17/InfraSight_bench/internal/collector"
	"github.com/ALEYI17/InfraSight_bench/internal/report"
	"github.com/ALEYI17/InfraSight_bench/internal/sink"
	"github.com/ALEYI17/InfraSight_bench/pkg/logutil"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Manifest lists the candidates of a batch run.
type Manifest struct {
	Jobs []collector.Job `yaml:"jobs"`
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	for i, j := range m.Jobs {
		if j.Binary == "" && j.CompileError == "" {
			return nil, fmt.Errorf("manifest %s: job %d (%s) has no binary", path, i, j.Label)
		}
		if j.TaskType == "" {
			m.Jobs[i].TaskType = "bfs"
		}
	}
	return &m, nil
}

func newBatchCmd(a *app) *cobra.Command {
	f := &runFlags{}
	var parallel int

	cmd := &cobra.Command{
		Use:   "batch <manifest.yaml>",
		Short: "Benchmark every candidate listed in a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.apply(cmd, a)
			if cmd.Flags().Changed("parallel") {
				a.cfg.Batch.Parallel = parallel
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			logger := logutil.GetLogger()

			manifest, err := loadManifest(args[0])
			if err != nil {
				return err
			}

			dispatcher, err := sink.FromConfig(a.cfg)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := dispatcher.Close(); cerr != nil {
					logger.Warn("closing sinks", zap.Error(cerr))
				}
			}()

			bench := collector.NewBench(a.cfg)
			reports := make([]*types.Report, len(manifest.Jobs))

			var mu sync.Mutex
			var errs error

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(a.cfg.Batch.Parallel)
			for i, job := range manifest.Jobs {
				g.Go(func() error {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					logger.Info("Running job", zap.Int("index", i), zap.String("label", job.Label), zap.String("task_type", job.TaskType))

					run, err := bench.Run(ctx, job)
					if run != nil {
						reports[i] = run.Report
						err = multierr.Append(err, dispatcher.Send(ctx, run.Report))
					}
					if err != nil {
						mu.Lock()
						errs = multierr.Append(errs, fmt.Errorf("job %d (%s): %w", i, job.Label, err))
						mu.Unlock()
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				errs = multierr.Append(errs, err)
			}

			succeeded := 0
			for _, rep := range reports {
				if rep == nil {
					continue
				}
				fmt.Fprint(cmd.OutOrStdout(), report.LogLine(rep))
				if rep.Outcome == types.OutcomeSucceeded {
					succeeded++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d/%d candidates succeeded\n", succeeded, len(manifest.Jobs))
			return errs
		},
	}

	cmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "number of candidates benchmarked at once")
	addCollectorFlags(cmd, f)
	return cmd
}
