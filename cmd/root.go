package main

import (
	"context"
	"errors"

	"github.com/ALEYI17/InfraSight_bench/internal/config"
	"github.com/ALEYI17/InfraSight_bench/internal/telemetry"
	"github.com/ALEYI17/InfraSight_bench/pkg/logutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errCandidateFailed = errors.New("candidate did not succeed")

type app struct {
	configPath string
	logLevel   string
	dev        bool

	cfg      *config.Config
	shutdown func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "infrasight-bench",
		Short:         "Run benchmark candidates under CPU, memory, GPU and cache monitoring",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close(cmd.Context())
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.dev, "dev", false, "human-friendly development logging")

	root.AddCommand(
		newRunCmd(a),
		newBatchCmd(a),
		newHwCmd(a),
		newHistoryCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.dev {
		cfg.Log.Development = true
	}
	if err := logutil.InitLogger(cfg.Log.Level, cfg.Log.Development); err != nil {
		return err
	}

	shutdown, err := telemetry.Init(cmd.Context(), cfg.Tracing, nil)
	if err != nil {
		logutil.GetLogger().Warn("tracing disabled", zap.Error(err))
		shutdown = func(context.Context) error { return nil }
	}

	a.cfg = cfg
	a.shutdown = shutdown
	return nil
}

func (a *app) close(ctx context.Context) error {
	logger := logutil.GetLogger()
	defer logger.Sync()

	if a.shutdown != nil {
		if err := a.shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	return nil
}
