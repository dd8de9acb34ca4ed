package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ALEYI17/InfraSight_bench/pkg/logutil"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigch := make(chan os.Signal, 1)
		signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigch
		logutil.GetLogger().Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logutil.GetLogger().Error("Command failed", zap.Error(err))
		cancel()
		os.Exit(1)
	}
}
