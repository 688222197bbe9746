package main

import (
	"context"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"fxledger/internal/bootstrap"
	"fxledger/internal/infrastructure/logx"

	"go.uber.org/zap"
)

func main() {
	log := logx.L()
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, cleanup, err := bootstrap.InitWorkerApp(ctx)
	if err != nil {
		log.Fatal("init worker", zap.Error(err))
	}
	defer cleanup()

	if err := run(ctx); err != nil {
		log.Error("worker exited", zap.Error(err))
	}
}
