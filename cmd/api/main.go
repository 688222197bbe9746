package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"fxledger/internal/bootstrap"
	"fxledger/internal/infrastructure/logx"

	"go.uber.org/zap"
)

func main() {
	logger := logx.L()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, handler, cleanup, err := bootstrap.InitAPI(ctx)
	if err != nil {
		logger.Fatal("bootstrap api", zap.Error(err))
	}
	defer cleanup()

	addr := ":" + app.Config.Port
	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		logger.Info("server started",
			zap.String("addr", addr),
			zap.String("storage", app.Config.Storage),
			zap.String("provider", app.Config.Provider),
			zap.String("base", app.Config.BaseCurrency),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen", zap.Error(err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, shCancel := context.WithTimeout(context.Background(), app.Config.ShutdownTimeout)
	defer shCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
