package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	httpserver "fxledger/internal/infrastructure/http"
	"fxledger/internal/infrastructure/worker"
)

type WorkerApp func(ctx context.Context) error

// InitAPI builds the HTTP handler on top of the wired services.
func InitAPI(ctx context.Context) (*App, http.Handler, func(), error) {
	app, cleanup, err := ProvideApp(ctx)
	if err != nil {
		return nil, nil, cleanup, fmt.Errorf("init app: %w", err)
	}
	srv := httpserver.NewServer(app.Rates, app.Sync, app.Invoices)
	srv.SetReadyCheck(app.Ready)
	return app, httpserver.NewRouter(srv, app.Config.CORSOrigins...), cleanup, nil
}

// InitWorkerApp builds the scheduled sync and reconcile runner.
func InitWorkerApp(ctx context.Context) (WorkerApp, func(), error) {
	app, cleanup, err := ProvideApp(ctx)
	if err != nil {
		return nil, cleanup, fmt.Errorf("init app: %w", err)
	}
	cfg := app.Config
	s, err := worker.NewScheduler(app.Sync, app.Invoices, cfg.SyncCron, cfg.Location(), app.Log)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	s.RunOnStart = cfg.SyncOnStart
	s.ReconcilePage = cfg.ReconcileLimit
	if cfg.SyncRetryMaxElapsed > 0 {
		s.RetryMaxElapsed = cfg.SyncRetryMaxElapsed
	}
	runner := func(ctx context.Context) error {
		s.Start(ctx)
		return nil
	}
	return runner, cleanup, nil
}
