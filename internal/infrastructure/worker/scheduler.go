package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fxledger/internal/application"

	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Syncer interface {
	SyncRates(ctx context.Context) application.SyncResult
}

type Reconciler interface {
	ReconcileUnresolved(ctx context.Context, limit int) (int, error)
}

var _ application.Worker = (*Scheduler)(nil)

var specParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler triggers rate syncs on a cron schedule, retrying a failed sync
// with exponential backoff, then re-binds invoices that were waiting for a rate.
type Scheduler struct {
	Sync            Syncer
	Reconcile       Reconciler
	Spec            string
	Location        *time.Location
	RetryMaxElapsed time.Duration
	ReconcilePage   int
	RunOnStart      bool
	Log             *zap.Logger

	newBackOff func() backoff.BackOff
}

func NewScheduler(sync Syncer, reconcile Reconciler, spec string, loc *time.Location, log *zap.Logger) (*Scheduler, error) {
	if _, err := specParser.Parse(spec); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		Sync:            sync,
		Reconcile:       reconcile,
		Spec:            spec,
		Location:        loc,
		RetryMaxElapsed: 5 * time.Minute,
		Log:             log,
	}, nil
}

func (s *Scheduler) Start(ctx context.Context) {
	log := s.Log.With(zap.String("worker", "scheduler"))
	c := cron.New(
		cron.WithParser(specParser),
		cron.WithLocation(s.Location),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(zap.NewStdLog(log)))),
	)
	id, err := c.AddFunc(s.Spec, func() { _ = s.RunOnce(ctx) })
	if err != nil {
		log.Error("scheduler.bad_spec", zap.String("spec", s.Spec), zap.Error(err))
		return
	}
	c.Start()
	log.Info("scheduler.started", zap.String("spec", s.Spec), zap.String("tz", s.Location.String()))
	if s.RunOnStart {
		// the wrapped job shares the skip-if-running guard with scheduled runs
		go c.Entry(id).WrappedJob.Run()
	}

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info("scheduler.stopped")
}

// RunOnce syncs with retry and then reconciles unresolved invoices. Reconcile
// runs even when the sync gave up, since manual rates may have arrived meanwhile.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	log := s.Log.With(zap.String("worker", "scheduler"))
	attempt := 0
	op := func() error {
		attempt++
		res := s.Sync.SyncRates(ctx)
		if !res.Success {
			return errors.New(res.Message)
		}
		log.Info("scheduler.synced", zap.Int("count", res.Count), zap.Int("attempt", attempt))
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("scheduler.sync_retry", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
	}
	syncErr := backoff.RetryNotify(op, backoff.WithContext(s.backOff(), ctx), notify)
	if syncErr != nil {
		log.Error("scheduler.sync_gave_up", zap.Int("attempts", attempt), zap.Error(syncErr))
	}

	if s.Reconcile == nil || ctx.Err() != nil {
		return syncErr
	}
	n, err := s.Reconcile.ReconcileUnresolved(ctx, s.ReconcilePage)
	if err != nil {
		log.Error("scheduler.reconcile_failed", zap.Error(err))
		return errors.Join(syncErr, err)
	}
	if n > 0 {
		log.Info("scheduler.reconciled", zap.Int("invoices", n))
	}
	return syncErr
}

func (s *Scheduler) backOff() backoff.BackOff {
	if s.newBackOff != nil {
		return s.newBackOff()
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 5 * time.Second
	exp.MaxInterval = time.Minute
	exp.MaxElapsedTime = s.RetryMaxElapsed
	return exp
}
