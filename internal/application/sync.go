package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fxledger/internal/domain"

	"go.uber.org/zap"
)

// DefaultFetchTimeout bounds a single fetch of the rate source.
const DefaultFetchTimeout = 20 * time.Second

// SyncResult is the outcome of SyncRates. Failures are reported through
// Success/Message rather than an error.
type SyncResult struct {
	Success bool
	Count   int
	Quotes  []domain.CurrencyQuote
	Message string
}

type SyncService struct {
	source       RateSource
	store        RateStore
	normalizer   *Normalizer
	fetchTimeout time.Duration
	opts         options
}

func NewSyncService(source RateSource, store RateStore, normalizer *Normalizer, fetchTimeout time.Duration, opts ...Option) *SyncService {
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	return &SyncService{
		source:       source,
		store:        store,
		normalizer:   normalizer,
		fetchTimeout: fetchTimeout,
		opts:         buildOptions(opts),
	}
}

// PreviewRates fetches and parses the source without persisting anything.
func (s *SyncService) PreviewRates(ctx context.Context) ([]domain.CurrencyQuote, error) {
	return s.fetch(ctx)
}

// SyncRates fetches, normalizes and stores the current bank quotes.
func (s *SyncService) SyncRates(ctx context.Context) SyncResult {
	log := s.opts.log.With(zap.String("operation", "sync_rates"))
	log.Info("sync.start")

	quotes, err := s.fetch(ctx)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrParseFailure):
			log.Error("sync.parse_failed", zap.Error(err))
		default:
			log.Error("sync.source_unavailable", zap.Error(err))
		}
		return SyncResult{Message: err.Error()}
	}
	if len(quotes) == 0 {
		log.Warn("sync.no_quotes")
		return SyncResult{Message: "no rates fetched from source"}
	}
	log.Info("sync.fetched", zap.Int("quotes", len(quotes)))

	edges := s.normalizer.Normalize(quotes)
	if len(edges) == 0 {
		log.Warn("sync.no_usable_quotes", zap.Int("quotes", len(quotes)))
		return SyncResult{Quotes: quotes, Message: "no usable rates in source data"}
	}

	n, err := s.store.Upsert(ctx, edges)
	if err != nil {
		log.Error("sync.persist_failed", zap.Int("written", n), zap.Int("edges", len(edges)), zap.Error(err))
		return SyncResult{Count: n, Quotes: quotes, Message: fmt.Sprintf("database error: %v", err)}
	}
	log.Info("sync.done", zap.Int("written", n), zap.Int("edges", len(edges)))
	return SyncResult{
		Success: true,
		Count:   n,
		Quotes:  quotes,
		Message: fmt.Sprintf("successfully synced %d exchange rates", n),
	}
}

func (s *SyncService) fetch(ctx context.Context) ([]domain.CurrencyQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	return s.source.Fetch(ctx)
}
