package application

import (
	"context"
	"fmt"
	"time"

	"fxledger/internal/domain"

	"github.com/shopspring/decimal"
)

// RatesService exposes rate queries and the accountant-facing manual entry.
type RatesService struct {
	store  RateStore
	lookup RateResolver
	opts   options
}

func NewRatesService(store RateStore, lookup RateResolver, opts ...Option) *RatesService {
	return &RatesService{store: store, lookup: lookup, opts: buildOptions(opts)}
}

// ManualRate is an operator-entered rate. A zero Date means today.
type ManualRate struct {
	From string
	To   string
	Rate decimal.Decimal
	Date time.Time
}

// GetRate previews a conversion rate; ok=false when none is known.
func (s *RatesService) GetRate(ctx context.Context, from, to string, date time.Time) (Resolution, bool, error) {
	return s.lookup.RateFor(ctx, from, to, date)
}

func (s *RatesService) Currencies() []domain.Currency { return domain.SupportedCurrencies }

func (s *RatesService) ListRates(ctx context.Context, f RateFilter) ([]domain.ExchangeRate, error) {
	f.From, f.To = domain.NormalizeCode(f.From), domain.NormalizeCode(f.To)
	return s.store.List(ctx, f)
}

func (s *RatesService) SaveManualRate(ctx context.Context, in ManualRate) (domain.ExchangeRate, error) {
	out, err := s.SaveManualRates(ctx, []ManualRate{in})
	if err != nil {
		return domain.ExchangeRate{}, err
	}
	return out[0], nil
}

// SaveManualRates validates every entry before writing any of them.
func (s *RatesService) SaveManualRates(ctx context.Context, in []ManualRate) ([]domain.ExchangeRate, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: no rates given", ErrBadRequest)
	}
	edges := make([]domain.ExchangeRate, 0, len(in))
	for i, m := range in {
		date := domain.DateOf(m.Date)
		if m.Date.IsZero() {
			date = s.opts.today()
		}
		e := domain.ExchangeRate{
			From:   domain.NormalizeCode(m.From),
			To:     domain.NormalizeCode(m.To),
			Rate:   m.Rate,
			Date:   date,
			Source: domain.RateSourceManual,
		}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w: rate %d: %w", ErrBadRequest, i, err)
		}
		edges = append(edges, e)
	}
	if _, err := s.store.Upsert(ctx, edges); err != nil {
		return nil, err
	}
	out := make([]domain.ExchangeRate, 0, len(edges))
	for _, e := range edges {
		saved, err := s.store.FindExact(ctx, e.From, e.To, e.Date)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, nil
}

func (s *RatesService) DeleteRate(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
