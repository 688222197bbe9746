package application

import (
	"context"
	"errors"
	"time"

	"fxledger/internal/domain"

	"github.com/shopspring/decimal"
)

// Resolution is a rate answer together with where it came from.
type Resolution struct {
	Rate   decimal.Decimal
	Date   time.Time
	Source domain.RateSource
	// Exact is false when the rate is the latest edge before the requested date.
	Exact bool
}

// RateResolver answers conversion-rate questions; ok=false means no rate is known.
type RateResolver interface {
	RateFor(ctx context.Context, from, to string, date time.Time) (Resolution, bool, error)
}

type RateLookup struct {
	store RateStore
	opts  options
}

var _ RateResolver = (*RateLookup)(nil)

func NewRateLookup(store RateStore, opts ...Option) *RateLookup {
	return &RateLookup{store: store, opts: buildOptions(opts)}
}

// RateFor resolves from→to on date (zero date means today): exact date first,
// then the most recent edge on or before it. Absence is not an error.
func (l *RateLookup) RateFor(ctx context.Context, from, to string, date time.Time) (Resolution, bool, error) {
	from, to = domain.NormalizeCode(from), domain.NormalizeCode(to)
	if date.IsZero() {
		date = l.opts.today()
	} else {
		date = domain.DateOf(date)
	}
	if from == to {
		return Resolution{Rate: one, Date: date, Exact: true}, true, nil
	}

	e, err := l.store.FindExact(ctx, from, to, date)
	switch {
	case err == nil:
		return Resolution{Rate: e.Rate, Date: e.Date, Source: e.Source, Exact: true}, true, nil
	case !errors.Is(err, domain.ErrNotFound):
		return Resolution{}, false, err
	}

	e, err = l.store.FindLatestOnOrBefore(ctx, from, to, date)
	switch {
	case err == nil:
		return Resolution{Rate: e.Rate, Date: e.Date, Source: e.Source, Exact: false}, true, nil
	case errors.Is(err, domain.ErrNotFound):
		return Resolution{}, false, nil
	default:
		return Resolution{}, false, err
	}
}
