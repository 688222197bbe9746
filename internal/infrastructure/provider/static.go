package provider

import (
	"context"
	"time"

	"fxledger/internal/application"
	"fxledger/internal/domain"

	"github.com/shopspring/decimal"
)

// Static serves a fixed quote list. Used for local runs and tests.
type Static struct {
	Quotes   []domain.CurrencyQuote
	Clock    application.Clock
	Location *time.Location
}

var _ application.RateSource = (*Static)(nil)

// NewStatic returns a source with a small set of plausible CNY quotes.
func NewStatic(loc *time.Location) *Static {
	q := func(code, name, selling string) domain.CurrencyQuote {
		s := decimal.RequireFromString(selling)
		return domain.CurrencyQuote{Code: code, Name: name, Selling: s, Buying: s, Middle: s}
	}
	return &Static{
		Location: loc,
		Quotes: []domain.CurrencyQuote{
			q("USD", "美元", "7.1352"),
			q("EUR", "欧元", "7.8687"),
			q("GBP", "英镑", "9.1006"),
			q("HKD", "港币", "0.9138"),
			q("JPY", "日元", "0.047236"),
		},
	}
}

// Fetch stamps quotes without a publish date with today's date.
func (s *Static) Fetch(context.Context) ([]domain.CurrencyQuote, error) {
	now := time.Now()
	if s.Clock != nil {
		now = s.Clock.Now()
	}
	if s.Location != nil {
		now = now.In(s.Location)
	}
	out := make([]domain.CurrencyQuote, len(s.Quotes))
	for i, q := range s.Quotes {
		if q.PublishedDate.IsZero() {
			q.PublishedDate = domain.DateOf(now)
			q.PublishedTime = now.Format(time.TimeOnly)
		}
		out[i] = q
	}
	return out, nil
}
