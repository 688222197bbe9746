package application

import (
	"time"

	"fxledger/internal/domain"

	"github.com/shopspring/decimal"
)

// RatePrecision is the number of fractional digits kept for derived rates.
const RatePrecision int32 = 10

var one = decimal.NewFromInt(1)

// Normalizer turns bank quotes into a directed rate graph against Base.
// MajorPairs lists the foreign/foreign pairs that get cross-rates.
type Normalizer struct {
	Base       string
	MajorPairs []domain.Pair
}

func NewNormalizer(base string, majorPairs []domain.Pair) *Normalizer {
	return &Normalizer{Base: domain.NormalizeCode(base), MajorPairs: majorPairs}
}

// Normalize emits, for every usable quote, the selling-rate edge to the base
// currency and its inverse, then cross-rates for each major pair whose two
// currencies are both quoted. All edges share the first usable quote's date.
func (n *Normalizer) Normalize(quotes []domain.CurrencyQuote) []domain.ExchangeRate {
	selling := make(map[string]decimal.Decimal, len(quotes))
	var (
		out      []domain.ExchangeRate
		rateDate time.Time
	)
	for _, q := range quotes {
		code := domain.NormalizeCode(q.Code)
		if !q.Usable() || code == n.Base {
			continue
		}
		if _, dup := selling[code]; dup {
			continue
		}
		if rateDate.IsZero() {
			rateDate = domain.DateOf(q.PublishedDate)
		}
		selling[code] = q.Selling
		out = append(out,
			edge(code, n.Base, q.Selling, rateDate, domain.RateSourceDirectBank),
			edge(n.Base, code, one.DivRound(q.Selling, RatePrecision), rateDate, domain.RateSourceDerivedInverse),
		)
	}

	for _, p := range n.MajorPairs {
		a, b := p.From(), p.To()
		if a == n.Base || b == n.Base {
			continue
		}
		ra, okA := selling[a]
		rb, okB := selling[b]
		if !okA || !okB {
			continue
		}
		out = append(out,
			edge(a, b, ra.DivRound(rb, RatePrecision), rateDate, domain.RateSourceDerivedCross),
			edge(b, a, rb.DivRound(ra, RatePrecision), rateDate, domain.RateSourceDerivedCross),
		)
	}
	return out
}

func edge(from, to string, rate decimal.Decimal, date time.Time, src domain.RateSource) domain.ExchangeRate {
	return domain.ExchangeRate{From: from, To: to, Rate: rate, Date: date, Source: src}
}
