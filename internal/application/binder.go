package application

import (
	"context"
	"fmt"

	"fxledger/internal/domain"

	"github.com/shopspring/decimal"
)

// AmountPrecision is the rounding applied to base-currency amounts.
const AmountPrecision int32 = 2

// Binder attaches the settlement rate and base-currency amount to invoices.
type Binder struct {
	rates RateResolver
	opts  options
}

func NewBinder(rates RateResolver, opts ...Option) *Binder {
	return &Binder{rates: rates, opts: buildOptions(opts)}
}

// BindSettlementRate recomputes inv.Settlement from scratch. The first matching
// rule wins: same currency, manual rate, exact-date rate, fallback rate, unresolved.
// Only storage failures return an error.
func (b *Binder) BindSettlementRate(ctx context.Context, inv domain.Invoice, baseCurrency string, manualRate *decimal.Decimal) (domain.Invoice, error) {
	base := domain.NormalizeCode(baseCurrency)
	cur := domain.NormalizeCode(inv.Currency)
	rateDate := domain.DateOf(inv.IssueDate)
	if inv.IssueDate.IsZero() {
		rateDate = b.opts.today()
	}
	s := domain.Settlement{RateDate: rateDate, BaseCurrency: base}

	switch {
	case cur == base:
		s.Rate = ptr(one)
		s.Provenance = domain.ProvenanceSameCurrency
		s.BaseAmount = ptr(inv.Amount.Round(AmountPrecision))
	case manualRate != nil:
		if !manualRate.IsPositive() {
			return inv, fmt.Errorf("%w: manual rate must be positive", domain.ErrInvalidRate)
		}
		s.Rate = ptr(*manualRate)
		s.Provenance = domain.ProvenanceManual
		s.BaseAmount = ptr(inv.Amount.Mul(*manualRate).Round(AmountPrecision))
	default:
		res, ok, err := b.rates.RateFor(ctx, cur, base, rateDate)
		if err != nil {
			return inv, fmt.Errorf("resolve %s/%s rate: %w", cur, base, err)
		}
		switch {
		case !ok:
			s.Provenance = domain.ProvenanceUnresolved
		case res.Exact:
			s.Rate = ptr(res.Rate)
			s.Provenance = domain.Provenance(res.Source)
			s.BaseAmount = ptr(inv.Amount.Mul(res.Rate).Round(AmountPrecision))
		default:
			s.Rate = ptr(res.Rate)
			s.Provenance = domain.ProvenanceFallback
			s.BaseAmount = ptr(inv.Amount.Mul(res.Rate).Round(AmountPrecision))
		}
	}
	inv.Currency = cur
	inv.Settlement = s
	return inv, nil
}

func ptr[T any](v T) *T { return &v }
