package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RateSource tags how a stored edge was obtained.
type RateSource string

const (
	RateSourceDirectBank     RateSource = "BANK_OF_CHINA"
	RateSourceDerivedInverse RateSource = "BANK_OF_CHINA_INVERSE"
	RateSourceDerivedCross   RateSource = "BANK_OF_CHINA_CALCULATED"
	RateSourceManual         RateSource = "MANUAL"
)

func (s RateSource) Valid() bool {
	switch s {
	case RateSourceDirectBank, RateSourceDerivedInverse, RateSourceDerivedCross, RateSourceManual:
		return true
	}
	return false
}

// ExchangeRate is a directed edge: 1 unit of From equals Rate units of To on Date.
// (Date, From, To) is unique.
type ExchangeRate struct {
	ID        string
	From      string
	To        string
	Rate      decimal.Decimal
	Date      time.Time
	Source    RateSource
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r ExchangeRate) Pair() Pair { return Pair(r.From + "/" + r.To) }

// Validate checks the edge invariants independent of storage.
func (r ExchangeRate) Validate() error {
	if !ValidCode(r.From) || !ValidCode(r.To) {
		return fmt.Errorf("%w: %q/%q", ErrInvalidCurrency, r.From, r.To)
	}
	if r.From == r.To {
		return fmt.Errorf("%w: from and to currencies must differ", ErrInvalidRate)
	}
	if !r.Rate.IsPositive() {
		return fmt.Errorf("%w: rate must be positive", ErrInvalidRate)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: rate date is required", ErrInvalidRate)
	}
	if !r.Source.Valid() {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidRate, r.Source)
	}
	return nil
}
