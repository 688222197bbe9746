package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedPair   = errors.New("unsupported pair")
	ErrInvalidCurrency   = errors.New("invalid currency code")
	ErrInvalidRate       = errors.New("invalid exchange rate")
	ErrSourceUnavailable = errors.New("rate source unavailable")
	ErrParseFailure      = errors.New("rate source page not recognized")
	ErrPersistence       = errors.New("rate persistence failed")
	// ErrPendingRate marks a foreign-currency invoice that has no settlement rate yet.
	ErrPendingRate = errors.New("pending exchange rate")
)
