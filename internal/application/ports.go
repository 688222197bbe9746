package application

import (
	"context"
	"time"

	"fxledger/internal/domain"
)

// RateSource fetches the raw bank quotes. Implementations fail with
// domain.ErrSourceUnavailable or domain.ErrParseFailure.
type RateSource interface {
	Fetch(ctx context.Context) ([]domain.CurrencyQuote, error)
}

type RateFilter struct {
	From  string
	To    string
	Date  *time.Time
	Start *time.Time
	End   *time.Time
	Limit int
}

type RateStore interface {
	// Upsert writes every edge independently keyed by (date, from, to) and
	// returns how many were written. Automated edges never replace a MANUAL
	// edge of the same key.
	Upsert(ctx context.Context, edges []domain.ExchangeRate) (int, error)
	FindExact(ctx context.Context, from, to string, date time.Time) (domain.ExchangeRate, error)
	FindLatestOnOrBefore(ctx context.Context, from, to string, date time.Time) (domain.ExchangeRate, error)
	List(ctx context.Context, f RateFilter) ([]domain.ExchangeRate, error)
	Delete(ctx context.Context, id string) error
}

type InvoiceFilter struct {
	CompanyID string
	Status    domain.InvoiceStatus
	Start     *time.Time
	End       *time.Time
}

// InvoiceCursor is the (issue date, id) position of the last invoice of a page.
type InvoiceCursor struct {
	IssueDate time.Time
	ID        string
}

func CursorOf(inv domain.Invoice) InvoiceCursor {
	return InvoiceCursor{IssueDate: inv.IssueDate, ID: inv.ID}
}

type InvoiceRepo interface {
	Create(ctx context.Context, inv domain.Invoice) error
	Update(ctx context.Context, inv domain.Invoice) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (domain.Invoice, error)
	List(ctx context.Context, f InvoiceFilter) ([]domain.Invoice, error)
	// ListUnresolved returns up to limit unresolved invoices ordered by
	// (issue date, id), starting strictly after the cursor when one is given.
	ListUnresolved(ctx context.Context, after *InvoiceCursor, limit int) ([]domain.Invoice, error)
}

// UnitOfWork scopes repository calls made with the ctx passed to fn to one
// transaction. Nested calls join the outer one.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Worker runs background jobs until ctx is canceled.
type Worker interface {
	Start(ctx context.Context)
}
