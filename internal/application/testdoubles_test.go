package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"fxledger/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrRepo = errors.New("repo error")
)

type fakeClock struct{ t time.Time }

func (f fakeClock) Now() time.Time { return f.t }

type seqIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGen) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeRateStore struct {
	mu      sync.Mutex
	edges   map[string]domain.ExchangeRate
	finds   int
	err     error
	failOn  string
	nextID  int
	deleted []string
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{edges: map[string]domain.ExchangeRate{}}
}

func rateKey(from, to string, date time.Time) string {
	return domain.FormatDate(date) + "|" + from + "|" + to
}

func (f *fakeRateStore) Upsert(_ context.Context, edges []domain.ExchangeRate) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	var errs []error
	for _, e := range edges {
		if f.failOn != "" && f.failOn == e.From+"/"+e.To {
			errs = append(errs, ErrRepo)
			continue
		}
		k := rateKey(e.From, e.To, e.Date)
		if cur, ok := f.edges[k]; ok {
			if cur.Source == domain.RateSourceManual && e.Source != domain.RateSourceManual {
				continue
			}
			e.ID = cur.ID
		} else {
			f.nextID++
			e.ID = fmt.Sprintf("rate-%d", f.nextID)
		}
		f.edges[k] = e
		n++
	}
	if len(errs) > 0 {
		return n, fmt.Errorf("%w: %w", domain.ErrPersistence, errors.Join(errs...))
	}
	return n, nil
}

func (f *fakeRateStore) FindExact(_ context.Context, from, to string, date time.Time) (domain.ExchangeRate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	if f.err != nil {
		return domain.ExchangeRate{}, f.err
	}
	e, ok := f.edges[rateKey(from, to, date)]
	if !ok {
		return domain.ExchangeRate{}, ErrNotFound
	}
	return e, nil
}

func (f *fakeRateStore) FindLatestOnOrBefore(_ context.Context, from, to string, date time.Time) (domain.ExchangeRate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	if f.err != nil {
		return domain.ExchangeRate{}, f.err
	}
	var best domain.ExchangeRate
	found := false
	for _, e := range f.edges {
		if e.From != from || e.To != to || e.Date.After(date) {
			continue
		}
		if !found || e.Date.After(best.Date) {
			best, found = e, true
		}
	}
	if !found {
		return domain.ExchangeRate{}, ErrNotFound
	}
	return best, nil
}

func (f *fakeRateStore) List(_ context.Context, rf RateFilter) ([]domain.ExchangeRate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ExchangeRate
	for _, e := range f.edges {
		if rf.From != "" && e.From != rf.From {
			continue
		}
		if rf.To != "" && e.To != rf.To {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (f *fakeRateStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, e := range f.edges {
		if e.ID == id {
			delete(f.edges, k)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeRateStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.edges)
}

type fakeRateSource struct {
	quotes []domain.CurrencyQuote
	err    error
	calls  int
}

func (f *fakeRateSource) Fetch(context.Context) ([]domain.CurrencyQuote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes, nil
}

func quote(code, selling string, date time.Time) domain.CurrencyQuote {
	return domain.CurrencyQuote{
		Code:          code,
		Selling:       dec(selling),
		Buying:        dec(selling).Sub(dec("0.05")),
		PublishedDate: date,
		PublishedTime: "10:30:00",
	}
}

type fakeInvoiceRepo struct {
	mu    sync.Mutex
	rows  map[string]domain.Invoice
	err   error
	pages int
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{rows: map[string]domain.Invoice{}}
}

func (f *fakeInvoiceRepo) Create(_ context.Context, inv domain.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows[inv.ID] = inv
	return nil
}

func (f *fakeInvoiceRepo) Update(_ context.Context, inv domain.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.rows[inv.ID]; !ok {
		return ErrNotFound
	}
	f.rows[inv.ID] = inv
	return nil
}

func (f *fakeInvoiceRepo) GetByID(_ context.Context, id string) (domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.rows[id]
	if !ok {
		return domain.Invoice{}, ErrNotFound
	}
	return inv, nil
}

func (f *fakeInvoiceRepo) List(_ context.Context, _ InvoiceFilter) ([]domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Invoice
	for _, inv := range f.rows {
		out = append(out, inv)
	}
	return out, nil
}

func (f *fakeInvoiceRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.rows[id]; !ok {
		return ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeInvoiceRepo) ListUnresolved(_ context.Context, after *InvoiceCursor, limit int) ([]domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages++
	var out []domain.Invoice
	for _, inv := range f.rows {
		if inv.Settlement.Provenance != domain.ProvenanceUnresolved {
			continue
		}
		if after != nil && !cursorAfter(CursorOf(inv), *after) {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return cursorAfter(CursorOf(out[j]), CursorOf(out[i])) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cursorAfter(c, ref InvoiceCursor) bool {
	if !c.IssueDate.Equal(ref.IssueDate) {
		return c.IssueDate.After(ref.IssueDate)
	}
	return c.ID > ref.ID
}

type fakeIdem struct{ seen map[string]bool }

func (f *fakeIdem) TryReserve(_ context.Context, k string) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[k] {
		return false, nil
	}
	f.seen[k] = true
	return true, nil
}

func (f *fakeIdem) Release(_ context.Context, k string) error {
	delete(f.seen, k)
	return nil
}
