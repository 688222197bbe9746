package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fxledger/internal/application"
	"fxledger/internal/domain"
)

type InvoiceRepo struct {
	mu   sync.RWMutex
	rows map[string]domain.Invoice
}

var _ application.InvoiceRepo = (*InvoiceRepo)(nil)

func NewInvoiceRepo() *InvoiceRepo { return &InvoiceRepo{rows: map[string]domain.Invoice{}} }

func (r *InvoiceRepo) Create(_ context.Context, inv domain.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[inv.ID]; ok {
		return fmt.Errorf("%w: invoice %s exists", application.ErrConflict, inv.ID)
	}
	r.rows[inv.ID] = inv
	return nil
}

func (r *InvoiceRepo) Update(_ context.Context, inv domain.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[inv.ID]; !ok {
		return domain.ErrNotFound
	}
	r.rows[inv.ID] = inv
	return nil
}

func (r *InvoiceRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *InvoiceRepo) GetByID(_ context.Context, id string) (domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.rows[id]
	if !ok {
		return domain.Invoice{}, domain.ErrNotFound
	}
	return inv, nil
}

func (r *InvoiceRepo) List(_ context.Context, f application.InvoiceFilter) ([]domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Invoice
	for _, inv := range r.rows {
		if f.CompanyID != "" && inv.IssuerCompanyID != f.CompanyID &&
			(inv.ReceiverCompanyID == nil || *inv.ReceiverCompanyID != f.CompanyID) {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		if f.Start != nil && inv.IssueDate.Before(domain.DateOf(*f.Start)) {
			continue
		}
		if f.End != nil && inv.IssueDate.After(domain.DateOf(*f.End)) {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssueDate.Equal(out[j].IssueDate) {
			return out[i].IssueDate.After(out[j].IssueDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ListUnresolved pages by (issue date, id) so a cursor moves past invoices
// that stay unresolved.
func (r *InvoiceRepo) ListUnresolved(_ context.Context, after *application.InvoiceCursor, limit int) ([]domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Invoice
	for _, inv := range r.rows {
		if inv.Settlement.Provenance != domain.ProvenanceUnresolved {
			continue
		}
		if after != nil && !cursorLess(*after, application.CursorOf(inv)) {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool {
		return cursorLess(application.CursorOf(out[i]), application.CursorOf(out[j]))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cursorLess(a, b application.InvoiceCursor) bool {
	if !a.IssueDate.Equal(b.IssueDate) {
		return a.IssueDate.Before(b.IssueDate)
	}
	return a.ID < b.ID
}
