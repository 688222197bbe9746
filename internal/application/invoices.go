package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fxledger/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultInvoiceCurrency applies when a draft names no currency.
const DefaultInvoiceCurrency = "EUR"

// DefaultReconcilePage is the page size of ReconcileUnresolved.
const DefaultReconcilePage = 200

type CreateInvoice struct {
	IssuerCompanyID   string
	ReceiverCompanyID *string
	ClientName        string
	ClientTaxID       string
	IssueDate         time.Time
	DueDate           *time.Time
	Amount            decimal.Decimal
	Currency          string
	Notes             string
	ManualRate        *decimal.Decimal
	IdempotencyKey    *string
}

// UpdateInvoice carries only the fields being changed.
type UpdateInvoice struct {
	ReceiverCompanyID *string
	ClientName        *string
	ClientTaxID       *string
	IssueDate         *time.Time
	DueDate           *time.Time
	Amount            *decimal.Decimal
	Currency          *string
	Status            *domain.InvoiceStatus
	Notes             *string
	ManualRate        *decimal.Decimal
}

type InvoiceService struct {
	repo   InvoiceRepo
	binder *Binder
	uow    UnitOfWork
	idem   IdempotencyStore
	base   string
	opts   options
}

func NewInvoiceService(repo InvoiceRepo, binder *Binder, uow UnitOfWork, idem IdempotencyStore, baseCurrency string, opts ...Option) *InvoiceService {
	if uow == nil {
		uow = NoopUoW{}
	}
	if idem == nil {
		idem = NoopIdempotency{}
	}
	return &InvoiceService{
		repo:   repo,
		binder: binder,
		uow:    uow,
		idem:   idem,
		base:   domain.NormalizeCode(baseCurrency),
		opts:   buildOptions(opts),
	}
}

func (s *InvoiceService) Create(ctx context.Context, in CreateInvoice) (domain.Invoice, error) {
	if in.IssuerCompanyID == "" {
		return domain.Invoice{}, fmt.Errorf("%w: issuer company is required", ErrBadRequest)
	}
	if in.Amount.IsNegative() {
		return domain.Invoice{}, fmt.Errorf("%w: amount must not be negative", ErrBadRequest)
	}
	cur := domain.NormalizeCode(in.Currency)
	if cur == "" {
		cur = DefaultInvoiceCurrency
	}
	if !domain.ValidCode(cur) {
		return domain.Invoice{}, fmt.Errorf("%w: %w", ErrBadRequest, domain.ErrInvalidCurrency)
	}

	release, err := reserve(ctx, s.idem, scopeInvoiceCreate, in.IdempotencyKey)
	if err != nil {
		return domain.Invoice{}, err
	}
	created, err := s.create(ctx, in, cur)
	if err != nil {
		release()
	}
	return created, err
}

func (s *InvoiceService) create(ctx context.Context, in CreateInvoice, cur string) (domain.Invoice, error) {
	now := s.opts.clock.Now().UTC()
	issue := domain.DateOf(in.IssueDate)
	if in.IssueDate.IsZero() {
		issue = s.opts.today()
	}
	inv := domain.Invoice{
		ID:                s.opts.idgen.NewID(),
		Number:            s.invoiceNumber(now),
		IssuerCompanyID:   in.IssuerCompanyID,
		ReceiverCompanyID: in.ReceiverCompanyID,
		ClientName:        in.ClientName,
		ClientTaxID:       in.ClientTaxID,
		IssueDate:         issue,
		DueDate:           in.DueDate,
		Amount:            in.Amount,
		Currency:          cur,
		Status:            domain.InvoiceStatusDraft,
		Notes:             in.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	inv, err := s.binder.BindSettlementRate(ctx, inv, s.base, in.ManualRate)
	if err != nil {
		return domain.Invoice{}, s.bindErr(err)
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return domain.Invoice{}, err
	}
	s.logSettlement("invoice.created", inv)
	return inv, nil
}

// Update applies the patch and re-binds the settlement when currency, amount or
// issue date change, when a manual rate is supplied, or while the invoice is
// still unresolved. A status change goes through the same lifecycle checks as
// Issue and MarkPaid, after the re-bind.
func (s *InvoiceService) Update(ctx context.Context, id string, in UpdateInvoice) (domain.Invoice, error) {
	var out domain.Invoice
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		rebind := in.ManualRate != nil || !inv.Settlement.Resolved()

		if in.Currency != nil {
			cur := domain.NormalizeCode(*in.Currency)
			if !domain.ValidCode(cur) {
				return fmt.Errorf("%w: %w", ErrBadRequest, domain.ErrInvalidCurrency)
			}
			rebind = rebind || cur != inv.Currency
			inv.Currency = cur
		}
		if in.Amount != nil {
			if in.Amount.IsNegative() {
				return fmt.Errorf("%w: amount must not be negative", ErrBadRequest)
			}
			rebind = rebind || !in.Amount.Equal(inv.Amount)
			inv.Amount = *in.Amount
		}
		if in.IssueDate != nil {
			d := domain.DateOf(*in.IssueDate)
			rebind = rebind || !d.Equal(inv.IssueDate)
			inv.IssueDate = d
		}
		if in.ReceiverCompanyID != nil {
			inv.ReceiverCompanyID = in.ReceiverCompanyID
		}
		if in.ClientName != nil {
			inv.ClientName = *in.ClientName
		}
		if in.ClientTaxID != nil {
			inv.ClientTaxID = *in.ClientTaxID
		}
		if in.DueDate != nil {
			inv.DueDate = in.DueDate
		}
		if in.Notes != nil {
			inv.Notes = *in.Notes
		}

		if rebind {
			inv, err = s.binder.BindSettlementRate(ctx, inv, s.base, in.ManualRate)
			if err != nil {
				return s.bindErr(err)
			}
		}
		if in.Status != nil && *in.Status != inv.Status {
			if err := s.changeStatus(&inv, *in.Status); err != nil {
				return err
			}
		}
		inv.UpdatedAt = s.opts.clock.Now().UTC()
		if err := s.repo.Update(ctx, inv); err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	s.logSettlement("invoice.updated", out)
	return out, nil
}

func (s *InvoiceService) Get(ctx context.Context, id string) (domain.Invoice, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *InvoiceService) List(ctx context.Context, f InvoiceFilter) ([]domain.Invoice, error) {
	return s.repo.List(ctx, f)
}

// Issue moves a draft to ISSUED. Invoices still waiting for a rate are refused.
func (s *InvoiceService) Issue(ctx context.Context, id string) (domain.Invoice, error) {
	return s.transition(ctx, id, func(inv *domain.Invoice) error {
		return s.changeStatus(inv, domain.InvoiceStatusIssued)
	})
}

func (s *InvoiceService) MarkPaid(ctx context.Context, id string, transactionID *string) (domain.Invoice, error) {
	return s.transition(ctx, id, func(inv *domain.Invoice) error {
		if err := s.changeStatus(inv, domain.InvoiceStatusPaid); err != nil {
			return err
		}
		inv.TransactionID = transactionID
		return nil
	})
}

// changeStatus applies the lifecycle DRAFT -> ISSUED -> (OVERDUE ->) PAID.
// Issuing needs a settlement rate; paying stamps today's date.
func (s *InvoiceService) changeStatus(inv *domain.Invoice, to domain.InvoiceStatus) error {
	from := inv.Status
	switch {
	case to == domain.InvoiceStatusIssued && from == domain.InvoiceStatusDraft:
		if !inv.Billable() {
			return domain.ErrPendingRate
		}
	case to == domain.InvoiceStatusOverdue && from == domain.InvoiceStatusIssued:
	case to == domain.InvoiceStatusPaid && (from == domain.InvoiceStatusIssued || from == domain.InvoiceStatusOverdue):
		paid := s.opts.today()
		inv.PaidDate = &paid
	default:
		return fmt.Errorf("%w: cannot move invoice from %s to %s", ErrConflict, from, to)
	}
	inv.Status = to
	return nil
}

// ReconcileUnresolved re-binds every invoice that had no rate when it was saved
// and persists those that resolve now. Invoices are read in pages of pageSize
// so ones that stay unresolved never hide later ones. It returns how many
// were resolved.
func (s *InvoiceService) ReconcileUnresolved(ctx context.Context, pageSize int) (int, error) {
	if pageSize <= 0 {
		pageSize = DefaultReconcilePage
	}
	resolved := 0
	var after *InvoiceCursor
	for {
		page, err := s.repo.ListUnresolved(ctx, after, pageSize)
		if err != nil {
			return resolved, err
		}
		for _, inv := range page {
			bound, err := s.binder.BindSettlementRate(ctx, inv, s.base, nil)
			if err != nil {
				return resolved, err
			}
			if !bound.Settlement.Resolved() {
				continue
			}
			bound.UpdatedAt = s.opts.clock.Now().UTC()
			if err := s.repo.Update(ctx, bound); err != nil {
				return resolved, err
			}
			resolved++
			s.logSettlement("invoice.reconciled", bound)
		}
		if len(page) < pageSize {
			return resolved, nil
		}
		cur := CursorOf(page[len(page)-1])
		after = &cur
		if err := ctx.Err(); err != nil {
			return resolved, err
		}
	}
}

// Delete removes an invoice in any status.
func (s *InvoiceService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.opts.log.Info("invoice.deleted", zap.String("invoice_id", id))
	return nil
}

func (s *InvoiceService) transition(ctx context.Context, id string, apply func(*domain.Invoice) error) (domain.Invoice, error) {
	var out domain.Invoice
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := apply(&inv); err != nil {
			return err
		}
		inv.UpdatedAt = s.opts.clock.Now().UTC()
		if err := s.repo.Update(ctx, inv); err != nil {
			return err
		}
		out = inv
		return nil
	})
	return out, err
}

func (s *InvoiceService) invoiceNumber(now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	suffix := strings.ToUpper(strings.ReplaceAll(s.opts.idgen.NewID(), "-", ""))
	if len(suffix) > 4 {
		suffix = suffix[:4]
	}
	suffix = strings.Repeat("0", 4-len(suffix)) + suffix
	return "INV-" + ts + "-" + suffix
}

func (s *InvoiceService) bindErr(err error) error {
	if errors.Is(err, domain.ErrInvalidRate) {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return err
}

func (s *InvoiceService) logSettlement(msg string, inv domain.Invoice) {
	fields := []zap.Field{
		zap.String("invoice_id", inv.ID),
		zap.String("currency", inv.Currency),
		zap.String("provenance", string(inv.Settlement.Provenance)),
	}
	if inv.Settlement.Rate != nil {
		fields = append(fields, zap.String("rate", inv.Settlement.Rate.String()))
	}
	s.opts.log.Info(msg, fields...)
}
