package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fxledger/internal/application"
	"fxledger/internal/domain"
	"fxledger/internal/infrastructure/logx"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const invoiceColumns = `id::text, invoice_number, issuer_company_id, receiver_company_id,
        client_name, client_tax_id, issue_date, due_date, amount, currency, status, notes,
        paid_date, transaction_id, exchange_rate, exchange_rate_date, exchange_rate_source,
        base_currency, base_amount, created_at, updated_at`

type InvoiceRepo struct{ db *DB }

var _ application.InvoiceRepo = (*InvoiceRepo)(nil)

func NewInvoiceRepo(db *DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

func (r *InvoiceRepo) Create(ctx context.Context, inv domain.Invoice) error {
	const ins = `
        INSERT INTO invoices(id, invoice_number, issuer_company_id, receiver_company_id,
            client_name, client_tax_id, issue_date, due_date, amount, currency, status, notes,
            paid_date, transaction_id, exchange_rate, exchange_rate_date, exchange_rate_source,
            base_currency, base_amount, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`
	log := r.log(ctx, "Create", inv.ID)
	log.Debug("sql.exec_start")
	tag, err := r.db.conn(ctx).Exec(ctx, ins,
		inv.ID, inv.Number, inv.IssuerCompanyID, inv.ReceiverCompanyID,
		inv.ClientName, inv.ClientTaxID, inv.IssueDate, inv.DueDate, inv.Amount, inv.Currency,
		string(inv.Status), inv.Notes, inv.PaidDate, inv.TransactionID,
		nullDecimal(inv.Settlement.Rate), inv.Settlement.RateDate, string(inv.Settlement.Provenance),
		inv.Settlement.BaseCurrency, nullDecimal(inv.Settlement.BaseAmount), inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	log.Info("sql.exec_success", zap.Int64("rows_affected", tag.RowsAffected()))
	return nil
}

func (r *InvoiceRepo) Update(ctx context.Context, inv domain.Invoice) error {
	const up = `
        UPDATE invoices SET
            receiver_company_id=$2, client_name=$3, client_tax_id=$4, issue_date=$5, due_date=$6,
            amount=$7, currency=$8, status=$9, notes=$10, paid_date=$11, transaction_id=$12,
            exchange_rate=$13, exchange_rate_date=$14, exchange_rate_source=$15,
            base_currency=$16, base_amount=$17, updated_at=$18
        WHERE id=$1`
	if _, err := uuid.Parse(inv.ID); err != nil {
		return domain.ErrNotFound
	}
	log := r.log(ctx, "Update", inv.ID)
	log.Debug("sql.exec_start")
	tag, err := r.db.conn(ctx).Exec(ctx, up,
		inv.ID, inv.ReceiverCompanyID, inv.ClientName, inv.ClientTaxID, inv.IssueDate, inv.DueDate,
		inv.Amount, inv.Currency, string(inv.Status), inv.Notes, inv.PaidDate, inv.TransactionID,
		nullDecimal(inv.Settlement.Rate), inv.Settlement.RateDate, string(inv.Settlement.Provenance),
		inv.Settlement.BaseCurrency, nullDecimal(inv.Settlement.BaseAmount), inv.UpdatedAt,
	)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		log.Warn("sql.exec_no_rows")
		return domain.ErrNotFound
	}
	log.Info("sql.exec_success", zap.String("provenance", string(inv.Settlement.Provenance)))
	return nil
}

// GetByID locks the row when called inside a unit of work.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (domain.Invoice, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	q := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id=$1`
	if txFromCtx(ctx) != nil {
		q += ` FOR UPDATE`
	}
	log := r.log(ctx, "GetByID", id)
	inv, err := scanInvoice(r.db.conn(ctx).QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debug("sql.query_no_rows")
		return domain.Invoice{}, domain.ErrNotFound
	}
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return domain.Invoice{}, err
	}
	return inv, nil
}

func (r *InvoiceRepo) List(ctx context.Context, f application.InvoiceFilter) ([]domain.Invoice, error) {
	var (
		where []string
		args  []any
	)
	if f.CompanyID != "" {
		args = append(args, f.CompanyID)
		where = append(where, fmt.Sprintf("(issuer_company_id=$%[1]d OR receiver_company_id=$%[1]d)", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	if f.Start != nil {
		args = append(args, domain.DateOf(*f.Start))
		where = append(where, fmt.Sprintf("issue_date>=$%d", len(args)))
	}
	if f.End != nil {
		args = append(args, domain.DateOf(*f.End))
		where = append(where, fmt.Sprintf("issue_date<=$%d", len(args)))
	}
	q := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY issue_date DESC, created_at DESC`
	return r.query(ctx, "List", q, args...)
}

// ListUnresolved pages by (issue_date, id) so a cursor moves past invoices
// that stay unresolved.
func (r *InvoiceRepo) ListUnresolved(ctx context.Context, after *application.InvoiceCursor, limit int) ([]domain.Invoice, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if after == nil {
		const q = `SELECT ` + invoiceColumns + `
        FROM invoices
        WHERE exchange_rate_source = 'UNRESOLVED'
        ORDER BY issue_date, id
        LIMIT $1`
		return r.query(ctx, "ListUnresolved", q, limit)
	}
	const q = `SELECT ` + invoiceColumns + `
        FROM invoices
        WHERE exchange_rate_source = 'UNRESOLVED' AND (issue_date, id) > ($1::date, $2::uuid)
        ORDER BY issue_date, id
        LIMIT $3`
	return r.query(ctx, "ListUnresolved", q, after.IssueDate, after.ID, limit)
}

func (r *InvoiceRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	const del = `DELETE FROM invoices WHERE id=$1`
	log := r.log(ctx, "Delete", id)
	tag, err := r.db.conn(ctx).Exec(ctx, del, id)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		log.Warn("sql.exec_no_rows")
		return domain.ErrNotFound
	}
	log.Info("sql.exec_success")
	return nil
}

func (r *InvoiceRepo) query(ctx context.Context, op, q string, args ...any) ([]domain.Invoice, error) {
	log := logx.WithFields(ctx).With(zap.String("repo", "invoices"), zap.String("operation", op))
	rows, err := r.db.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()
	var out []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	log.Debug("sql.query_success", zap.Int("rows", len(out)))
	return out, nil
}

func (r *InvoiceRepo) log(ctx context.Context, op, id string) *zap.Logger {
	return logx.WithFields(ctx).With(
		zap.String("repo", "invoices"),
		zap.String("operation", op),
		zap.String("id", id),
	)
}

func scanInvoice(row pgx.Row) (domain.Invoice, error) {
	var (
		inv              domain.Invoice
		status, source   string
		rate, baseAmount decimal.NullDecimal
	)
	err := row.Scan(
		&inv.ID, &inv.Number, &inv.IssuerCompanyID, &inv.ReceiverCompanyID,
		&inv.ClientName, &inv.ClientTaxID, &inv.IssueDate, &inv.DueDate, &inv.Amount, &inv.Currency,
		&status, &inv.Notes, &inv.PaidDate, &inv.TransactionID,
		&rate, &inv.Settlement.RateDate, &source, &inv.Settlement.BaseCurrency, &baseAmount,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return domain.Invoice{}, err
	}
	inv.Status = domain.InvoiceStatus(status)
	inv.Settlement.Provenance = domain.Provenance(source)
	if rate.Valid {
		inv.Settlement.Rate = &rate.Decimal
	}
	if baseAmount.Valid {
		inv.Settlement.BaseAmount = &baseAmount.Decimal
	}
	return inv, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
