package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fxledger/internal/application"
	"fxledger/internal/domain"
	"fxledger/internal/infrastructure/logx"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// defaultListLimit caps unfiltered listings.
const defaultListLimit = 500

const rateColumns = `id::text, from_currency, to_currency, rate, rate_date, source, created_at, updated_at`

type RateRepo struct{ db *DB }

var _ application.RateStore = (*RateRepo)(nil)

func NewRateRepo(db *DB) *RateRepo { return &RateRepo{db: db} }

// Upsert writes each edge with its own statement. A MANUAL row is only
// replaced by another MANUAL edge; such skipped edges are not counted.
func (r *RateRepo) Upsert(ctx context.Context, edges []domain.ExchangeRate) (int, error) {
	const up = `
        INSERT INTO exchange_rates(from_currency, to_currency, rate, rate_date, source)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (rate_date, from_currency, to_currency) DO UPDATE
          SET rate=EXCLUDED.rate, source=EXCLUDED.source, updated_at=NOW()
          WHERE exchange_rates.source <> 'MANUAL' OR EXCLUDED.source = 'MANUAL'`
	log := logx.WithFields(ctx).With(
		zap.String("repo", "exchange_rates"),
		zap.String("operation", "Upsert"),
		zap.Int("edges", len(edges)),
	)
	log.Debug("sql.exec_start", zap.String("sql", up))

	written, skipped := 0, 0
	var errs []error
	for _, e := range edges {
		if err := e.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", e.Pair(), domain.FormatDate(e.Date), err))
			continue
		}
		tag, err := r.db.conn(ctx).Exec(ctx, up, e.From, e.To, e.Rate, e.Date, string(e.Source))
		if err != nil {
			log.Error("sql.exec_failed", zap.String("pair", string(e.Pair())), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s %s: %w", e.Pair(), domain.FormatDate(e.Date), err))
			continue
		}
		if tag.RowsAffected() == 0 {
			skipped++
			continue
		}
		written++
	}
	if len(errs) > 0 {
		log.Warn("sql.exec_partial", zap.Int("written", written), zap.Int("failed", len(errs)))
		return written, fmt.Errorf("%w: %w", domain.ErrPersistence, errors.Join(errs...))
	}
	log.Info("sql.exec_success", zap.Int("written", written), zap.Int("skipped_manual", skipped))
	return written, nil
}

func (r *RateRepo) FindExact(ctx context.Context, from, to string, date time.Time) (domain.ExchangeRate, error) {
	const q = `SELECT ` + rateColumns + `
        FROM exchange_rates
        WHERE from_currency=$1 AND to_currency=$2 AND rate_date=$3`
	return r.findOne(ctx, "FindExact", q, from, to, domain.DateOf(date))
}

func (r *RateRepo) FindLatestOnOrBefore(ctx context.Context, from, to string, date time.Time) (domain.ExchangeRate, error) {
	const q = `SELECT ` + rateColumns + `
        FROM exchange_rates
        WHERE from_currency=$1 AND to_currency=$2 AND rate_date<=$3
        ORDER BY rate_date DESC
        LIMIT 1`
	return r.findOne(ctx, "FindLatestOnOrBefore", q, from, to, domain.DateOf(date))
}

func (r *RateRepo) findOne(ctx context.Context, op, q string, from, to string, date time.Time) (domain.ExchangeRate, error) {
	log := logx.WithFields(ctx).With(
		zap.String("repo", "exchange_rates"),
		zap.String("operation", op),
		zap.String("from", from),
		zap.String("to", to),
		zap.String("date", domain.FormatDate(date)),
	)
	log.Debug("sql.query_start")
	out, err := scanRate(r.db.conn(ctx).QueryRow(ctx, q, from, to, date))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debug("sql.query_no_rows")
		return domain.ExchangeRate{}, domain.ErrNotFound
	}
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return domain.ExchangeRate{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return out, nil
}

func (r *RateRepo) List(ctx context.Context, f application.RateFilter) ([]domain.ExchangeRate, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.From != "" {
		add("from_currency=$%d", f.From)
	}
	if f.To != "" {
		add("to_currency=$%d", f.To)
	}
	if f.Date != nil {
		add("rate_date=$%d", domain.DateOf(*f.Date))
	}
	if f.Start != nil {
		add("rate_date>=$%d", domain.DateOf(*f.Start))
	}
	if f.End != nil {
		add("rate_date<=$%d", domain.DateOf(*f.End))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)

	q := `SELECT ` + rateColumns + ` FROM exchange_rates`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += fmt.Sprintf(` ORDER BY rate_date DESC, from_currency, to_currency LIMIT $%d`, len(args))

	log := logx.WithFields(ctx).With(zap.String("repo", "exchange_rates"), zap.String("operation", "List"))
	rows, err := r.db.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		log.Error("sql.query_failed", zap.String("sql", q), zap.Error(err))
		return nil, err
	}
	defer rows.Close()
	var out []domain.ExchangeRate
	for rows.Next() {
		e, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *RateRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	const del = `DELETE FROM exchange_rates WHERE id=$1`
	log := logx.WithFields(ctx).With(
		zap.String("repo", "exchange_rates"),
		zap.String("operation", "Delete"),
		zap.String("id", id),
	)
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

func scanRate(row pgx.Row) (domain.ExchangeRate, error) {
	var (
		out    domain.ExchangeRate
		source string
	)
	err := row.Scan(&out.ID, &out.From, &out.To, &out.Rate, &out.Date, &source, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return domain.ExchangeRate{}, err
	}
	out.Source = domain.RateSource(source)
	out.Date = domain.DateOf(out.Date)
	return out, nil
}
