package pg

import (
	"context"
	"errors"

	"fxledger/internal/application"
	"fxledger/internal/infrastructure/logx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type txKey struct{}

func txFromCtx(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

var _ application.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork owns the transaction behind invoice edits and status changes.
// The tx travels in the ctx handed to fn; RateRepo and InvoiceRepo pick it up
// through DB.conn, so GetByID's FOR UPDATE lock holds until commit.
type UnitOfWork struct {
	Pool *pgxpool.Pool
}

func NewUnitOfWork(db *DB) *UnitOfWork { return &UnitOfWork{Pool: db.Pool} }

// Do commits when fn returns nil and rolls back otherwise. A ctx that already
// carries a transaction is reused as is.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromCtx(ctx) != nil {
		return fn(ctx)
	}
	tx, err := u.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logx.WithFields(ctx).Warn("sql.rollback_failed", zap.Error(rbErr))
		}
		return err
	}
	return tx.Commit(ctx)
}
