package pg_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fxledger/internal/application"
	"fxledger/internal/domain"
	"fxledger/internal/infrastructure/pg"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func invoice(cur string) domain.Invoice {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.Invoice{
		ID:              uuid.NewString(),
		Number:          "INV-" + uuid.NewString()[:8],
		IssuerCompanyID: "company-1",
		IssueDate:       day("2026-02-20"),
		Amount:          decimal.RequireFromString("250.00"),
		Currency:        cur,
		Status:          domain.InvoiceStatusDraft,
		Settlement: domain.Settlement{
			RateDate:     day("2026-02-20"),
			Provenance:   domain.ProvenanceUnresolved,
			BaseCurrency: "CNY",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestInvoiceRepo_RoundTripAndReconcileQuery(t *testing.T) {
	db := withPostgres(t)
	ctx := context.Background()
	repo := pg.NewInvoiceRepo(db)

	inv := invoice("GBP")
	require.NoError(t, repo.Create(ctx, inv))

	pending, err := repo.ListUnresolved(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Nil(t, pending[0].Settlement.Rate)

	rate := decimal.RequireFromString("9.2")
	base := decimal.RequireFromString("2300")
	inv.Settlement.Rate, inv.Settlement.BaseAmount = &rate, &base
	inv.Settlement.Provenance = domain.Provenance(domain.RateSourceDirectBank)
	require.NoError(t, repo.Update(ctx, inv))

	got, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.True(t, got.Settlement.Rate.Equal(rate))
	require.True(t, got.Settlement.BaseAmount.Equal(base))
	require.Equal(t, day("2026-02-20"), got.IssueDate)

	pending, err = repo.ListUnresolved(ctx, nil, 10)
	require.NoError(t, err)
	require.Empty(t, pending)

	list, err := repo.List(ctx, application.InvoiceFilter{CompanyID: "company-1"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = repo.GetByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvoiceRepo_ListUnresolvedPagesByCursor(t *testing.T) {
	db := withPostgres(t)
	ctx := context.Background()
	repo := pg.NewInvoiceRepo(db)

	for _, d := range []string{"2026-02-01", "2026-02-01", "2026-02-23"} {
		inv := invoice("SEK")
		inv.IssueDate = day(d)
		require.NoError(t, repo.Create(ctx, inv))
	}

	var seen []string
	var after *application.InvoiceCursor
	for {
		page, err := repo.ListUnresolved(ctx, after, 1)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		require.Len(t, page, 1)
		seen = append(seen, page[0].ID)
		cur := application.CursorOf(page[0])
		after = &cur
	}
	require.Len(t, seen, 3)
	require.NotEqual(t, seen[0], seen[1])

	last, err := repo.GetByID(ctx, seen[2])
	require.NoError(t, err)
	require.Equal(t, day("2026-02-23"), last.IssueDate)
}

func TestInvoiceRepo_Delete(t *testing.T) {
	db := withPostgres(t)
	ctx := context.Background()
	repo := pg.NewInvoiceRepo(db)

	inv := invoice("EUR")
	require.NoError(t, repo.Create(ctx, inv))
	require.NoError(t, repo.Delete(ctx, inv.ID))

	_, err := repo.GetByID(ctx, inv.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, inv.ID), domain.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, "not-a-uuid"), domain.ErrNotFound)
}

func TestUnitOfWork_RollsBack(t *testing.T) {
	db := withPostgres(t)
	ctx := context.Background()
	repo := pg.NewInvoiceRepo(db)
	uow := pg.NewUnitOfWork(db)

	inv := invoice("EUR")
	boom := errors.New("boom")
	err := uow.Do(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Create(ctx, inv))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repo.GetByID(ctx, inv.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUnitOfWork_NestedCallJoinsOuterTx(t *testing.T) {
	db := withPostgres(t)
	ctx := context.Background()
	repo := pg.NewInvoiceRepo(db)
	uow := pg.NewUnitOfWork(db)

	inv := invoice("USD")
	boom := errors.New("boom")
	err := uow.Do(ctx, func(ctx context.Context) error {
		require.NoError(t, uow.Do(ctx, func(ctx context.Context) error {
			return repo.Create(ctx, inv)
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repo.GetByID(ctx, inv.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
