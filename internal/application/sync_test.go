package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fxledger/internal/domain"

	"github.com/stretchr/testify/require"
)

func newSync(src *fakeRateSource, store *fakeRateStore) *SyncService {
	return NewSyncService(src, store, NewNormalizer("CNY", majorPairs), time.Second)
}

func Test_SyncRates_Idempotent(t *testing.T) {
	t.Parallel()
	d := day("2026-02-20")
	src := &fakeRateSource{quotes: []domain.CurrencyQuote{quote("EUR", "7.85", d), quote("USD", "7.24", d)}}
	store := newFakeRateStore()
	svc := newSync(src, store)

	first := svc.SyncRates(context.Background())
	require.True(t, first.Success, first.Message)
	require.Equal(t, 6, first.Count)
	require.Len(t, first.Quotes, 2)
	before, err := store.FindExact(context.Background(), "EUR", "USD", d)
	require.NoError(t, err)

	second := svc.SyncRates(context.Background())
	require.True(t, second.Success)
	require.Equal(t, 6, store.count())
	after, err := store.FindExact(context.Background(), "EUR", "USD", d)
	require.NoError(t, err)
	require.True(t, before.Rate.Equal(after.Rate))
	require.Equal(t, before.ID, after.ID)
}

func Test_SyncRates_CrossRateScenario(t *testing.T) {
	t.Parallel()
	today := time.Date(2026, 2, 20, 11, 0, 0, 0, time.UTC)
	src := &fakeRateSource{quotes: []domain.CurrencyQuote{quote("EUR", "7.85", domain.DateOf(today)), quote("USD", "7.24", domain.DateOf(today))}}
	store := newFakeRateStore()
	require.True(t, newSync(src, store).SyncRates(context.Background()).Success)

	res, ok, err := NewRateLookup(store, WithClock(fakeClock{t: today})).RateFor(context.Background(), "EUR", "USD", time.Time{})
	require.NoError(t, err)
	require.True(t, ok)
	require.InDelta(t, 1.0843, res.Rate.InexactFloat64(), 1e-4)
}

func Test_SyncRates_SourceFailures(t *testing.T) {
	t.Parallel()
	for _, srcErr := range []error{
		fmt.Errorf("%w: status 503", domain.ErrSourceUnavailable),
		fmt.Errorf("%w: table not found", domain.ErrParseFailure),
	} {
		store := newFakeRateStore()
		res := newSync(&fakeRateSource{err: srcErr}, store).SyncRates(context.Background())
		require.False(t, res.Success)
		require.Zero(t, res.Count)
		require.Contains(t, res.Message, srcErr.Error())
		require.Zero(t, store.count())
	}
}

func Test_SyncRates_EmptyQuotes(t *testing.T) {
	t.Parallel()
	res := newSync(&fakeRateSource{}, newFakeRateStore()).SyncRates(context.Background())
	require.False(t, res.Success)
	require.Equal(t, "no rates fetched from source", res.Message)
}

func Test_SyncRates_PartialPersistence(t *testing.T) {
	t.Parallel()
	d := day("2026-02-20")
	store := newFakeRateStore()
	store.failOn = "CNY/USD"
	src := &fakeRateSource{quotes: []domain.CurrencyQuote{quote("EUR", "7.85", d), quote("USD", "7.24", d)}}

	res := newSync(src, store).SyncRates(context.Background())
	require.False(t, res.Success)
	require.Equal(t, 5, res.Count)
	require.Equal(t, 5, store.count())
	require.Contains(t, res.Message, "database error")
}

func Test_SyncRates_KeepsManualEntries(t *testing.T) {
	t.Parallel()
	d := day("2026-02-20")
	store := newFakeRateStore()
	seedRate(t, store, "EUR", "CNY", "8.00", "2026-02-20", domain.RateSourceManual)
	src := &fakeRateSource{quotes: []domain.CurrencyQuote{quote("EUR", "7.85", d)}}

	res := newSync(src, store).SyncRates(context.Background())
	require.True(t, res.Success)
	require.Equal(t, 1, res.Count)
	e, err := store.FindExact(context.Background(), "EUR", "CNY", d)
	require.NoError(t, err)
	require.Equal(t, domain.RateSourceManual, e.Source)
	require.True(t, e.Rate.Equal(dec("8.00")))
}

func Test_PreviewRates_DoesNotPersist(t *testing.T) {
	t.Parallel()
	d := day("2026-02-20")
	store := newFakeRateStore()
	src := &fakeRateSource{quotes: []domain.CurrencyQuote{quote("EUR", "7.85", d)}}

	quotes, err := newSync(src, store).PreviewRates(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	require.Zero(t, store.count())
}
