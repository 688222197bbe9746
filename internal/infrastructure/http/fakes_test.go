package httpserver

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"fxledger/internal/application"
	"fxledger/internal/domain"
	"fxledger/internal/infrastructure/memory"
	"fxledger/internal/infrastructure/provider"
	redisstore "fxledger/internal/infrastructure/redis"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2026, 2, 20, 3, 0, 0, 0, time.UTC)

type failingSource struct{ err error }

func (f failingSource) Fetch(context.Context) ([]domain.CurrencyQuote, error) { return nil, f.err }

type testEnv struct {
	h      http.Handler
	srv    *Server
	rates  *memory.RateStore
	source application.RateSource
}

func newEnv(t *testing.T, source application.RateSource) testEnv {
	t.Helper()
	clock := fixedClock{t: testNow}
	if source == nil {
		static := provider.NewStatic(time.UTC)
		static.Clock = clock
		source = static
	}

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	idem := redisstore.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)

	opts := []application.Option{application.WithClock(clock)}
	pairs, err := domain.ParsePairs("EUR/USD,EUR/GBP,USD/HKD")
	require.NoError(t, err)

	rates := memory.NewRateStore()
	lookup := application.NewRateLookup(rates, opts...)
	syncSvc := application.NewSyncService(source, rates, application.NewNormalizer("CNY", pairs), time.Second, opts...)
	ratesSvc := application.NewRatesService(rates, lookup, opts...)
	invoices := application.NewInvoiceService(memory.NewInvoiceRepo(), application.NewBinder(lookup, opts...), nil, idem, "CNY", opts...)

	srv := NewServer(ratesSvc, syncSvc, invoices)
	return testEnv{h: NewRouter(srv), srv: srv, rates: rates, source: source}
}

var errDown = errors.New("db down")
