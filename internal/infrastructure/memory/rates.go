// Package memory holds map-backed stores for local runs and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"fxledger/internal/application"
	"fxledger/internal/domain"

	"github.com/google/uuid"
)

type rateKey struct {
	date     string
	from, to string
}

type RateStore struct {
	mu    sync.RWMutex
	edges map[rateKey]domain.ExchangeRate
	now   func() time.Time
}

var _ application.RateStore = (*RateStore)(nil)

func NewRateStore() *RateStore {
	return &RateStore{edges: map[rateKey]domain.ExchangeRate{}, now: time.Now}
}

func keyOf(from, to string, date time.Time) rateKey {
	return rateKey{date: domain.FormatDate(date), from: from, to: to}
}

func (s *RateStore) Upsert(_ context.Context, edges []domain.ExchangeRate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	var errs []error
	for _, e := range edges {
		if err := e.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", e.Pair(), domain.FormatDate(e.Date), err))
			continue
		}
		e.Date = domain.DateOf(e.Date)
		now := s.now().UTC()
		k := keyOf(e.From, e.To, e.Date)
		if cur, ok := s.edges[k]; ok {
			if cur.Source == domain.RateSourceManual && e.Source != domain.RateSourceManual {
				continue
			}
			e.ID, e.CreatedAt = cur.ID, cur.CreatedAt
		} else {
			e.ID, e.CreatedAt = uuid.NewString(), now
		}
		e.UpdatedAt = now
		s.edges[k] = e
		n++
	}
	if len(errs) > 0 {
		return n, fmt.Errorf("%w: %w", domain.ErrPersistence, errors.Join(errs...))
	}
	return n, nil
}

func (s *RateStore) FindExact(_ context.Context, from, to string, date time.Time) (domain.ExchangeRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.edges[keyOf(from, to, date)]
	if !ok {
		return domain.ExchangeRate{}, domain.ErrNotFound
	}
	return e, nil
}

func (s *RateStore) FindLatestOnOrBefore(_ context.Context, from, to string, date time.Time) (domain.ExchangeRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	limit := domain.DateOf(date)
	var (
		best  domain.ExchangeRate
		found bool
	)
	for _, e := range s.edges {
		if e.From != from || e.To != to || e.Date.After(limit) {
			continue
		}
		if !found || e.Date.After(best.Date) {
			best, found = e, true
		}
	}
	if !found {
		return domain.ExchangeRate{}, domain.ErrNotFound
	}
	return best, nil
}

func (s *RateStore) List(_ context.Context, f application.RateFilter) ([]domain.ExchangeRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ExchangeRate
	for _, e := range s.edges {
		if !matchRate(e, f) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matchRate(e domain.ExchangeRate, f application.RateFilter) bool {
	switch {
	case f.From != "" && e.From != f.From,
		f.To != "" && e.To != f.To,
		f.Date != nil && !e.Date.Equal(domain.DateOf(*f.Date)),
		f.Start != nil && e.Date.Before(domain.DateOf(*f.Start)),
		f.End != nil && e.Date.After(domain.DateOf(*f.End)):
		return false
	}
	return true
}

func (s *RateStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.edges {
		if e.ID == id {
			delete(s.edges, k)
			return nil
		}
	}
	return domain.ErrNotFound
}
