package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"fxledger/internal/application"
	"fxledger/internal/domain"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Currencies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.rates.Currencies())
}

func (s *Server) ListRates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := application.RateFilter{From: q.Get("from_currency"), To: q.Get("to_currency")}
	var err error
	if f.Date, err = dateParam(q.Get("date")); err != nil {
		fail(w, r, err)
		return
	}
	if f.Start, err = dateParam(q.Get("start_date")); err != nil {
		fail(w, r, err)
		return
	}
	if f.End, err = dateParam(q.Get("end_date")); err != nil {
		fail(w, r, err)
		return
	}
	if raw := q.Get("limit"); raw != "" {
		if f.Limit, err = strconv.Atoi(raw); err != nil || f.Limit < 0 {
			badRequest(w, "invalid limit")
			return
		}
	}
	rates, err := s.rates.ListRates(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRateResponses(rates))
}

// LatestRate answers with a null rate rather than 404 when nothing is known.
func (s *Server) LatestRate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := domain.NormalizeCode(q.Get("from")), domain.NormalizeCode(q.Get("to"))
	if !domain.ValidCode(from) || !domain.ValidCode(to) {
		badRequest(w, "from and to must be 3-letter currency codes")
		return
	}
	date, err := dateParam(q.Get("date"))
	if err != nil {
		fail(w, r, err)
		return
	}
	var at time.Time
	if date != nil {
		at = *date
	}
	res, ok, err := s.rates.GetRate(r.Context(), from, to, at)
	if err != nil {
		fail(w, r, err)
		return
	}
	out := latestResponse{FromCurrency: from, ToCurrency: to}
	if ok {
		rd, src := domain.FormatDate(res.Date), string(res.Source)
		out.Rate, out.RateDate, out.Source, out.Exact = &res.Rate, &rd, &src, res.Exact
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) SyncRates(w http.ResponseWriter, r *http.Request) {
	res := s.sync.SyncRates(r.Context())
	status := http.StatusOK
	if !res.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, toSyncResponse(res))
}

func (s *Server) PreviewRates(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.sync.PreviewRates(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteResponses(quotes))
}

func (s *Server) SaveManualRate(w http.ResponseWriter, r *http.Request) {
	var body manualRateRequest
	if !s.decode(w, r, &body) {
		return
	}
	saved, err := s.rates.SaveManualRate(r.Context(), body.toManualRate())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRateResponse(saved))
}

func (s *Server) SaveManualRates(w http.ResponseWriter, r *http.Request) {
	var body batchRatesRequest
	if !s.decode(w, r, &body) {
		return
	}
	in := make([]application.ManualRate, 0, len(body.Rates))
	for _, m := range body.Rates {
		in = append(in, m.toManualRate())
	}
	saved, err := s.rates.SaveManualRates(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRateResponses(saved))
}

func (s *Server) DeleteRate(w http.ResponseWriter, r *http.Request) {
	if err := s.rates.DeleteRate(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
