package httpserver

import (
	"net/http"

	"fxledger/internal/application"
	"fxledger/internal/domain"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := application.InvoiceFilter{CompanyID: q.Get("company_id"), Status: domain.InvoiceStatus(q.Get("status"))}
	var err error
	if f.Start, err = dateParam(q.Get("start_date")); err != nil {
		fail(w, r, err)
		return
	}
	if f.End, err = dateParam(q.Get("end_date")); err != nil {
		fail(w, r, err)
		return
	}
	list, err := s.invoices.List(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	out := make([]invoiceResponse, 0, len(list))
	for _, inv := range list {
		out = append(out, toInvoiceResponse(inv))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var body createInvoiceRequest
	if !s.decode(w, r, &body) {
		return
	}
	inv, err := s.invoices.Create(r.Context(), body.toCommand(r.Header.Get("X-Idempotency-Key")))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvoiceResponse(inv))
}

func (s *Server) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := s.invoices.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (s *Server) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	var body updateInvoiceRequest
	if !s.decode(w, r, &body) {
		return
	}
	inv, err := s.invoices.Update(r.Context(), chi.URLParam(r, "id"), body.toCommand())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (s *Server) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := s.invoices.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) IssueInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := s.invoices.Issue(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (s *Server) PayInvoice(w http.ResponseWriter, r *http.Request) {
	var body payInvoiceRequest
	if r.ContentLength != 0 && !s.decode(w, r, &body) {
		return
	}
	inv, err := s.invoices.MarkPaid(r.Context(), chi.URLParam(r, "id"), body.TransactionID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}
