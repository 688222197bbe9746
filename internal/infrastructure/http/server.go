package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fxledger/internal/application"
	"fxledger/internal/domain"
	"fxledger/internal/infrastructure/logx"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type Server struct {
	rates    *application.RatesService
	sync     *application.SyncService
	invoices *application.InvoiceService
	validate *validator.Validate
	ping     func(ctx context.Context) error
}

func NewServer(rates *application.RatesService, sync *application.SyncService, invoices *application.InvoiceService) *Server {
	return &Server{
		rates:    rates,
		sync:     sync,
		invoices: invoices,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// SetReadyCheck installs the check behind /readyz.
func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }

type errorEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorEnvelope{Code: status, Message: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

// fail maps service errors to HTTP statuses. Unexpected errors are logged and
// reported without detail.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, application.ErrBadRequest),
		errors.Is(err, domain.ErrInvalidRate),
		errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrUnsupportedPair):
		badRequest(w, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	case errors.Is(err, application.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrPendingRate):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrSourceUnavailable), errors.Is(err, domain.ErrParseFailure):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logx.WithFields(r.Context()).Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		badRequest(w, "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		badRequest(w, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	return fmt.Sprintf("field %s failed %s validation", fe.Namespace(), fe.Tag())
}

// dateParam parses an optional YYYY-MM-DD value.
func dateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", application.ErrBadRequest, raw)
	}
	return &d, nil
}
