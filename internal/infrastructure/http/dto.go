package httpserver

import (
	"time"

	"fxledger/internal/application"
	"fxledger/internal/domain"

	"github.com/shopspring/decimal"
)

type rateResponse struct {
	ID           string          `json:"id"`
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	Rate         decimal.Decimal `json:"rate"`
	RateDate     string          `json:"rate_date"`
	Source       string          `json:"source"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func toRateResponse(e domain.ExchangeRate) rateResponse {
	return rateResponse{
		ID:           e.ID,
		FromCurrency: e.From,
		ToCurrency:   e.To,
		Rate:         e.Rate,
		RateDate:     domain.FormatDate(e.Date),
		Source:       string(e.Source),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func toRateResponses(es []domain.ExchangeRate) []rateResponse {
	out := make([]rateResponse, 0, len(es))
	for _, e := range es {
		out = append(out, toRateResponse(e))
	}
	return out
}

// latestResponse has a null rate when nothing is known for the pair.
type latestResponse struct {
	FromCurrency string           `json:"from_currency"`
	ToCurrency   string           `json:"to_currency"`
	Rate         *decimal.Decimal `json:"rate"`
	RateDate     *string          `json:"rate_date,omitempty"`
	Source       *string          `json:"source,omitempty"`
	Exact        bool             `json:"exact"`
}

type quoteResponse struct {
	Currency        string          `json:"currency"`
	CurrencyName    string          `json:"currency_name"`
	BuyingRate      decimal.Decimal `json:"buying_rate"`
	SellingRate     decimal.Decimal `json:"selling_rate"`
	CashBuyingRate  decimal.Decimal `json:"cash_buying_rate"`
	CashSellingRate decimal.Decimal `json:"cash_selling_rate"`
	MiddleRate      decimal.Decimal `json:"middle_rate"`
	Date            string          `json:"date"`
	Time            string          `json:"time"`
}

func toQuoteResponses(qs []domain.CurrencyQuote) []quoteResponse {
	out := make([]quoteResponse, 0, len(qs))
	for _, q := range qs {
		out = append(out, quoteResponse{
			Currency:        q.Code,
			CurrencyName:    q.Name,
			BuyingRate:      q.Buying,
			SellingRate:     q.Selling,
			CashBuyingRate:  q.CashBuying,
			CashSellingRate: q.CashSelling,
			MiddleRate:      q.Middle,
			Date:            domain.FormatDate(q.PublishedDate),
			Time:            q.PublishedTime,
		})
	}
	return out
}

type syncResponse struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Message string          `json:"message"`
	Rates   []quoteResponse `json:"rates,omitempty"`
}

func toSyncResponse(res application.SyncResult) syncResponse {
	out := syncResponse{Success: res.Success, Count: res.Count, Message: res.Message}
	if len(res.Quotes) > 0 {
		out.Rates = toQuoteResponses(res.Quotes)
	}
	return out
}

type manualRateRequest struct {
	FromCurrency string           `json:"from_currency" validate:"required,len=3,alpha"`
	ToCurrency   string           `json:"to_currency" validate:"required,len=3,alpha,nefield=FromCurrency"`
	Rate         *decimal.Decimal `json:"rate" validate:"required"`
	RateDate     string           `json:"rate_date" validate:"omitempty,datetime=2006-01-02"`
}

func (m manualRateRequest) toManualRate() application.ManualRate {
	out := application.ManualRate{From: m.FromCurrency, To: m.ToCurrency, Rate: *m.Rate}
	if m.RateDate != "" {
		out.Date, _ = domain.ParseDate(m.RateDate)
	}
	return out
}

type batchRatesRequest struct {
	Rates []manualRateRequest `json:"rates" validate:"required,min=1,dive"`
}

type settlementResponse struct {
	ExchangeRate       *decimal.Decimal `json:"exchange_rate"`
	ExchangeRateDate   string           `json:"exchange_rate_date"`
	ExchangeRateSource string           `json:"exchange_rate_source"`
	BaseCurrency       string           `json:"base_currency"`
	BaseAmount         *decimal.Decimal `json:"base_amount"`
}

type invoiceResponse struct {
	ID                string          `json:"id"`
	InvoiceNumber     string          `json:"invoice_number"`
	IssuerCompanyID   string          `json:"issuer_company_id"`
	ReceiverCompanyID *string         `json:"receiver_company_id"`
	ClientName        string          `json:"client_name"`
	ClientTaxID       string          `json:"client_tax_id"`
	IssueDate         string          `json:"issue_date"`
	DueDate           *string         `json:"due_date"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Status            string          `json:"status"`
	Notes             string          `json:"notes"`
	PaidDate          *string         `json:"paid_date"`
	TransactionID     *string         `json:"transaction_id"`
	settlementResponse
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func optDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := domain.FormatDate(*t)
	return &s
}

func toInvoiceResponse(inv domain.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:                inv.ID,
		InvoiceNumber:     inv.Number,
		IssuerCompanyID:   inv.IssuerCompanyID,
		ReceiverCompanyID: inv.ReceiverCompanyID,
		ClientName:        inv.ClientName,
		ClientTaxID:       inv.ClientTaxID,
		IssueDate:         domain.FormatDate(inv.IssueDate),
		DueDate:           optDate(inv.DueDate),
		Amount:            inv.Amount,
		Currency:          inv.Currency,
		Status:            string(inv.Status),
		Notes:             inv.Notes,
		PaidDate:          optDate(inv.PaidDate),
		TransactionID:     inv.TransactionID,
		settlementResponse: settlementResponse{
			ExchangeRate:       inv.Settlement.Rate,
			ExchangeRateDate:   domain.FormatDate(inv.Settlement.RateDate),
			ExchangeRateSource: string(inv.Settlement.Provenance),
			BaseCurrency:       inv.Settlement.BaseCurrency,
			BaseAmount:         inv.Settlement.BaseAmount,
		},
		CreatedAt: inv.CreatedAt,
		UpdatedAt: inv.UpdatedAt,
	}
}

type createInvoiceRequest struct {
	IssuerCompanyID   string           `json:"issuer_company_id" validate:"required"`
	ReceiverCompanyID *string          `json:"receiver_company_id"`
	ClientName        string           `json:"client_name" validate:"max=200"`
	ClientTaxID       string           `json:"client_tax_id" validate:"max=64"`
	IssueDate         string           `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate           string           `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Amount            *decimal.Decimal `json:"amount" validate:"required"`
	Currency          string           `json:"currency" validate:"omitempty,len=3,alpha"`
	Notes             string           `json:"notes"`
	ExchangeRate      *decimal.Decimal `json:"exchange_rate"`
}

func (c createInvoiceRequest) toCommand(key string) application.CreateInvoice {
	out := application.CreateInvoice{
		IssuerCompanyID:   c.IssuerCompanyID,
		ReceiverCompanyID: c.ReceiverCompanyID,
		ClientName:        c.ClientName,
		ClientTaxID:       c.ClientTaxID,
		Amount:            *c.Amount,
		Currency:          c.Currency,
		Notes:             c.Notes,
		ManualRate:        c.ExchangeRate,
	}
	if c.IssueDate != "" {
		out.IssueDate, _ = domain.ParseDate(c.IssueDate)
	}
	if c.DueDate != "" {
		d, _ := domain.ParseDate(c.DueDate)
		out.DueDate = &d
	}
	if key != "" {
		out.IdempotencyKey = &key
	}
	return out
}

type updateInvoiceRequest struct {
	ReceiverCompanyID *string          `json:"receiver_company_id"`
	ClientName        *string          `json:"client_name" validate:"omitempty,max=200"`
	ClientTaxID       *string          `json:"client_tax_id" validate:"omitempty,max=64"`
	IssueDate         *string          `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate           *string          `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Amount            *decimal.Decimal `json:"amount"`
	Currency          *string          `json:"currency" validate:"omitempty,len=3,alpha"`
	Status            *string          `json:"status" validate:"omitempty,oneof=DRAFT ISSUED PAID OVERDUE"`
	Notes             *string          `json:"notes"`
	ExchangeRate      *decimal.Decimal `json:"exchange_rate"`
}

func (u updateInvoiceRequest) toCommand() application.UpdateInvoice {
	out := application.UpdateInvoice{
		ReceiverCompanyID: u.ReceiverCompanyID,
		ClientName:        u.ClientName,
		ClientTaxID:       u.ClientTaxID,
		Amount:            u.Amount,
		Currency:          u.Currency,
		Notes:             u.Notes,
		ManualRate:        u.ExchangeRate,
	}
	if u.IssueDate != nil {
		d, _ := domain.ParseDate(*u.IssueDate)
		out.IssueDate = &d
	}
	if u.DueDate != nil {
		d, _ := domain.ParseDate(*u.DueDate)
		out.DueDate = &d
	}
	if u.Status != nil {
		st := domain.InvoiceStatus(*u.Status)
		out.Status = &st
	}
	return out
}

type payInvoiceRequest struct {
	TransactionID *string `json:"transaction_id" validate:"omitempty,max=128"`
}
