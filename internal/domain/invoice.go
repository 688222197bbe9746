package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "DRAFT"
	InvoiceStatusIssued  InvoiceStatus = "ISSUED"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
)

// Provenance records how an invoice's settlement rate was obtained.
// Rate sources of stored edges are valid provenances as well.
type Provenance string

const (
	ProvenanceSameCurrency Provenance = "SAME_CURRENCY"
	ProvenanceManual       Provenance = Provenance(RateSourceManual)
	ProvenanceFallback     Provenance = "BANK_OF_CHINA_FALLBACK"
	ProvenanceUnresolved   Provenance = "UNRESOLVED"
)

// Settlement is the currency-conversion state the binder attaches to an invoice.
type Settlement struct {
	Rate         *decimal.Decimal
	RateDate     time.Time
	Provenance   Provenance
	BaseCurrency string
	BaseAmount   *decimal.Decimal
}

func (s Settlement) Resolved() bool { return s.Rate != nil }

type Invoice struct {
	ID                string
	Number            string
	IssuerCompanyID   string
	ReceiverCompanyID *string
	ClientName        string
	ClientTaxID       string
	IssueDate         time.Time
	DueDate           *time.Time
	Amount            decimal.Decimal
	Currency          string
	Status            InvoiceStatus
	Notes             string
	PaidDate          *time.Time
	TransactionID     *string
	Settlement        Settlement
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Billable is false while a foreign-currency invoice still waits for a rate.
func (i Invoice) Billable() bool {
	return i.Currency == i.Settlement.BaseCurrency || i.Settlement.Resolved()
}
