package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyQuote is one bank-published quote for one currency on one fetch.
// Rates are per single unit of the foreign currency in the base currency.
type CurrencyQuote struct {
	Code          string          `json:"currency"`
	Name          string          `json:"currencyName"`
	Buying        decimal.Decimal `json:"buyingRate"`
	Selling       decimal.Decimal `json:"sellingRate"`
	CashBuying    decimal.Decimal `json:"cashBuyingRate"`
	CashSelling   decimal.Decimal `json:"cashSellingRate"`
	Middle        decimal.Decimal `json:"middleRate"`
	PublishedDate time.Time       `json:"-"`
	PublishedTime string          `json:"time"`
}

// Usable reports whether the quote can be turned into rate edges.
func (q CurrencyQuote) Usable() bool { return q.Selling.IsPositive() }
