package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fxledger/internal/application"
	"fxledger/internal/domain"
	"fxledger/internal/infrastructure/httpx"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultBOCURL is the Bank of China foreign exchange quotation page.
const DefaultBOCURL = "https://www.boc.cn/sourcedb/whpj/index.html"

const (
	colName = iota
	colBuying
	colCashBuying
	colSelling
	colCashSelling
	colMiddle
	minCells = 7
)

// BOC quotes are per 100 units of foreign currency.
var hundred = decimal.NewFromInt(100)

// bocNames maps the display names used on the quotation page to ISO codes.
// Rows with any other name are ignored.
var bocNames = map[string]string{
	"欧元":      "EUR",
	"美元":      "USD",
	"英镑":      "GBP",
	"港币":      "HKD",
	"日元":      "JPY",
	"澳大利亚元":   "AUD",
	"加拿大元":    "CAD",
	"瑞士法郎":    "CHF",
	"新加坡元":    "SGD",
	"新西兰元":    "NZD",
	"韩国元":     "KRW",
	"泰国铢":     "THB",
	"马来西亚林吉特": "MYR",
	"俄罗斯卢布":   "RUB",
	"南非兰特":    "ZAR",
}

// BrowserHeaders are sent with every request; the page rejects bare clients.
func BrowserHeaders() http.Header {
	return http.Header{
		"User-Agent":      {"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"},
		"Accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"},
		"Accept-Language": {"zh-CN,zh;q=0.9,en;q=0.8"},
		"Cache-Control":   {"no-cache"},
	}
}

// BOC scrapes the Bank of China quotation table.
type BOC struct {
	URL      string
	Client   *httpx.Client
	Clock    application.Clock
	Location *time.Location
	Log      *zap.Logger
}

var _ application.RateSource = (*BOC)(nil)

func NewBOC(url string, hc *http.Client, loc *time.Location, log *zap.Logger) *BOC {
	if url == "" {
		url = DefaultBOCURL
	}
	return &BOC{
		URL:      url,
		Client:   &httpx.Client{HTTP: hc, Headers: BrowserHeaders()},
		Location: loc,
		Log:      log,
	}
}

// Fetch performs one GET and parses the table. It never retries.
func (p *BOC) Fetch(ctx context.Context) ([]domain.CurrencyQuote, error) {
	client := p.Client
	if client == nil {
		client = &httpx.Client{Headers: BrowserHeaders()}
	}
	body, err := client.Get(ctx, p.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: boc: %w", domain.ErrSourceUnavailable, err)
	}
	return p.parse(body)
}

func (p *BOC) parse(body []byte) ([]domain.CurrencyQuote, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: boc: read html: %w", domain.ErrParseFailure, err)
	}
	table := doc.Find("table").FilterFunction(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		return strings.Contains(text, "货币名称") &&
			strings.Contains(text, "现钞买入价") &&
			strings.Contains(text, "现汇买入价")
	}).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: boc: quotation table not found", domain.ErrParseFailure)
	}

	now := p.now()
	date := domain.DateOf(now)
	clock := now.Format(time.TimeOnly)
	log := p.logger()

	var out []domain.CurrencyQuote
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() < minCells {
			return
		}
		name := strings.TrimSpace(cells.Eq(colName).Text())
		if name == "" || name == "货币名称" {
			return
		}
		code, ok := bocNames[name]
		if !ok {
			return
		}
		vals, err := cellValues(cells)
		if err != nil {
			log.Warn("boc.row_dropped", zap.String("currency", code), zap.Error(err))
			return
		}
		out = append(out, domain.CurrencyQuote{
			Code:          code,
			Name:          name,
			Buying:        vals[colBuying],
			CashBuying:    vals[colCashBuying],
			Selling:       vals[colSelling],
			CashSelling:   vals[colCashSelling],
			Middle:        vals[colMiddle],
			PublishedDate: date,
			PublishedTime: clock,
		})
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: boc: no rows parsed", domain.ErrParseFailure)
	}
	return out, nil
}

// cellValues parses the five rate columns. Empty cells read as zero.
func cellValues(cells *goquery.Selection) ([colMiddle + 1]decimal.Decimal, error) {
	var vals [colMiddle + 1]decimal.Decimal
	for i := colBuying; i <= colMiddle; i++ {
		raw := strings.TrimSpace(cells.Eq(i).Text())
		if raw == "" {
			vals[i] = decimal.Zero
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return vals, fmt.Errorf("column %d: %w", i, err)
		}
		if d.IsNegative() {
			return vals, errors.New("negative rate")
		}
		vals[i] = d.Div(hundred)
	}
	return vals, nil
}

func (p *BOC) now() time.Time {
	var t time.Time
	if p.Clock != nil {
		t = p.Clock.Now()
	} else {
		t = time.Now()
	}
	if p.Location != nil {
		t = t.In(p.Location)
	}
	return t
}

func (p *BOC) logger() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}
