package domain

// DefaultBaseCurrency is the ledger's home currency.
const DefaultBaseCurrency = "CNY"

type Currency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// SupportedCurrencies is the catalogue offered to invoice forms.
var SupportedCurrencies = []Currency{
	{Code: "CNY", Name: "人民币", Symbol: "¥"},
	{Code: "USD", Name: "美元", Symbol: "$"},
	{Code: "EUR", Name: "欧元", Symbol: "€"},
	{Code: "JPY", Name: "日元", Symbol: "¥"},
	{Code: "GBP", Name: "英镑", Symbol: "£"},
	{Code: "HKD", Name: "港币", Symbol: "HK$"},
	{Code: "AUD", Name: "澳元", Symbol: "A$"},
	{Code: "CAD", Name: "加元", Symbol: "C$"},
	{Code: "CHF", Name: "瑞士法郎", Symbol: "CHF"},
	{Code: "SGD", Name: "新加坡元", Symbol: "S$"},
	{Code: "NZD", Name: "新西兰元", Symbol: "NZ$"},
	{Code: "KRW", Name: "韩元", Symbol: "₩"},
	{Code: "THB", Name: "泰国铢", Symbol: "฿"},
	{Code: "MYR", Name: "马来西亚林吉特", Symbol: "RM"},
}
