package config

import "time"

const (
	DefaultHTTPPort            = "8080"
	DefaultShutdownTimeout     = 10 * time.Second
	DefaultPGMaxConns          = 5
	DefaultPGMinConns          = 1
	DefaultBaseCurrency        = "CNY"
	DefaultRateSourceURL       = "https://www.boc.cn/sourcedb/whpj/index.html"
	DefaultCrossRatePairs      = "EUR/USD,EUR/GBP,USD/HKD"
	DefaultRateTimezone        = "Asia/Shanghai"
	DefaultFetchTimeout        = 20 * time.Second
	DefaultSyncCron            = "0 */30 9-17 * * 1-5"
	DefaultSyncRetryMaxElapsed = 5 * time.Minute
	DefaultReconcileLimit      = 200
	DefaultHTTPClientTimeout   = 25 * time.Second
)
