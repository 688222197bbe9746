package config

import (
	"strings"
	"time"

	infraconfig "fxledger/internal/infrastructure/config"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port            string
	Storage         string
	DatabaseURL     string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
	// Rates
	Provider       string
	RateSourceURL  string
	BaseCurrency   string
	CrossRatePairs string
	RateTimezone   string
	FetchTimeout   time.Duration
	// Worker
	SyncCron            string
	SyncOnStart         bool
	SyncRetryMaxElapsed time.Duration
	ReconcileLimit      int // page size of the unresolved-invoice scan
	// Redis (idempotency)
	IdempotencyBackend string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RedisTTL           time.Duration
}

func defaults(v *viper.Viper) {
	v.SetDefault("ENV", "local")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", infraconfig.DefaultHTTPPort)
	v.SetDefault("STORAGE", "pg")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("SHUTDOWN_TIMEOUT", infraconfig.DefaultShutdownTimeout)
	v.SetDefault("PROVIDER", "boc")
	v.SetDefault("RATE_SOURCE_URL", infraconfig.DefaultRateSourceURL)
	v.SetDefault("BASE_CURRENCY", infraconfig.DefaultBaseCurrency)
	v.SetDefault("CROSS_RATE_PAIRS", infraconfig.DefaultCrossRatePairs)
	v.SetDefault("RATE_TIMEZONE", infraconfig.DefaultRateTimezone)
	v.SetDefault("RATE_FETCH_TIMEOUT", infraconfig.DefaultFetchTimeout)
	v.SetDefault("SYNC_CRON", infraconfig.DefaultSyncCron)
	v.SetDefault("SYNC_ON_START", false)
	v.SetDefault("SYNC_RETRY_MAX_ELAPSED", infraconfig.DefaultSyncRetryMaxElapsed)
	v.SetDefault("RECONCILE_LIMIT", infraconfig.DefaultReconcileLimit)
	v.SetDefault("IDEMPOTENCY_BACKEND", "redis")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("IDEMPOTENCY_TTL", 24*time.Hour)
}

// Load reads .env (when present) and environment variables and applies defaults.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	return Config{
		Env:                 v.GetString("ENV"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		Port:                v.GetString("PORT"),
		Storage:             v.GetString("STORAGE"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		CORSOrigins:         splitList(v.GetString("CORS_ORIGINS")),
		ShutdownTimeout:     v.GetDuration("SHUTDOWN_TIMEOUT"),
		Provider:            v.GetString("PROVIDER"),
		RateSourceURL:       v.GetString("RATE_SOURCE_URL"),
		BaseCurrency:        strings.ToUpper(v.GetString("BASE_CURRENCY")),
		CrossRatePairs:      v.GetString("CROSS_RATE_PAIRS"),
		RateTimezone:        v.GetString("RATE_TIMEZONE"),
		FetchTimeout:        v.GetDuration("RATE_FETCH_TIMEOUT"),
		SyncCron:            v.GetString("SYNC_CRON"),
		SyncOnStart:         v.GetBool("SYNC_ON_START"),
		SyncRetryMaxElapsed: v.GetDuration("SYNC_RETRY_MAX_ELAPSED"),
		ReconcileLimit:      v.GetInt("RECONCILE_LIMIT"),
		IdempotencyBackend:  v.GetString("IDEMPOTENCY_BACKEND"),
		RedisAddr:           v.GetString("REDIS_ADDR"),
		RedisPassword:       v.GetString("REDIS_PASSWORD"),
		RedisDB:             v.GetInt("REDIS_DB"),
		RedisTTL:            v.GetDuration("IDEMPOTENCY_TTL"),
	}
}

// Location resolves RateTimezone, falling back to UTC when it is unknown.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.RateTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
