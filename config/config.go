package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"shiftplay/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DBDriver       string
	DatabaseURL    string
	AllowedOrigins []string

	SideShiftURL         string
	SideShiftSecret      string
	SideShiftAffiliateID string
	GatewayTimeout       time.Duration
	GatewayRPS           float64

	WebhookSecret string

	OrderSyncInterval time.Duration
	OrderSyncMinAge   time.Duration

	DefaultUSDPrice float64
	AssetUSDPrices  map[string]float64

	LogLevel  string
	LogFormat string
	LogOutput string

	R2 R2Config
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
}

// Enabled reports whether every R2 credential is present.
func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.AccessKeyID != "" && r.AccessKeySecret != "" && r.Bucket != ""
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warn("⚠️  No .env file found, reading environment variables directly")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from any lookup function, defaults applied.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:                 get("PORT", "4000"),
		DBDriver:             strings.ToLower(get("DB_DRIVER", "postgres")),
		DatabaseURL:          get("DATABASE_URL", ""),
		AllowedOrigins:       splitList(get("ALLOWED_ORIGINS", "http://localhost:5173")),
		SideShiftURL:         strings.TrimRight(get("SIDESHIFT_API_URL", "https://sideshift.ai/api/v2"), "/"),
		SideShiftSecret:      get("SIDESHIFT_SECRET", ""),
		SideShiftAffiliateID: get("SIDESHIFT_AFFILIATE_ID", ""),
		WebhookSecret:        get("WEBHOOK_SECRET", ""),
		LogLevel:             get("LOG_LEVEL", "info"),
		LogFormat:            get("LOG_FORMAT", "text"),
		LogOutput:            get("LOG_OUTPUT", "stdout"),
		R2: R2Config{
			AccountID:       get("CLOUDFLARE_ACCOUNT_ID", ""),
			AccessKeyID:     get("R2_ACCESS_KEY_ID", ""),
			AccessKeySecret: get("R2_ACCESS_KEY_SECRET", ""),
			Bucket:          get("R2_BUCKET_NAME", ""),
		},
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable not set")
		}
	case "sqlite":
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = "file:shiftplay.db"
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	var err error
	if cfg.GatewayTimeout, err = parseDuration("GATEWAY_TIMEOUT", get("GATEWAY_TIMEOUT", "10s")); err != nil {
		return nil, err
	}
	if cfg.OrderSyncInterval, err = parseDuration("ORDER_SYNC_INTERVAL", get("ORDER_SYNC_INTERVAL", "30s")); err != nil {
		return nil, err
	}
	if cfg.OrderSyncMinAge, err = parseDuration("ORDER_SYNC_MIN_AGE", get("ORDER_SYNC_MIN_AGE", "60s")); err != nil {
		return nil, err
	}
	if cfg.GatewayRPS, err = parseFloat("GATEWAY_RPS", get("GATEWAY_RPS", "5")); err != nil {
		return nil, err
	}
	if cfg.DefaultUSDPrice, err = parseFloat("DEFAULT_USD_PRICE", get("DEFAULT_USD_PRICE", "50000")); err != nil {
		return nil, err
	}
	if cfg.AssetUSDPrices, err = parsePrices(get("ASSET_USD_PRICES", "BTC:50000,ETH:3000,USDT:1,USDC:1")); err != nil {
		return nil, err
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDuration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}

func parseFloat(key, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return f, nil
}

// parsePrices reads "BTC:50000,ETH:3000" into an upper-cased asset map.
func parsePrices(v string) (map[string]float64, error) {
	prices := make(map[string]float64)
	for _, pair := range splitList(v) {
		asset, price, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("invalid ASSET_USD_PRICES entry %q", pair)
		}
		f, err := parseFloat("ASSET_USD_PRICES", strings.TrimSpace(price))
		if err != nil {
			return nil, err
		}
		prices[strings.ToUpper(strings.TrimSpace(asset))] = f
	}
	return prices, nil
}
