package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Port          string
	AppEnv        string
	LogLevel      string
	AllowedOrigin string

	DatabaseURL   string
	RunMigrations bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	AuthSecret     string
	AccessTokenTTL time.Duration
	LoginRateLimit string

	TaxRatePercent    decimal.Decimal
	LowStockThreshold int
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "5002")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ALLOWED_ORIGIN", "http://127.0.0.1:3000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("AUTH_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_TTL", "8h")
	v.SetDefault("LOGIN_RATE_LIMIT", "5-M")
	v.SetDefault("TAX_RATE_PERCENT", "13")
	v.SetDefault("LOW_STOCK_THRESHOLD", 5)
	v.AutomaticEnv()

	taxRate, err := decimal.NewFromString(strings.TrimSpace(v.GetString("TAX_RATE_PERCENT")))
	if err != nil {
		taxRate = decimal.NewFromInt(13)
	}
	lowStock := v.GetInt("LOW_STOCK_THRESHOLD")
	if lowStock < 0 {
		lowStock = 5
	}

	return Config{
		Port:              v.GetString("PORT"),
		AppEnv:            strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		LogLevel:          strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		AllowedOrigin:     v.GetString("ALLOWED_ORIGIN"),
		DatabaseURL:       normalizeDatabaseURL(v.GetString("DATABASE_URL")),
		RunMigrations:     v.GetBool("RUN_MIGRATIONS"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisDB:           v.GetInt("REDIS_DB"),
		SessionTTL:        durationOr(v.GetString("SESSION_TTL"), 12*time.Hour),
		AuthSecret:        strings.TrimSpace(v.GetString("AUTH_SECRET")),
		AccessTokenTTL:    durationOr(v.GetString("ACCESS_TOKEN_TTL"), 8*time.Hour),
		LoginRateLimit:    strings.TrimSpace(v.GetString("LOGIN_RATE_LIMIT")),
		TaxRatePercent:    taxRate,
		LowStockThreshold: lowStock,
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// normalizeDatabaseURL rewrites the postgres:// scheme some hosts hand out
// into postgresql://.
func normalizeDatabaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(raw, "postgres://"); ok {
		return "postgresql://" + rest
	}
	return raw
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
