package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	BackendRemote = "remote"
	BackendSQLite = "sqlite"
)

type Config struct {
	Addr            string
	Backend         string
	RemoteURL       string
	DBPath          string
	RedisAddr       string
	RedisPassword   string
	CartTTL         time.Duration
	KafkaBrokers    []string
	AllowedOrigins  []string
	Currency        string
	Locale          string
	DeliveryBase    decimal.Decimal
	DeliveryTier    int
	PageSize        int
	RateLimit       float64
	RateBurst       int
	CategoryTTL     time.Duration
	RequestTimeout  time.Duration
	RemoteTimeout   time.Duration
	ShutdownTimeout time.Duration
	Debug           bool
}

func loadConfig() *Config {
	return &Config{
		Addr:            getEnv("HTTP_ADDR", ":8080"),
		Backend:         getEnv("BACKEND", BackendSQLite),
		RemoteURL:       getEnv("REMOTE_URL", "http://localhost:3000/api"),
		DBPath:          getEnv("DB_PATH", "./storefront.db"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		CartTTL:         getDuration("CART_TTL", 24*time.Hour),
		KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "")),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "*")),
		Currency:        getEnv("CURRENCY", "USD"),
		Locale:          getEnv("LOCALE", "en-US"),
		DeliveryBase:    getDecimal("DELIVERY_BASE", decimal.NewFromInt(100)),
		DeliveryTier:    getInt("DELIVERY_THRESHOLD", 6),
		PageSize:        getInt("PAGE_SIZE", 8),
		RateLimit:       float64(getInt("RATE_LIMIT", 20)),
		RateBurst:       getInt("RATE_BURST", 40),
		CategoryTTL:     getDuration("CATEGORY_TTL", 5*time.Minute),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		RemoteTimeout:   getDuration("REMOTE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: 10 * time.Second,
		Debug:           getEnv("DEBUG", "") == "true",
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendRemote:
		if c.RemoteURL == "" {
			return fmt.Errorf("backend %q needs a remote url", c.Backend)
		}
	case BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("backend %q needs a database path", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendRemote, BackendSQLite)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	if c.DeliveryTier <= 0 {
		return fmt.Errorf("delivery threshold must be positive, got %d", c.DeliveryTier)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return d
	}
	return defaultValue
}

func getDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if d, err := decimal.NewFromString(getEnv(key, "")); err == nil {
		return d
	}
	return defaultValue
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
