package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Env              string
	LogLevel         string
	Port             uint16
	DatabaseUrl      string
	PricingRulesPath string
	DefaultTaxRate   decimal.Decimal
	AllowedOrigins   string
	Cart             CartConfig
	Nats             NatsConfig
}

// CartConfig tunes the cart controller.
type CartConfig struct {
	// Key is the durable-storage key under which the cart snapshot lives.
	Key string

	// PersistTimeout bounds each snapshot write; slower writes count as
	// persistence failures.
	PersistTimeout time.Duration
}

// NatsConfig holds the optional NATS event bus settings. Cart change
// events are published in-process only when URL is empty.
type NatsConfig struct {
	URL     string
	Subject string
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	taxRate, err := decimal.NewFromString(getEnv("DEFAULT_TAX_RATE", "0"))
	if err != nil || taxRate.IsNegative() {
		return nil, fmt.Errorf("DEFAULT_TAX_RATE must be a non-negative decimal")
	}

	cfg := &Config{
		Env:              getEnv("ENV", "dev"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Port:             getEnvInt("PORT", 3000),
		DatabaseUrl:      getEnv("DATABASE_URL", ""),
		PricingRulesPath: getEnv("PRICING_RULES_PATH", ""),
		DefaultTaxRate:   taxRate,
		AllowedOrigins:   getEnv("ALLOWED_ORIGINS", "*"),
		Cart: CartConfig{
			Key:            getEnv("CART_KEY", "cart:default"),
			PersistTimeout: getEnvDuration("CART_PERSIST_TIMEOUT", 3*time.Second),
		},
		Nats: NatsConfig{
			URL:     getEnv("NATS_URL", ""),
			Subject: getEnv("NATS_SUBJECT", "greenhaus.cart.updated"),
		},
	}

	// Validate env
	validEnv := cfg.Env == "dev" || cfg.Env == "prod"
	if !validEnv {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	// Validate log level
	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	if cfg.Cart.PersistTimeout <= 0 {
		return nil, fmt.Errorf("CART_PERSIST_TIMEOUT must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue uint16) uint16 {
	if value := os.Getenv(key); value != "" {
		var intValue uint16
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
