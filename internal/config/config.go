package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pulseware/platform/pkg/db"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	DefaultCurrency string

	// GatewaySecret is the shared secret used to verify payment webhook
	// signatures. Requests are rejected before any row is written when the
	// signature does not match.
	GatewaySecret string

	DB db.Config

	AI        AIConfig
	RateLimit RateLimitConfig

	// Capabilities is resolved once at startup. Optional subsystems are
	// switched off here explicitly instead of being probed at runtime.
	Capabilities Capabilities
}

// Capabilities flags optional subsystems for a deployment.
type Capabilities struct {
	// Bonuses controls the signup/referral bonus branch of onboarding.
	// When disabled, signup proceeds without crediting any bonus.
	Bonuses bool
}

type AIConfig struct {
	Endpoint       string
	APIKey         string
	TimeoutSeconds int
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AnalysisRate  float64
	AnalysisBurst int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:         getenv("APP_SERVICE", "pulseware"),
		AppVersion:      getenv("APP_VERSION", "0.1.0"),
		Environment:     getenv("ENVIRONMENT", "development"),
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		DefaultCurrency: strings.ToUpper(getenv("DEFAULT_CURRENCY", "NGN")),
		GatewaySecret:   strings.TrimSpace(getenv("PAYMENT_GATEWAY_SECRET", "")),
		DB: db.Config{
			Type:            getenv("DATABASE_TYPE", "postgres"),
			Host:            getenv("DATABASE_HOST", "localhost"),
			Port:            getenv("DATABASE_PORT", "5432"),
			Name:            getenv("DATABASE_NAME", "pulseware"),
			User:            getenv("DATABASE_USER", "postgres"),
			Password:        getenv("DATABASE_PASSWORD", ""),
			SSLMode:         getenv("DATABASE_SSLMODE", "disable"),
			MaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
			MaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
			ConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
			ConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),
		},
		AI: AIConfig{
			Endpoint:       strings.TrimSpace(getenv("AI_ENDPOINT", "")),
			APIKey:         strings.TrimSpace(getenv("AI_API_KEY", "")),
			TimeoutSeconds: getenvInt("AI_TIMEOUT_SECONDS", 60),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword: strings.TrimSpace(getenv("RATE_LIMIT_REDIS_PASSWORD", "")),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			AnalysisRate:  getenvFloat("RATE_LIMIT_ANALYSIS_RATE", 2),
			AnalysisBurst: getenvInt("RATE_LIMIT_ANALYSIS_BURST", 10),
		},
		Capabilities: Capabilities{
			Bonuses: getenvBool("CAPABILITY_BONUSES", true),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
