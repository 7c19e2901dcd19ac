package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	DotEnvLoaded bool

	Port     string
	Env      string
	LogLevel string

	Storage        string
	DatabaseURL    string
	PersistTimeout time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	RedisAddr      string
	IdempotencyTTL time.Duration

	AuditFailedTransactions bool

	BreakerConsecutiveFailures uint32
	BreakerOpenTimeout         time.Duration
}

// Load reads .env when present, then the environment, falling back to defaults.
func Load() *Config {
	// A missing .env is normal outside development; main reports it once logging is up.
	dotEnvErr := godotenv.Load()

	return &Config{
		DotEnvLoaded: dotEnvErr == nil,

		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Storage:        strings.ToLower(getEnv("STORAGE", StorageMemory)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		PersistTimeout: getDuration("PERSIST_TIMEOUT", 5*time.Second),

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "transaction_completed"),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		IdempotencyTTL: getDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		AuditFailedTransactions: getBool("AUDIT_FAILED_TRANSACTIONS", false),

		BreakerConsecutiveFailures: uint32(getInt("BREAKER_CONSECUTIVE_FAILURES", 5)),
		BreakerOpenTimeout:         getDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),
	}
}

// Helper to get env with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
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
