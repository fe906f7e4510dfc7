package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration for the gateway.
type Config struct {
	HTTPPort  string
	JWTSecret []byte

	// APIKeys are the plaintext keys callers may use. Empty means open access
	// (local development only).
	APIKeys []string

	Provider  ProviderConfig
	Cache     CacheConfig
	Retry     RetryConfig
	History   HistoryConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Archive   ArchiveConfig
}

// ProviderConfig holds generation-provider settings
type ProviderConfig struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
}

// CacheConfig holds response-cache settings
type CacheConfig struct {
	TTLShort   time.Duration // direct lookups (translate, vocabulary)
	TTLLong    time.Duration // multi-step analyses (grammar, review)
	MaxEntries int
}

// RetryConfig holds the provider retry policy
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// HistoryConfig holds audit-log settings
type HistoryConfig struct {
	Capacity       int // ring-buffer size for the in-memory variant
	PageSize       int
	RecordFailures bool
}

// DatabaseConfig holds database connection settings. URL empty means the
// in-memory history ring is used instead of Postgres.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig holds Redis connection settings. Address empty means the
// in-memory cache, ledger and queue are used.
type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RateLimitConfig holds per-key rate limiting settings
type RateLimitConfig struct {
	PerMinute int // 0 disables limiting
}

// ArchiveConfig holds configuration for the S3-based audit archive sink
type ArchiveConfig struct {
	Enabled       bool
	BufferSize    int
	FlushSize     int
	FlushInterval time.Duration
	S3Bucket      string
	S3Region      string
	S3Prefix      string
	PodName       string
}

func getEnvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvString(key string, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}

func getEnvBool(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val == "true" || val == "1"
}

func getEnvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	providerKey := os.Getenv("OPENAI_API_KEY")
	if providerKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	cfg := &Config{
		HTTPPort:  getEnvString("HTTP_PORT", "8080"),
		JWTSecret: []byte(getEnvString("JWT_SECRET", "supersecretkey")),
		APIKeys:   getEnvList("GATEWAY_API_KEYS"),
		Provider: ProviderConfig{
			APIKey:         providerKey,
			BaseURL:        getEnvString("OPENAI_BASE_URL", ""),
			RequestTimeout: getEnvDuration("PROVIDER_REQUEST_TIMEOUT", 60*time.Second),
		},
		Cache: CacheConfig{
			TTLShort:   getEnvDuration("CACHE_TTL_SHORT", 1*time.Hour),
			TTLLong:    getEnvDuration("CACHE_TTL_LONG", 24*time.Hour),
			MaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 1000),
		},
		Retry: RetryConfig{
			MaxAttempts: getEnvInt("RETRY_MAX_ATTEMPTS", 3),
			BaseDelay:   getEnvDuration("RETRY_BASE_DELAY", 1500*time.Millisecond),
		},
		History: HistoryConfig{
			Capacity:       getEnvInt("HISTORY_CAPACITY", 50),
			PageSize:       getEnvInt("HISTORY_PAGE_SIZE", 20),
			RecordFailures: getEnvBool("HISTORY_RECORD_FAILURES", false),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute),
		},
		Redis: RedisConfig{
			Address:      os.Getenv("REDIS_ADDRESS"),
			Password:     getEnvString("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 0),
		},
		Archive: ArchiveConfig{
			Enabled:       getEnvBool("ARCHIVE_ENABLED", false),
			BufferSize:    getEnvInt("ARCHIVE_BUFFER_SIZE", 10000),
			FlushSize:     getEnvInt("ARCHIVE_FLUSH_SIZE", 1000),
			FlushInterval: getEnvDuration("ARCHIVE_FLUSH_INTERVAL", 5*time.Minute),
			S3Bucket:      getEnvString("ARCHIVE_S3_BUCKET", ""),
			S3Region:      getEnvString("ARCHIVE_S3_REGION", "us-east-1"),
			S3Prefix:      getEnvString("ARCHIVE_S3_PREFIX", "audit/"),
			PodName:       getEnvString("POD_NAME", "gateway-0"),
		},
	}

	return cfg, nil
}
