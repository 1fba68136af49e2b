package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Token store backends
const (
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
	TokenStoreMemory = "memory"
)

// Config holds all configuration for the dashboard client
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Local dashboard server
	Port string
	Env  string // development, staging, production

	// External MMM API
	API APIConfig

	// Session persistence
	Session SessionConfig

	// Redis (optional token store backend)
	Redis RedisConfig

	// Scheduled reload; empty disables it
	RefreshSchedule string

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// APIConfig holds the external MMM API configuration
type APIConfig struct {
	BaseURL string
	Timeout time.Duration

	// Outbound pacing (requests per second)
	RateLimit int

	// Circuit breaker
	BreakerFailures int
	BreakerTimeout  time.Duration
}

// SessionConfig controls where the bearer token is persisted
type SessionConfig struct {
	TokenStore string // file, redis, memory
	TokenFile  string
	TokenKey   string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		API: APIConfig{
			BaseURL:         getEnv("MMM_API_BASE_URL", "http://localhost:8000"),
			Timeout:         getEnvAsDuration("MMM_API_TIMEOUT", "30s"),
			RateLimit:       getEnvAsInt("MMM_API_RATE_LIMIT", 10),
			BreakerFailures: getEnvAsInt("MMM_API_BREAKER_FAILURES", 5),
			BreakerTimeout:  getEnvAsDuration("MMM_API_BREAKER_TIMEOUT", "30s"),
		},

		Session: SessionConfig{
			TokenStore: getEnv("TOKEN_STORE", TokenStoreFile),
			TokenFile:  getEnv("TOKEN_FILE", defaultTokenFile()),
			TokenKey:   getEnv("TOKEN_KEY", "access_token"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		RefreshSchedule: getEnv("REFRESH_SCHEDULE", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("MMM_API_BASE_URL must be an absolute URL, got %q", c.API.BaseURL)
	}

	switch c.Session.TokenStore {
	case TokenStoreFile:
		if c.Session.TokenFile == "" {
			return fmt.Errorf("TOKEN_FILE is required when TOKEN_STORE=file")
		}
	case TokenStoreRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("REDIS_ENABLED must be true when TOKEN_STORE=redis")
		}
	case TokenStoreMemory:
	default:
		return fmt.Errorf("TOKEN_STORE must be one of: file, redis, memory")
	}

	if c.Session.TokenKey == "" {
		return fmt.Errorf("TOKEN_KEY must not be empty")
	}

	if c.API.RateLimit <= 0 {
		return fmt.Errorf("MMM_API_RATE_LIMIT must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "mmm-dashboard", "session.json")
	}
	return filepath.Join(home, ".mmm-dashboard", "session.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
