package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional, snapshots only)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	Jisilu JisiluConfig
	Screen ScreenConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// JisiluConfig holds the listing source configuration
type JisiluConfig struct {
	BaseURL           string
	UserAgent         string
	PageSize          int           // rp
	MaxPages          int           // hard bound, never above 200
	RequestsPerSecond float64       // 0 = no pacing
	Timeout           time.Duration // per outbound request
	Cookie            string        // 스케줄러 전용 세션 쿠키
}

// ScreenConfig holds the external screen service configuration
type ScreenConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SchedulerConfig holds periodic refresh configuration
type SchedulerConfig struct {
	RefreshSchedule string        // cron spec with seconds
	PruneSchedule   string        // cron spec with seconds
	Profile         string        // score config profile used by the refresh job
	Retention       time.Duration // snapshots older than this are pruned
	JobTimeout      time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
}

// MaxPageBound is the absolute upper bound on listing pages per aggregation
const MaxPageBound = 200

// DefaultUserAgent mirrors a desktop browser; the listing source rejects bare clients
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External APIs
		Jisilu: JisiluConfig{
			BaseURL:           getEnv("JISILU_BASE_URL", "https://www.jisilu.cn"),
			UserAgent:         getEnv("JISILU_USER_AGENT", DefaultUserAgent),
			PageSize:          getEnvAsInt("JISILU_PAGE_SIZE", 30),
			MaxPages:          getEnvAsInt("JISILU_MAX_PAGES", MaxPageBound),
			RequestsPerSecond: getEnvAsFloat("JISILU_RPS", 5),
			Timeout:           getEnvAsDuration("JISILU_TIMEOUT", "15s"),
			Cookie:            getEnv("JISILU_COOKIE", ""),
		},

		Screen: ScreenConfig{
			BaseURL: getEnv("BONDS_API_BASE", "http://localhost:8000"),
			Timeout: getEnvAsDuration("BONDS_API_TIMEOUT", "30s"),
		},

		Scheduler: SchedulerConfig{
			RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 */10 9-15 * * 1-5"),
			PruneSchedule:   getEnv("PRUNE_SCHEDULE", "0 30 3 * * *"),
			Profile:         getEnv("SCORE_PROFILE", "default"),
			Retention:       getEnvAsDuration("SNAPSHOT_RETENTION", "720h"),
			JobTimeout:      getEnvAsDuration("JOB_TIMEOUT", "5m"),
			MaxRetries:      getEnvAsInt("JOB_MAX_RETRIES", 2),
			RetryDelay:      getEnvAsDuration("JOB_RETRY_DELAY", "1m"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Jisilu.BaseURL == "" {
		return fmt.Errorf("JISILU_BASE_URL is required")
	}
	if c.Jisilu.PageSize <= 0 {
		return fmt.Errorf("JISILU_PAGE_SIZE must be > 0, got %d", c.Jisilu.PageSize)
	}
	if c.Jisilu.MaxPages < 1 || c.Jisilu.MaxPages > MaxPageBound {
		return fmt.Errorf("JISILU_MAX_PAGES must be in [1, %d], got %d", MaxPageBound, c.Jisilu.MaxPages)
	}
	if c.Jisilu.RequestsPerSecond < 0 {
		return fmt.Errorf("JISILU_RPS must be >= 0")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
