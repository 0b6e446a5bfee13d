// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Redis       RedisConfig
	Log         LogConfig
	Virality    ViralityConfig
	Learning    LearningConfig
	Analysis    AnalysisConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	CorsOrigins     []string
}

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DatabaseConfig holds database configuration. The memory driver keeps records
// in process and is meant for local runs.
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
	TablePrefix  string
}

// NATSConfig holds NATS configuration. An empty URL disables event publishing.
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// RedisConfig holds the response cache configuration. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	CacheTTL time.Duration
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// ViralityConfig holds batch scoring configuration
type ViralityConfig struct {
	Workers           int
	ParallelThreshold int
	EventsTopic       string
}

// LearningConfig holds learning aggregator configuration
type LearningConfig struct {
	ContentLimit      int
	TopN              int
	GrowthDays        int
	MinInsightsSample int
}

// AnalysisConfig holds settings for the stored viral content listing
type AnalysisConfig struct {
	ViralMinScore float64
	ViralLimit    int
	TopContentMax int
}

// Load loads configuration from environment variables, reading an optional .env file first
func Load() (Config, error) {
	// A missing .env file is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("STORE_DRIVER", DriverPostgres),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "agentesocial"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			TablePrefix:  getEnv("DB_TABLE_PREFIX", "social_midia_"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 10),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Virality: ViralityConfig{
			Workers:           getEnvAsInt("VIRALITY_WORKERS", 4),
			ParallelThreshold: getEnvAsInt("VIRALITY_PARALLEL_THRESHOLD", 500),
			EventsTopic:       getEnv("VIRALITY_EVENTS_TOPIC", "virality"),
		},
		Learning: LearningConfig{
			ContentLimit:      getEnvAsInt("LEARNING_CONTENT_LIMIT", 50),
			TopN:              getEnvAsInt("LEARNING_TOP_N", 10),
			GrowthDays:        getEnvAsInt("LEARNING_GROWTH_DAYS", 30),
			MinInsightsSample: getEnvAsInt("LEARNING_MIN_INSIGHTS_SAMPLE", 5),
		},
		Analysis: AnalysisConfig{
			ViralMinScore: getEnvAsFloat("ANALYSIS_VIRAL_MIN_SCORE", 70),
			ViralLimit:    getEnvAsInt("ANALYSIS_VIRAL_LIMIT", 50),
			TopContentMax: getEnvAsInt("ANALYSIS_TOP_CONTENT_MAX", 100),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Learning.ContentLimit <= 0 {
		return fmt.Errorf("learning content limit must be positive, got %d", config.Learning.ContentLimit)
	}
	if config.Learning.TopN <= 0 {
		return fmt.Errorf("learning top-n must be positive, got %d", config.Learning.TopN)
	}
	if config.Learning.GrowthDays <= 0 {
		return fmt.Errorf("learning growth days must be positive, got %d", config.Learning.GrowthDays)
	}
	if config.Virality.Workers <= 0 {
		return fmt.Errorf("virality workers must be positive, got %d", config.Virality.Workers)
	}

	switch config.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported store driver: %s", config.Database.Driver)
	}

	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	switch strings.ToLower(config.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported log format: %s", config.Log.Format)
	}

	if config.Database.Password == "postgres" && config.Environment == "production" {
		return fmt.Errorf("database password must be set in production")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
