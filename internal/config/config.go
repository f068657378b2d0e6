// Package config loads the rebalancer service's configuration from
// environment variables, in the teacher's getEnv/getEnvInt/... style
// (internal/config/config.go in the source repo).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Cache     CacheConfig     `json:"cache"`
	RabbitMQ  RabbitMQConfig  `json:"rabbitmq"`
	Scheduler SchedulerConfig `json:"scheduler"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Logger    LoggerConfig    `json:"logger"`
	Rebalance RebalanceConfig `json:"rebalance"`
}

// ServerConfig is HTTP server configuration.
type ServerConfig struct {
	Port           int    `json:"port"`
	Host           string `json:"host"`
	Environment    string `json:"environment"`
	ReadTimeout    int    `json:"read_timeout"`
	WriteTimeout   int    `json:"write_timeout"`
	MaxHeaderBytes int    `json:"max_header_bytes"`
}

// DatabaseConfig is MongoDB configuration for the portfolio/result
// repository.
type DatabaseConfig struct {
	URI            string `json:"uri"`
	Database       string `json:"database"`
	MaxPoolSize    int    `json:"max_pool_size"`
	MinPoolSize    int    `json:"min_pool_size"`
	ConnectTimeout int    `json:"connect_timeout"`
	SocketTimeout  int    `json:"socket_timeout"`
}

// CacheConfig is Redis configuration for the estimator/result cache.
type CacheConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	MaxRetries   int           `json:"max_retries"`
	PoolSize     int           `json:"pool_size"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`

	EstimatorTTL time.Duration `json:"estimator_ttl"`
	ResultTTL    time.Duration `json:"result_ttl"`
}

// RabbitMQConfig is messaging configuration for rebalance-completed
// events.
type RabbitMQConfig struct {
	Enabled              bool          `json:"enabled"`
	URL                  string        `json:"url"`
	Host                 string        `json:"host"`
	Port                 int           `json:"port"`
	Username             string        `json:"username"`
	Password             string        `json:"password"`
	VHost                string        `json:"vhost"`
	RebalanceExchange    string        `json:"rebalance_exchange"`
	RebalanceRoutingKey  string        `json:"rebalance_routing_key"`
	Heartbeat            time.Duration `json:"heartbeat"`
	ConnectionTimeout    time.Duration `json:"connection_timeout"`
	MaxReconnectAttempts int           `json:"max_reconnect_attempts"`
	ReconnectDelay       time.Duration `json:"reconnect_delay"`
}

// SchedulerConfig drives the periodic drift-check job.
type SchedulerConfig struct {
	Enabled         bool          `json:"enabled"`
	DriftCheckCron  string        `json:"drift_check_cron"`
	TimeZone        string        `json:"timezone"`
	JobTimeout      time.Duration `json:"job_timeout"`
}

// RateLimitConfig throttles the HTTP API.
type RateLimitConfig struct {
	Enabled        bool `json:"enabled"`
	RequestsPerMin int  `json:"requests_per_minute"`
	BurstSize      int  `json:"burst_size"`
}

// LoggerConfig drives pkg/logger.
type LoggerConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	Output     string `json:"output"`
	Filename   string `json:"filename"`
	MaxSize    int    `json:"max_size"`
	MaxAge     int    `json:"max_age"`
	MaxBackups int    `json:"max_backups"`
	Compress   bool   `json:"compress"`
}

// RebalanceConfig holds engine defaults loaded from the environment.
// Load fills it in, but no handler or strategy reads it: a request
// that omits these fields gets rebalance.DefaultCVaRConfig and
// constraints.Default instead.
type RebalanceConfig struct {
	DefaultConstraintsPreset string  `json:"default_constraints_preset"` // default, conservative, moderate, risky
	DefaultConfidenceLevel   float64 `json:"default_confidence_level"`
	DefaultScenarios         int     `json:"default_scenarios"`
	DefaultRiskAversion      float64 `json:"default_risk_aversion"`
}

// Load reads configuration from the environment, loading a .env file
// first if one exists.
func Load() *Config {
	godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:           getEnvInt("SERVER_PORT", 8090),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			ReadTimeout:    getEnvInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout:   getEnvInt("SERVER_WRITE_TIMEOUT", 30),
			MaxHeaderBytes: getEnvInt("SERVER_MAX_HEADER_BYTES", 1048576),
		},
		Database: DatabaseConfig{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "rebalancer"),
			MaxPoolSize:    getEnvInt("MONGODB_MAX_POOL_SIZE", 100),
			MinPoolSize:    getEnvInt("MONGODB_MIN_POOL_SIZE", 5),
			ConnectTimeout: getEnvInt("MONGODB_CONNECT_TIMEOUT", 10),
			SocketTimeout:  getEnvInt("MONGODB_SOCKET_TIMEOUT", 30),
		},
		Cache: CacheConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			MaxRetries:   getEnvInt("REDIS_MAX_RETRIES", 3),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			EstimatorTTL: getEnvDuration("CACHE_ESTIMATOR_TTL", 15*time.Minute),
			ResultTTL:    getEnvDuration("CACHE_RESULT_TTL", 5*time.Minute),
		},
		RabbitMQ: RabbitMQConfig{
			Enabled:              getEnvBool("RABBITMQ_ENABLED", false),
			URL:                  getEnv("RABBITMQ_URL", ""),
			Host:                 getEnv("RABBITMQ_HOST", "localhost"),
			Port:                 getEnvInt("RABBITMQ_PORT", 5672),
			Username:             getEnv("RABBITMQ_USERNAME", "guest"),
			Password:             getEnv("RABBITMQ_PASSWORD", "guest"),
			VHost:                getEnv("RABBITMQ_VHOST", "/"),
			RebalanceExchange:    getEnv("RABBITMQ_REBALANCE_EXCHANGE", "rebalance"),
			RebalanceRoutingKey:  getEnv("RABBITMQ_REBALANCE_ROUTING_KEY", "rebalance.completed"),
			Heartbeat:            getEnvDuration("RABBITMQ_HEARTBEAT", 30*time.Second),
			ConnectionTimeout:    getEnvDuration("RABBITMQ_CONNECTION_TIMEOUT", 30*time.Second),
			MaxReconnectAttempts: getEnvInt("RABBITMQ_MAX_RECONNECT_ATTEMPTS", 5),
			ReconnectDelay:       getEnvDuration("RABBITMQ_RECONNECT_DELAY", 5*time.Second),
		},
		Scheduler: SchedulerConfig{
			Enabled:        getEnvBool("SCHEDULER_ENABLED", true),
			DriftCheckCron: getEnv("SCHEDULER_DRIFT_CHECK_CRON", "0 */6 * * *"),
			TimeZone:       getEnv("SCHEDULER_TIMEZONE", "UTC"),
			JobTimeout:     getEnvDuration("SCHEDULER_JOB_TIMEOUT", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMin: getEnvInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 60),
			BurstSize:      getEnvInt("RATE_LIMIT_BURST_SIZE", 10),
		},
		Logger: LoggerConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			Filename:   getEnv("LOG_FILENAME", ""),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 28),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Rebalance: RebalanceConfig{
			DefaultConstraintsPreset: getEnv("REBALANCE_DEFAULT_PRESET", "moderate"),
			DefaultConfidenceLevel:   getEnvFloat("REBALANCE_DEFAULT_CONFIDENCE_LEVEL", 0.95),
			DefaultScenarios:         getEnvInt("REBALANCE_DEFAULT_SCENARIOS", 1000),
			DefaultRiskAversion:      getEnvFloat("REBALANCE_DEFAULT_RISK_AVERSION", 0.1),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the minimal set of settings the service cannot run
// without.
func (c *Config) Validate() error {
	if c.Database.URI == "" {
		return fmt.Errorf("database URI is required")
	}
	if c.Rebalance.DefaultScenarios < 32 {
		logrus.Warnf("REBALANCE_DEFAULT_SCENARIOS=%d is below the engine's minimum of 32 scenarios", c.Rebalance.DefaultScenarios)
	}
	return nil
}
