package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the webhook receiver
type Config struct {
	Server      ServerConfig
	Redis       RedisConfig
	Lipay       LipayConfig
	RateLimit   RateLimitConfig
	Environment string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  int // in seconds
	WriteTimeout int // in seconds
}

// RedisConfig holds Redis configuration. An empty URL disables outcome publishing.
type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// LipayConfig holds the LiPayKripto webhook settings
type LipayConfig struct {
	SecretKey    string
	KeyOrder     string
	MaxBodyBytes int64
}

// RateLimitConfig holds per-IP limits for the webhook endpoint
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

var ErrMissingSecretKey = errors.New("LIPAY_SECRET_KEY is not set")

// LoadConfig creates a new Config instance with values from environment variables.
// A .env file is loaded first when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 10),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 10),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Lipay: LipayConfig{
			SecretKey:    getEnv("LIPAY_SECRET_KEY", ""),
			KeyOrder:     getEnv("LIPAY_KEY_ORDER", "received"),
			MaxBodyBytes: int64(getEnvInt("LIPAY_MAX_BODY_BYTES", 1<<20)),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvFloat("RATE_LIMIT_RPS", 20),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 40),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	if c.Lipay.SecretKey == "" {
		return ErrMissingSecretKey
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatValue
}
