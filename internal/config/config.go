package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Storage
	DataBackend  string
	SQLiteDBPath string

	// AMQP (optional; empty URL disables change events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Projection bounds and caching
	MaxRangeWeeks int
	GridCacheSize int
	GridCacheTTL  time.Duration

	// Alert worker
	AlertCheckInterval time.Duration
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8082"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/forecast.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "forecast"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "forecast_changed"),

		MaxRangeWeeks: getEnvInt("MAX_RANGE_WEEKS", 520),
		GridCacheSize: getEnvInt("GRID_CACHE_SIZE", 100),
		GridCacheTTL:  getEnvDuration("GRID_CACHE_TTL", 5*time.Minute),

		AlertCheckInterval: getEnvDuration("ALERT_CHECK_INTERVAL", time.Hour),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "memory", "sqlite":
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [memory sqlite]", c.DataBackend))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.MaxRangeWeeks < 1 {
		errors = append(errors, fmt.Sprintf("invalid max range weeks %d: must be at least 1", c.MaxRangeWeeks))
	} else if c.MaxRangeWeeks > 5200 {
		errors = append(errors, fmt.Sprintf("invalid max range weeks %d: must be at most 5200", c.MaxRangeWeeks))
	}

	if c.GridCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid grid cache size %d: must be at least 1", c.GridCacheSize))
	}
	if c.GridCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid grid cache TTL %v: must be at least 1 second", c.GridCacheTTL))
	}

	if c.AlertCheckInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid alert check interval %v: must be at least 1 minute", c.AlertCheckInterval))
	} else if c.AlertCheckInterval > 7*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid alert check interval %v: must be at most 7 days", c.AlertCheckInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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
