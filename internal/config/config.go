package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	applog "finboard/internal/log"
)

type Config struct {
	// HTTP servers
	Port    string // dashboard
	APIPort string // read API

	// Source API consumed by the dashboard
	APIBaseURL       string
	TransactionsPath string
	CategoriesPath   string
	RequestTimeout   time.Duration

	// Dashboard behaviour
	RefreshInterval      time.Duration
	RecentLimit          int
	DefaultCategoryLabel string

	// Backend selection for the read API
	DataBackend  string
	DataDir      string
	SQLiteDBPath string
	DatabaseURL  string

	// Google Sheets
	GoogleSpreadsheetID     string
	GoogleTransactionsSheet string
	GoogleCategoriesSheet   string
	SheetsCacheTTL          time.Duration

	// AMQP (empty URL disables change notifications)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	LogLevel slog.Level
}

var validBackends = []string{"memory", "sqlite", "postgres", "sheets"}

func Load() *Config {
	cfg := &Config{
		Port:    getEnv("PORT", "8081"),
		APIPort: getEnv("API_PORT", "3000"),

		APIBaseURL:       getEnv("API_BASE_URL", "http://localhost:3000"),
		TransactionsPath: getEnv("TRANSACTIONS_PATH", "/money"),
		CategoriesPath:   getEnv("CATEGORIES_PATH", "/category"),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),

		RefreshInterval:      getEnvDuration("REFRESH_INTERVAL", 0),
		RecentLimit:          getEnvInt("RECENT_LIMIT", 5),
		DefaultCategoryLabel: getEnv("DEFAULT_CATEGORY_LABEL", "uncategorized"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		DataDir:      getEnv("DATA_DIR", "data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finboard.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		GoogleSpreadsheetID:     getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleTransactionsSheet: getEnv("GOOGLE_TRANSACTIONS_SHEET", "Money"),
		GoogleCategoriesSheet:   getEnv("GOOGLE_CATEGORIES_SHEET", "Category"),
		SheetsCacheTTL:          getEnvDuration("SHEETS_CACHE_TTL", time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finboard"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "dashboard_refresh"),
	}

	// An invalid level is reported by Validate through the raw value.
	if lvl, err := applog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		cfg.LogLevel = lvl
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	ports := []struct{ name, value string }{{"PORT", c.Port}, {"API_PORT", c.APIPort}}
	for _, port := range ports {
		if p, err := strconv.Atoi(port.value); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': must be a number", port.name, port.value))
		} else if p < 1 || p > 65535 {
			errors = append(errors, fmt.Sprintf("invalid %s %d: must be between 1 and 65535", port.name, p))
		}
	}

	if u, err := url.Parse(c.APIBaseURL); err != nil || u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': must be an absolute URL", c.APIBaseURL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	}
	if !strings.HasPrefix(c.TransactionsPath, "/") {
		errors = append(errors, fmt.Sprintf("invalid transactions path '%s': must start with '/'", c.TransactionsPath))
	}
	if !strings.HasPrefix(c.CategoriesPath, "/") {
		errors = append(errors, fmt.Sprintf("invalid categories path '%s': must start with '/'", c.CategoriesPath))
	}
	if c.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be positive", c.RequestTimeout))
	}

	if c.RefreshInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must not be negative", c.RefreshInterval))
	} else if c.RefreshInterval > 0 && c.RefreshInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at least 1 second", c.RefreshInterval))
	}
	if c.RecentLimit < 1 || c.RecentLimit > 100 {
		errors = append(errors, fmt.Sprintf("invalid recent limit %d: must be between 1 and 100", c.RecentLimit))
	}
	if strings.TrimSpace(c.DefaultCategoryLabel) == "" {
		errors = append(errors, "default category label cannot be empty")
	}

	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleTransactionsSheet == "" || c.GoogleCategoriesSheet == "" {
			errors = append(errors, "Google sheet names cannot be empty when using sheets backend")
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

	if _, err := applog.ParseLevel(os.Getenv("LOG_LEVEL")); err != nil {
		errors = append(errors, err.Error())
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
