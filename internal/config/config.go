// Package config reads process settings from the environment.
package config

import (
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	// HTTP servers
	Port     string
	AuthPort string

	// Storage
	DataBackend      string
	SQLiteDBPath     string
	PlansFile        string
	SeedReservations bool

	// AMQP; an empty URL disables event publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Ledger
	GoogleSpreadsheetID string
	LedgerSheetName     string

	// Demo login
	AuthDelay        time.Duration
	AuthDemoEmail    string
	AuthDemoPassword string

	LogLevel           string
	RateLimitPerMinute int
	EditorSessionTTL   time.Duration
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		AuthPort: getEnv("AUTH_PORT", "5001"),

		DataBackend:      getEnv("DATA_BACKEND", BackendMemory),
		SQLiteDBPath:     getEnv("SQLITE_DB_PATH", "./data/budgetcare.db"),
		PlansFile:        getEnv("PLANS_FILE", ""),
		SeedReservations: getEnvBool("SEED_RESERVATIONS", true),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetcare"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "reservation_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		LedgerSheetName:     getEnv("LEDGER_SHEET_NAME", "Reservations"),

		AuthDelay:        getEnvDuration("AUTH_DELAY", 600*time.Millisecond),
		AuthDemoEmail:    getEnv("AUTH_DEMO_EMAIL", "finance@solidcam.org"),
		AuthDemoPassword: getEnv("AUTH_DEMO_PASSWORD", "BudgetCare!23"),

		LogLevel:           getEnv("LOG_LEVEL", "info"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		EditorSessionTTL:   getEnvDuration("EDITOR_SESSION_TTL", 30*time.Minute),
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	for name, port := range map[string]string{"port": c.Port, "auth port": c.AuthPort} {
		if msg := validatePort(name, port); msg != "" {
			errors = append(errors, msg)
		}
	}

	validBackends := []string{BackendMemory, BackendSQLite}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if c.PlansFile != "" {
		if info, err := os.Stat(c.PlansFile); err == nil && info.IsDir() {
			errors = append(errors, fmt.Sprintf("plans file '%s' is a directory", c.PlansFile))
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

	if c.GoogleSpreadsheetID != "" && strings.TrimSpace(c.LedgerSheetName) == "" {
		errors = append(errors, "ledger sheet name cannot be empty when a spreadsheet is configured")
	}

	if c.AuthDelay < 0 || c.AuthDelay > 30*time.Second {
		errors = append(errors, fmt.Sprintf("invalid auth delay %v: must be between 0 and 30s", c.AuthDelay))
	}
	if _, err := mail.ParseAddress(c.AuthDemoEmail); err != nil {
		errors = append(errors, fmt.Sprintf("invalid demo email '%s'", c.AuthDemoEmail))
	}
	if c.AuthDemoPassword == "" {
		errors = append(errors, "demo password cannot be empty")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if c.RateLimitPerMinute < 1 || c.RateLimitPerMinute > 10000 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be between 1 and 10000", c.RateLimitPerMinute))
	}

	if c.EditorSessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid editor session TTL %v: must be at least 1 minute", c.EditorSessionTTL))
	} else if c.EditorSessionTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid editor session TTL %v: must be at most 24 hours", c.EditorSessionTTL))
	}

	if len(errors) > 0 {
		slices.Sort(errors)
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// LedgerEnabled reports whether events should go to a spreadsheet rather
// than the in-process ledger.
func (c *Config) LedgerEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

func validatePort(name, value string) string {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Sprintf("invalid %s '%s': must be a number", name, value)
	}
	if port < 1 || port > 65535 {
		return fmt.Sprintf("invalid %s %d: must be between 1 and 65535", name, port)
	}
	return ""
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
