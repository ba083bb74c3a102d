package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	ListenAddr             string
	DatabaseURL            string
	LogLevel               string
	Environment            string
	PortalBaseURL          string
	PortalAPIToken         string
	DialogBaseURL          string
	DialogAPIToken         string
	DialogEnabled          bool
	IncomeSourceBaseURL    string
	IncomeSourceAPIToken   string
	CaseLookupBaseURL      string
	CaseLookupAPIToken     string
	StatementFormLink      string
	CronSpecStaleSweep     string
	StaleRequestCutoffDays int // 0 disables the stale sweep
}

// IsProduction reports whether the service runs against real employers.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.ListenAddr = os.Getenv("LISTEN_ADDR")
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080" // Default listen address
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.PortalBaseURL = os.Getenv("PORTAL_BASE_URL")
	if cfg.PortalBaseURL == "" {
		return nil, fmt.Errorf("PORTAL_BASE_URL is not set")
	}
	cfg.PortalAPIToken = os.Getenv("PORTAL_API_TOKEN")
	if cfg.PortalAPIToken == "" {
		return nil, fmt.Errorf("PORTAL_API_TOKEN is not set")
	}

	cfg.DialogBaseURL = os.Getenv("DIALOG_BASE_URL")
	cfg.DialogAPIToken = os.Getenv("DIALOG_API_TOKEN")

	dialogEnabledStr := os.Getenv("DIALOG_ENABLED")
	if dialogEnabledStr != "" {
		cfg.DialogEnabled, err = strconv.ParseBool(dialogEnabledStr)
		if err != nil {
			return nil, fmt.Errorf("invalid DIALOG_ENABLED: %w", err)
		}
	}
	if cfg.DialogEnabled && cfg.DialogBaseURL == "" {
		return nil, fmt.Errorf("DIALOG_BASE_URL is not set but DIALOG_ENABLED is true")
	}

	cfg.IncomeSourceBaseURL = os.Getenv("INCOME_SOURCE_BASE_URL")
	if cfg.IncomeSourceBaseURL == "" {
		return nil, fmt.Errorf("INCOME_SOURCE_BASE_URL is not set")
	}
	cfg.IncomeSourceAPIToken = os.Getenv("INCOME_SOURCE_API_TOKEN")

	cfg.CaseLookupBaseURL = os.Getenv("CASE_LOOKUP_BASE_URL")
	if cfg.CaseLookupBaseURL == "" {
		return nil, fmt.Errorf("CASE_LOOKUP_BASE_URL is not set")
	}
	cfg.CaseLookupAPIToken = os.Getenv("CASE_LOOKUP_API_TOKEN")

	cfg.StatementFormLink = os.Getenv("STATEMENT_FORM_LINK")
	if cfg.StatementFormLink == "" {
		return nil, fmt.Errorf("STATEMENT_FORM_LINK is not set")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecStaleSweep = os.Getenv("CRON_SPEC_STALE_SWEEP")
	if cfg.CronSpecStaleSweep == "" {
		cfg.CronSpecStaleSweep = "0 6 * * *" // Default: 6 AM daily
	}

	cutoffStr := os.Getenv("STALE_REQUEST_CUTOFF_DAYS")
	if cutoffStr != "" {
		cfg.StaleRequestCutoffDays, err = strconv.Atoi(cutoffStr)
		if err != nil {
			return nil, fmt.Errorf("invalid STALE_REQUEST_CUTOFF_DAYS: %w", err)
		}
		if cfg.StaleRequestCutoffDays < 0 {
			return nil, fmt.Errorf("STALE_REQUEST_CUTOFF_DAYS must not be negative")
		}
	}

	return cfg, nil
}
