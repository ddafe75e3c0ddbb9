package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/oktabridge/oktabridge/internal/okta"
	"github.com/oktabridge/oktabridge/internal/reconcile"
)

const (
	defaultHTTPAddr    = ":8080"
	defaultMetricsAddr = ":9090"

	defaultProvider             = "okta"
	defaultSyncInterval         = 15 * time.Minute
	defaultSyncPageSize         = 50
	defaultStalenessDays        = 30
	defaultUnlinkBatchLimit     = 100
	defaultLogRetentionDays     = 7
	defaultRootGroupCode        = "okta"
	defaultRootGroupTitle       = "Okta"
	defaultRootGroupDescription = "Parent group for synchronised Okta groups"
)

type Config struct {
	DatabaseURL string
	HTTPAddr    string
	MetricsAddr string

	Okta okta.Config

	Provider                string
	AllowCreateOnLogin      bool
	AllowCreateOnBatch      bool
	EmailFallbackLinking    bool
	UpdateExistingOnLink    bool
	GroupRestrictionEnabled bool
	RequiredGroups          []string
	StalenessDays           int
	UnlinkBatchLimit        int
	LockoutAfterDays        int
	LogRetentionDays        int
	PassportMaxAgeDays      int
	SyncPageSize            int
	SyncInterval            time.Duration

	RootGroupCode        string
	RootGroupTitle       string
	RootGroupDescription string
	RootGroupLocked      bool
}

type LoadOptions struct {
	RequireDatabaseURL bool
	RequireOkta        bool
}

func Load() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: true, RequireOkta: true})
}

func LoadOptionalOkta() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: true})
}

func LoadWithOptions(opts LoadOptions) (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		HTTPAddr:    getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr: getenvDefault("METRICS_ADDR", defaultMetricsAddr),

		Okta: okta.Config{
			Domain: os.Getenv("OKTA_DOMAIN"),
			Token:  os.Getenv("OKTA_TOKEN"),
			AppID:  os.Getenv("OKTA_APP_CLIENT_ID"),
		},

		Provider:                getenvDefault("PROVIDER_NAME", defaultProvider),
		AllowCreateOnLogin:      getenvBoolDefault("ALLOW_CREATE_ON_LOGIN", true),
		AllowCreateOnBatch:      getenvBoolDefault("ALLOW_CREATE_ON_BATCH", false),
		EmailFallbackLinking:    getenvBoolDefault("EMAIL_FALLBACK_LINKING", false),
		UpdateExistingOnLink:    getenvBoolDefault("UPDATE_EXISTING_ON_LINK", true),
		GroupRestrictionEnabled: getenvBoolDefault("GROUP_RESTRICTION_ENABLED", false),
		RequiredGroups:          splitList(os.Getenv("REQUIRED_GROUPS")),
		StalenessDays:           getenvIntDefault("STALENESS_DAYS", defaultStalenessDays),
		UnlinkBatchLimit:        getenvIntDefault("UNLINK_BATCH_LIMIT", defaultUnlinkBatchLimit),
		LockoutAfterDays:        getenvIntDefault("LOCKOUT_AFTER_DAYS", 0),
		LogRetentionDays:        getenvIntDefault("LOG_RETENTION_DAYS", defaultLogRetentionDays),
		PassportMaxAgeDays:      getenvIntDefault("PASSPORT_MAX_AGE_DAYS", 0),
		SyncPageSize:            getenvIntDefault("SYNC_PAGE_SIZE", defaultSyncPageSize),
		SyncInterval:            defaultSyncInterval,

		RootGroupCode:        getenvDefault("ROOT_GROUP_CODE", defaultRootGroupCode),
		RootGroupTitle:       getenvDefault("ROOT_GROUP_TITLE", defaultRootGroupTitle),
		RootGroupDescription: getenvDefault("ROOT_GROUP_DESCRIPTION", defaultRootGroupDescription),
		RootGroupLocked:      getenvBoolDefault("ROOT_GROUP_LOCKED", true),
	}

	if v := os.Getenv("SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SyncInterval = d
		}
	}

	if opts.RequireDatabaseURL && cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}
	if opts.RequireOkta {
		if err := cfg.Okta.Validate(); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// ReconcileOptions maps the loaded configuration onto the explicit option
// struct the reconciliation components take at construction.
func (c Config) ReconcileOptions() reconcile.Options {
	return reconcile.Options{
		Provider:                c.Provider,
		AllowCreateOnLogin:      c.AllowCreateOnLogin,
		AllowCreateOnBatch:      c.AllowCreateOnBatch,
		EmailFallbackLinking:    c.EmailFallbackLinking,
		UpdateExistingOnLink:    c.UpdateExistingOnLink,
		GroupRestrictionEnabled: c.GroupRestrictionEnabled,
		RequiredGroups:          c.RequiredGroups,
		StalenessDays:           c.StalenessDays,
		UnlinkBatchLimit:        c.UnlinkBatchLimit,
		LockoutAfterDays:        c.LockoutAfterDays,
		RootGroup: reconcile.RootGroupConfig{
			Code:        c.RootGroupCode,
			Title:       c.RootGroupTitle,
			Description: c.RootGroupDescription,
			Locked:      c.RootGroupLocked,
		},
	}
}

// loadDotEnv loads a .env file when one exists; a missing file is fine.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return err
		}
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvBoolDefault(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch v {
	case "1":
		return true
	case "0":
		return false
	default:
		return def
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
