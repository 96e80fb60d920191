// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Store     StoreConfig
	Catalog   CatalogConfig
	Migration MigrationConfig

	// Args are the positional arguments left after flag parsing.
	Args []string
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StoreConfig selects the key-value backend holding the persisted collections.
type StoreConfig struct {
	Backend string // badger, sqlite or memory (default: badger)
	Path    string // Badger directory or SQLite file; unused for memory
}

// CatalogConfig holds product catalog configuration.
type CatalogConfig struct {
	// Path to a YAML or JSON catalog file. Empty uses the built-in catalog.
	Path string
}

// MigrationConfig holds migration runner configuration.
type MigrationConfig struct {
	BackupRetention int     // Backups kept per migration (default: 5)
	AutoRestore     bool    // Restore the pre-run backup after a critical failure (default: true)
	PriceTolerance  float64 // Largest accepted price difference in integrity checks (default: 0.01)
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("tillpoint", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	storeBackend := fs.String("store", "", "Store backend (badger, sqlite, memory)")
	storePath := fs.String("store-path", "", "Path to the store")
	catalogPath := fs.String("catalog", "", "Path to a YAML or JSON catalog file")

	// Migration flags
	backupRetention := fs.String("backup-retention", "", "Backups kept per migration (default: 5)")
	autoRestore := fs.String("auto-restore", "", "Restore the backup after a critical failure (default: true)")
	priceTolerance := fs.String("price-tolerance", "", "Accepted price difference (default: 0.01)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Backend: getConfigValue(*storeBackend, "STORE_BACKEND", BackendBadger),
			Path:    getConfigValue(*storePath, "STORE_PATH", ""),
		},
		Catalog: CatalogConfig{
			Path: getConfigValue(*catalogPath, "CATALOG_PATH", ""),
		},
		Migration: MigrationConfig{
			BackupRetention: getIntConfigValue(*backupRetention, "BACKUP_RETENTION", 5),
			AutoRestore:     getBoolConfigValue(*autoRestore, "AUTO_RESTORE", true),
		},
		Args: fs.Args(),
	}

	toleranceStr := getConfigValue(*priceTolerance, "PRICE_TOLERANCE", "0.01")
	tolerance, err := strconv.ParseFloat(toleranceStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid price tolerance %q: %w", toleranceStr, err)
	}
	cfg.Migration.PriceTolerance = tolerance

	if err := cfg.expandStorePath(); err != nil {
		return nil, fmt.Errorf("invalid store path: %w", err)
	}

	if cfg.Catalog.Path != "" {
		expanded, err := expandPath(cfg.Catalog.Path, "")
		if err != nil {
			return nil, fmt.Errorf("invalid catalog path: %w", err)
		}
		cfg.Catalog.Path = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Store.Backend {
	case BackendBadger, BackendSQLite:
		if c.Store.Path == "" {
			return errors.New("store path cannot be empty after expansion")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid store backend: %s (must be badger, sqlite, or memory)", c.Store.Backend)
	}

	if c.Migration.BackupRetention < 1 {
		return fmt.Errorf("invalid backup retention: %d (must be at least 1)", c.Migration.BackupRetention)
	}
	if c.Migration.PriceTolerance < 0 {
		return fmt.Errorf("invalid price tolerance: %g (must not be negative)", c.Migration.PriceTolerance)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandStorePath expands ~ and makes the path absolute.
// Defaults to ~/Tillpoint/data for Badger and ~/Tillpoint/tillpoint.db for SQLite.
func (c *Config) expandStorePath() error {
	if c.Store.Backend == BackendMemory {
		c.Store.Path = ""
		return nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Tillpoint", "data")
	if c.Store.Backend == BackendSQLite {
		defaultPath = filepath.Join(homeDir, "Tillpoint", "tillpoint.db")
	}

	expanded, err := expandPath(c.Store.Path, defaultPath)
	if err != nil {
		return err
	}
	c.Store.Path = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Variables already set in the environment are left untouched.
func loadEnvFile(path string) error {
	return godotenv.Load(path)
}
