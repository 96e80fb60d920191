package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:       AppConfig{Environment: "development"},
		Logger:    LoggerConfig{Level: "info"},
		Store:     StoreConfig{Backend: BackendBadger, Path: "/some/path"},
		Migration: MigrationConfig{BackupRetention: 5, AutoRestore: true, PriceTolerance: 0.01},
	}
}

// isolateEnv clears every variable LoadConfig reads for the test's duration.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "STORE_BACKEND", "STORE_PATH", "CATALOG_PATH",
		"BACKUP_RETENTION", "AUTO_RESTORE", "PRICE_TOLERANCE",
	} {
		t.Setenv(key, "")
	}
}

func noEnvFile(t *testing.T) string {
	return "-env-file=" + filepath.Join(t.TempDir(), "missing.env")
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true}, // case insensitive
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Store(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		path    string
		valid   bool
	}{
		{"badger", BackendBadger, "/data", true},
		{"sqlite", BackendSQLite, "/data/tillpoint.db", true},
		{"memory without path", BackendMemory, "", true},
		{"badger without path", BackendBadger, "", false},
		{"unknown backend", "postgres", "/data", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Store = StoreConfig{Backend: tt.backend, Path: tt.path}

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Migration(t *testing.T) {
	cfg := validConfig()
	cfg.Migration.BackupRetention = 0
	assert.ErrorContains(t, cfg.Validate(), "backup retention")

	cfg = validConfig()
	cfg.Migration.PriceTolerance = -0.5
	assert.ErrorContains(t, cfg.Validate(), "price tolerance")

	cfg = validConfig()
	cfg.Migration.PriceTolerance = 0
	assert.NoError(t, cfg.Validate())
}

func TestExpandStorePath_Defaults(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		backend string
		want    string
	}{
		{BackendBadger, filepath.Join(homeDir, "Tillpoint", "data")},
		{BackendSQLite, filepath.Join(homeDir, "Tillpoint", "tillpoint.db")},
		{BackendMemory, ""},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := &Config{Store: StoreConfig{Backend: tt.backend}}
			require.NoError(t, cfg.expandStorePath())
			assert.Equal(t, tt.want, cfg.Store.Path)
		})
	}
}

func TestExpandStorePath_TildeExpansion(t *testing.T) {
	cfg := &Config{Store: StoreConfig{Backend: BackendBadger, Path: "~/pos/data"}}

	require.NoError(t, cfg.expandStorePath())

	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(homeDir, "pos", "data"), cfg.Store.Path)
}

func TestExpandStorePath_RelativePath(t *testing.T) {
	cfg := &Config{Store: StoreConfig{Backend: BackendSQLite, Path: "relative/pos.db"}}

	require.NoError(t, cfg.expandStorePath())

	assert.True(t, filepath.IsAbs(cfg.Store.Path))
	assert.Contains(t, cfg.Store.Path, "relative/pos.db")
}

func TestGetConfigValue_Precedence(t *testing.T) {
	assert.Equal(t, "flag-value", getConfigValue("flag-value", "TEST_ENV_KEY", "default-value"))

	t.Setenv("TEST_ENV_KEY", "env-value")
	assert.Equal(t, "env-value", getConfigValue("", "TEST_ENV_KEY", "default-value"))

	assert.Equal(t, "default-value", getConfigValue("", "NONEXISTENT_KEY", "default-value"))
}

func TestGetTypedConfigValues(t *testing.T) {
	assert.True(t, getBoolConfigValue("", "NONEXISTENT_KEY", true))
	assert.False(t, getBoolConfigValue("no", "NONEXISTENT_KEY", true))
	assert.True(t, getBoolConfigValue("YES", "NONEXISTENT_KEY", false))

	assert.Equal(t, 7, getIntConfigValue("7", "NONEXISTENT_KEY", 5))
	assert.Equal(t, 5, getIntConfigValue("seven", "NONEXISTENT_KEY", 5))
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := LoadConfig([]string{noEnvFile(t), "migrate"})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, BackendBadger, cfg.Store.Backend)
	assert.True(t, filepath.IsAbs(cfg.Store.Path))
	assert.Empty(t, cfg.Catalog.Path)
	assert.Equal(t, 5, cfg.Migration.BackupRetention)
	assert.True(t, cfg.Migration.AutoRestore)
	assert.InDelta(t, 0.01, cfg.Migration.PriceTolerance, 1e-12)
	assert.Equal(t, []string{"migrate"}, cfg.Args)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("STORE_BACKEND", BackendSQLite)
	t.Setenv("BACKUP_RETENTION", "3")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig([]string{noEnvFile(t), "-store=memory", "-auto-restore=false", "-price-tolerance=0.5", "restore", "bak-1"})
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Empty(t, cfg.Store.Path)
	assert.Equal(t, 3, cfg.Migration.BackupRetention)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.False(t, cfg.Migration.AutoRestore)
	assert.InDelta(t, 0.5, cfg.Migration.PriceTolerance, 1e-12)
	assert.Equal(t, []string{"restore", "bak-1"}, cfg.Args)
}

func TestLoadConfig_Invalid(t *testing.T) {
	isolateEnv(t)

	_, err := LoadConfig([]string{noEnvFile(t), "-price-tolerance=cheap"})
	assert.ErrorContains(t, err, "invalid price tolerance")

	_, err = LoadConfig([]string{noEnvFile(t), "-store=postgres"})
	assert.ErrorContains(t, err, "invalid store backend")

	_, err = LoadConfig([]string{"-no-such-flag"})
	assert.Error(t, err)
}

func TestLoadConfig_ReadsEnvFile(t *testing.T) {
	isolateEnv(t)
	os.Unsetenv("STORE_BACKEND")    //nolint:errcheck // Test setup
	os.Unsetenv("BACKUP_RETENTION") //nolint:errcheck // Test setup

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("STORE_BACKEND=memory\nBACKUP_RETENTION=9\n"), 0o644))

	cfg, err := LoadConfig([]string{"-env-file=" + envFile})
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 9, cfg.Migration.BackupRetention)
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `# Test env file
TILLPOINT_TEST_ENV=staging
# Comment line
TILLPOINT_TEST_QUOTED="some value"
TILLPOINT_TEST_SINGLE='another value'
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	keys := []string{"TILLPOINT_TEST_ENV", "TILLPOINT_TEST_QUOTED", "TILLPOINT_TEST_SINGLE"}
	for _, key := range keys {
		os.Unsetenv(key) //nolint:errcheck // Test setup
	}
	t.Cleanup(func() {
		for _, key := range keys {
			os.Unsetenv(key) //nolint:errcheck // Test cleanup
		}
	})

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "staging", os.Getenv("TILLPOINT_TEST_ENV"))
	assert.Equal(t, "some value", os.Getenv("TILLPOINT_TEST_QUOTED"))
	assert.Equal(t, "another value", os.Getenv("TILLPOINT_TEST_SINGLE"))
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	assert.Error(t, loadEnvFile("/nonexistent/file/.env"))
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	t.Setenv("TEST_VAR", "original-value")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(`TEST_VAR=new-value`), 0o644))

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "original-value", os.Getenv("TEST_VAR"))
}
