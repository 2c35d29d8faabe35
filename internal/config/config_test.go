package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "FinalDB.db", cfg.Store.DatabaseURL)
	assert.Equal(t, DefaultCensusURL, cfg.Sources.Census)
	assert.Equal(t, DefaultSchoolsURL, cfg.Sources.Schools)
	assert.Equal(t, DefaultCrimeURL, cfg.Sources.Crime)
	assert.Equal(t, "utf-8", cfg.Sources.Encoding)
	assert.Equal(t, 60, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.False(t, cfg.Fetch.InsecureTLS)
	assert.InDelta(t, 5.0, cfg.Fetch.RatePerSec, 0.001)
	assert.Equal(t, 10, cfg.Dashboard.TopN)
	assert.Equal(t, 15, cfg.Dashboard.HotspotLimit)
	assert.Equal(t, 256, cfg.Dashboard.CacheSize)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/chicago
sources:
  crime: data/ChicagoCrimeData.csv
log:
  level: debug
  format: console
server:
  port: 9090
dashboard:
  top_n: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/chicago", cfg.Store.DatabaseURL)
	assert.Equal(t, "data/ChicagoCrimeData.csv", cfg.Sources.Crime)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Dashboard.TopN)
	// Defaults still apply for unset values
	assert.Equal(t, DefaultCensusURL, cfg.Sources.Census)
	assert.Equal(t, 15, cfg.Dashboard.HotspotLimit)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unterminated"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("CHICAGO_STORE_DRIVER", "postgres")
	t.Setenv("CHICAGO_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("CHICAGO_SERVER_PORT", "3000")
	t.Setenv("CHICAGO_FETCH_INSECURE_TLS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.True(t, cfg.Fetch.InsecureTLS)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CHICAGO_DASHBOARD_HOTSPOT_LIMIT=7\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("CHICAGO_DASHBOARD_HOTSPOT_LIMIT") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Dashboard.HotspotLimit)
}

func TestDefaultsMatchLoad(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestWriteFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "config.yaml")

	cfg := Defaults()
	cfg.Server.Port = 9191
	require.NoError(t, WriteFile(cfg, path, false))

	err := WriteFile(cfg, path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	cfg.Server.Port = 9292
	require.NoError(t, WriteFile(cfg, path, true))

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9292, loaded.Server.Port)
	assert.Equal(t, DefaultCrimeURL, loaded.Sources.Crime)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func TestValidateIngest(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate("ingest"))

	cfg.Sources.Crime = "  "
	cfg.Fetch.RatePerSec = -1
	err := cfg.Validate("ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sources.crime is required")
	assert.Contains(t, err.Error(), "fetch.rate_per_sec")
}

func TestValidateServe_ValidPort(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = 9090

	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateDashboard(t *testing.T) {
	cfg := Defaults()
	cfg.Dashboard.TopN = 0

	err := cfg.Validate("dashboard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dashboard.top_n")
}

func TestValidatePostgresNeedsURL(t *testing.T) {
	cfg := Defaults()
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url")
}

func TestValidateUnknownMode(t *testing.T) {
	err := Defaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
