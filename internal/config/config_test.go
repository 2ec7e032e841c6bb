package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "dataiq.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "logs", cfg.Paths.LogsDir)
	assert.Equal(t, 1000, cfg.Fetch.SampleRows)
	assert.Equal(t, 10000, cfg.Fetch.UploadMaxRows)
	assert.Equal(t, 50.0, cfg.Scoring.NullWeight)
	assert.Equal(t, 100, cfg.Anomaly.Trees)
	assert.Equal(t, int64(42), cfg.Anomaly.Seed)
	assert.Equal(t, "0 0 1 * * *", cfg.Schedule.ProfileCron)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "public", cfg.Database.DefaultSchema())
}

func TestLoadMergesLocalOverrideAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataiq.yaml")
	writeFile(t, path, `
database:
  driver: sqlserver
  host: db.internal
  port: 1433
  database: sales
paths:
  outputs_dir: out
fetch:
  sample_rows: 500
`)
	writeFile(t, filepath.Join(dir, "dataiq.local.yaml"), `
database:
  host: localhost
fetch:
  sample_rows: 250
`)
	t.Setenv("DATAIQ_DB_PASSWORD", "p@ss word")
	t.Setenv("DATAIQ_DB_NAME", "sales_dev")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlserver", cfg.Database.Driver)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 1433, cfg.Database.Port)
	assert.Equal(t, "sales_dev", cfg.Database.Database)
	assert.Equal(t, "p@ss word", cfg.Database.Password)
	assert.Equal(t, 250, cfg.Fetch.SampleRows)
	assert.Equal(t, filepath.Join("out", "profiles"), cfg.Paths.ProfilesDir())
	assert.Equal(t, "dbo", cfg.Database.DefaultSchema())

	dsn := cfg.Database.DSN()
	assert.True(t, strings.HasPrefix(dsn, "sqlserver://"))
	assert.Contains(t, dsn, "database=sales_dev")
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataiq.yaml")
	writeFile(t, path, "database:\n  driver: oracle\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestPostgresDSNEscapesPassword(t *testing.T) {
	d := DatabaseConfig{
		Driver: "postgres", Host: "h", Port: 5432, User: "u", Password: "a/b@c",
		Database: "db", SSLMode: "disable", ConnectTimeout: 5,
	}
	assert.Equal(t, "postgresql://u:a%2Fb%40c@h:5432/db?sslmode=disable&connect_timeout=5", d.DSN())
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	cfg, err := Default()
	require.NoError(t, err)
	cfg.Paths.LogsDir = filepath.Join(root, "logs")
	cfg.Paths.OutputsDir = filepath.Join(root, "outputs")

	require.NoError(t, cfg.EnsureDirs())
	for _, d := range []string{cfg.Paths.LogsDir, cfg.Paths.ProfilesDir(), cfg.Paths.CleanedDir(), cfg.Paths.ReportsDir()} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "dataiq.yaml")
	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sample_rows: 1000")
	assert.NotContains(t, string(data), "password")

	assert.Error(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25.0, cfg.Scoring.DuplicateWeight)
}
