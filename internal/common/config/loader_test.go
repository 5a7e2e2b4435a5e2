package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
app:
  name: intake-reconciler
  environment: test

camunda:
  broker_address: "localhost:26500"

database:
  postgres:
    host: localhost
    port: 5432
    database: intake
    user: testuser
    password: testpass
  redis:
    address: "localhost:6379"

workers:
  submission-process:
    enabled: true
    max_jobs_active: 8

notifications:
  email:
    enabled: true
    from_email: "noreply@intake.example.com"

search:
  enabled: false
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := LoadFromFile(writeTestConfig(t, testConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "intake-reconciler", cfg.App.Name)
	assert.Equal(t, "localhost:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, "testuser", cfg.Database.Postgres.User)

	// Defaults filled in.
	assert.Equal(t, 25, cfg.Database.Postgres.MaxConnections)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, 300, cfg.Database.Redis.CacheTTL)
	assert.Equal(t, "client-records", cfg.Search.Index)
	assert.Equal(t, "info", cfg.Logging.Level)

	wc := GetWorkerConfig(cfg, "submission-process")
	assert.True(t, wc.Enabled)
	assert.Equal(t, 8, wc.MaxJobsActive)
	assert.Equal(t, 30000, wc.Timeout, "worker timeout defaulted")
}

func TestLoadFromFile_MissingBrokerAddress(t *testing.T) {
	yaml := `
database:
  postgres:
    host: localhost
    database: intake
    user: testuser
  redis:
    address: "localhost:6379"
`
	_, err := LoadFromFile(writeTestConfig(t, yaml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker_address")
}

func TestGetDSN(t *testing.T) {
	p := PostgresConfig{
		Host:     "db.internal",
		Port:     5432,
		Database: "intake",
		User:     "svc",
		Password: "secret",
		SSLMode:  "require",
	}

	dsn := p.GetDSN()
	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "dbname=intake")
	assert.Contains(t, dsn, "sslmode=require")
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{}

	wc := GetWorkerConfig(cfg, "unconfigured-worker")
	assert.True(t, wc.Enabled)
	assert.Equal(t, 5, wc.MaxJobsActive)
	assert.Equal(t, 30000, wc.Timeout)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 30*time.Second, GetDuration(30000))
}
