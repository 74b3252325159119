// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
octopus:
  api_key: sk_live_test
  account_id: A-12345678
billing:
  day: 15
server:
  port: "9090"
logging:
  level: debug
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "sk_live_test", cfg.Octopus.APIKey)
	assert.Equal(t, "A-12345678", cfg.Octopus.AccountID)
	assert.Equal(t, 15, cfg.Billing.Day)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
octopus:
  api_key: sk_live_test
  account_id: A-12345678
`))
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Billing.Day)
	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("OCTOPUS_API_KEY", "sk_live_override")
	t.Setenv("BILLING_DAY", "28")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("CACHE_DIR", "/tmp/tariff-cache")

	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "sk_live_override", cfg.Octopus.APIKey)
	assert.Equal(t, 28, cfg.Billing.Day)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/tmp/tariff-cache", cfg.Cache.Directory)
}

func TestLoadRejectsMissingCredentials(t *testing.T) {
	_, err := Load(writeConfig(t, `
octopus:
  account_id: A-12345678
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APIKey")
}

func TestLoadRejectsBillingDayOutOfRange(t *testing.T) {
	_, err := Load(writeConfig(t, `
octopus:
  api_key: sk_live_test
  account_id: A-12345678
billing:
  day: 32
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Day")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateWithSchemaAccepts(t *testing.T) {
	err := ValidateWithSchema(writeConfig(t, validConfig))
	assert.NoError(t, err)
}

func TestValidateWithSchemaRejectsUnknownField(t *testing.T) {
	err := ValidateWithSchema(writeConfig(t, `
octopus:
  api_key: sk_live_test
  account_id: A-12345678
influx:
  url: http://localhost:8086
`))
	require.Error(t, err)
}

func TestValidateWithSchemaRejectsWrongType(t *testing.T) {
	err := ValidateWithSchema(writeConfig(t, `
octopus:
  api_key: sk_live_test
  account_id: A-12345678
billing:
  day: fifteen
`))
	require.Error(t, err)
}
