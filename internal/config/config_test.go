package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:                     "5000",
		Env:                      "development",
		DatabaseURL:              "postgres://u:p@db:5432/warbler?sslmode=require",
		DBConnMaxLifetimeMinutes: 30,
		DBSchemaMode:             "auto",
		SessionTTLHours:          24,
		CSRFEnabled:              true,
		BcryptCost:               12,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid development", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing database url", func(c *Config) { c.DatabaseURL = "" }, true},
		{"unknown schema mode", func(c *Config) { c.DBSchemaMode = "hybrid" }, true},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 1 }, true},
		{"zero session ttl", func(c *Config) { c.SessionTTLHours = 0 }, true},
		{"unknown exporter", func(c *Config) { c.TracingEnabled = true; c.TracingExporter = "jaeger" }, true},
		{"sampler out of range", func(c *Config) {
			c.TracingEnabled = true
			c.TracingExporter = "otlp"
			c.TracingSamplerRatio = 2
		}, true},
		{"production ok", func(c *Config) { c.Env = "production" }, false},
		{"production default database", func(c *Config) {
			c.Env = "production"
			c.DatabaseURL = defaultDatabaseURL
		}, true},
		{"production sqlite", func(c *Config) {
			c.Env = "prod"
			c.DatabaseURL = "sqlite://warbler.db"
		}, true},
		{"production without csrf", func(c *Config) {
			c.Env = "production"
			c.CSRFEnabled = false
		}, true},
		{"production with cheap bcrypt", func(c *Config) {
			c.Env = "production"
			c.BcryptCost = 4
		}, true},
		{"test with cheap bcrypt", func(c *Config) {
			c.Env = "test"
			c.BcryptCost = 4
			c.CSRFEnabled = false
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SCHEMA_MODE")
	defer os.Unsetenv("BCRYPT_COST")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SCHEMA_MODE", "  SQL ")
	os.Setenv("BCRYPT_COST", "6")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sql", c.DBSchemaMode)
	assert.Equal(t, 6, c.BcryptCost)
	assert.True(t, c.CSRFEnabled)
}

func TestLoadConfig_MissingProfileFile(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer viper.Reset()

	os.Setenv("APP_ENV", "staging-does-not-exist")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestIsSQLiteURL(t *testing.T) {
	assert.True(t, IsSQLiteURL("sqlite://warbler.db"))
	assert.True(t, IsSQLiteURL("file::memory:?cache=shared"))
	assert.True(t, IsSQLiteURL(":memory:"))
	assert.False(t, IsSQLiteURL("postgres://localhost/warbler"))
	assert.Equal(t, "warbler.db", SQLitePath("sqlite://warbler.db"))
}
