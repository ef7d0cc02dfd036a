package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"QHASH_PORT", "LOG_LEVEL", "HISTORY_ENABLED",
		"HISTORY_RETENTION_DAYS", "MAX_UPLOAD_BYTES"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.HistoryEnabled)
	assert.Equal(t, 30, cfg.HistoryRetentionDays)
	assert.EqualValues(t, 32<<20, cfg.MaxUploadBytes)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("QHASH_PORT", "9000")
	t.Setenv("HISTORY_ENABLED", "false")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.False(t, cfg.HistoryEnabled)
	assert.EqualValues(t, 1024, cfg.MaxUploadBytes)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Port = 0 }, wantErr: true},
		{name: "missing db path", mutate: func(c *Config) { c.DatabasePath = "" }, wantErr: true},
		{name: "db path optional when history disabled", mutate: func(c *Config) {
			c.HistoryEnabled = false
			c.DatabasePath = ""
		}},
		{name: "zero retention", mutate: func(c *Config) { c.HistoryRetentionDays = 0 }, wantErr: true},
		{name: "zero upload cap", mutate: func(c *Config) { c.MaxUploadBytes = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Port:                 8080,
				LogLevel:             "info",
				DatabasePath:         "./data/history.db",
				HistoryEnabled:       true,
				HistoryRetentionDays: 30,
				MaxUploadBytes:       1 << 20,
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
