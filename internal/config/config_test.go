package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
telegram:
  token: "yaml-token"
  run_mode: longpoll
logging:
  level: debug
database:
  host: localhost
  name: expenses
  user: bot
storage:
  backend: postgres
session:
  backend: redis
  ttl: 30m
  redis:
    key_prefix: "expensebot:session:"
expense:
  timezone: America/Toronto
  ask_date: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadYAMLAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "yaml-token", cfg.Telegram.Token)
	assert.Equal(t, "debug", cfg.CoreConfig().Logging.Level)
	assert.Equal(t, StoragePostgres, cfg.Storage.Backend)
	assert.Equal(t, DefaultTable, cfg.Storage.Table)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, SessionRedis, cfg.Session.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "127.0.0.1:6379", cfg.Session.Redis.Addr)
	assert.True(t, cfg.Expense.AskDate)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Toronto", loc.String())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "env-token")
	t.Setenv("STORAGE_BACKEND", "supabase")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_KEY", "service-key")
	t.Setenv("SESSION_BACKEND", "memory")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Telegram.Token)
	assert.Equal(t, StorageSupabase, cfg.Storage.Backend)
	assert.Equal(t, "https://example.supabase.co", cfg.Supabase.URL)
	assert.Equal(t, SessionMemory, cfg.Session.Backend)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestNormalizeRejects(t *testing.T) {
	base := func() Config {
		var c Config
		c.Telegram.Token = "t"
		c.Database.Host = "localhost"
		c.Database.Name = "expenses"
		return c
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Backend = "sqlite" }},
		{name: "postgres without host", mutate: func(c *Config) { c.Database.Host = "" }},
		{name: "supabase without key", mutate: func(c *Config) {
			c.Storage.Backend = StorageSupabase
			c.Supabase.URL = "https://example.supabase.co"
		}},
		{name: "unknown session", mutate: func(c *Config) { c.Session.Backend = "etcd" }},
		{name: "negative ttl", mutate: func(c *Config) { c.Session.TTL = -time.Second }},
		{name: "bad timezone", mutate: func(c *Config) { c.Expense.Timezone = "Mars/Olympus" }},
		{name: "core invalid", mutate: func(c *Config) { c.Telegram.Token = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			assert.Error(t, Normalize(&cfg))
		})
	}
}

func TestNormalizeDefaultsSessionToMemory(t *testing.T) {
	var cfg Config
	cfg.Telegram.Token = "t"
	cfg.Database.Host = "localhost"
	cfg.Database.Name = "expenses"
	require.NoError(t, Normalize(&cfg))
	assert.Equal(t, SessionMemory, cfg.Session.Backend)
	assert.Equal(t, 4, cfg.Database.MaxConnections)
}
