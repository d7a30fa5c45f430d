// Package config loads the expense bot configuration: the shared core
// sections plus storage, session and flow settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/expensebot/core/config"
	coredatabase "github.com/m3rciful/expensebot/core/database"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageSupabase = "supabase"
)

// Session backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// DefaultTable is the table expense records are written to.
const DefaultTable = "expenses_raw"

// StorageConfig selects where finished records go.
type StorageConfig struct {
	Backend string `yaml:"backend" envconfig:"STORAGE_BACKEND"`
	Table   string `yaml:"table" envconfig:"STORAGE_TABLE"`
}

// SupabaseConfig holds the REST endpoint and service key.
type SupabaseConfig struct {
	URL string `yaml:"url" envconfig:"SUPABASE_URL"`
	Key string `yaml:"key" envconfig:"SUPABASE_KEY"`
}

// RedisConfig describes the Redis session backend.
type RedisConfig struct {
	Addr      string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password  string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB        int    `yaml:"db" envconfig:"REDIS_DB"`
	KeyPrefix string `yaml:"key_prefix" envconfig:"REDIS_KEY_PREFIX"`
}

// SessionConfig selects the conversation session backend.
type SessionConfig struct {
	Backend string `yaml:"backend" envconfig:"SESSION_BACKEND"`
	// TTL expires idle sessions; 0 keeps them until finished or cancelled.
	TTL   time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
	Redis RedisConfig   `yaml:"redis"`
}

// ExpenseConfig tunes the entry flow.
type ExpenseConfig struct {
	// Timezone names the IANA zone used for "today"; empty means local time.
	Timezone string `yaml:"timezone" envconfig:"EXPENSE_TIMEZONE"`
	AskDate  bool   `yaml:"ask_date" envconfig:"EXPENSE_ASK_DATE"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Storage  StorageConfig       `yaml:"storage"`
	Supabase SupabaseConfig      `yaml:"supabase"`
	Session  SessionConfig       `yaml:"session"`
	Expense  ExpenseConfig       `yaml:"expense"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Location resolves Expense.Timezone.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Expense.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("expense.timezone: %w", err)
	}
	return loc, nil
}

// Load reads .env (if present), the YAML file at path and environment
// overrides, then validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the configuration and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StoragePostgres
	}
	if strings.TrimSpace(cfg.Storage.Table) == "" {
		cfg.Storage.Table = DefaultTable
	}
	switch cfg.Storage.Backend {
	case StoragePostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" || strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required for the postgres backend")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 4
		}
	case StorageSupabase:
		if strings.TrimSpace(cfg.Supabase.URL) == "" || strings.TrimSpace(cfg.Supabase.Key) == "" {
			return fmt.Errorf("supabase.url and supabase.key are required for the supabase backend")
		}
	default:
		return fmt.Errorf("invalid storage.backend %q; allowed: postgres, supabase", cfg.Storage.Backend)
	}

	cfg.Session.Backend = strings.ToLower(strings.TrimSpace(cfg.Session.Backend))
	switch cfg.Session.Backend {
	case "", SessionMemory:
		cfg.Session.Backend = SessionMemory
	case SessionRedis:
		if strings.TrimSpace(cfg.Session.Redis.Addr) == "" {
			cfg.Session.Redis.Addr = "127.0.0.1:6379"
		}
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: memory, redis", cfg.Session.Backend)
	}
	if cfg.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must be >= 0")
	}

	if _, err := cfg.Location(); err != nil {
		return err
	}
	return nil
}
