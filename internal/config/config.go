package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. MEDSCORE_STORE.
const EnvPrefix = "MEDSCORE"

type Config struct {
	Addr            string   `mapstructure:"ADDR"`
	Env             string   `mapstructure:"ENV"`
	LogLevel        string   `mapstructure:"LOG_LEVEL"`
	Store           string   `mapstructure:"STORE"`
	SQLitePath      string   `mapstructure:"SQLITE_PATH"`
	DatabaseURL     string   `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32    `mapstructure:"DB_MIN_CONNS"`
	MigrationsDir   string   `mapstructure:"MIGRATIONS_DIR"`
	CatalogDir      string   `mapstructure:"CATALOG_DIR"`
	HiddenResponses string   `mapstructure:"HIDDEN_RESPONSES"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`
	StaticDir       string   `mapstructure:"STATIC_DIR"`
	Commit          string   `mapstructure:"COMMIT"`
	BuildTime       string   `mapstructure:"BUILD_TIME"`
}

var keys = []string{
	"ADDR", "ENV", "LOG_LEVEL", "STORE", "SQLITE_PATH", "DATABASE_URL",
	"DB_MAX_CONNS", "DB_MIN_CONNS", "MIGRATIONS_DIR", "CATALOG_DIR",
	"HIDDEN_RESPONSES", "CORS_ORIGINS", "STATIC_DIR", "COMMIT", "BUILD_TIME",
}

// Load reads the environment and, when file is not empty, a config file
// (YAML, TOML or .env, picked by extension). Environment wins over the file.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("ADDR", ":8080")
	v.SetDefault("ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE", "sqlite")
	v.SetDefault("SQLITE_PATH", "./data/medscore.db")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("HIDDEN_RESPONSES", "drop")
	v.SetDefault("CORS_ORIGINS", "")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	origins := cfg.CORSOrigins[:0]
	for _, o := range cfg.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.CORSOrigins = origins

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store {
	case "memory":
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
		if c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
		}
	default:
		return fmt.Errorf("unknown STORE %q (want memory, sqlite or postgres)", c.Store)
	}
	switch c.HiddenResponses {
	case "drop", "keep":
	default:
		return fmt.Errorf("HIDDEN_RESPONSES must be drop or keep, got %q", c.HiddenResponses)
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}
