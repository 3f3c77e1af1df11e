package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

type Config struct {
	Port     string `yaml:"port" env:"PORT" env-default:"8081"`
	Env      string `yaml:"env" env:"ENV" env-default:"development"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	// WorkspaceSecret keys session signatures and token/reset-code digests.
	// Changing it logs everyone out.
	WorkspaceSecret string `yaml:"workspace_secret" env:"WORKSPACE_SECRET" env-default:"echohub-dev-secret"`

	Store StoreConfig `yaml:"store"`
	SMTP  SMTPConfig  `yaml:"smtp"`

	PhotoDir  string `yaml:"photo_dir" env:"PHOTO_DIR" env-default:"pfps"`
	PublicURL string `yaml:"public_url" env:"PUBLIC_URL" env-default:"http://localhost:8081"`

	// CORSOrigins lists allowed browser origins. Empty allows any origin.
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-separator:","`
}

type StoreConfig struct {
	Backend     string `yaml:"backend" env:"STORE_BACKEND" env-default:"file"`
	DataFile    string `yaml:"data_file" env:"DATA_FILE" env-default:"data/database.json"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	MaxConns    int32  `yaml:"max_conns" env:"DATABASE_MAX_CONNS" env-default:"5"`
	RedisURL    string `yaml:"redis_url" env:"REDIS_URL" env-default:"redis://localhost:6379"`
	RedisKey    string `yaml:"redis_key" env:"REDIS_KEY" env-default:"echohub:workspace"`
}

// SMTPConfig is optional. With an empty Host, reset codes are only logged.
type SMTPConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM" env-default:"no-reply@echohub.local"`
}

// LoadConfig reads CONFIG_PATH (YAML) when set, otherwise the environment
// alone. Environment variables always override the file.
func LoadConfig() (*Config, error) {
	var cfg Config

	if path := GetEnv("CONFIG_PATH", ""); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile:
		if c.Store.DataFile == "" {
			return fmt.Errorf("store backend %q needs DATA_FILE", c.Store.Backend)
		}
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("store backend %q needs DATABASE_URL", c.Store.Backend)
		}
	case BackendRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store backend %q needs REDIS_URL", c.Store.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.WorkspaceSecret == "" {
		return fmt.Errorf("WORKSPACE_SECRET must not be empty")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
