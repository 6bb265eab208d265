package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap/zapcore"
)

// Config holds all configuration for vocabs.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets must only come from environment variables.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`

	// Namespaces adds or replaces prefix bindings in the namespace registry.
	// From the environment: NAMESPACES="ex:http://example.org/,my:urn:my:"
	Namespaces map[string]string `yaml:"namespaces" env:"NAMESPACES" env-separator:","`

	// SessionSecret signs the session cookie. A random key is generated when
	// empty, which invalidates sessions on restart.
	SessionSecret string `yaml:"-" env:"SESSION_SECRET"` // Secret - not in YAML

	// DatabaseURL is the PostgreSQL DSN used when storage.driver is postgres.
	DatabaseURL string `yaml:"-" env:"DATABASE_URL"` // Secret - not in YAML
}

type ServerConfig struct {
	BindAddr     string        `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port         int           `yaml:"port" env:"PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT" env-default:"60s"`
	// CSRFEnabled defaults to true in Load; an env-default would override an
	// explicit false from YAML.
	CSRFEnabled   bool `yaml:"csrf_enabled" env:"CSRF_ENABLED"`
	SecureCookies bool `yaml:"secure_cookies" env:"SECURE_COOKIES" env-default:"false"`
}

// Addr is the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.BindAddr, strconv.Itoa(s.Port))
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

type StorageConfig struct {
	// Driver selects the repository backend: sqlite, postgres or badger.
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	// Path is the SQLite database file or the badger directory.
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:"./vocabs.db"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"`
}

// Load reads configuration from path (when the file exists) with
// environment variable overrides, then validates it.
func Load(path string) (*Config, error) {
	cfg := &Config{Server: ServerConfig{CSRFEnabled: true}}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that cannot be expressed as struct tags.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverBadger:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s driver", c.Storage.Driver)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	return nil
}

// Usage describes the environment variables Load understands.
func Usage() (string, error) {
	return cleanenv.GetDescription(&Config{}, nil)
}
