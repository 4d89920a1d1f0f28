// Package config reads the personquery configuration from the environment and opens PersonStores from it.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Driver constants
const (
	DriverPGX      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLX     = "sqlx"
	DriverSQLite   = "sqlite"
)

// Log format constants
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

var ErrUnsupportedDriver = errors.New("unsupported driver")
var ErrMissingDSN = errors.New("PERSONSTORE_DSN must be set")
var ErrUnsupportedLogFormat = errors.New("unsupported log format")

// DefaultEnvFiles are loaded by Load when they exist. Variables already set in the environment win.
var DefaultEnvFiles = []string{".env", ".env.local"}

// PoolOptions mirror the pgxpool / database/sql pool settings.
type PoolOptions struct {
	MaxConns          int32         `env:"MAX_CONNS" envDefault:"8"`
	MinConns          int32         `env:"MIN_CONNS" envDefault:"2"`
	MaxIdleConns      int           `env:"MAX_IDLE_CONNS" envDefault:"4"`
	MaxConnLifetime   time.Duration `env:"MAX_CONN_LIFETIME" envDefault:"1h"`
	MaxConnIdleTime   time.Duration `env:"MAX_CONN_IDLE_TIME" envDefault:"5m"`
	HealthCheckPeriod time.Duration `env:"HEALTH_CHECK_PERIOD" envDefault:"1m"`
	ConnectTimeout    time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`
}

// Config is the complete personquery configuration.
type Config struct {
	Driver       string        `env:"DRIVER" envDefault:"pgx"`
	DSN          string        `env:"DSN"`
	ReplicaDSN   string        `env:"REPLICA_DSN"`
	Table        string        `env:"TABLE" envDefault:"person"`
	QueryTimeout time.Duration `env:"QUERY_TIMEOUT" envDefault:"10s"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string        `env:"LOG_FORMAT" envDefault:"text"`
	Pool         PoolOptions   `envPrefix:"POOL_"`
}

// Load reads the existing files of envFiles into the process environment and parses
// all PERSONSTORE_ prefixed variables into a validated Config.
func Load(envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}

	return Parse()
}

// Parse reads the PERSONSTORE_ prefixed variables of the process environment into a validated Config.
func Parse() (Config, error) {
	cfg := Config{}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "PERSONSTORE_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports configuration errors that would only surface when connecting.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverPGX, DriverPostgres, DriverSQLX, DriverSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.Driver)
	}

	if c.DSN == "" {
		return ErrMissingDSN
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedLogFormat, c.LogFormat)
	}

	return nil
}

// Dialect is the SQL dialect matching the configured driver.
func (c Config) Dialect() string {
	if c.Driver == DriverSQLite {
		return "sqlite3"
	}

	return "postgres"
}

func loadEnvFiles(envFiles []string) error {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}

	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}

	return nil
}
