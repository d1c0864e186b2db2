package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// DefaultConfigPath is read when no file is named explicitly and it exists.
const DefaultConfigPath = "configs/config.toml"

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration values
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Redis     RedisConfig     `toml:"redis"`
	RabbitMQ  RabbitMQConfig  `toml:"rabbitmq"`
	Auth      AuthConfig      `toml:"auth"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string        `toml:"host" env:"SERVER_HOST"`
	Port            string        `toml:"port" env:"SERVER_PORT"`
	Env             string        `toml:"env" env:"SERVER_ENV"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver       string `toml:"driver" env:"DB_DRIVER"`
	Host         string `toml:"host" env:"DB_HOST"`
	Port         int    `toml:"port" env:"DB_PORT"`
	User         string `toml:"user" env:"DB_USER"`
	Password     string `toml:"password" env:"DB_PASSWORD"`
	DBName       string `toml:"name" env:"DB_NAME"`
	SSLMode      string `toml:"sslmode" env:"DB_SSLMODE"`
	Params       string `toml:"params" env:"DB_PARAMS"`
	Path         string `toml:"path" env:"DB_PATH"`
	MaxOpenConns int    `toml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns int    `toml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	AutoMigrate  bool   `toml:"auto_migrate" env:"DB_AUTO_MIGRATE"`
	Rebuild      bool   `toml:"rebuild" env:"DB_REBUILD"`
}

// DSN returns the driver specific connection string
func (c DatabaseConfig) DSN() string {
	switch c.Driver {
	case DriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", c.User, c.Password, c.Host, c.Port, c.DBName)
		if c.Params != "" {
			dsn += "?" + c.Params
		}
		return dsn
	case DriverSQLite:
		return c.Path
	default:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     c.Host + ":" + strconv.Itoa(c.Port),
			Path:     "/" + c.DBName,
			RawQuery: "sslmode=" + c.SSLMode,
		}
		return u.String()
	}
}

// RedisConfig holds Redis configuration. An empty URL disables Redis.
type RedisConfig struct {
	URL            string        `toml:"url" env:"REDIS_URL"`
	Password       string        `toml:"password" env:"REDIS_PASSWORD"`
	IdempotencyTTL time.Duration `toml:"idempotency_ttl" env:"REDIS_IDEMPOTENCY_TTL"`
}

// RabbitMQConfig holds RabbitMQ configuration. An empty URL disables events.
type RabbitMQConfig struct {
	URL      string `toml:"url" env:"RABBITMQ_URL"`
	Exchange string `toml:"exchange" env:"RABBITMQ_EXCHANGE"`
}

// AuthConfig holds the admin credentials and token settings
type AuthConfig struct {
	AdminUser         string        `toml:"admin_user" env:"AUTH_USER"`
	AdminPassword     string        `toml:"admin_password" env:"AUTH_PASSWORD"`
	AdminPasswordHash string        `toml:"admin_password_hash" env:"AUTH_PASSWORD_HASH"`
	JWTSecret         string        `toml:"jwt_secret" env:"JWT_SECRET"`
	TokenExpiry       time.Duration `toml:"token_expiry" env:"JWT_EXPIRY"`
}

// RateLimitConfig holds per-client request limits. RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `toml:"rps" env:"RATE_LIMIT_RPS"`
	Burst int     `toml:"burst" env:"RATE_LIMIT_BURST"`
}

var (
	errUnknownDriver   = errors.New("unknown database driver")
	errMissingPassword = errors.New("admin password or password hash is required")
	errMissingSecret   = errors.New("jwt secret is required")
	errMissingPort     = errors.New("server port is required")
)

// Load builds the configuration from defaults, an optional TOML file and the environment.
// path names the file explicitly; when empty CONFIG_FILE is consulted, then DefaultConfigPath.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := true
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		path = DefaultConfigPath
		explicit = false
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			Env:             "development",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       DriverPostgres,
			Host:         "localhost",
			Port:         5432,
			User:         "postgres",
			Password:     "postgres",
			DBName:       "userdirectory",
			SSLMode:      "disable",
			Params:       "parseTime=true&loc=UTC&charset=utf8mb4&clientFoundRows=true",
			Path:         "userdirectory.db",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			AutoMigrate:  true,
		},
		Redis: RedisConfig{
			IdempotencyTTL: 24 * time.Hour,
		},
		RabbitMQ: RabbitMQConfig{
			Exchange: "users",
		},
		Auth: AuthConfig{
			AdminUser:   "admin",
			JWTSecret:   "change-this-in-production",
			TokenExpiry: 15 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			RPS:   20,
			Burst: 40,
		},
	}
}

// Validate reports the first setting that makes the configuration unusable
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("%w: %q", errUnknownDriver, c.Database.Driver)
	}
	if c.Server.Port == "" {
		return errMissingPort
	}
	if c.Auth.AdminPassword == "" && c.Auth.AdminPasswordHash == "" {
		return errMissingPassword
	}
	if c.Auth.JWTSecret == "" {
		return errMissingSecret
	}
	return nil
}
