// Package config loads server settings from .env, an optional YAML file and
// the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/realtyhub/messaging/internal/database"
	"github.com/realtyhub/messaging/internal/logger"
)

var log = logger.New("config")

// ErrMissingSecret is returned when no JWT signing secret is configured
var ErrMissingSecret = errors.New("JWT_SECRET is required")

// DBConfig holds the individual postgres connection parameters
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// Config contains the server settings
type Config struct {
	Env            string                `yaml:"env"`
	Port           string                `yaml:"port"`
	JWTSecret      string                `yaml:"jwt_secret"`
	DBType         database.DatabaseType `yaml:"db_type"`
	DatabaseURL    string                `yaml:"database_url"`
	DB             DBConfig              `yaml:"db"`
	SQLitePath     string                `yaml:"sqlite_path"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	LogLevel       string                `yaml:"log_level"`
	LogFile        string                `yaml:"log_file"`
}

func defaults() Config {
	return Config{
		Env:        "development",
		Port:       "8080",
		DBType:     database.PostgreSQL,
		DB:         DBConfig{Port: "5432", SSLMode: "disable"},
		SQLitePath: database.DefaultSQLitePath,
		LogFile:    "server.log",
	}
}

// Load reads .env when present, then the YAML file named by CONFIG_FILE, then
// the environment, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug(".env file not found, using environment variables")
	}

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
		log.Info("Loaded %s", path)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Env = envStr("ENV", c.Env)
	c.Port = envStr("PORT", c.Port)
	c.JWTSecret = envStr("JWT_SECRET", c.JWTSecret)
	c.DBType = database.DatabaseType(strings.ToLower(envStr("DB_TYPE", string(c.DBType))))
	c.DatabaseURL = envStr("DATABASE_URL", c.DatabaseURL)
	c.DB.Host = envStr("DB_HOST", c.DB.Host)
	c.DB.Port = envStr("DB_PORT", c.DB.Port)
	c.DB.Name = envStr("DB_NAME", c.DB.Name)
	c.DB.User = envStr("DB_USER", c.DB.User)
	c.DB.Password = envStr("DB_PASSWORD", c.DB.Password)
	c.DB.SSLMode = envStr("DB_SSLMODE", c.DB.SSLMode)
	c.SQLitePath = envStr("SQLITE_PATH", c.SQLitePath)
	c.LogLevel = envStr("LOG_LEVEL", c.LogLevel)
	c.LogFile = envStr("LOG_FILE", c.LogFile)

	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		c.AllowedOrigins = splitList(raw)
	}
}

// Validate checks that the settings are complete enough to start the server
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	switch c.DBType {
	case database.PostgreSQL:
		if c.DatabaseURL == "" && (c.DB.Host == "" || c.DB.Name == "" || c.DB.User == "") {
			return errors.New("database connection details missing: set DATABASE_URL or DB_HOST, DB_NAME and DB_USER")
		}
	case database.SQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite backend")
		}
	case database.Memory:
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DBType)
	}
	return nil
}

// IsProduction reports whether the server runs with ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DSN returns the connection string for the configured backend
func (c *Config) DSN() string {
	switch c.DBType {
	case database.PostgreSQL:
		if c.DatabaseURL != "" {
			return c.DatabaseURL
		}
		return c.postgresURL()
	case database.SQLite:
		return c.SQLitePath
	}
	return ""
}

func (c *Config) postgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     c.DB.Host,
		Path:     "/" + c.DB.Name,
		RawQuery: "sslmode=" + c.DB.SSLMode,
	}
	if c.DB.Port != "" {
		u.Host = c.DB.Host + ":" + c.DB.Port
	}
	return u.String()
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
