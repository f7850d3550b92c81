package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/jaekwang-park/todo-steps/internal/repository"
)

var validEnvs = map[string]bool{
	"local": true,
	"alpha": true,
	"beta":  true,
	"prod":  true,
}

type Config struct {
	ServerPort string
	AppEnv     string
	LogLevel   string
	DB         DBConfig
}

func (c Config) ParseLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid SERVER_PORT %q: %w", c.ServerPort, err)
	}
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}
	if !c.DB.Driver.IsValid() {
		return fmt.Errorf("invalid DB_DRIVER %q: must be one of postgres, sqlite3", c.DB.Driver)
	}
	if c.DB.Driver == repository.DriverSQLite && c.AppEnv != "local" {
		return fmt.Errorf("DB_DRIVER=sqlite3 must not be used in %s environment", c.AppEnv)
	}
	if c.DB.Driver == repository.DriverSQLite && c.DB.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required when DB_DRIVER=sqlite3")
	}
	return nil
}

type DBConfig struct {
	Driver     repository.Driver
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

func (d DBConfig) DSN() string {
	if d.Driver == repository.DriverSQLite {
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", d.SQLitePath)
	}

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(d.SSLMode)),
	}
	return u.String()
}

// LoadEnvFile seeds the process environment from a dotenv file. Variables
// already set take precedence. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func Load() Config {
	return Config{
		ServerPort: envOrDefault("SERVER_PORT", "8080"),
		AppEnv:     envOrDefault("APP_ENV", "local"),
		LogLevel:   envOrDefault("LOG_LEVEL", "info"),
		DB: DBConfig{
			Driver:     repository.Driver(strings.ToLower(envOrDefault("DB_DRIVER", "postgres"))),
			Host:       envOrDefault("DB_HOST", "localhost"),
			Port:       envOrDefault("DB_PORT", "5432"),
			User:       envOrDefault("DB_USER", "todo"),
			Password:   envOrDefault("DB_PASSWORD", "todo"),
			Name:       envOrDefault("DB_NAME", "todo"),
			SSLMode:    envOrDefault("DB_SSLMODE", "disable"),
			SQLitePath: envOrDefault("SQLITE_PATH", "todo.db"),
		},
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
