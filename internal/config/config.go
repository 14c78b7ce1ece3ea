// Package config содержит логику чтения конфигурации сервиса repairdesk.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config содержит параметры конфигурации сервиса repairdesk.
type Config struct {
	RunAddress   string        `env:"RUN_ADDRESS"`
	DatabaseURI  string        `env:"DATABASE_URI"`
	APIBaseURL   string        `env:"API_BASE_URL"`
	CookieSecret string        `env:"COOKIE_SECRET"`
	LogLevel     string        `env:"LOG_LEVEL"`
	APITimeout   time.Duration `env:"API_TIMEOUT"`
	ServiceName  string        `env:"SERVICE_NAME" envDefault:"repairdesk"`
	CookieSecure bool          `env:"COOKIE_SECURE"`
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envCfg := *cfg

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.APIBaseURL, "r", "http://localhost:8000/api", "repair shop API base URL")
	flag.StringVar(&cfg.CookieSecret, "s", "", "secret for signing session cookies")
	flag.StringVar(&cfg.LogLevel, "l", "info", "log level")
	flag.DurationVar(&cfg.APITimeout, "t", 10*time.Second, "repair shop API request timeout")

	flag.Parse()

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.APIBaseURL != "" {
		cfg.APIBaseURL = envCfg.APIBaseURL
	}
	if envCfg.CookieSecret != "" {
		cfg.CookieSecret = envCfg.CookieSecret
	}
	if envCfg.LogLevel != "" {
		cfg.LogLevel = envCfg.LogLevel
	}
	if envCfg.APITimeout != 0 {
		cfg.APITimeout = envCfg.APITimeout
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.APITimeout <= 0 {
		return nil, fmt.Errorf("api timeout must be positive, got %s", cfg.APITimeout)
	}

	return cfg, nil
}
