// Package config содержит логику чтения конфигурации сервиса учёта показаний.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress = "localhost:8080"
	defaultExchange   = "meter-reading.events"
	defaultTimezone   = "UTC"
	defaultLogLevel   = "info"
	defaultService    = "meter-reading"
)

// Config содержит параметры конфигурации сервиса учёта показаний.
type Config struct {
	ServiceName          string `env:"SERVICE_NAME"`
	RunAddress           string `env:"RUN_ADDRESS"`
	DatabaseURI          string `env:"DATABASE_URI"`
	SessionSecret        string `env:"SESSION_SECRET"`
	RabbitMQURL          string `env:"RABBITMQ_URL"`
	RabbitMQExchange     string `env:"RABBITMQ_EXCHANGE"`
	Timezone             string `env:"TIMEZONE"`
	SerializeSubmissions bool   `env:"SERIALIZE_SUBMISSIONS"`
	LogLevel             string `env:"LOG_LEVEL"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Заданные переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	return ParseArgs(flag.CommandLine, nil)
}

// ParseArgs разбирает флаги из args в fs. При args == nil используются аргументы процесса.
func ParseArgs(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{ServiceName: defaultService}

	fs.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	fs.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	fs.StringVar(&cfg.SessionSecret, "s", "", "session cookie signing secret")
	fs.StringVar(&cfg.RabbitMQURL, "q", "", "RabbitMQ URL for reading events")
	fs.StringVar(&cfg.RabbitMQExchange, "exchange", defaultExchange, "RabbitMQ exchange for reading events")
	fs.StringVar(&cfg.Timezone, "tz", defaultTimezone, "server time zone for report periods")
	fs.BoolVar(&cfg.SerializeSubmissions, "serialize", false, "check and store readings in one locking transaction")
	fs.StringVar(&cfg.LogLevel, "log-level", defaultLogLevel, "log level")

	if args == nil {
		args = os.Args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.RabbitMQExchange == "" {
		cfg.RabbitMQExchange = defaultExchange
	}
	if cfg.Timezone == "" {
		cfg.Timezone = defaultTimezone
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location возвращает часовой пояс сервера.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
