package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries environment-driven settings shared by the API, worker and CLI.
type Config struct {
	Port              string `env:"PORT" envDefault:"8080"`
	PostgresDSN       string `env:"POSTGRES_DSN"`
	TemporalAddress   string `env:"TEMPORAL_ADDRESS" envDefault:"localhost:7233"`
	TemporalNamespace string `env:"TEMPORAL_NAMESPACE" envDefault:"default"`
	TemporalDisabled  bool   `env:"TEMPORAL_DISABLED"`
	AMQPURL           string `env:"AMQP_URL"`
	AMQPExchange      string `env:"AMQP_EXCHANGE" envDefault:"mikopo"`
	AMQPReminderQueue string `env:"AMQP_REMINDER_QUEUE" envDefault:"arrears_reminders"`
	BusinessTimezone  string `env:"BUSINESS_TIMEZONE" envDefault:"Africa/Nairobi"`
	ArrearsSweepCron  string `env:"ARREARS_SWEEP_CRON" envDefault:"0 3 * * *"`
	Environment       string `env:"ENVIRONMENT" envDefault:"local"`
}

// Load reads an optional .env file, parses the environment and validates the result.
// Variables already set in the process environment win over .env entries.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// Missing files are expected outside local development.
		_ = godotenv.Load(f)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.PostgresDSN = strings.TrimSpace(cfg.PostgresDSN)
	cfg.AMQPURL = strings.TrimSpace(cfg.AMQPURL)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings that would only fail later at runtime.
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("PORT must be a TCP port, got %q", c.Port)
	}
	if _, err := time.LoadLocation(c.BusinessTimezone); err != nil {
		return fmt.Errorf("BUSINESS_TIMEZONE %q: %w", c.BusinessTimezone, err)
	}
	if fields := strings.Fields(c.ArrearsSweepCron); len(fields) < 5 {
		return errors.New("ARREARS_SWEEP_CRON must have five fields")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPReminderQueue == "") {
		return errors.New("AMQP_EXCHANGE and AMQP_REMINDER_QUEUE are required with AMQP_URL")
	}
	return nil
}

// Location returns the business timezone. Validate has already checked it loads.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}
