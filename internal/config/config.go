package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port string `envconfig:"PORT" default:"8080"`

	// Storage: DB_DSN (Postgres) gana; si no, SQLITE_PATH; si no, memoria.
	DBDSN      string `envconfig:"DB_DSN"`
	SQLitePath string `envconfig:"SQLITE_PATH"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	// Ventanas del engine, en minutos.
	DueWindowMin       int `envconfig:"DUE_WINDOW_MIN" default:"10"`
	ReportToleranceMin int `envconfig:"REPORT_TOLERANCE_MIN" default:"10"`

	// preserve | reset: qué pasa con el historial de tomas al editar un esquema.
	EditPolicy string `envconfig:"EDIT_POLICY" default:"preserve"`

	ReminderIntervalSec int `envconfig:"REMINDER_INTERVAL_SEC" default:"60"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default son los valores de Load con el entorno vacío; lo usan los tests y
// el router cuando no le pasan config.
func Default() *Config {
	return &Config{
		Port:                "8080",
		JWTSecret:           "dev-secret-change-me",
		TokenTTL:            24 * time.Hour,
		DueWindowMin:        10,
		ReportToleranceMin:  10,
		EditPolicy:          "preserve",
		ReminderIntervalSec: 60,
		LogLevel:            "info",
	}
}

func (c *Config) DueWindow() time.Duration {
	return time.Duration(c.DueWindowMin) * time.Minute
}

func (c *Config) ReportTolerance() time.Duration {
	return time.Duration(c.ReportToleranceMin) * time.Minute
}

func (c *Config) ReminderInterval() time.Duration {
	return time.Duration(c.ReminderIntervalSec) * time.Second
}
