// Package config loads the service-report configuration from a YAML or
// .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"didcom/service-report/internal/models"

	"github.com/ilyakaznacheev/cleanenv"
)

// writeMargin is the time left for rendering and writing a response
const writeMargin = 15 * time.Second

// Config is the root configuration
type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"local"`
	Variant string        `yaml:"variant" env:"REPORT_VARIANT" env-default:"multi" env-description:"multi or single"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Webhook WebhookConfig `yaml:"webhook"`
	Brand   BrandConfig   `yaml:"brand"`
}

// LogConfig selects the zap level and encoder
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json" env-description:"json or console"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Port int `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	// SessionTTL is the idle lifetime of a report session in seconds.
	SessionTTL int `yaml:"session_ttl" env:"SESSION_TTL" env-default:"3600"`
}

// WebhookConfig holds the spreadsheet endpoints. Empty URLs are allowed at
// load time; a submit that needs one fails with a configuration error.
type WebhookConfig struct {
	DidcomURL  string `yaml:"didcom_url" env:"SHEETS_WEBHOOK_DIDCOM"`
	SitwifiURL string `yaml:"sitwifi_url" env:"SHEETS_WEBHOOK_SITWIFI"`
	URL        string `yaml:"url" env:"SHEETS_WEBHOOK_URL" env-description:"single-company webhook"`
	// Timeout in seconds, zero waits for the transport indefinitely. The
	// HTTP write timeout follows it, see Config.WriteTimeout.
	Timeout int `yaml:"timeout" env:"WEBHOOK_TIMEOUT" env-default:"0"`
}

// BrandConfig controls report titles and colours
type BrandConfig struct {
	// Name is appended to the PDF title in the single-company variant.
	Name         string `yaml:"name" env:"BRAND_NAME"`
	PrimaryColor string `yaml:"primary_color" env:"BRAND_PRIMARY" env-default:"#0b4ea2"`
	AccentColor  string `yaml:"accent_color" env:"BRAND_ACCENT" env-default:"#00b5e2"`
	// DeviceType is the only device offered in the single-company variant.
	DeviceType string `yaml:"device_type" env:"BRAND_DEVICE_TYPE" env-default:"Peplink"`
}

// LoadConfig reads path (YAML or .env) and applies environment overrides.
// A missing file is not an error; the environment and defaults are used.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
			return &cfg, cfg.validate()
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Webhook.Timeout < 0 {
		return fmt.Errorf("invalid webhook timeout %d", c.Webhook.Timeout)
	}
	return nil
}

// SessionTTL returns the idle session lifetime
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Server.SessionTTL) * time.Second
}

// WebhookTimeout returns the webhook client timeout
func (c *Config) WebhookTimeout() time.Duration {
	return time.Duration(c.Webhook.Timeout) * time.Second
}

// WriteTimeout is the HTTP server write timeout. A submit may post twice
// (primary and fallback) before it answers, so it gets both webhook timeouts
// plus writeMargin. With no webhook timeout there is no write timeout either.
func (c *Config) WriteTimeout() time.Duration {
	if c.Webhook.Timeout <= 0 {
		return 0
	}
	return 2*c.WebhookTimeout() + writeMargin
}

// WebhookFor returns the configured URL for a company, or "" when unset
func (w WebhookConfig) WebhookFor(company models.Company) string {
	switch company {
	case models.CompanyDidcom:
		return w.DidcomURL
	case models.CompanySitwifi:
		return w.SitwifiURL
	default:
		return ""
	}
}

// Usage returns the environment variable help text
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return text
}
