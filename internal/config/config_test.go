package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"didcom/service-report/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
env: test
variant: single
log:
  level: debug
  format: console
server:
  port: 9090
  session_ttl: 60
webhook:
  url: https://sheets.example/single
  timeout: 10
brand:
  name: Peplink
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Variant != "single" || cfg.Server.Port != 9090 || cfg.Log.Format != "console" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Webhook.URL != "https://sheets.example/single" {
		t.Errorf("Webhook.URL = %q", cfg.Webhook.URL)
	}
	if cfg.SessionTTL() != time.Minute || cfg.WebhookTimeout() != 10*time.Second {
		t.Errorf("SessionTTL() = %v WebhookTimeout() = %v", cfg.SessionTTL(), cfg.WebhookTimeout())
	}
	if cfg.Brand.PrimaryColor != "#0b4ea2" {
		t.Errorf("default primary colour not applied: %q", cfg.Brand.PrimaryColor)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "webhook:\n  didcom_url: https://file.example\n")
	t.Setenv("SHEETS_WEBHOOK_DIDCOM", "https://env.example")
	t.Setenv("HTTP_PORT", "8181")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Webhook.DidcomURL != "https://env.example" {
		t.Errorf("DidcomURL = %q, want the environment value", cfg.Webhook.DidcomURL)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("Port = %d, want 8181", cfg.Server.Port)
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	// Reading a .env file exports its variables; restore them afterwards.
	t.Setenv("SHEETS_WEBHOOK_DIDCOM", "")
	t.Setenv("SHEETS_WEBHOOK_SITWIFI", "")
	path := writeFile(t, ".env", "SHEETS_WEBHOOK_DIDCOM=https://didcom.example\nSHEETS_WEBHOOK_SITWIFI=https://sitwifi.example\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if got := cfg.Webhook.WebhookFor(models.CompanySitwifi); got != "https://sitwifi.example" {
		t.Errorf("WebhookFor(SITWIFI) = %q", got)
	}
	if got := cfg.Webhook.WebhookFor(models.CompanyDidcom); got != "https://didcom.example" {
		t.Errorf("WebhookFor(DIDCOM) = %q", got)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Variant != "multi" || cfg.Server.Port != 8080 || cfg.Webhook.Timeout != 0 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Brand.DeviceType != models.DevicePeplink {
		t.Errorf("Brand.DeviceType = %q", cfg.Brand.DeviceType)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "port", content: "server:\n  port: 70000\n"},
		{name: "timeout", content: "webhook:\n  timeout: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeFile(t, "config.yaml", tt.content)); err == nil {
				t.Error("LoadConfig() error = nil, want validation error")
			}
		})
	}
}

func TestWebhookForUnknownCompany(t *testing.T) {
	w := WebhookConfig{DidcomURL: "a", SitwifiURL: "b"}
	if got := w.WebhookFor(models.Company("ACME")); got != "" {
		t.Errorf("WebhookFor(ACME) = %q, want empty", got)
	}
}

func TestUsageListsVariables(t *testing.T) {
	if u := Usage(); u == "" {
		t.Error("Usage() is empty")
	}
}

func TestWriteTimeoutFollowsWebhook(t *testing.T) {
	tests := []struct {
		timeout int
		want    time.Duration
	}{
		{timeout: 0, want: 0},
		{timeout: 10, want: 35 * time.Second},
	}
	for _, tt := range tests {
		cfg := &Config{Webhook: WebhookConfig{Timeout: tt.timeout}}
		if got := cfg.WriteTimeout(); got != tt.want {
			t.Errorf("WriteTimeout() with webhook timeout %ds = %v, want %v", tt.timeout, got, tt.want)
		}
	}
}
