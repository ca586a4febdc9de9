package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := writeConfig(t, `
api:
  base_url: https://api.example.com
  key: file-key
  timeout: 10s
sender:
  name: De Dierenzaak
  domain: example.com
  reply_to: contact@example.com
invoice:
  parser_bin: /usr/local/bin/invoice-parse
  json_path: /var/lib/mailctl/invoices.json
  pdf_path: /var/lib/mailctl/invoice.pdf
quote:
  attachment_path: /var/lib/mailctl/offerte.pdf
logging:
  level: debug
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.API.BaseURL != "https://api.example.com" {
		t.Errorf("unexpected base URL: %s", cfg.API.BaseURL)
	}
	if cfg.API.Key != "file-key" {
		t.Errorf("unexpected key: %s", cfg.API.Key)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", cfg.API.Timeout)
	}
	if cfg.Sender.ReplyTo != "contact@example.com" {
		t.Errorf("unexpected reply_to: %s", cfg.Sender.ReplyTo)
	}
	if cfg.Invoice.ParserBin != "/usr/local/bin/invoice-parse" {
		t.Errorf("unexpected parser_bin: %s", cfg.Invoice.ParserBin)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level debug, got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("MAILCTL_API_BASE_URL", "https://env.example.com")
	t.Setenv("MAILCTL_API_KEY", "env-key")
	t.Setenv("MAILCTL_SENDER_DOMAIN", "env.example.com")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("missing config file must not fail: %v", err)
	}

	if cfg.API.BaseURL != "https://env.example.com" {
		t.Errorf("expected env base URL, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Key != "env-key" {
		t.Errorf("expected env key, got %s", cfg.API.Key)
	}
	if cfg.Sender.Domain != "env.example.com" {
		t.Errorf("expected env domain, got %s", cfg.Sender.Domain)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", cfg.API.Timeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default level info, got %s", cfg.Logging.Level)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := writeConfig(t, `
api:
  base_url: https://file.example.com
  key: file-key
`)
	t.Setenv("MAILCTL_API_KEY", "env-key")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.API.Key != "env-key" {
		t.Errorf("env must override file, got %s", cfg.API.Key)
	}
	if cfg.API.BaseURL != "https://file.example.com" {
		t.Errorf("file value must survive, got %s", cfg.API.BaseURL)
	}
}

func TestValidate_MissingRequiredFields(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing base_url")
	}

	cfg.API.BaseURL = "https://api.example.com"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing key")
	}

	cfg.API.Key = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}
