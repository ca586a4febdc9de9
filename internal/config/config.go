// Package config loads application configuration from an optional YAML
// file and MAILCTL_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. It is loaded once at process
// start and threaded into each component at construction.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Sender    SenderConfig    `mapstructure:"sender"`
	Invoice   InvoiceConfig   `mapstructure:"invoice"`
	Quote     QuoteConfig     `mapstructure:"quote"`
	Addresses AddressesConfig `mapstructure:"addresses"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// APIConfig holds the remote transactional-email API settings.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Key     string        `mapstructure:"key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SenderConfig holds the sender identity strings.
type SenderConfig struct {
	Name    string `mapstructure:"name"`
	Alias   string `mapstructure:"alias"` // optional override of the route alias
	Domain  string `mapstructure:"domain"`
	ReplyTo string `mapstructure:"reply_to"`
}

// InvoiceConfig holds paths for the invoice command.
type InvoiceConfig struct {
	ParserBin string `mapstructure:"parser_bin"`
	JSONPath  string `mapstructure:"json_path"`
	PDFPath   string `mapstructure:"pdf_path"`
}

// QuoteConfig holds paths for the quote command.
type QuoteConfig struct {
	AttachmentPath string `mapstructure:"attachment_path"`
}

// AddressesConfig holds well-known recipient addresses.
type AddressesConfig struct {
	Test        string `mapstructure:"test"`
	Automations string `mapstructure:"automations"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	Output    string `mapstructure:"output"` // stdout (default) or file
	FilePath  string `mapstructure:"file_path"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	MaxFiles  int    `mapstructure:"max_files"`
}

const defaultAPITimeout = 30 * time.Second

// Load reads configuration from the given config directory path. It looks
// for a file named "config.yaml" in that directory; a missing file is not
// an error since the tool is usually driven by environment variables.
// Environment variables with prefix MAILCTL_ override file values, e.g.
// MAILCTL_API_KEY overrides api.key.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetEnvPrefix("MAILCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Viper only consults the env on explicit lookups unless keys are
	// bound; bind every key we unmarshal.
	for _, key := range []string{
		"api.base_url", "api.key", "api.timeout",
		"sender.name", "sender.alias", "sender.domain", "sender.reply_to",
		"invoice.parser_bin", "invoice.json_path", "invoice.pdf_path",
		"quote.attachment_path",
		"addresses.test", "addresses.automations",
		"logging.level", "logging.output", "logging.file_path",
		"logging.max_size_mb", "logging.max_files",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = defaultAPITimeout
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return &cfg, nil
}

// Validate checks that the fields every send requires are present.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.Key == "" {
		return errors.New("api.key is required")
	}
	return nil
}
