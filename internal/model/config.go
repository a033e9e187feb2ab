package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// AIConfig holds settings for the AI assistant integration.
type AIConfig struct {
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`

	// TimeoutSec bounds a single completion request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// RateLimitQPS caps outgoing requests per second. Zero disables limiting.
	RateLimitQPS float64 `mapstructure:"rate_limit_qps" yaml:"rate_limit_qps"`

	// ClassifyConcurrency is how many classify calls may run at once when
	// labelling a freshly loaded mailbox.
	ClassifyConcurrency int `mapstructure:"classify_concurrency" yaml:"classify_concurrency"`
}

// MailboxConfig controls where emails are loaded from.
type MailboxConfig struct {
	// SeedPath is a YAML fixture file or a directory of .eml files.
	// Empty means the built-in sample inbox.
	SeedPath string `mapstructure:"seed_path" yaml:"seed_path"`

	// ReloadIntervalSec is how often the seed is re-read for new
	// messages. Zero disables reloading.
	ReloadIntervalSec int `mapstructure:"reload_interval_sec" yaml:"reload_interval_sec"`
}

// Account is the profile shown in the account panel.
type Account struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Email       string `mapstructure:"email" yaml:"email"`
	Plan        string `mapstructure:"plan" yaml:"plan"`
	MemberSince string `mapstructure:"member_since" yaml:"member_since"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	// PreviewLength is the number of body characters shown in list rows.
	PreviewLength int `mapstructure:"preview_length" yaml:"preview_length"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	AI      AIConfig      `mapstructure:"ai" yaml:"ai"`
	Mailbox MailboxConfig `mapstructure:"mailbox" yaml:"mailbox"`
	Account Account       `mapstructure:"account" yaml:"account"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// ConfigDir returns ~/.config/mailmuse, falling back to the working
// directory when the home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "mailmuse")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailmuse/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultLogPath returns the default log file location.
func DefaultLogPath() string {
	return filepath.Join(ConfigDir(), "mailmuse.log")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		AI: AIConfig{
			Model:               "claude-sonnet-4-20250514",
			MaxTokens:           1024,
			TimeoutSec:          30,
			RateLimitQPS:        2,
			ClassifyConcurrency: 4,
		},
		Mailbox: MailboxConfig{
			ReloadIntervalSec: 0,
		},
		Account: Account{
			Name:        "John Doe",
			Email:       "john.doe@example.com",
			Plan:        "Pro",
			MemberSince: "January 2024",
		},
		Display: DisplayConfig{
			PreviewLength: 80,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.max_tokens", d.AI.MaxTokens)
	v.SetDefault("ai.timeout_sec", d.AI.TimeoutSec)
	v.SetDefault("ai.rate_limit_qps", d.AI.RateLimitQPS)
	v.SetDefault("ai.classify_concurrency", d.AI.ClassifyConcurrency)
	v.SetDefault("mailbox.seed_path", d.Mailbox.SeedPath)
	v.SetDefault("mailbox.reload_interval_sec", d.Mailbox.ReloadIntervalSec)
	v.SetDefault("account.name", d.Account.Name)
	v.SetDefault("account.email", d.Account.Email)
	v.SetDefault("account.plan", d.Account.Plan)
	v.SetDefault("account.member_since", d.Account.MemberSince)
	v.SetDefault("display.preview_length", d.Display.PreviewLength)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &pathErr) || errors.As(err, &notFound) {
			return DefaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.AI.ClassifyConcurrency < 1 {
		cfg.AI.ClassifyConcurrency = 1
	}
	if cfg.AI.TimeoutSec <= 0 {
		cfg.AI.TimeoutSec = DefaultAppConfig().AI.TimeoutSec
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("ai", map[string]any{
		"model":                cfg.AI.Model,
		"max_tokens":           cfg.AI.MaxTokens,
		"timeout_sec":          cfg.AI.TimeoutSec,
		"rate_limit_qps":       cfg.AI.RateLimitQPS,
		"classify_concurrency": cfg.AI.ClassifyConcurrency,
	})
	v.Set("mailbox", map[string]any{
		"seed_path":           cfg.Mailbox.SeedPath,
		"reload_interval_sec": cfg.Mailbox.ReloadIntervalSec,
	})
	v.Set("account", map[string]any{
		"name":         cfg.Account.Name,
		"email":        cfg.Account.Email,
		"plan":         cfg.Account.Plan,
		"member_since": cfg.Account.MemberSince,
	})
	v.Set("display", map[string]any{
		"preview_length": cfg.Display.PreviewLength,
	})

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
