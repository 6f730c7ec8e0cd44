package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database   DatabaseConfig
	Gemini     GeminiConfig
	Generation GenerationConfig
	Share      ShareConfig
	Log        LogConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// GeminiConfig holds generation service credentials and the model used
// for the metadata call.
type GeminiConfig struct {
	APIKeyEnv     string `mapstructure:"api_key_env"`
	APIKey        string `mapstructure:"api_key"`
	MetadataModel string `mapstructure:"metadata_model"`
}

// GenerationConfig bounds the generation client.
type GenerationConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	MaxRetries  int `mapstructure:"max_retries"`
	TimeoutSec  int `mapstructure:"timeout_sec"`
	BaseDelayMs int `mapstructure:"base_delay_ms"`
}

// ShareConfig points at the read-only collection service.
type ShareConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// LogConfig holds the diagnostics log destination (the terminal belongs
// to the TUI).
type LogConfig struct {
	Path string
}

// Load reads configuration from file and env. Env var overrides use prefix THUMBCAST_.
func Load() (Config, error) {
	v := viper.New()

	dataDir := filepath.Join(os.Getenv("HOME"), ".local", "share", "thumbcast")
	v.SetDefault("database.path", filepath.Join(dataDir, "thumbcast.db"))
	v.SetDefault("gemini.api_key_env", "GEMINI_API_KEY")
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.metadata_model", "gemini-2.5-flash")
	v.SetDefault("generation.concurrency", 9)
	v.SetDefault("generation.max_retries", 3)
	v.SetDefault("generation.timeout_sec", 193)
	v.SetDefault("generation.base_delay_ms", 1233)
	v.SetDefault("share.base_url", "")
	v.SetDefault("log.path", filepath.Join(dataDir, "thumbcast.log"))

	v.SetConfigType("toml")

	cfgPath := os.Getenv("THUMBCAST_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "thumbcast"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("THUMBCAST")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if
// needed. Used by the TUI settings view; the API key is stored in plain
// text, encourage users to prefer env vars.
func Save(cfg Config) error {
	path := os.Getenv("THUMBCAST_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "thumbcast", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("gemini.api_key_env", cfg.Gemini.APIKeyEnv)
	v.Set("gemini.api_key", cfg.Gemini.APIKey)
	v.Set("gemini.metadata_model", cfg.Gemini.MetadataModel)
	v.Set("generation.concurrency", cfg.Generation.Concurrency)
	v.Set("generation.max_retries", cfg.Generation.MaxRetries)
	v.Set("generation.timeout_sec", cfg.Generation.TimeoutSec)
	v.Set("generation.base_delay_ms", cfg.Generation.BaseDelayMs)
	v.Set("share.base_url", cfg.Share.BaseURL)
	v.Set("log.path", cfg.Log.Path)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ResolveAPIKey returns the Gemini API key, preferring the configured env
// var over the key stored in the config file.
func ResolveAPIKey(cfg Config) string {
	env := strings.TrimSpace(cfg.Gemini.APIKeyEnv)
	if env == "" {
		env = "GEMINI_API_KEY"
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return strings.TrimSpace(cfg.Gemini.APIKey)
}
