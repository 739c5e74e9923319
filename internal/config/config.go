// Package config loads runtime settings from LOCALVAULT_* environment
// variables and an optional config.yaml in the LocalVault home directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "LOCALVAULT"

// Config holds client settings. The server URL and phone number are not
// settings: they belong to the session and live in the session store.
type Config struct {
	// Home is the directory holding session.json, config.yaml, the log file and downloads.
	Home string `mapstructure:"home"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
	// Timeout bounds every HTTP round trip.
	Timeout time.Duration `mapstructure:"timeout"`
	// TokenTTL is the client-side validity window stamped on a new token pair.
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	// DeviceName and DeviceType are sent with request-otp.
	DeviceName string `mapstructure:"device_name"`
	DeviceType string `mapstructure:"device_type"`
	// DownloadDir receives files pulled from the vault; defaults to Home/downloads.
	DownloadDir string `mapstructure:"download_dir"`
}

// DefaultHome returns ~/.localvault.
func DefaultHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".localvault"), nil
}

// Load builds Config from defaults, <home>/config.yaml (if present) and the environment.
// Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	home := v.GetString("home")
	if home == "" {
		h, err := DefaultHome()
		if err != nil {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
		home = h
	}

	v.SetDefault("home", home)
	v.SetDefault("log_level", "info")
	v.SetDefault("timeout", "10s")
	v.SetDefault("token_ttl", "720h") // 30 days
	v.SetDefault("device_name", "LocalVault CLI")
	v.SetDefault("device_type", "desktop")
	v.SetDefault("download_dir", "")

	v.SetConfigFile(filepath.Join(home, "config.yaml"))
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("config.Load: read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = filepath.Join(cfg.Home, "downloads")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if c.Home == "" {
		return errors.New("config: home must be set")
	}
	if c.Timeout <= 0 {
		return errors.New("config: timeout must be positive")
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: token_ttl must be positive")
	}
	if strings.TrimSpace(c.DeviceName) == "" {
		return errors.New("config: device_name must be set")
	}
	return nil
}

// LogPath is the file the client logs to.
func (c *Config) LogPath() string {
	return filepath.Join(c.Home, "localvault.log")
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, os.ErrNotExist)
}
