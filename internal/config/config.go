// Package config loads client and dev-server settings from defaults, TOML
// files, .env, TODO_* environment variables and CLI flags.
package config

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL    = "http://localhost:3000"
	DefaultEdition    = "ee"
	DefaultEditMethod = http.MethodPut
	DefaultTimeout    = 10 * time.Second
	DefaultTheme      = "classic"
	DefaultListen     = ":3000"

	// ConfigFileName is looked up in the user config dir and the working dir.
	ConfigFileName = "todo.toml"
)

// Config is the effective configuration.
type Config struct {
	BaseURL    string        `toml:"base_url"`
	Edition    string        `toml:"edition"`
	EditMethod string        `toml:"edit_method"`
	Timeout    time.Duration `toml:"timeout"`

	Theme      string `toml:"theme"`
	Group      bool   `toml:"group"`
	ForceColor bool   `toml:"force_color"`
	NoColor    bool   `toml:"no_color"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	LogFile   string `toml:"log_file"`

	Listen   string `toml:"listen"`
	DataFile string `toml:"data_file"`
}

func setDefaults(cfg *Config) {
	cfg.BaseURL = DefaultBaseURL
	cfg.Edition = DefaultEdition
	cfg.EditMethod = DefaultEditMethod
	cfg.Timeout = DefaultTimeout
	cfg.Theme = DefaultTheme
	cfg.LogLevel = "info"
	cfg.LogFormat = "text"
	cfg.Listen = DefaultListen
}

// Default returns a config holding only defaults.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// finalizeConfig normalizes values and rejects the ones nothing can use.
func finalizeConfig(cfg *Config) error {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url %q", cfg.BaseURL)
	}

	cfg.Edition = strings.ToLower(strings.TrimSpace(cfg.Edition))
	switch cfg.Edition {
	case "ce", "community":
		cfg.Edition = "ce"
	case "ee", "enterprise":
		cfg.Edition = "ee"
	default:
		return fmt.Errorf("invalid edition %q (want ce or ee)", cfg.Edition)
	}

	cfg.EditMethod = strings.ToUpper(strings.TrimSpace(cfg.EditMethod))
	if cfg.EditMethod != http.MethodPut && cfg.EditMethod != http.MethodPatch {
		return fmt.Errorf("invalid edit_method %q (want PUT or PATCH)", cfg.EditMethod)
	}

	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	cfg.LogFile = expandPath(cfg.LogFile)
	cfg.DataFile = expandPath(cfg.DataFile)
	return nil
}
