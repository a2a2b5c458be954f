package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (<user config dir>/todo/todo.toml)
// 3. Project config file (todo.toml or .todo.toml in current directory)
// 4. .env in the current directory (never overrides the real environment)
// 5. Environment variables
// 6. CLI flags
//
// It returns the config and the positional arguments left after the flags.
func Load(fs *flag.FlagSet, args []string) (*Config, []string, error) {
	cfg := Default()

	if p := findUserConfigFile(); p != "" {
		if err := loadConfigFile(cfg, p); err != nil {
			return nil, nil, fmt.Errorf("loading user config file %s: %w", p, err)
		}
	}
	if p := findProjectConfigFile(); p != "" {
		if err := loadConfigFile(cfg, p); err != nil {
			return nil, nil, fmt.Errorf("loading project config file %s: %w", p, err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := loadFromEnv(cfg); err != nil {
		return nil, nil, err
	}

	rest, err := parseFlags(cfg, fs, args)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing flags: %w", err)
	}

	if err := finalizeConfig(cfg); err != nil {
		return nil, nil, fmt.Errorf("finalizing config: %w", err)
	}
	return cfg, rest, nil
}

func loadConfigFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func loadFromEnv(cfg *Config) error {
	str := map[string]*string{
		"TODO_BASE_URL":    &cfg.BaseURL,
		"TODO_EDITION":     &cfg.Edition,
		"TODO_EDIT_METHOD": &cfg.EditMethod,
		"TODO_THEME":       &cfg.Theme,
		"TODO_LOG_LEVEL":   &cfg.LogLevel,
		"TODO_LOG_FORMAT":  &cfg.LogFormat,
		"TODO_LOG_FILE":    &cfg.LogFile,
		"TODO_LISTEN":      &cfg.Listen,
		"TODO_DATA_FILE":   &cfg.DataFile,
	}
	for key, dst := range str {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	if v := strings.TrimSpace(os.Getenv("TODO_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TODO_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	// NO_COLOR is the cross-tool convention.
	if os.Getenv("NO_COLOR") != "" {
		cfg.NoColor = true
	}
	return nil
}

func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) ([]string, error) {
	if fs == nil {
		fs = flag.NewFlagSet("todo", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
	}

	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "REST endpoint base URL")
	fs.StringVar(&cfg.Edition, "edition", cfg.Edition, "ce (view only) or ee (full CRUD)")
	fs.StringVar(&cfg.EditMethod, "edit-method", cfg.EditMethod, "HTTP method for saving edits: PUT or PATCH")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout (0 disables)")

	fs.StringVar(&cfg.Theme, "theme", cfg.Theme, "list theme: classic, neon, mono")
	fs.BoolVar(&cfg.Group, "group", cfg.Group, "group output by pending/done")
	fs.BoolVar(&cfg.ForceColor, "color", cfg.ForceColor, "force colored output")
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "disable colored output")

	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text, json, logfmt")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write logs to this file")

	fs.StringVar(&cfg.Listen, "listen", cfg.Listen, "dev backend listen address")
	fs.StringVar(&cfg.DataFile, "data", cfg.DataFile, "dev backend JSON snapshot file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}

func findUserConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(dir, "todo", ConfigFileName)
	if fileExists(p) {
		return p
	}
	return ""
}

func findProjectConfigFile() string {
	for _, name := range []string{ConfigFileName, "." + ConfigFileName} {
		if fileExists(name) {
			return name
		}
	}
	return ""
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

// expandPath expands ~/ and environment variables.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	return p
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg *Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}
