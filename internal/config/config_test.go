package config

import (
	"bytes"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points every config source at empty temp dirs.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{
		"TODO_BASE_URL", "TODO_EDITION", "TODO_EDIT_METHOD", "TODO_TIMEOUT",
		"TODO_THEME", "TODO_LOG_LEVEL", "TODO_LOG_FORMAT", "TODO_LOG_FILE",
		"TODO_LISTEN", "TODO_DATA_FILE", "NO_COLOR",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	wd := t.TempDir()
	t.Chdir(wd)
	return wd
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestDefaults(t *testing.T) {
	isolate(t)
	cfg, rest, err := Load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("rest: got %v, want empty", rest)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL: got %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Edition != "ee" {
		t.Errorf("Edition: got %q, want ee", cfg.Edition)
	}
	if cfg.EditMethod != "PUT" {
		t.Errorf("EditMethod: got %q, want PUT", cfg.EditMethod)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout: got %v, want %v", cfg.Timeout, DefaultTimeout)
	}
}

func TestPriorityOrder(t *testing.T) {
	wd := isolate(t)

	userDir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "todo")
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(userDir, ConfigFileName), `
base_url = "http://user:1"
theme = "neon"
edition = "ce"
`)
	writeFile(t, filepath.Join(wd, ConfigFileName), `
base_url = "http://project:2"
timeout = "5s"
`)
	writeFile(t, filepath.Join(wd, ".env"), "TODO_EDIT_METHOD=patch\n")
	t.Setenv("TODO_THEME", "mono")

	cfg, rest, err := Load(newFlagSet(), []string{"-edition", "ee", "ls", "-x"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.BaseURL != "http://project:2" {
		t.Errorf("BaseURL: got %q, project file should win over user file", cfg.BaseURL)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout: got %v, want 5s", cfg.Timeout)
	}
	if cfg.Theme != "mono" {
		t.Errorf("Theme: got %q, env should win over files", cfg.Theme)
	}
	if cfg.EditMethod != "PATCH" {
		t.Errorf("EditMethod: got %q, want PATCH from .env", cfg.EditMethod)
	}
	if cfg.Edition != "ee" {
		t.Errorf("Edition: got %q, flag should win", cfg.Edition)
	}
	if strings.Join(rest, " ") != "ls -x" {
		t.Errorf("rest: got %v", rest)
	}
}

func TestUnknownKeyRejected(t *testing.T) {
	wd := isolate(t)
	writeFile(t, filepath.Join(wd, ConfigFileName), `colour = "red"`)
	if _, _, err := Load(newFlagSet(), nil); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestFinalizeConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name:   "trailing slash trimmed",
			mutate: func(c *Config) { c.BaseURL = "http://localhost:3000/" },
			check: func(t *testing.T, c *Config) {
				if c.BaseURL != "http://localhost:3000" {
					t.Errorf("BaseURL: got %q", c.BaseURL)
				}
			},
		},
		{
			name:   "edition aliases",
			mutate: func(c *Config) { c.Edition = "Community" },
			check: func(t *testing.T, c *Config) {
				if c.Edition != "ce" {
					t.Errorf("Edition: got %q", c.Edition)
				}
			},
		},
		{name: "bad edition", mutate: func(c *Config) { c.Edition = "pro" }, wantErr: true},
		{name: "bad method", mutate: func(c *Config) { c.EditMethod = "POST" }, wantErr: true},
		{name: "relative url", mutate: func(c *Config) { c.BaseURL = "/todos" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := finalizeConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("finalizeConfig error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, Default()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), `base_url = "http://localhost:3000"`) {
		t.Errorf("encoded config missing base_url:\n%s", buf.String())
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
