package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "gemini-test-key")
	t.Setenv("TMDB_API_KEY", "tmdb-test-key")
}

// chdirTemp moves into an empty directory so no stray .env or config.yaml is read.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.TMDB.BaseURL != "https://api.themoviedb.org/3" {
		t.Errorf("TMDB.BaseURL = %q", cfg.TMDB.BaseURL)
	}
	if cfg.TMDB.Timeout != 10*time.Second || cfg.TMDB.ConnectTimeout != 5*time.Second {
		t.Errorf("TMDB timeouts = %s/%s, want 10s/5s", cfg.TMDB.Timeout, cfg.TMDB.ConnectTimeout)
	}
	if cfg.Gemini.APIKey != "gemini-test-key" {
		t.Errorf("Gemini.APIKey = %q", cfg.Gemini.APIKey)
	}
	if cfg.Database.URL != "favourflix.db" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdirTemp(t)
	setRequiredEnv(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("TMDB_TIMEOUT", "30s")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.TMDB.Timeout != 30*time.Second {
		t.Errorf("TMDB.Timeout = %s, want 30s", cfg.TMDB.Timeout)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := chdirTemp(t)
	setRequiredEnv(t)

	yml := "database:\n  url: /tmp/other.db\ngemini:\n  model: gemini-pro\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "/tmp/other.db" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.Gemini.Model != "gemini-pro" {
		t.Errorf("Gemini.Model = %q", cfg.Gemini.Model)
	}
}

func TestLoad_MissingKeys(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("TMDB_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without API keys")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults with keys", func(*Config) {}, false},
		{"missing tmdb key", func(c *Config) { c.TMDB.APIKey = "" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"connect timeout not shorter", func(c *Config) { c.TMDB.ConnectTimeout = c.TMDB.Timeout }, true},
		{"zero gemini timeout", func(c *Config) { c.Gemini.Timeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Gemini.APIKey = "g"
			cfg.TMDB.APIKey = "t"
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
