package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"favourflix.com/favourflix-api/internal/logging"
)

// ConfigPathEnvVar overrides the YAML config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Gemini   GeminiConfig   `koanf:"gemini"`
	TMDB     TMDBConfig     `koanf:"tmdb"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Debug           bool          `koanf:"debug"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"` // covers both upstream calls
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL string `koanf:"url"`
}

type GeminiConfig struct {
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

type TMDBConfig struct {
	APIKey         string        `koanf:"api_key"`
	BaseURL        string        `koanf:"base_url"`
	Timeout        time.Duration `koanf:"timeout"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			Debug:           false,
			CORSOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			URL: "favourflix.db",
		},
		Gemini: GeminiConfig{
			Model:   "gemini-1.5-flash",
			Timeout: 20 * time.Second,
		},
		TMDB: TMDBConfig{
			BaseURL:        "https://api.themoviedb.org/3",
			Timeout:        10 * time.Second,
			ConnectTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence. A .env file in the working
// directory is loaded into the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logging.Info().Msg("No .env file found, relying on environment variables")
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitCORSOrigins(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	if c.TMDB.APIKey == "" {
		return fmt.Errorf("TMDB_API_KEY environment variable is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database url must not be empty")
	}
	if c.TMDB.Timeout <= 0 || c.TMDB.ConnectTimeout <= 0 {
		return fmt.Errorf("tmdb timeouts must be positive")
	}
	if c.TMDB.ConnectTimeout >= c.TMDB.Timeout {
		return fmt.Errorf("tmdb connect timeout (%s) must be shorter than the overall timeout (%s)",
			c.TMDB.ConnectTimeout, c.TMDB.Timeout)
	}
	if c.Gemini.Timeout <= 0 {
		return fmt.Errorf("gemini timeout must be positive")
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// CORS_ORIGINS arrives from the environment as a comma-separated string.
func splitCORSOrigins(k *koanf.Koanf) error {
	raw, ok := k.Get("server.cors_origins").(string)
	if !ok || raw == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if err := k.Set("server.cors_origins", origins); err != nil {
		return fmt.Errorf("failed to set server.cors_origins: %w", err)
	}
	return nil
}

var envMappings = map[string]string{
	"host":                 "server.host",
	"http_port":            "server.port",
	"port":                 "server.port",
	"debug":                "server.debug",
	"cors_origins":         "server.cors_origins",
	"database_url":         "database.url",
	"gemini_api_key":       "gemini.api_key",
	"gemini_model":         "gemini.model",
	"gemini_timeout":       "gemini.timeout",
	"tmdb_api_key":         "tmdb.api_key",
	"tmdb_base_url":        "tmdb.base_url",
	"tmdb_timeout":         "tmdb.timeout",
	"tmdb_connect_timeout": "tmdb.connect_timeout",
	"log_level":            "logging.level",
	"log_format":           "logging.format",
	"log_caller":           "logging.caller",
}

// envTransformFunc maps flat env names onto config keys. Unknown variables
// map to "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
