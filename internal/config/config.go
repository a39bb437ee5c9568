// Package config handles loading and validating gateway configuration.
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
	"github.com/knadh/koanf/v2"
)

// Config is the top-level configuration for the edumagic backend.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Providers ProvidersConfig `koanf:"providers"`
}

// LoggingConfig holds the logrus level ("debug", "info", "warn", "error").
type LoggingConfig struct {
	Level string `koanf:"level"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// DatabaseConfig holds the sqlite database location.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// RedisConfig holds the optional image URL cache settings. An empty Addr
// disables caching.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl"`
}

// ProvidersConfig holds per-family model and endpoint overrides. API keys do
// not live here; they come from environment credential pools.
type ProvidersConfig struct {
	GeminiModel    string        `koanf:"gemini_model"`
	GeminiBaseURL  string        `koanf:"gemini_base_url"`
	OpenAIModel    string        `koanf:"openai_model"`
	OpenAIBaseURL  string        `koanf:"openai_base_url"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// Load reads configuration from a YAML file, layers environment variable
// overrides on top, and returns a fully populated Config.
func Load(path string) (*Config, error) {
	// Load .env file into the process environment (ignored if not present).
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	}

	// Layer environment variables on top. Any env var starting with
	// "EDUMAGIC_" can override a config value:
	//   EDUMAGIC_SERVER_PORT -> server.port
	if err := k.Load(env.Provider("EDUMAGIC_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "EDUMAGIC_")),
			"_", ".",
		)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR_NAME} placeholders so secrets can stay out of the file.
	cfg.Redis.Password = expand(cfg.Redis.Password)
	cfg.Database.Path = expand(cfg.Database.Path)

	return &cfg, nil
}

func expand(v string) string {
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		return os.Getenv(v[2 : len(v)-1])
	}
	return v
}
