// Package config loads the catalog service configuration from defaults, an
// optional config.yaml, an optional .env file and CATALOG_* environment
// variables, in increasing order of priority.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"
)

const (
	EnvPrefix      = "CATALOG_"
	DefaultFile    = "config.yaml"
	DefaultEnvFile = ".env"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Catalog   CatalogConfig   `koanf:"catalog"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	MaxHeaderBytes  int           `koanf:"maxheaderbytes"`
	ShutdownTimeout time.Duration `koanf:"shutdowntimeout"`
	Timeout         struct {
		Read       time.Duration `koanf:"read"`
		Write      time.Duration `koanf:"write"`
		Idle       time.Duration `koanf:"idle"`
		ReadHeader time.Duration `koanf:"readheader"`
	} `koanf:"timeout"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Token   string `koanf:"token"`
}

type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

type CatalogConfig struct {
	DefaultPageSize int    `koanf:"defaultpagesize"`
	MaxPageSize     int    `koanf:"maxpagesize"`
	SeedFile        string `koanf:"seedfile"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.port":               8082,
		"server.maxheaderbytes":     1 << 20,
		"server.shutdowntimeout":    "10s",
		"server.timeout.read":       "5s",
		"server.timeout.write":      "10s",
		"server.timeout.idle":       "60s",
		"server.timeout.readheader": "5s",
		"log.level":                 "info",
		"metrics.enabled":           true,
		"metrics.token":             "",
		"ratelimit.enabled":         true,
		"ratelimit.rps":             20.0,
		"ratelimit.burst":           40,
		"catalog.defaultpagesize":   10,
		"catalog.maxpagesize":       100,
		"catalog.seedfile":          "",
	}
}

// Load reads configuration from the default file locations.
func Load() (*Config, error) {
	return LoadFrom(DefaultFile, DefaultEnvFile)
}

// LoadFrom reads configuration using the given yaml and .env paths. Missing
// files are skipped.
func LoadFrom(configFile, envFile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", configFile, err)
		}
	}

	if envFile != "" {
		if envMap, err := godotenv.Read(envFile); err == nil {
			m := make(map[string]any, len(envMap))
			for key, value := range envMap {
				if strings.HasPrefix(key, EnvPrefix) {
					m[keyTransformer(key)] = value
				}
			}
			if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
				return nil, fmt.Errorf("load %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			log.Printf("WARN: error reading %s: %v", envFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", keyTransformer), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// keyTransformer maps CATALOG_SERVER_TIMEOUT_READ to server.timeout.read.
func keyTransformer(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "_", ".")
}

func (c *Config) Validate() error {
	s := c.Server
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", s.Port)
	}
	if s.Timeout.Read <= 0 {
		return fmt.Errorf("invalid HTTP server read timeout: %v", s.Timeout.Read)
	}
	if s.Timeout.Write <= 0 {
		return fmt.Errorf("invalid HTTP server write timeout: %v", s.Timeout.Write)
	}
	if s.Timeout.Idle <= 0 {
		return fmt.Errorf("invalid HTTP server idle timeout: %v", s.Timeout.Idle)
	}
	if s.Timeout.ReadHeader <= 0 {
		return fmt.Errorf("invalid HTTP server read header timeout: %v", s.Timeout.ReadHeader)
	}
	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout: %v", s.ShutdownTimeout)
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit enabled but rps=%v burst=%d", c.RateLimit.RPS, c.RateLimit.Burst)
	}

	if c.Catalog.MaxPageSize <= 0 {
		return fmt.Errorf("invalid max page size: %d", c.Catalog.MaxPageSize)
	}
	if c.Catalog.DefaultPageSize <= 0 || c.Catalog.DefaultPageSize > c.Catalog.MaxPageSize {
		return fmt.Errorf("default page size %d must be between 1 and %d",
			c.Catalog.DefaultPageSize, c.Catalog.MaxPageSize)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString("\n--- Server ---\n")
	fmt.Fprintf(&b, "  server.port: %d\n", c.Server.Port)
	fmt.Fprintf(&b, "  server.maxheaderbytes: %d\n", c.Server.MaxHeaderBytes)
	fmt.Fprintf(&b, "  server.timeout.read: %v\n", c.Server.Timeout.Read)
	fmt.Fprintf(&b, "  server.timeout.write: %v\n", c.Server.Timeout.Write)
	fmt.Fprintf(&b, "  server.timeout.idle: %v\n", c.Server.Timeout.Idle)
	fmt.Fprintf(&b, "  server.timeout.readheader: %v\n", c.Server.Timeout.ReadHeader)
	fmt.Fprintf(&b, "  server.shutdowntimeout: %v\n", c.Server.ShutdownTimeout)

	b.WriteString("\n--- Observability ---\n")
	fmt.Fprintf(&b, "  log.level: %s\n", c.Log.Level)
	fmt.Fprintf(&b, "  metrics.enabled: %t\n", c.Metrics.Enabled)
	fmt.Fprintf(&b, "  metrics.token: %s\n", mask(c.Metrics.Token))

	b.WriteString("\n--- Catalog ---\n")
	fmt.Fprintf(&b, "  ratelimit: enabled=%t rps=%v burst=%d\n", c.RateLimit.Enabled, c.RateLimit.RPS, c.RateLimit.Burst)
	fmt.Fprintf(&b, "  catalog.defaultpagesize: %d\n", c.Catalog.DefaultPageSize)
	fmt.Fprintf(&b, "  catalog.maxpagesize: %d\n", c.Catalog.MaxPageSize)
	fmt.Fprintf(&b, "  catalog.seedfile: %s\n", c.Catalog.SeedFile)

	return b.String()
}

func mask(secret string) string {
	if secret == "" {
		return "<not configured>"
	}
	return "****"
}
