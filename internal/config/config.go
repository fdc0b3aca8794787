// Package config wraps viper with nil-safe accessors and loads the
// DistroCompare configuration from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: server.port is read from
// DISTROCOMPARE_SERVER_PORT.
const EnvPrefix = "DISTROCOMPARE"

// Config is a read-only view of a viper instance. The zero value and a
// Config over a nil viper return zero values for every key.
type Config struct {
	v *viper.Viper
}

// New wraps v, which may be nil.
func New(v *viper.Viper) *Config {
	return &Config{v: v}
}

// Load reads the configuration file at path, if any, over the defaults and
// applies environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("distrocompare")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/distrocompare")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return New(v), nil
}

// SetDefaults installs the default for every known key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("catalog.source", "./data")
	// Empty template and descriptions select the embedded documents.
	v.SetDefault("catalog.template", "")
	v.SetDefault("catalog.descriptions", "")
	v.SetDefault("catalog.record_dir", "distros/perplexity-verified")
	v.SetDefault("catalog.records", []string{})
	v.SetDefault("catalog.fetch_concurrency", 8)
	v.SetDefault("catalog.fetch_timeout", time.Minute)
	v.SetDefault("catalog.proxy", "")
	v.SetDefault("catalog.refresh", "")

	v.SetDefault("session.debounce", 300*time.Millisecond)
	v.SetDefault("session.idle_timeout", 30*time.Minute)

	v.SetDefault("proxy.host", "0.0.0.0")
	v.SetDefault("proxy.port", 8001)
	v.SetDefault("proxy.rate_limit", 10.0)
	v.SetDefault("proxy.burst", 20)

	v.SetDefault("docs.user_guide", "")
}

// Viper returns the wrapped instance, possibly nil.
func (c *Config) Viper() *viper.Viper { return c.v }

func (c *Config) GetString(key string) string {
	if c == nil || c.v == nil {
		return ""
	}
	return c.v.GetString(key)
}

func (c *Config) GetInt(key string) int {
	if c == nil || c.v == nil {
		return 0
	}
	return c.v.GetInt(key)
}

func (c *Config) GetFloat64(key string) float64 {
	if c == nil || c.v == nil {
		return 0
	}
	return c.v.GetFloat64(key)
}

func (c *Config) GetBool(key string) bool {
	if c == nil || c.v == nil {
		return false
	}
	return c.v.GetBool(key)
}

func (c *Config) GetDuration(key string) time.Duration {
	if c == nil || c.v == nil {
		return 0
	}
	return c.v.GetDuration(key)
}

func (c *Config) GetStringSlice(key string) []string {
	if c == nil || c.v == nil {
		return nil
	}
	return c.v.GetStringSlice(key)
}

func (c *Config) IsSet(key string) bool {
	if c == nil || c.v == nil {
		return false
	}
	return c.v.IsSet(key)
}

// Sub returns the subtree at key. A missing subtree yields an empty
// Config, never nil.
func (c *Config) Sub(key string) *Config {
	if c == nil || c.v == nil {
		return New(nil)
	}
	return New(c.v.Sub(key))
}

// Unmarshal decodes the whole configuration into target.
func (c *Config) Unmarshal(target any) error {
	if c == nil || c.v == nil {
		return nil
	}
	return c.v.Unmarshal(target)
}
