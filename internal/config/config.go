// Package config loads NetScope settings from defaults, an optional YAML file
// and NETSCOPE_* environment variables through viper.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is a read-only view over a viper instance. The zero value and a
// Config built from a nil viper are usable and return zero values.
type Config struct {
	v *viper.Viper
}

// New wraps v. A nil v yields an empty Config.
func New(v *viper.Viper) *Config {
	if v == nil {
		v = viper.New()
	}
	return &Config{v: v}
}

func (c *Config) view() *viper.Viper {
	if c == nil || c.v == nil {
		return viper.New()
	}
	return c.v
}

// GetString returns the value of key as a string.
func (c *Config) GetString(key string) string { return c.view().GetString(key) }

// GetInt returns the value of key as an int.
func (c *Config) GetInt(key string) int { return c.view().GetInt(key) }

// GetFloat64 returns the value of key as a float64.
func (c *Config) GetFloat64(key string) float64 { return c.view().GetFloat64(key) }

// GetBool returns the value of key as a bool.
func (c *Config) GetBool(key string) bool { return c.view().GetBool(key) }

// GetDuration returns the value of key as a duration.
func (c *Config) GetDuration(key string) time.Duration { return c.view().GetDuration(key) }

// IsSet reports whether key has a value from any source.
func (c *Config) IsSet(key string) bool { return c.view().IsSet(key) }

// Set overrides key. Flag values are applied this way.
func (c *Config) Set(key string, value any) {
	if c == nil || c.v == nil {
		return
	}
	c.v.Set(key, value)
}

// Sub returns the subtree at key. A missing key yields an empty Config, not
// nil.
func (c *Config) Sub(key string) *Config {
	return New(c.view().Sub(key))
}

// Unmarshal decodes the whole tree into target using mapstructure tags.
func (c *Config) Unmarshal(target any) error {
	return c.view().Unmarshal(target)
}
