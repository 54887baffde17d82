package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. NETSCOPE_SWEEP_CONCURRENCY.
const EnvPrefix = "NETSCOPE"

// SetDefaults registers the default of every known key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("sweep.concurrency", 20)
	v.SetDefault("sweep.skip", false)
	v.SetDefault("sweep.rate", 0.0)
	v.SetDefault("sweep.max_hosts", 65534)

	v.SetDefault("probe.method", "exec")
	v.SetDefault("probe.timeout", time.Second)
	v.SetDefault("probe.privileged", false)

	v.SetDefault("resolver.timeout", time.Second)
	v.SetDefault("resolver.server", "")

	v.SetDefault("output.format", "text")
	v.SetDefault("output.path", "")

	v.SetDefault("metrics.textfile", "")

	v.SetDefault("oui.database", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load builds a Config from defaults, the environment and, when path is not
// empty, the YAML file at path. A missing or malformed file is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return New(v), nil
}
