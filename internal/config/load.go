package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"membench/internal/cache"
	"membench/internal/planner"
	"membench/internal/sampler"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. MEMBENCH_CACHE_PATH.
const EnvPrefix = "MEMBENCH"

// Config is the typed view of the loaded settings.
type Config struct {
	BuildPrefix   string              `mapstructure:"build_prefix" validate:"required"`
	Verbose       bool                `mapstructure:"verbose"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Sweep         SweepConfig         `mapstructure:"sweep"`
	Calibration   CalibrationConfig   `mapstructure:"calibration"`
	Capabilities  []planner.Entry     `mapstructure:"capabilities" validate:"min=1,dive"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Log           LogConfig           `mapstructure:"log"`
}

type CacheConfig struct {
	Type      string `mapstructure:"type" validate:"oneof=file text memory sqlite sqlite3 postgres postgresql badger"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

type SweepConfig struct {
	Top            int       `mapstructure:"top" validate:"gte=1"`
	Steps          []float64 `mapstructure:"steps" validate:"min=1,dive,gt=1"`
	Alignments     []int     `mapstructure:"alignments" validate:"min=1,dive,gt=0"`
	DefaultVariant string    `mapstructure:"default_variant" validate:"required"`
	Variants       []string  `mapstructure:"variants"`
}

type CalibrationConfig struct {
	Budget float64       `mapstructure:"budget" validate:"gt=0"`
	Target time.Duration `mapstructure:"target" validate:"gt=0"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

type NotificationsConfig struct {
	Slack   WebhookConfig `mapstructure:"slack"`
	Discord WebhookConfig `mapstructure:"discord"`
}

type WebhookConfig struct {
	WebhookURL string `mapstructure:"webhook_url" validate:"omitempty,url"`
}

type LogConfig struct {
	File string `mapstructure:"file"`
}

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("build_prefix", "../build/try-")
	v.SetDefault("verbose", false)

	v.SetDefault("cache.type", "file")
	v.SetDefault("cache.path", "")
	v.SetDefault("cache.namespace", "")

	v.SetDefault("sweep.top", planner.DefaultTop)
	v.SetDefault("sweep.steps", planner.DefaultSteps)
	v.SetDefault("sweep.alignments", planner.DefaultAlignments)
	v.SetDefault("sweep.default_variant", planner.DefaultCapabilities().Default)
	v.SetDefault("sweep.variants", []string{})

	v.SetDefault("calibration.budget", float64(sampler.DefaultBudget))
	v.SetDefault("calibration.target", sampler.DefaultTarget)

	var table []map[string]any
	for _, e := range planner.DefaultCapabilities().Entries {
		table = append(table, map[string]any{"variant": e.Variant, "functions": e.Functions})
	}
	v.SetDefault("capabilities", table)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("notifications.slack.webhook_url", "")
	v.SetDefault("notifications.discord.webhook_url", "")
	v.SetDefault("log.file", "")
}

// Load initializes the configuration from file and environment variables.
// A missing config.yaml is not an error; an explicitly named file that
// cannot be read is.
func Load(v *viper.Viper, cfgFile string) error {
	// explicit .env loading
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	slog.Debug("Using config file", "path", v.ConfigFileUsed())
	return nil
}

// FromViper decodes the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// CapabilityTable returns the configured capability table.
func (c *Config) CapabilityTable() planner.Capabilities {
	return planner.Capabilities{
		Default: c.Sweep.DefaultVariant,
		Entries: c.Capabilities,
	}
}

// SweepVariants returns the variants to sweep: the configured list, or every
// variant in the table when none is configured.
func (c *Config) SweepVariants() []string {
	if len(c.Sweep.Variants) > 0 {
		return c.Sweep.Variants
	}
	return c.CapabilityTable().Variants()
}

// BackendConfig returns the cache backend selection.
func (c *Config) BackendConfig() cache.BackendConfig {
	return cache.BackendConfig{
		Type:      c.Cache.Type,
		Location:  c.Cache.Path,
		Namespace: c.Cache.Namespace,
	}
}
