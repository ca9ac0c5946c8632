// Package config loads the application configuration and initializes the
// global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mapping-tomorrow/riskmap-cli/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Place     string              `yaml:"place" mapstructure:"place"`
	Tags      map[string][]string `yaml:"tags" mapstructure:"tags"`
	ZonesFile string              `yaml:"zones_file" mapstructure:"zones_file"`
	Nominatim NominatimConfig     `yaml:"nominatim" mapstructure:"nominatim"`
	Overpass  OverpassConfig      `yaml:"overpass" mapstructure:"overpass"`
	Cache     CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Server    ServerConfig        `yaml:"server" mapstructure:"server"`
	Log       LogConfig           `yaml:"log" mapstructure:"log"`
}

// NominatimConfig configures the place-resolution client.
type NominatimConfig struct {
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// OverpassConfig configures the POI query client.
type OverpassConfig struct {
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// CacheConfig configures the fetch-result cache backend.
type CacheConfig struct {
	// Backend is "memory", "sqlite" or "none".
	Backend    string        `yaml:"backend" mapstructure:"backend"`
	Path       string        `yaml:"path" mapstructure:"path"`
	TTL        time.Duration `yaml:"ttl" mapstructure:"ttl"`
	MaxEntries int           `yaml:"max_entries" mapstructure:"max_entries"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TagFilter returns the configured tag filter, falling back to the default
// waste/recycling selection when none is configured.
func (c *Config) TagFilter() model.TagFilter {
	if len(c.Tags) == 0 {
		return model.DefaultTagFilter()
	}
	return model.TagFilter(c.Tags)
}

// Load reads configuration from riskmap.yaml (working directory or
// ~/.config/riskmap) and RISKMAP_* environment variables over defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("riskmap")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/riskmap")

	v.SetEnvPrefix("RISKMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !eris.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read config file")
		}
		// No config file is fine; defaults and env apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("place", "Pokhara, Nepal")
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "riskmap-cli/1.0")
	v.SetDefault("nominatim.timeout", 15*time.Second)
	v.SetDefault("overpass.base_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.user_agent", "riskmap-cli/1.0")
	v.SetDefault("overpass.timeout", 30*time.Second)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.path", "riskmap-cache.db")
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.max_entries", 64)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
