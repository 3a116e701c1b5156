// Package config loads plat-heat configuration and sets up logging.
package config

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/joeblew999/plat-heat/internal/heatmap"
)

// DefaultPreset is the preset name used when none is given.
const DefaultPreset = "density"

// Config holds the full application configuration.
type Config struct {
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Heatmap HeatmapConfig `yaml:"heatmap" mapstructure:"heatmap"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// HeatmapConfig holds named heatmap presets.
type HeatmapConfig struct {
	Presets map[string]heatmap.Options `yaml:"presets" mapstructure:"presets"`
}

// Preset returns a named preset.
func (c *Config) Preset(name string) (heatmap.Options, bool) {
	if name == "" {
		name = DefaultPreset
	}
	p, ok := c.Heatmap.Presets[name]
	return p, ok
}

// PresetNames returns preset names in sorted order.
func (c *Config) PresetNames() []string {
	names := make([]string, 0, len(c.Heatmap.Presets))
	for name := range c.Heatmap.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads configuration from file and environment. An empty path looks
// for config.yaml in the working directory; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("HEAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("heatmap.presets."+DefaultPreset, map[string]any{
		"property":   "density",
		"thresholds": []float64{50, 100, 150, 200, 250, 300, 350, 400, 450},
		"color":      "#ff6600",
	})

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	for name, p := range cfg.Heatmap.Presets {
		if _, err := heatmap.GenerateOptions(p); err != nil {
			return nil, eris.Wrapf(err, "config: preset %q", name)
		}
	}

	return &cfg, nil
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
