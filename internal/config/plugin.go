package config

import (
	"strings"

	"github.com/spf13/viper"
)

// LogConfig selects the zap logger built for a process.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format is json or console.
	Format string `mapstructure:"format"`
	// Output is stderr, stdout or a file path.
	Output string `mapstructure:"output"`
}

// PluginConfig is the configuration of a plugin library. A plugin has no
// command line, so it is read from the environment of the host process.
type PluginConfig struct {
	Log LogConfig `mapstructure:"log"`
}

// DefaultPluginConfig returns the settings used when nothing is configured.
func DefaultPluginConfig() *PluginConfig {
	return &PluginConfig{Log: LogConfig{Level: "info", Format: "console", Output: "stderr"}}
}

// LoadPluginConfig reads VPXPLUGIN_LOG_LEVEL, VPXPLUGIN_LOG_FORMAT and
// VPXPLUGIN_LOG_OUTPUT, plus the file named by VPXPLUGIN_CONFIG if set.
// Environment values win over the file.
func LoadPluginConfig() (*PluginConfig, error) {
	v := viper.New()
	def := DefaultPluginConfig()

	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.output", def.Log.Output)

	// log.level -> VPXPLUGIN_LOG_LEVEL
	v.SetEnvPrefix("VPXPLUGIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg PluginConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
