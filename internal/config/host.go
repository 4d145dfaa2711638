package config

import (
	"strings"

	"github.com/spf13/viper"
)

// HostConfig configures the headless host (vpxhost).
type HostConfig struct {
	PluginPaths    []string   `mapstructure:"plugin_paths"`
	LogLevel       string     `mapstructure:"log_level"`
	LogFormat      string     `mapstructure:"log_format"`
	MetricsEnabled bool       `mapstructure:"metrics_enabled"`
	MetricsPort    int        `mapstructure:"metrics_port"`
	Endpoint       uint32     `mapstructure:"endpoint"`
	Wasm           WasmConfig `mapstructure:"wasm"`
}

// WasmConfig holds Wasm runtime configuration.
type WasmConfig struct {
	// Memory limit per module (in pages, 64KB each).
	MemoryPages uint32 `mapstructure:"memory_pages"`
	// Enable debug logging.
	Debug bool `mapstructure:"debug"`
	// Compilation cache directory.
	CacheDir string `mapstructure:"cache_dir"`
	// Guest call timeout (seconds).
	ExecutionTimeout int `mapstructure:"execution_timeout"`
}

// Log returns the logger settings of the host.
func (c *HostConfig) Log() LogConfig {
	return LogConfig{Level: c.LogLevel, Format: c.LogFormat, Output: "stderr"}
}

// LoadHostConfig reads configPath (optional) over the defaults.
// Every key can be overridden with a VPXHOST_ environment variable.
func LoadHostConfig(configPath string) (*HostConfig, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("plugin_paths", []string{"./plugins"})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("metrics_enabled", false)
	v.SetDefault("metrics_port", 9090)
	v.SetDefault("endpoint", 123)

	// Wasm defaults
	v.SetDefault("wasm.memory_pages", 256) // 16MB
	v.SetDefault("wasm.debug", false)
	v.SetDefault("wasm.cache_dir", "./build/wasm-cache")
	v.SetDefault("wasm.execution_timeout", 30)

	v.SetEnvPrefix("VPXHOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg HostConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
