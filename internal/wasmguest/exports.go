//go:build wasip1

package wasmguest

import (
	"go.uber.org/zap"

	"github.com/woxQAQ/vpxplugin-go/internal/bridge"
	"github.com/woxQAQ/vpxplugin-go/internal/config"
	"github.com/woxQAQ/vpxplugin-go/internal/logging"
	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// Instance-wide state. The host calls every export from one thread.
var (
	factory bridge.Factory
	loader  *bridge.Loader
	logger  *zap.Logger
)

// Register installs the factory plugin_load instantiates the plugin with.
// Call it from the plugin main's init.
func Register(f bridge.Factory) {
	if factory != nil {
		panic("wasmguest: plugin already registered")
	}
	factory = f
}

func hostSink(level uint32, line string) {
	ptr, n := str(line)
	hostLogMessage(level, ptr, n)
}

func ensureLoader() *bridge.Loader {
	if loader != nil {
		return loader
	}

	cfg, cfgErr := config.LoadPluginConfig()
	if cfgErr != nil {
		cfg = config.DefaultPluginConfig()
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zap.InfoLevel
	}
	logger = zap.New(newHostCore(level, hostSink))
	if cfgErr != nil {
		logger.Warn("Failed to load plugin configuration, using defaults", zap.Error(cfgErr))
	}
	if err != nil {
		logger.Warn("Invalid log level, using info", zap.Error(err))
	}

	loader = bridge.NewLoader(factory, logger)
	return loader
}

//go:wasmexport plugin_load
func pluginLoad(endpoint uint32) int32 {
	if factory == nil {
		return int32(protocol.StatusUnavailable)
	}
	l := ensureLoader()

	logger.Info("plugin_load", zap.Uint32("endpoint", endpoint))
	err := l.Load(protocol.EndpointID(endpoint), guestBus{})
	if err != nil {
		logger.Error("Plugin load failed", zap.Error(err))
	}
	return statusFor(err)
}

//go:wasmexport plugin_unload
func pluginUnload() int32 {
	if loader == nil {
		return int32(protocol.StatusUnavailable)
	}

	logger.Info("plugin_unload")
	err := loader.Unload()
	if err != nil {
		logger.Error("Plugin unload failed", zap.Error(err))
	}
	return statusFor(err)
}

//go:wasmexport plugin_dispatch
func pluginDispatch(id, ctx uint32) int32 {
	if loader != nil {
		loader.Trampoline(protocol.MessageID(id), bridge.Context(ctx))
	}
	return int32(protocol.StatusOK)
}

//go:wasmexport plugin_timer
func pluginTimer(ctx uint32) int32 {
	if loader != nil {
		loader.TimerTrampoline(bridge.Context(ctx))
	}
	return int32(protocol.StatusOK)
}
