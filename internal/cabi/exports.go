//go:build cgo && !wasip1

package cabi

/*
#include "vpxplugin.h"
*/
import "C"

import (
	"fmt"
	"unsafe"

	"go.uber.org/zap"

	"github.com/woxQAQ/vpxplugin-go/internal/bridge"
	"github.com/woxQAQ/vpxplugin-go/internal/config"
	"github.com/woxQAQ/vpxplugin-go/internal/logging"
	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// Process-wide state. The host calls every export from one thread.
var (
	factory bridge.Factory
	loader  *bridge.Loader
	logger  *zap.Logger
)

// Register installs the factory PluginLoad instantiates the plugin with.
// Call it from the plugin main's init.
func Register(f bridge.Factory) {
	if factory != nil {
		panic("cabi: plugin already registered")
	}
	factory = f
}

func ensureLoader() *bridge.Loader {
	if loader != nil {
		return loader
	}

	cfg, err := config.LoadPluginConfig()
	if err != nil {
		cfg = config.DefaultPluginConfig()
	}
	logger = logging.Must(cfg.Log)
	if err != nil {
		logger.Warn("Failed to load plugin configuration, using defaults", zap.Error(err))
	}

	loader = bridge.NewLoader(factory, logger)
	return loader
}

// fatal aborts the host process. Load and unload failures leave the host with
// a half-initialised plugin, which is worse than stopping.
func fatal(op string, err error) {
	logger.Error("Plugin "+op+" failed", zap.Error(err))
	_ = logger.Sync()
	panic(fmt.Sprintf("vpxplugin: %s: %v", op, err))
}

//export PluginLoad
func PluginLoad(endpointID C.uint32_t, api *C.MsgPluginAPI) {
	if factory == nil {
		panic("vpxplugin: no plugin registered")
	}
	l := ensureLoader()
	if api == nil {
		fatal("load", &bridge.HostAPIUnavailableError{Operation: "PluginLoad"})
	}

	logger.Info("PluginLoad", zap.Uint32("endpoint", uint32(endpointID)))
	if err := l.Load(protocol.EndpointID(endpointID), &msgBus{api: api}); err != nil {
		fatal("load", err)
	}
}

//export PluginUnload
func PluginUnload() {
	l := ensureLoader()

	logger.Info("PluginUnload")
	if err := l.Unload(); err != nil {
		fatal("unload", err)
	}
	_ = logger.Sync()
}

//export vpxbridgeDispatch
func vpxbridgeDispatch(msgID C.uint, userData C.uintptr_t, msgData unsafe.Pointer) {
	if loader == nil {
		return
	}
	loader.Trampoline(protocol.MessageID(msgID), bridge.Context(userData))
}

//export vpxbridgeTimer
func vpxbridgeTimer(userData C.uintptr_t) {
	if loader == nil {
		return
	}
	loader.TimerTrampoline(bridge.Context(userData))
}
