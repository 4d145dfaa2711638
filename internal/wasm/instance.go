package wasm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/woxQAQ/vpxplugin-go/internal/emulator"
	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// requiredExports are the functions every plugin must export.
var requiredExports = []string{
	protocol.ExportLoad,
	protocol.ExportUnload,
	protocol.ExportDispatch,
	protocol.ExportTimer,
}

// InstanceManager instantiates compiled plugins against one emulated host.
type InstanceManager struct {
	runtime   *Runtime
	logger    *zap.Logger
	hostFuncs *HostFunctions

	exportOnce sync.Once
	exportErr  error
}

// NewInstanceManager creates a new instance manager.
func NewInstanceManager(runtime *Runtime, host *emulator.Host, logger *zap.Logger) *InstanceManager {
	return &InstanceManager{
		runtime:   runtime,
		hostFuncs: NewHostFunctions(runtime, host, logger),
		logger:    logger.With(zap.String("component", "wasm-instance")),
	}
}

// InstanceConfig holds configuration for creating instances.
type InstanceConfig struct {
	// Compiled module to instantiate.
	ModuleName string

	// Instance ID. A UUID is generated when empty.
	InstanceID string

	// Endpoint the plugin is loaded under.
	Endpoint protocol.EndpointID
}

// Instance is an instantiated plugin. Its methods must be called from the
// host's thread, like every call into the emulated host.
type Instance struct {
	module api.Module

	ID        string
	Name      string
	Endpoint  protocol.EndpointID
	CreatedAt int64

	exports map[string]api.Function
	streams []*guestStream
	timeout time.Duration
	debug   bool
	runtime *Runtime
	logger  *zap.Logger

	// ctx of the outermost export call, reused by re-entrant dispatches.
	active context.Context
	loaded bool
}

// Instantiate creates an instance of a compiled plugin. The "vpx" host
// module is exported on first use.
func (m *InstanceManager) Instantiate(ctx context.Context, cfg *InstanceConfig) (*Instance, error) {
	compiled, ok := m.runtime.GetCompiledModule(cfg.ModuleName)
	if !ok {
		return nil, &ModuleNotFoundError{ModuleName: cfg.ModuleName}
	}

	if limit := m.runtime.config.MaxInstances; limit > 0 && m.runtime.InstanceCount() >= limit {
		return nil, &InstanceLimitError{Limit: limit}
	}

	m.exportOnce.Do(func() {
		m.exportErr = m.hostFuncs.Export(ctx)
	})
	if m.exportErr != nil {
		return nil, fmt.Errorf("failed to export host functions: %w", m.exportErr)
	}

	instanceID := cfg.InstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}

	logger := m.logger.With(
		zap.String("plugin", cfg.ModuleName),
		zap.String("instance_id", instanceID),
		zap.Uint32("endpoint", uint32(cfg.Endpoint)),
	)
	logger.Info("Instantiating Wasm plugin")

	stdout := newGuestStream(logger.With(zap.String("stream", "stdout")), zapcore.InfoLevel)
	stderr := newGuestStream(logger.With(zap.String("stream", "stderr")), zapcore.WarnLevel)

	// Go reactors export _initialize, which must run before any export. Go's
	// runtime init expects os.Args[0] to exist.
	moduleConfig := wazero.NewModuleConfig().
		WithName(instanceID).
		WithArgs(cfg.ModuleName).
		WithStartFunctions("_initialize").
		WithStdout(stdout).
		WithStderr(stderr).
		WithSysWalltime().
		WithSysNanotime()

	module, err := m.runtime.runtime.InstantiateModule(ctx, compiled.Module, moduleConfig)
	if err != nil {
		stdout.Close()
		stderr.Close()
		return nil, &InstantiationError{
			ModuleName: cfg.ModuleName,
			InstanceID: instanceID,
			Err:        err,
		}
	}

	exports, err := cacheExportedFunctions(module, cfg.ModuleName)
	if err != nil {
		_ = module.Close(ctx)
		stdout.Close()
		stderr.Close()
		return nil, err
	}

	instance := &Instance{
		module:    module,
		ID:        instanceID,
		Name:      cfg.ModuleName,
		Endpoint:  cfg.Endpoint,
		CreatedAt: time.Now().Unix(),
		exports:   exports,
		streams:   []*guestStream{stdout, stderr},
		timeout:   m.runtime.config.ExecutionTimeout,
		debug:     m.runtime.config.DebugEnabled,
		runtime:   m.runtime,
		logger:    logger,
	}
	m.runtime.StoreInstance(instance)

	logger.Info("Plugin instantiated successfully")
	return instance, nil
}

// cacheExportedFunctions looks up the plugin entry points once.
func cacheExportedFunctions(module api.Module, name string) (map[string]api.Function, error) {
	exports := make(map[string]api.Function, len(requiredExports))
	for _, fn := range requiredExports {
		f := module.ExportedFunction(fn)
		if f == nil {
			return nil, &FunctionNotFoundError{ModuleName: name, FunctionName: fn}
		}
		exports[fn] = f
	}
	return exports, nil
}

// call invokes an export and checks its status. Calls made while another
// export is running share that call's context.
func (i *Instance) call(ctx context.Context, name string, params ...uint64) error {
	if i.active != nil {
		ctx = i.active
	} else {
		if i.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, i.timeout)
			defer cancel()
		}
		i.active = ctx
		defer func() { i.active = nil }()
	}

	if i.debug {
		i.logger.Debug("Calling plugin export", zap.String("function", name), zap.Uint64s("params", params))
	}

	res, err := i.exports[name].Call(ctx, params...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &TimeoutError{FunctionName: name, Duration: i.timeout}
		}
		return fmt.Errorf("plugin function %s: %w", name, err)
	}
	if len(res) > 0 {
		if status := protocol.WasmStatus(api.DecodeI32(res[0])); status != protocol.StatusOK {
			return &GuestError{FunctionName: name, Status: status}
		}
	}
	return nil
}

// Load calls plugin_load with the instance's endpoint.
func (i *Instance) Load(ctx context.Context) error {
	if err := i.call(ctx, protocol.ExportLoad, api.EncodeU32(uint32(i.Endpoint))); err != nil {
		return err
	}
	i.loaded = true
	return nil
}

// Unload calls plugin_unload.
func (i *Instance) Unload(ctx context.Context) error {
	i.loaded = false
	return i.call(ctx, protocol.ExportUnload)
}

// Loaded reports whether plugin_load succeeded and no unload followed.
func (i *Instance) Loaded() bool {
	return i.loaded
}

// Dispatch delivers a message to the subscription identified by token.
// Host subscribers cannot fail, so errors are logged.
func (i *Instance) Dispatch(id protocol.MessageID, token uint32) {
	if err := i.call(context.Background(), protocol.ExportDispatch, api.EncodeU32(uint32(id)), api.EncodeU32(token)); err != nil {
		i.logger.Error("Plugin dispatch failed", zap.Uint32("message_id", uint32(id)), zap.Error(err))
	}
}

// Timer fires the main-thread callback identified by token.
func (i *Instance) Timer(token uint32) {
	if err := i.call(context.Background(), protocol.ExportTimer, api.EncodeU32(token)); err != nil {
		i.logger.Error("Plugin timer failed", zap.Uint32("context", token), zap.Error(err))
	}
}

// Close unloads the plugin if needed and releases the instance.
func (i *Instance) Close(ctx context.Context) error {
	if i.loaded {
		if err := i.Unload(ctx); err != nil {
			i.logger.Warn("Unload on close failed", zap.Error(err))
		}
	}
	i.runtime.DeleteInstance(i.ID)
	err := i.module.Close(ctx)
	for _, s := range i.streams {
		s.Close()
	}
	return err
}
