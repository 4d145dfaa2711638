// Package wasm runs plugins compiled for wasip1 on wazero and connects them
// to an emulated host through the "vpx" host module.
package wasm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/woxQAQ/vpxplugin-go/internal/config"
)

// Runtime owns the wazero runtime shared by every plugin instance.
type Runtime struct {
	runtime wazero.Runtime

	// Compiled plugins keyed by source name.
	modules sync.Map // map[string]*CompiledModule

	// Live instances keyed by instance id, which is also the guest module
	// name host functions see.
	instances sync.Map // map[string]*Instance

	config *RuntimeConfig
	logger *zap.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// RuntimeConfig holds runtime configuration.
type RuntimeConfig struct {
	// Memory limit per plugin in 64KiB pages.
	MemoryPages uint32

	// Log every guest export call.
	DebugEnabled bool

	// Compilation cache directory. Empty keeps compiled code in memory only.
	CacheDir string

	// Upper bound for a single export call. Zero disables the limit.
	ExecutionTimeout time.Duration

	// Maximum number of live instances.
	MaxInstances int
}

// CompiledModule wraps a wazero.CompiledModule with metadata.
type CompiledModule struct {
	Module wazero.CompiledModule

	Name      string
	Source    string
	Digest    string // sha256 of the binary
	SizeBytes int64

	CompiledAt int64
}

// NewRuntime creates the wazero runtime and instantiates WASI, which every
// Go wasip1 plugin imports.
func NewRuntime(ctx context.Context, logger *zap.Logger, cfg *RuntimeConfig) (*Runtime, error) {
	if cfg == nil {
		cfg = DefaultRuntimeConfig()
	}

	rc := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.MemoryPages > 0 {
		rc = rc.WithMemoryLimitPages(cfg.MemoryPages)
	}
	if cfg.CacheDir != "" {
		cache, err := wazero.NewCompilationCacheWithDir(cfg.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open compilation cache %s: %w", cfg.CacheDir, err)
		}
		rc = rc.WithCompilationCache(cache)
	}

	r := wazero.NewRuntimeWithConfig(ctx, rc)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}

	runtime := &Runtime{
		runtime: r,
		config:  cfg,
		logger:  logger.With(zap.String("component", "wasm-runtime")),
		closed:  make(chan struct{}),
	}

	runtime.logger.Info("Wasm runtime initialized",
		zap.Uint32("memory_pages", cfg.MemoryPages),
		zap.Bool("debug_enabled", cfg.DebugEnabled),
		zap.String("cache_dir", cfg.CacheDir),
		zap.Duration("execution_timeout", cfg.ExecutionTimeout),
		zap.Int("max_instances", cfg.MaxInstances),
	)

	return runtime, nil
}

// DefaultRuntimeConfig returns the defaults used without a host config file.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		MemoryPages:      256, // 16MB
		DebugEnabled:     false,
		CacheDir:         "",
		ExecutionTimeout: 30 * time.Second,
		MaxInstances:     16,
	}
}

// RuntimeConfigFrom converts the host's wasm section.
func RuntimeConfigFrom(cfg config.WasmConfig) *RuntimeConfig {
	rc := DefaultRuntimeConfig()
	rc.MemoryPages = cfg.MemoryPages
	rc.DebugEnabled = cfg.Debug
	rc.CacheDir = cfg.CacheDir
	rc.ExecutionTimeout = time.Duration(cfg.ExecutionTimeout) * time.Second
	return rc
}

// Close closes every instance and then the runtime. Safe to call more than
// once.
func (r *Runtime) Close(ctx context.Context) error {
	var err error
	r.closeOnce.Do(func() {
		r.logger.Info("Shutting down Wasm runtime")

		r.instances.Range(func(key, value any) bool {
			if closeErr := value.(*Instance).Close(ctx); closeErr != nil {
				r.logger.Warn("Failed to close instance",
					zap.String("instance_id", key.(string)),
					zap.Error(closeErr),
				)
			}
			return true
		})

		err = r.runtime.Close(ctx)

		close(r.closed)
		r.logger.Info("Wasm runtime shutdown complete")
	})

	return err
}

// GetCompiledModule retrieves a compiled module from cache.
func (r *Runtime) GetCompiledModule(name string) (*CompiledModule, bool) {
	if val, ok := r.modules.Load(name); ok {
		return val.(*CompiledModule), true
	}
	return nil, false
}

// StoreCompiledModule stores a compiled module in cache.
func (r *Runtime) StoreCompiledModule(module *CompiledModule) {
	r.modules.Store(module.Name, module)
}

// GetInstance retrieves a live instance.
func (r *Runtime) GetInstance(instanceID string) (*Instance, bool) {
	if val, ok := r.instances.Load(instanceID); ok {
		return val.(*Instance), true
	}
	return nil, false
}

// StoreInstance tracks a live instance.
func (r *Runtime) StoreInstance(inst *Instance) {
	r.instances.Store(inst.ID, inst)
}

// DeleteInstance stops tracking an instance.
func (r *Runtime) DeleteInstance(instanceID string) {
	r.instances.Delete(instanceID)
}

// InstanceCount returns the number of live instances.
func (r *Runtime) InstanceCount() int {
	n := 0
	r.instances.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// IsClosed returns whether the runtime has been closed.
func (r *Runtime) IsClosed() bool {
	select {
	case <-r.closed:
		return true
	default:
		return false
	}
}
