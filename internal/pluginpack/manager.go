package pluginpack

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/woxQAQ/vpxplugin-go/internal/config"
	"github.com/woxQAQ/vpxplugin-go/internal/emulator"
	"github.com/woxQAQ/vpxplugin-go/internal/wasm"
	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// Manager manages plugin package lifecycle against one emulated host.
type Manager struct {
	cfg         *config.HostConfig
	runtime     *wasm.Runtime
	loader      *Loader
	registry    *Registry
	instanceMgr *wasm.InstanceManager
	hostVersion *semver.Version
	logger      *zap.Logger

	mu           sync.RWMutex
	loaded       bool
	nextEndpoint protocol.EndpointID
}

// NewManager creates a package manager. Instances are served by host and
// receive endpoints counting up from cfg.Endpoint.
func NewManager(
	cfg *config.HostConfig,
	runtime *wasm.Runtime,
	host *emulator.Host,
	hostVersion *semver.Version,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		cfg:          cfg,
		runtime:      runtime,
		loader:       NewLoader(runtime, logger),
		registry:     NewRegistry(logger),
		instanceMgr:  wasm.NewInstanceManager(runtime, host, logger),
		hostVersion:  hostVersion,
		logger:       logger.With(zap.String("component", "pluginpack-manager")),
		nextEndpoint: protocol.EndpointID(cfg.Endpoint),
	}
}

// LoadAll discovers and registers the packages under the configured plugin
// paths. Packages requiring a newer host are skipped.
func (m *Manager) LoadAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return fmt.Errorf("plugin packages already loaded")
	}

	m.logger.Info("Loading plugin packages",
		zap.Strings("paths", m.cfg.PluginPaths),
	)

	pkgs, err := m.loader.Discover(ctx, m.cfg.PluginPaths)
	if err != nil {
		var none *NoPackagesFoundError
		if errors.As(err, &none) {
			m.logger.Warn("No plugin packages found in configured paths",
				zap.Strings("paths", m.cfg.PluginPaths),
			)
			m.loaded = true
			return nil
		}
		return err
	}

	for _, pkg := range pkgs {
		if err := m.register(pkg); err != nil {
			m.logger.Error("Failed to register plugin package",
				zap.String("id", pkg.ID()),
				zap.Error(err),
			)
		}
	}

	m.loaded = true

	m.logger.Info("Plugin packages loaded",
		zap.Int("count", m.registry.Count()),
	)

	return nil
}

// LoadPackage loads and registers the single package in dir.
func (m *Manager) LoadPackage(ctx context.Context, dir string) (*Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pkg, err := m.loader.LoadPackage(ctx, dir)
	if err != nil {
		return nil, err
	}
	if err := m.register(pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

func (m *Manager) register(pkg *Package) error {
	if !pkg.Manifest.SupportsHost(m.hostVersion) {
		return &IncompatibleHostError{
			PackageID:      pkg.ID(),
			MinHostVersion: pkg.Manifest.MinHostVersion,
			HostVersion:    m.hostVersion.String(),
		}
	}
	return m.registry.Register(pkg)
}

// GetPackage retrieves a package by id.
func (m *Manager) GetPackage(id string) (*Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pkg, ok := m.registry.Get(id)
	if !ok {
		return nil, &PackageNotFoundError{PackageID: id}
	}

	return pkg, nil
}

// FindByEvent returns the packages declaring event.
func (m *Manager) FindByEvent(event string) []*Package {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.LookupByEvent(event)
}

// Instantiate creates an instance of a package under a fresh endpoint. The
// plugin is not loaded yet; call Load on the instance.
func (m *Manager) Instantiate(ctx context.Context, id string) (*wasm.Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pkg, ok := m.registry.Get(id)
	if !ok {
		return nil, &PackageNotFoundError{PackageID: id}
	}

	instance, err := m.instanceMgr.Instantiate(ctx, &wasm.InstanceConfig{
		ModuleName: pkg.Compiled.Name,
		Endpoint:   m.nextEndpoint,
	})
	if err != nil {
		return nil, err
	}
	m.nextEndpoint++

	return instance, nil
}

// Shutdown unloads and closes every instance, then the runtime.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down plugin package manager")

	if err := m.runtime.Close(ctx); err != nil {
		m.logger.Error("Failed to shutdown runtime", zap.Error(err))
		return err
	}

	m.logger.Info("Plugin package manager shutdown complete")
	return nil
}

// Registry returns the package registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// IsLoaded returns whether LoadAll ran.
func (m *Manager) IsLoaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}
