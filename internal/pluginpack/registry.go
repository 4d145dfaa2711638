package pluginpack

import (
	"cmp"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Registry indexes loaded packages by id and declared event.
type Registry struct {
	sync.RWMutex
	packages map[string]*Package   // id -> package
	byEvent  map[string][]*Package // event -> packages
	logger   *zap.Logger
}

// NewRegistry creates a new package registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		packages: make(map[string]*Package),
		byEvent:  make(map[string][]*Package),
		logger:   logger.With(zap.String("component", "pluginpack-registry")),
	}
}

// Register adds a package.
func (r *Registry) Register(pkg *Package) error {
	r.Lock()
	defer r.Unlock()

	id := pkg.Manifest.ID
	if _, exists := r.packages[id]; exists {
		return &PackageAlreadyRegisteredError{PackageID: id}
	}

	r.packages[id] = pkg
	for _, evt := range pkg.Manifest.Events {
		r.byEvent[evt] = append(r.byEvent[evt], pkg)
	}

	r.logger.Info("Plugin package registered",
		zap.String("id", id),
		zap.Strings("events", pkg.Manifest.Events),
	)

	return nil
}

// Get retrieves a package by id.
func (r *Registry) Get(id string) (*Package, bool) {
	r.RLock()
	defer r.RUnlock()

	pkg, ok := r.packages[id]
	return pkg, ok
}

// LookupByEvent returns the packages declaring event, in registration order.
func (r *Registry) LookupByEvent(event string) []*Package {
	r.RLock()
	defer r.RUnlock()

	return slices.Clone(r.byEvent[event])
}

// List returns all packages sorted by id.
func (r *Registry) List() []*Package {
	r.RLock()
	defer r.RUnlock()

	result := make([]*Package, 0, len(r.packages))
	for _, pkg := range r.packages {
		result = append(result, pkg)
	}
	slices.SortFunc(result, func(a, b *Package) int {
		return cmp.Compare(a.ID(), b.ID())
	})
	return result
}

// Unregister removes a package.
func (r *Registry) Unregister(id string) {
	r.Lock()
	defer r.Unlock()

	pkg, ok := r.packages[id]
	if !ok {
		return
	}

	for _, evt := range pkg.Manifest.Events {
		r.byEvent[evt] = slices.DeleteFunc(r.byEvent[evt], func(p *Package) bool { return p.ID() == id })
		if len(r.byEvent[evt]) == 0 {
			delete(r.byEvent, evt)
		}
	}
	delete(r.packages, id)

	r.logger.Info("Plugin package unregistered", zap.String("id", id))
}

// Count returns the number of registered packages.
func (r *Registry) Count() int {
	r.RLock()
	defer r.RUnlock()

	return len(r.packages)
}
