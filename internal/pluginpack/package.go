// Package pluginpack discovers plugin packages (a manifest.yaml next to a
// wasip1 plugin binary), compiles them and instantiates them against an
// emulated host.
package pluginpack

import (
	"slices"
	"time"

	"github.com/woxQAQ/vpxplugin-go/internal/wasm"
)

// Package is a discovered plugin with its manifest and compiled binary.
type Package struct {
	Manifest *Manifest

	Compiled *wasm.CompiledModule

	LoadedAt time.Time
}

// ID returns the package id.
func (p *Package) ID() string {
	return p.Manifest.ID
}

// Name returns the display name.
func (p *Package) Name() string {
	return p.Manifest.Name
}

// Version returns the package version string.
func (p *Package) Version() string {
	return p.Manifest.Version
}

// Events returns the VPX events the package declares.
func (p *Package) Events() []string {
	return p.Manifest.Events
}

// SubscribesTo reports whether the package declares event.
func (p *Package) SubscribesTo(event string) bool {
	return slices.Contains(p.Manifest.Events, event)
}
