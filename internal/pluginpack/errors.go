package pluginpack

import (
	"fmt"
)

// ManifestNotFoundError occurs when manifest.yaml is not found in a directory.
type ManifestNotFoundError struct {
	Path string
	Err  error
}

func (e *ManifestNotFoundError) Error() string {
	return fmt.Sprintf("manifest not found at '%s': %v", e.Path, e.Err)
}

func (e *ManifestNotFoundError) Unwrap() error {
	return e.Err
}

// ManifestParseError occurs when manifest.yaml is not valid YAML.
type ManifestParseError struct {
	Path string
	Err  error
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("failed to parse manifest at '%s': %v", e.Path, e.Err)
}

func (e *ManifestParseError) Unwrap() error {
	return e.Err
}

// ManifestValidationError occurs when manifest.yaml fails validation.
type ManifestValidationError struct {
	Path    string
	Field   string
	Message string
}

func (e *ManifestValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("manifest validation failed at '%s': %s (field: %s)",
			e.Path, e.Message, e.Field)
	}
	return fmt.Sprintf("manifest validation failed at '%s': %s", e.Path, e.Message)
}

// WasmNotFoundError occurs when the wasm file referenced in a manifest doesn't exist.
type WasmNotFoundError struct {
	ManifestPath string
	WasmFile     string
}

func (e *WasmNotFoundError) Error() string {
	return fmt.Sprintf("Wasm file '%s' not found (referenced in manifest '%s')",
		e.WasmFile, e.ManifestPath)
}

// PackageLoadError occurs when a plugin package fails to compile.
type PackageLoadError struct {
	PackageID string
	Err       error
}

func (e *PackageLoadError) Error() string {
	return fmt.Sprintf("failed to load plugin package '%s': %v", e.PackageID, e.Err)
}

func (e *PackageLoadError) Unwrap() error {
	return e.Err
}

// PackageNotFoundError occurs when a package is not in the registry.
type PackageNotFoundError struct {
	PackageID string
}

func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("plugin package '%s' not found", e.PackageID)
}

// PackageAlreadyRegisteredError occurs when registering a duplicate id.
type PackageAlreadyRegisteredError struct {
	PackageID string
}

func (e *PackageAlreadyRegisteredError) Error() string {
	return fmt.Sprintf("plugin package '%s' is already registered", e.PackageID)
}

// IncompatibleHostError occurs when a package requires a newer host.
type IncompatibleHostError struct {
	PackageID      string
	MinHostVersion string
	HostVersion    string
}

func (e *IncompatibleHostError) Error() string {
	return fmt.Sprintf("plugin package '%s' requires host %s or newer, running %s",
		e.PackageID, e.MinHostVersion, e.HostVersion)
}

// NoPackagesFoundError occurs when no packages are found in the configured paths.
type NoPackagesFoundError struct {
	Paths []string
}

func (e *NoPackagesFoundError) Error() string {
	return fmt.Sprintf("no plugin packages found in paths: %v", e.Paths)
}
