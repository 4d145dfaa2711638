package pluginpack

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// ManifestFile is the manifest name inside a plugin package directory.
const ManifestFile = "manifest.yaml"

var idPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Manifest represents the plugin package manifest.yaml structure.
type Manifest struct {
	ID             string     `yaml:"id"`
	Name           string     `yaml:"name"`
	Description    string     `yaml:"description"`
	Version        string     `yaml:"version"`
	MinHostVersion string     `yaml:"min_host_version"`
	Wasm           WasmConfig `yaml:"wasm"`
	Events         []string   `yaml:"events"`
	Author         string     `yaml:"author"`
	License        string     `yaml:"license"`

	dir     string
	version *semver.Version
	minHost *semver.Version
}

// WasmConfig holds the plugin binary location.
type WasmConfig struct {
	File string `yaml:"file"`
}

// ParseManifest reads and validates manifest.yaml from a directory.
func ParseManifest(dir string) (*Manifest, error) {
	manifestPath := filepath.Join(dir, ManifestFile)

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, &ManifestNotFoundError{
			Path: manifestPath,
			Err:  err,
		}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ManifestParseError{
			Path: manifestPath,
			Err:  err,
		}
	}

	m.dir = dir

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

func (m *Manifest) invalid(field, format string, args ...any) error {
	return &ManifestValidationError{
		Path:    m.Path(),
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// Validate checks manifest fields and that the wasm file exists.
func (m *Manifest) Validate() error {
	if m.ID == "" {
		return m.invalid("id", "id is required")
	}
	if !idPattern.MatchString(m.ID) {
		return m.invalid("id", "id %q must be lower case letters, digits, '-' or '_'", m.ID)
	}

	if m.Name == "" {
		return m.invalid("name", "name is required")
	}

	if m.Version == "" {
		return m.invalid("version", "version is required")
	}
	v, err := semver.NewVersion(m.Version)
	if err != nil {
		return m.invalid("version", "version %q is not semantic: %v", m.Version, err)
	}
	m.version = v

	if m.MinHostVersion != "" {
		mv, err := semver.NewVersion(m.MinHostVersion)
		if err != nil {
			return m.invalid("min_host_version", "min_host_version %q is not semantic: %v", m.MinHostVersion, err)
		}
		m.minHost = mv
	}

	for _, evt := range m.Events {
		if !slices.Contains(protocol.Events, evt) {
			return m.invalid("events", "unknown event: %s (must be one of: %v)", evt, protocol.Events)
		}
	}

	if m.Wasm.File == "" {
		return m.invalid("wasm.file", "wasm.file is required")
	}

	if _, err := os.Stat(m.WasmPath()); os.IsNotExist(err) {
		return &WasmNotFoundError{
			ManifestPath: m.Path(),
			WasmFile:     m.Wasm.File,
		}
	}

	return nil
}

// SemVersion returns the parsed version. Valid only after Validate.
func (m *Manifest) SemVersion() *semver.Version {
	return m.version
}

// SupportsHost reports whether a host of the given version satisfies
// min_host_version.
func (m *Manifest) SupportsHost(host *semver.Version) bool {
	return m.minHost == nil || !host.LessThan(m.minHost)
}

// Path returns the manifest file path.
func (m *Manifest) Path() string {
	return filepath.Join(m.dir, ManifestFile)
}

// WasmPath returns the path to the wasm file.
func (m *Manifest) WasmPath() string {
	return filepath.Join(m.dir, m.Wasm.File)
}

// Dir returns the directory containing the manifest.
func (m *Manifest) Dir() string {
	return m.dir
}
