package pluginpack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/woxQAQ/vpxplugin-go/internal/wasm"
)

// Loader loads plugin packages from disk.
type Loader struct {
	moduleLoader *wasm.ModuleLoader
	logger       *zap.Logger
}

// NewLoader creates a new package loader.
func NewLoader(runtime *wasm.Runtime, logger *zap.Logger) *Loader {
	return &Loader{
		moduleLoader: wasm.NewModuleLoader(runtime, logger),
		logger:       logger.With(zap.String("component", "pluginpack-loader")),
	}
}

// LoadPackage parses the manifest in dir and compiles its binary.
func (l *Loader) LoadPackage(ctx context.Context, dir string) (*Package, error) {
	manifest, err := ParseManifest(dir)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Loading plugin package",
		zap.String("id", manifest.ID),
		zap.String("version", manifest.Version),
		zap.Strings("events", manifest.Events),
	)

	compiled, err := l.moduleLoader.LoadModuleFromFile(ctx, manifest.WasmPath())
	if err != nil {
		return nil, &PackageLoadError{
			PackageID: manifest.ID,
			Err:       err,
		}
	}

	pkg := &Package{
		Manifest: manifest,
		Compiled: compiled,
		LoadedAt: time.Now(),
	}

	l.logger.Info("Plugin package loaded",
		zap.String("id", manifest.ID),
		zap.Int64("size_bytes", compiled.SizeBytes),
	)

	return pkg, nil
}

// Discover loads every subdirectory of paths that holds a package. Broken
// packages are logged and skipped.
func (l *Loader) Discover(ctx context.Context, paths []string) ([]*Package, error) {
	var pkgs []*Package
	var failed int

	for _, basePath := range paths {
		l.logger.Debug("Scanning plugin directory", zap.String("path", basePath))

		entries, err := os.ReadDir(basePath)
		if err != nil {
			if os.IsNotExist(err) {
				l.logger.Warn("Plugin path does not exist", zap.String("path", basePath))
				continue
			}
			return nil, fmt.Errorf("failed to read directory '%s': %w", basePath, err)
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}

			dir := filepath.Join(basePath, entry.Name())

			pkg, err := l.LoadPackage(ctx, dir)
			if err != nil {
				l.logger.Error("Failed to load plugin package",
					zap.String("dir", dir),
					zap.Error(err),
				)
				failed++
				continue
			}

			pkgs = append(pkgs, pkg)
		}
	}

	if len(pkgs) > 0 && failed > 0 {
		l.logger.Warn("Some plugin packages failed to load",
			zap.Int("loaded", len(pkgs)),
			zap.Int("failed", failed),
		)
	}

	if len(pkgs) == 0 {
		return nil, &NoPackagesFoundError{Paths: paths}
	}

	return pkgs, nil
}
