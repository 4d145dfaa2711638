package pluginpack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/woxQAQ/vpxplugin-go/internal/wasm/wasmtest"
)

const probeManifest = `id: probe
name: Probe
description: Counts dispatches
version: 1.2.0
min_host_version: 10.8.0
wasm:
  file: plugin.wasm
events:
  - OnGameStart
  - OnPrepareFrame
author: vpx
license: MIT
`

// writePackage creates base/name holding manifest and, when wasm is not
// nil, plugin.wasm.
func writePackage(t *testing.T, base, name, manifest string, wasm []byte) string {
	t.Helper()
	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	if wasm != nil {
		if err := os.WriteFile(filepath.Join(dir, "plugin.wasm"), wasm, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func writeProbe(t *testing.T, base string) string {
	t.Helper()
	return writePackage(t, base, "probe", probeManifest, wasmtest.ProbeModule)
}
