package wasm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/woxQAQ/vpxplugin-go/internal/emulator"
	"github.com/woxQAQ/vpxplugin-go/internal/wasm/wasmtest"
	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

type fixture struct {
	ctx     context.Context
	host    *emulator.Host
	runtime *Runtime
	loader  *ModuleLoader
	manager *InstanceManager
}

func newFixture(t *testing.T, cfg *RuntimeConfig) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	runtime, err := NewRuntime(ctx, logger, cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { runtime.Close(ctx) })

	host := emulator.NewHost(logger, emulator.Options{})
	return &fixture{
		ctx:     ctx,
		host:    host,
		runtime: runtime,
		loader:  NewModuleLoader(runtime, logger),
		manager: NewInstanceManager(runtime, host, logger),
	}
}

func (f *fixture) probe(t *testing.T, endpoint protocol.EndpointID) *Instance {
	t.Helper()
	if _, err := f.loader.LoadModuleFromMemory(f.ctx, "probe", wasmtest.ProbeModule); err != nil {
		t.Fatalf("Failed to compile probe: %v", err)
	}
	inst, err := f.manager.Instantiate(f.ctx, &InstanceConfig{ModuleName: "probe", Endpoint: endpoint})
	if err != nil {
		t.Fatalf("Failed to instantiate probe: %v", err)
	}
	return inst
}

func readU32(t *testing.T, inst *Instance, offset uint32) uint32 {
	t.Helper()
	v, ok := inst.module.Memory().ReadUint32Le(offset)
	if !ok {
		t.Fatalf("Failed to read guest memory at %d", offset)
	}
	return v
}

func TestLoadModuleFromMemory(t *testing.T) {
	f := newFixture(t, nil)

	module, err := f.loader.LoadModuleFromMemory(f.ctx, "empty", wasmtest.EmptyModule)
	if err != nil {
		t.Fatalf("Failed to load module: %v", err)
	}
	if module.Name != "empty" {
		t.Errorf("Module name = %s, want 'empty'", module.Name)
	}
	if module.SizeBytes != int64(len(wasmtest.EmptyModule)) {
		t.Errorf("SizeBytes = %d, want %d", module.SizeBytes, len(wasmtest.EmptyModule))
	}

	module2, err := f.loader.LoadModuleFromMemory(f.ctx, "empty", wasmtest.EmptyModule)
	if err != nil {
		t.Fatalf("Failed to load module from cache: %v", err)
	}
	if module2 != module {
		t.Error("Cache should return the same module instance")
	}

	// Same name, new bytes: recompiled.
	module3, err := f.loader.LoadModuleFromMemory(f.ctx, "empty", wasmtest.ProbeModule)
	if err != nil {
		t.Fatalf("Failed to recompile module: %v", err)
	}
	if module3 == module || module3.Digest == module.Digest {
		t.Error("Changed bytes should produce a new compiled module")
	}
}

func TestModuleLoaderFileSource(t *testing.T) {
	f := newFixture(t, nil)

	path := filepath.Join(t.TempDir(), "plugin.wasm")
	if err := os.WriteFile(path, wasmtest.ProbeModule, 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	module, err := f.loader.LoadModuleFromFile(f.ctx, path)
	if err != nil {
		t.Fatalf("Failed to load module from file: %v", err)
	}
	if module.Source != path {
		t.Errorf("Source = %s, want %s", module.Source, path)
	}

	if _, err := f.loader.LoadModuleFromFile(f.ctx, filepath.Join(t.TempDir(), "missing.wasm")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadModuleRejectsForeignImports(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.loader.LoadModuleFromMemory(f.ctx, "foreign", wasmtest.ForeignImportModule)
	var compErr *CompilationError
	if !errors.As(err, &compErr) {
		t.Fatalf("Expected CompilationError, got %v", err)
	}
	if _, ok := f.runtime.GetCompiledModule("foreign"); ok {
		t.Error("Rejected module should not be cached")
	}
}

func TestLoadModuleInvalidBytes(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.loader.LoadModuleFromMemory(f.ctx, "junk", []byte("not wasm"))
	var compErr *CompilationError
	if !errors.As(err, &compErr) {
		t.Fatalf("Expected CompilationError, got %v", err)
	}
}

func TestInstantiateUnknownModule(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.manager.Instantiate(f.ctx, &InstanceConfig{ModuleName: "nope"})
	var notFound *ModuleNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected ModuleNotFoundError, got %v", err)
	}
}

func TestInstantiateMissingExports(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.loader.LoadModuleFromMemory(f.ctx, "empty", wasmtest.EmptyModule); err != nil {
		t.Fatal(err)
	}

	_, err := f.manager.Instantiate(f.ctx, &InstanceConfig{ModuleName: "empty"})
	var notFound *FunctionNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected FunctionNotFoundError, got %v", err)
	}
	if notFound.FunctionName != protocol.ExportLoad {
		t.Errorf("FunctionName = %s, want %s", notFound.FunctionName, protocol.ExportLoad)
	}
	if n := f.runtime.InstanceCount(); n != 0 {
		t.Errorf("InstanceCount() = %d, want 0", n)
	}
}

func TestInstantiatePassesProgramArgs(t *testing.T) {
	f := newFixture(t, nil)

	if _, err := f.loader.LoadModuleFromMemory(f.ctx, "reactor", wasmtest.ArgsReactorModule); err != nil {
		t.Fatalf("Failed to compile reactor: %v", err)
	}
	inst, err := f.manager.Instantiate(f.ctx, &InstanceConfig{ModuleName: "reactor", Endpoint: 9})
	if err != nil {
		t.Fatalf("_initialize should see program arguments: %v", err)
	}
	if argc := readU32(t, inst, 0); argc != 1 {
		t.Errorf("argc = %d, want 1", argc)
	}

	if err := inst.Load(f.ctx); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := inst.Close(f.ctx); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
}

func TestInstanceLimit(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	cfg.MaxInstances = 1
	f := newFixture(t, cfg)

	f.probe(t, 1)
	_, err := f.manager.Instantiate(f.ctx, &InstanceConfig{ModuleName: "probe", Endpoint: 2})
	var limit *InstanceLimitError
	if !errors.As(err, &limit) {
		t.Fatalf("Expected InstanceLimitError, got %v", err)
	}
}

func TestInstanceLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	inst := f.probe(t, 42)

	if inst.ID == "" {
		t.Fatal("Instance ID should be generated")
	}
	if got, ok := f.runtime.GetInstance(inst.ID); !ok || got != inst {
		t.Fatal("Instance should be tracked by id")
	}

	if err := inst.Load(f.ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !inst.Loaded() {
		t.Error("Loaded() = false after Load")
	}
	if n := f.host.Subscribers(emulator.IDOnPrepareFrame); n != 1 {
		t.Fatalf("Subscribers = %d, want 1", n)
	}

	for range 3 {
		if _, err := f.host.Broadcast(emulator.HostEndpoint, emulator.IDOnPrepareFrame, nil); err != nil {
			t.Fatal(err)
		}
	}
	if got := readU32(t, inst, 0); got != 3 {
		t.Errorf("dispatch count = %d, want 3", got)
	}
	if got := readU32(t, inst, 4); got != 7 {
		t.Errorf("dispatch context = %d, want 7", got)
	}

	inst.Timer(9)
	if got := readU32(t, inst, 8); got != 9 {
		t.Errorf("timer context = %d, want 9", got)
	}

	if err := inst.Unload(f.ctx); err != nil {
		t.Fatalf("Unload failed: %v", err)
	}
	if n := f.host.Subscribers(emulator.IDOnPrepareFrame); n != 0 {
		t.Errorf("Subscribers after unload = %d, want 0", n)
	}

	// Nothing left to unsubscribe: the guest reports the host's status.
	err := inst.Unload(f.ctx)
	var guestErr *GuestError
	if !errors.As(err, &guestErr) {
		t.Fatalf("Expected GuestError, got %v", err)
	}
	if guestErr.Status != protocol.StatusInvalidArgument {
		t.Errorf("Status = %s, want invalid argument", guestErr.Status)
	}

	if err := inst.Close(f.ctx); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if _, ok := f.runtime.GetInstance(inst.ID); ok {
		t.Error("Closed instance should not be tracked")
	}
}

func TestInstanceDuplicateLoad(t *testing.T) {
	f := newFixture(t, nil)
	inst := f.probe(t, 5)

	if err := inst.Load(f.ctx); err != nil {
		t.Fatal(err)
	}
	err := inst.Load(f.ctx)
	var guestErr *GuestError
	if !errors.As(err, &guestErr) {
		t.Fatalf("Expected GuestError on duplicate subscribe, got %v", err)
	}
}

func TestInstanceCloseUnloads(t *testing.T) {
	f := newFixture(t, nil)
	inst := f.probe(t, 5)

	if err := inst.Load(f.ctx); err != nil {
		t.Fatal(err)
	}
	if err := inst.Close(f.ctx); err != nil {
		t.Fatal(err)
	}
	if n := f.host.Subscribers(emulator.IDOnPrepareFrame); n != 0 {
		t.Errorf("Subscribers after close = %d, want 0", n)
	}
}

func TestRuntimeCloseClosesInstances(t *testing.T) {
	f := newFixture(t, nil)
	inst := f.probe(t, 5)
	if err := inst.Load(f.ctx); err != nil {
		t.Fatal(err)
	}

	if err := f.runtime.Close(f.ctx); err != nil {
		t.Fatal(err)
	}
	if n := f.runtime.InstanceCount(); n != 0 {
		t.Errorf("InstanceCount() = %d, want 0", n)
	}
	if n := f.host.Subscribers(emulator.IDOnPrepareFrame); n != 0 {
		t.Errorf("Subscribers after runtime close = %d, want 0", n)
	}
}
