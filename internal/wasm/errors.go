package wasm

import (
	"fmt"
	"time"

	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// CompilationError occurs when a plugin binary fails to compile.
type CompilationError struct {
	ModuleName string
	Err        error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("failed to compile Wasm plugin '%s': %v", e.ModuleName, e.Err)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

// InstantiationError occurs when a compiled plugin cannot be instantiated.
type InstantiationError struct {
	ModuleName string
	InstanceID string
	Err        error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("failed to instantiate plugin '%s' (instance: %s): %v",
		e.ModuleName, e.InstanceID, e.Err)
}

func (e *InstantiationError) Unwrap() error {
	return e.Err
}

// ModuleNotFoundError occurs when a module is not in cache.
type ModuleNotFoundError struct {
	ModuleName string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("module '%s' not found in cache", e.ModuleName)
}

// FunctionNotFoundError occurs when a plugin lacks a required export.
type FunctionNotFoundError struct {
	ModuleName   string
	FunctionName string
}

func (e *FunctionNotFoundError) Error() string {
	return fmt.Sprintf("function '%s' not found in module '%s'",
		e.FunctionName, e.ModuleName)
}

// InstanceLimitError occurs when RuntimeConfig.MaxInstances is reached.
type InstanceLimitError struct {
	Limit int
}

func (e *InstanceLimitError) Error() string {
	return fmt.Sprintf("instance limit of %d reached", e.Limit)
}

// MemoryAccessError occurs when guest memory is out of range.
type MemoryAccessError struct {
	Operation string
	Address   uint32
	Length    uint32
}

func (e *MemoryAccessError) Error() string {
	return fmt.Sprintf("memory access out of range (op=%s, addr=%d, len=%d)",
		e.Operation, e.Address, e.Length)
}

// GuestError is a non-zero status returned by a plugin export.
type GuestError struct {
	FunctionName string
	Status       protocol.WasmStatus
}

func (e *GuestError) Error() string {
	return fmt.Sprintf("plugin function '%s' failed: %s", e.FunctionName, e.Status)
}

// TimeoutError occurs when an export call exceeds the execution timeout.
type TimeoutError struct {
	FunctionName string
	Duration     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("plugin function '%s' timed out after %v", e.FunctionName, e.Duration)
}
