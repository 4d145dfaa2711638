package wasm

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// Memory gives bounds-checked access to a guest's linear memory. Guests pass
// their own buffers, so the host never allocates inside the guest.
type Memory struct {
	mem api.Memory
}

// NewMemory creates a memory helper.
func NewMemory(module api.Module) *Memory {
	return &Memory{mem: module.Memory()}
}

// ReadString reads length bytes at ptr as a string.
func (m *Memory) ReadString(ptr, length uint32) (string, error) {
	buf, ok := m.mem.Read(ptr, length)
	if !ok {
		return "", &MemoryAccessError{Operation: "read", Address: ptr, Length: length}
	}
	return string(buf), nil
}

// WriteString copies as much of s as fits into capacity bytes at ptr and
// returns the full length of s.
func (m *Memory) WriteString(ptr, capacity uint32, s string) (uint32, error) {
	n := min(uint32(len(s)), capacity)
	if n > 0 && !m.mem.Write(ptr, []byte(s[:n])) {
		return 0, &MemoryAccessError{Operation: "write", Address: ptr, Length: n}
	}
	return uint32(len(s)), nil
}

// WriteUint32 stores v little endian at ptr.
func (m *Memory) WriteUint32(ptr uint32, v uint32) error {
	if !m.mem.WriteUint32Le(ptr, v) {
		return &MemoryAccessError{Operation: "write", Address: ptr, Length: 4}
	}
	return nil
}

// WriteUint64 stores v little endian at ptr.
func (m *Memory) WriteUint64(ptr uint32, v uint64) error {
	if !m.mem.WriteUint64Le(ptr, v) {
		return &MemoryAccessError{Operation: "write", Address: ptr, Length: 8}
	}
	return nil
}

// WriteTableSize stores width and height at ptr.
func (m *Memory) WriteTableSize(ptr uint32, info protocol.TableInfo) error {
	if !m.mem.WriteFloat32Le(ptr, info.Width) || !m.mem.WriteFloat32Le(ptr+4, info.Height) {
		return &MemoryAccessError{Operation: "write", Address: ptr, Length: protocol.TableSizeSize}
	}
	return nil
}

// WriteViewSetup stores view at ptr in the ViewSetupSize layout.
func (m *Memory) WriteViewSetup(ptr uint32, view protocol.ViewSetup) error {
	if _, ok := m.mem.Read(ptr, protocol.ViewSetupSize); !ok {
		return &MemoryAccessError{Operation: "write", Address: ptr, Length: protocol.ViewSetupSize}
	}
	m.mem.WriteUint32Le(ptr, uint32(view.ViewMode))
	for i, f := range view.Floats() {
		m.mem.WriteFloat32Le(ptr+4+4*uint32(i), f)
	}
	return nil
}

// ReadViewSetup decodes a view setup stored at ptr.
func (m *Memory) ReadViewSetup(ptr uint32) (protocol.ViewSetup, error) {
	if _, ok := m.mem.Read(ptr, protocol.ViewSetupSize); !ok {
		return protocol.ViewSetup{}, &MemoryAccessError{Operation: "read", Address: ptr, Length: protocol.ViewSetupSize}
	}
	mode, _ := m.mem.ReadUint32Le(ptr)
	var floats [19]float32
	for i := range floats {
		floats[i], _ = m.mem.ReadFloat32Le(ptr + 4 + 4*uint32(i))
	}
	return protocol.ViewSetupFromFloats(int32(mode), floats), nil
}
