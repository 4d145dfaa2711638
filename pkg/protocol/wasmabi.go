package protocol

// WebAssembly plugin ABI. A plugin built for wasip1 imports its host
// functions from module WasmModule and exports the Export* functions.
// Pointers are offsets into the guest's linear memory and strings are passed
// as pointer and length.
const (
	WasmModule = "vpx"

	ExportLoad     = "plugin_load"
	ExportUnload   = "plugin_unload"
	ExportDispatch = "plugin_dispatch"
	ExportTimer    = "plugin_timer"
)

// Sizes of records exchanged through guest memory, little endian.
const (
	// APISlotSize is the GetAPI payload: one uint64 domain handle.
	APISlotSize = 8
	// TableSizeSize holds table width and height as two float32.
	TableSizeSize = 8
	// ViewSetupSize holds the view mode as int32 followed by 19 float32.
	ViewSetupSize = 4 + 19*4
)

// WasmStatus is the result code of a host function.
type WasmStatus int32

const (
	StatusOK WasmStatus = iota
	StatusUnavailable
	StatusUnknownMessage
	StatusInvalidArgument
	StatusFailed
)

func (s WasmStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnavailable:
		return "unavailable"
	case StatusUnknownMessage:
		return "unknown message"
	case StatusInvalidArgument:
		return "invalid argument"
	case StatusFailed:
		return "failed"
	default:
		return "unknown status"
	}
}

// Log levels of the log_message host function.
const (
	LogDebug uint32 = iota
	LogInfo
	LogWarn
	LogError
)
