package wasmguest

import (
	"fmt"

	"github.com/woxQAQ/vpxplugin-go/internal/bridge"
	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// StatusError is a non-zero status returned by a host function.
type StatusError struct {
	Operation string
	Status    protocol.WasmStatus
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("host function '%s' failed: %s", e.Operation, e.Status)
}

// check converts a host function status.
func check(op string, status uint32) error {
	switch s := protocol.WasmStatus(status); s {
	case protocol.StatusOK:
		return nil
	case protocol.StatusUnavailable:
		return &bridge.HostAPIUnavailableError{Operation: op}
	default:
		return &StatusError{Operation: op, Status: s}
	}
}

// statusFor is the status an export reports for err.
func statusFor(err error) int32 {
	if err == nil {
		return int32(protocol.StatusOK)
	}
	return int32(protocol.StatusFailed)
}
