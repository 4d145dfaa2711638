package bridge

import (
	"fmt"

	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// EncodingError occurs when a string cannot cross the C boundary
// (embedded NUL byte or invalid UTF-8).
type EncodingError struct {
	Field  string
	Value  string
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("cannot encode %s %q: %s", e.Field, e.Value, e.Reason)
}

// UnknownMessageError occurs when the host rejects a message id lookup.
type UnknownMessageError struct {
	Namespace string
	Name      string
	Err       error
}

func (e *UnknownMessageError) Error() string {
	return fmt.Sprintf("unknown message '%s.%s': %v", e.Namespace, e.Name, e.Err)
}

func (e *UnknownMessageError) Unwrap() error {
	return e.Err
}

// DuplicateSubscriptionError occurs when a message id already has a live subscription.
type DuplicateSubscriptionError struct {
	ID        protocol.MessageID
	Namespace string
	Name      string
}

func (e *DuplicateSubscriptionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("message '%s.%s' (id %d) already subscribed", e.Namespace, e.Name, e.ID)
	}
	return fmt.Sprintf("message id %d already subscribed", e.ID)
}

// HostAPIUnavailableError occurs when a host function is missing, or the
// secondary API is used before the GetAPI handshake or after unload.
type HostAPIUnavailableError struct {
	Operation string
}

func (e *HostAPIUnavailableError) Error() string {
	return fmt.Sprintf("host API unavailable for '%s'", e.Operation)
}

// LifecycleViolationError occurs when a lifecycle operation is invalid in the current state.
type LifecycleViolationError struct {
	Operation string
	State     State
}

func (e *LifecycleViolationError) Error() string {
	return fmt.Sprintf("cannot %s plugin in state %s", e.Operation, e.State)
}
