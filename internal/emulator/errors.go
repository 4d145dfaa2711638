package emulator

import (
	"fmt"

	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// UnknownNamespaceError occurs in strict mode for lookups outside the known namespaces.
type UnknownNamespaceError struct {
	Namespace string
	Name      string
}

func (e *UnknownNamespaceError) Error() string {
	return fmt.Sprintf("unknown namespace %q for message %q", e.Namespace, e.Name)
}

// UnknownIDError occurs when a message id was never assigned or was released.
type UnknownIDError struct {
	ID protocol.MessageID
}

func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("unknown message id %d", e.ID)
}

// SubscriptionError occurs on a duplicate subscribe or an unsubscribe without subscription.
type SubscriptionError struct {
	Endpoint protocol.EndpointID
	ID       protocol.MessageID
	Reason   string
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("endpoint %d, message %d: %s", e.Endpoint, e.ID, e.Reason)
}

// UnknownNotificationError occurs when updating a handle that was never pushed.
type UnknownNotificationError struct {
	Handle protocol.NotificationHandle
}

func (e *UnknownNotificationError) Error() string {
	return fmt.Sprintf("unknown notification handle %d", e.Handle)
}
