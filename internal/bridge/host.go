// Package bridge connects a plugin implementation to the host message bus.
//
// The host speaks a C ABI: it identifies messages by numeric ids, accepts one
// callback function pointer plus one untyped context pointer per subscription,
// and hands out a second function table (the domain API) in reply to the
// VPX.GetAPI broadcast. This package holds everything above the raw function
// pointers: id resolution, the subscription table, the trampoline that turns
// context tokens back into Go closures, the API facade and the load/unload
// state machine. The raw calls live behind HostMessageBus and HostDomainAPI,
// implemented by the cgo binding (internal/cabi), the wasm guest binding
// (internal/wasmguest) and the in-process emulator.
//
// Calling contract: the host invokes load, every dispatch and unload serially
// from a single logical thread. Nothing in this package locks.
package bridge

import (
	"time"
	"unsafe"

	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// Context is the opaque token passed to the host as a subscription's user data.
// Tokens increase monotonically and are never reused.
type Context uintptr

// Callback receives the id of the message being delivered.
type Callback func(id protocol.MessageID)

// HostMessageBus is the host's message bus function table.
//
// Implementations receive strings that were already validated by the bridge;
// they only convert them to the host's representation.
type HostMessageBus interface {
	// GetMessageID resolves a namespace/name pair to a message id.
	GetMessageID(namespace, name string) (protocol.MessageID, error)

	// Subscribe asks the host to deliver id to the bridge trampoline with ctx.
	Subscribe(endpoint protocol.EndpointID, id protocol.MessageID, ctx Context) error

	// Unsubscribe removes the trampoline subscription for id.
	Unsubscribe(id protocol.MessageID) error

	// Broadcast sends id to all subscribers. payload may be nil.
	Broadcast(endpoint protocol.EndpointID, id protocol.MessageID, payload unsafe.Pointer) error

	// ReleaseMessageID balances one GetMessageID call.
	ReleaseMessageID(id protocol.MessageID) error

	// GetSetting reads a host setting value.
	GetSetting(namespace, name string) (string, error)

	// RunOnMainThread asks the host to call the timer trampoline with ctx after delay.
	RunOnMainThread(delay time.Duration, ctx Context) error

	// DomainAPI interprets the value the host stored in the GetAPI slot.
	// table is never zero.
	DomainAPI(table uintptr) HostDomainAPI
}

// HostDomainAPI is the secondary VPX function table obtained through GetAPI.
type HostDomainAPI interface {
	GetTableInfo() (protocol.TableInfo, error)
	GetOption(spec protocol.OptionSpec) (float32, error)
	PushNotification(message string, length time.Duration) (protocol.NotificationHandle, error)
	UpdateNotification(handle protocol.NotificationHandle, message string, length time.Duration) error
	DisableStaticPrerendering(disable bool) error
	GetActiveViewSetup() (protocol.ViewSetup, error)
	SetActiveViewSetup(view protocol.ViewSetup) error
}

// Plugin is implemented by each plugin and driven by the Loader.
type Plugin interface {
	// OnLoad runs once the GetAPI handshake completed. Subscriptions are
	// registered here through api.
	OnLoad(api *API) error

	// OnUnload runs before the bridge releases the plugin's subscriptions.
	// It may still use api but must not subscribe.
	OnUnload()
}

// Factory creates a fresh plugin instance for every load.
type Factory func() Plugin
