//go:build cgo && !wasip1

package cabi

/*
#include "calls.h"
*/
import "C"

import (
	"time"
	"unsafe"

	"github.com/woxQAQ/vpxplugin-go/internal/bridge"
	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// settingBufSize bounds setting values read from the host, terminator included.
const settingBufSize = 1024

// msgBus implements bridge.HostMessageBus over a host MsgPluginAPI table.
// Function pointers are checked on every call; a nil entry is reported as
// HostAPIUnavailableError rather than called.
type msgBus struct {
	api *C.MsgPluginAPI
}

var _ bridge.HostMessageBus = (*msgBus)(nil)

func unavailable(op string) error {
	return &bridge.HostAPIUnavailableError{Operation: op}
}

func (b *msgBus) GetMessageID(namespace, name string) (protocol.MessageID, error) {
	if b.api.GetMsgID == nil {
		return 0, unavailable("GetMsgID")
	}
	cns := C.CString(namespace)
	defer C.free(unsafe.Pointer(cns))
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	return protocol.MessageID(C.msgapi_get_msg_id(b.api, cns, cname)), nil
}

func (b *msgBus) Subscribe(endpoint protocol.EndpointID, id protocol.MessageID, ctx bridge.Context) error {
	if b.api.SubscribeMsg == nil {
		return unavailable("SubscribeMsg")
	}
	C.msgapi_subscribe(b.api, C.uint32_t(endpoint), C.uint(id), C.uintptr_t(ctx))
	return nil
}

func (b *msgBus) Unsubscribe(id protocol.MessageID) error {
	if b.api.UnsubscribeMsg == nil {
		return unavailable("UnsubscribeMsg")
	}
	C.msgapi_unsubscribe(b.api, C.uint(id))
	return nil
}

func (b *msgBus) Broadcast(endpoint protocol.EndpointID, id protocol.MessageID, payload unsafe.Pointer) error {
	if b.api.BroadcastMsg == nil {
		return unavailable("BroadcastMsg")
	}
	C.msgapi_broadcast(b.api, C.uint32_t(endpoint), C.uint(id), payload)
	return nil
}

func (b *msgBus) ReleaseMessageID(id protocol.MessageID) error {
	if b.api.ReleaseMsgID == nil {
		return unavailable("ReleaseMsgID")
	}
	C.msgapi_release_msg_id(b.api, C.uint(id))
	return nil
}

func (b *msgBus) GetSetting(namespace, name string) (string, error) {
	if b.api.GetSetting == nil {
		return "", unavailable("GetSetting")
	}
	cns := C.CString(namespace)
	defer C.free(unsafe.Pointer(cns))
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	buf := (*C.char)(C.calloc(settingBufSize, 1))
	defer C.free(unsafe.Pointer(buf))

	C.msgapi_get_setting(b.api, cns, cname, buf, settingBufSize)
	// The host may fill the buffer without terminating it.
	*(*C.char)(unsafe.Add(unsafe.Pointer(buf), settingBufSize-1)) = 0
	return C.GoString(buf), nil
}

func (b *msgBus) RunOnMainThread(delay time.Duration, ctx bridge.Context) error {
	if b.api.RunOnMainThread == nil {
		return unavailable("RunOnMainThread")
	}
	C.msgapi_run_on_main_thread(b.api, C.double(delay.Seconds()), C.uintptr_t(ctx))
	return nil
}

func (b *msgBus) DomainAPI(table uintptr) bridge.HostDomainAPI {
	return &domainAPI{api: C.vpxapi_from_handle(C.uintptr_t(table))}
}
