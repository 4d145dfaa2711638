//go:build wasip1

package wasmguest

import (
	"encoding/json"
	"time"
	"unsafe"

	"github.com/woxQAQ/vpxplugin-go/internal/bridge"
	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// initialBufSize is the first guess for strings read from the host. Longer
// values are read again with the reported length.
const initialBufSize = 256

// guestBus implements bridge.HostMessageBus over the vpx host module.
type guestBus struct{}

var _ bridge.HostMessageBus = guestBus{}

func (guestBus) GetMessageID(namespace, name string) (protocol.MessageID, error) {
	nsPtr, nsLen := str(namespace)
	namePtr, nameLen := str(name)
	var id uint32
	if err := check("get_message_id", hostGetMessageID(nsPtr, nsLen, namePtr, nameLen, unsafe.Pointer(&id))); err != nil {
		return 0, err
	}
	return protocol.MessageID(id), nil
}

func (guestBus) Subscribe(endpoint protocol.EndpointID, id protocol.MessageID, ctx bridge.Context) error {
	return check("subscribe", hostSubscribe(uint32(endpoint), uint32(id), uint32(ctx)))
}

func (guestBus) Unsubscribe(id protocol.MessageID) error {
	return check("unsubscribe", hostUnsubscribe(uint32(id)))
}

// Broadcast forwards payload as the GetAPI slot, the only payload the bridge
// sends. The host writes a 64-bit handle, wider than a wasm32 uintptr, so
// it goes through a local cell.
func (guestBus) Broadcast(endpoint protocol.EndpointID, id protocol.MessageID, payload unsafe.Pointer) error {
	if payload == nil {
		return check("broadcast", hostBroadcast(uint32(endpoint), uint32(id), nil))
	}
	slot := (*uintptr)(payload)
	cell := uint64(*slot)
	if err := check("broadcast", hostBroadcast(uint32(endpoint), uint32(id), unsafe.Pointer(&cell))); err != nil {
		return err
	}
	*slot = uintptr(cell)
	return nil
}

func (guestBus) ReleaseMessageID(id protocol.MessageID) error {
	return check("release_message_id", hostReleaseMessageID(uint32(id)))
}

func (guestBus) GetSetting(namespace, name string) (string, error) {
	nsPtr, nsLen := str(namespace)
	namePtr, nameLen := str(name)
	return readString("get_setting", func(buf []byte, n *uint32) uint32 {
		bufPtr, bufCap := bytesPtr(buf)
		return hostGetSetting(nsPtr, nsLen, namePtr, nameLen, bufPtr, bufCap, unsafe.Pointer(n))
	})
}

func (guestBus) RunOnMainThread(delay time.Duration, ctx bridge.Context) error {
	return check("run_on_main_thread", hostRunOnMainThread(delay.Seconds(), uint32(ctx)))
}

func (guestBus) DomainAPI(uintptr) bridge.HostDomainAPI {
	return guestDomain{}
}

// readString calls fn with a buffer, growing it once if the host reports a
// longer value.
func readString(op string, fn func(buf []byte, n *uint32) uint32) (string, error) {
	buf := make([]byte, initialBufSize)
	var n uint32
	if err := check(op, fn(buf, &n)); err != nil {
		return "", err
	}
	if int(n) > len(buf) {
		buf = make([]byte, n)
		if err := check(op, fn(buf, &n)); err != nil {
			return "", err
		}
	}
	return string(buf[:min(int(n), len(buf))]), nil
}

// viewRecord matches protocol.ViewSetupSize.
type viewRecord struct {
	mode   int32
	floats [19]float32
}

// guestDomain implements bridge.HostDomainAPI over the vpx host module.
type guestDomain struct{}

var _ bridge.HostDomainAPI = guestDomain{}

func millis(d time.Duration) uint32 {
	if d < 0 {
		return 0
	}
	return uint32(d / time.Millisecond)
}

func (guestDomain) GetTableInfo() (protocol.TableInfo, error) {
	var size [2]float32
	path, err := readString("get_table_info", func(buf []byte, n *uint32) uint32 {
		bufPtr, bufCap := bytesPtr(buf)
		return hostGetTableInfo(bufPtr, bufCap, unsafe.Pointer(n), unsafe.Pointer(&size))
	})
	if err != nil {
		return protocol.TableInfo{}, err
	}
	return protocol.TableInfo{Path: path, Width: size[0], Height: size[1]}, nil
}

func (guestDomain) GetOption(spec protocol.OptionSpec) (float32, error) {
	raw, err := json.Marshal(spec)
	if err != nil {
		return 0, err
	}
	specPtr, specLen := bytesPtr(raw)
	var v float32
	if err := check("get_option", hostGetOption(specPtr, specLen, unsafe.Pointer(&v))); err != nil {
		return 0, err
	}
	return v, nil
}

func (guestDomain) PushNotification(message string, length time.Duration) (protocol.NotificationHandle, error) {
	msgPtr, msgLen := str(message)
	var handle uint32
	if err := check("push_notification", hostPushNotification(msgPtr, msgLen, millis(length), unsafe.Pointer(&handle))); err != nil {
		return 0, err
	}
	return protocol.NotificationHandle(handle), nil
}

func (guestDomain) UpdateNotification(handle protocol.NotificationHandle, message string, length time.Duration) error {
	msgPtr, msgLen := str(message)
	return check("update_notification", hostUpdateNotification(uint32(handle), msgPtr, msgLen, millis(length)))
}

func (guestDomain) DisableStaticPrerendering(disable bool) error {
	var flag uint32
	if disable {
		flag = 1
	}
	return check("disable_static_prerendering", hostDisableStaticPrerendering(flag))
}

func (guestDomain) GetActiveViewSetup() (protocol.ViewSetup, error) {
	var rec viewRecord
	if err := check("get_active_view_setup", hostGetActiveViewSetup(unsafe.Pointer(&rec))); err != nil {
		return protocol.ViewSetup{}, err
	}
	return protocol.ViewSetupFromFloats(rec.mode, rec.floats), nil
}

func (guestDomain) SetActiveViewSetup(view protocol.ViewSetup) error {
	rec := viewRecord{mode: view.ViewMode, floats: view.Floats()}
	return check("set_active_view_setup", hostSetActiveViewSetup(unsafe.Pointer(&rec)))
}
