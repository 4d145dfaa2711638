//go:build wasip1

package wasmguest

import "unsafe"

//go:wasmimport vpx log_message
func hostLogMessage(level uint32, ptr unsafe.Pointer, length uint32)

//go:wasmimport vpx get_message_id
func hostGetMessageID(nsPtr unsafe.Pointer, nsLen uint32, namePtr unsafe.Pointer, nameLen uint32, idPtr unsafe.Pointer) uint32

//go:wasmimport vpx subscribe
func hostSubscribe(endpoint, id, ctx uint32) uint32

//go:wasmimport vpx unsubscribe
func hostUnsubscribe(id uint32) uint32

//go:wasmimport vpx broadcast
func hostBroadcast(endpoint, id uint32, payload unsafe.Pointer) uint32

//go:wasmimport vpx release_message_id
func hostReleaseMessageID(id uint32) uint32

//go:wasmimport vpx get_setting
func hostGetSetting(nsPtr unsafe.Pointer, nsLen uint32, namePtr unsafe.Pointer, nameLen uint32, bufPtr unsafe.Pointer, bufCap uint32, lenPtr unsafe.Pointer) uint32

//go:wasmimport vpx run_on_main_thread
func hostRunOnMainThread(delaySeconds float64, ctx uint32) uint32

//go:wasmimport vpx get_table_info
func hostGetTableInfo(pathPtr unsafe.Pointer, pathCap uint32, lenPtr unsafe.Pointer, sizePtr unsafe.Pointer) uint32

//go:wasmimport vpx get_option
func hostGetOption(specPtr unsafe.Pointer, specLen uint32, valuePtr unsafe.Pointer) uint32

//go:wasmimport vpx push_notification
func hostPushNotification(msgPtr unsafe.Pointer, msgLen uint32, lengthMs uint32, handlePtr unsafe.Pointer) uint32

//go:wasmimport vpx update_notification
func hostUpdateNotification(handle uint32, msgPtr unsafe.Pointer, msgLen uint32, lengthMs uint32) uint32

//go:wasmimport vpx disable_static_prerendering
func hostDisableStaticPrerendering(disable uint32) uint32

//go:wasmimport vpx get_active_view_setup
func hostGetActiveViewSetup(viewPtr unsafe.Pointer) uint32

//go:wasmimport vpx set_active_view_setup
func hostSetActiveViewSetup(viewPtr unsafe.Pointer) uint32

// str passes s to the host as pointer and length.
func str(s string) (unsafe.Pointer, uint32) {
	return unsafe.Pointer(unsafe.StringData(s)), uint32(len(s))
}

// bytesPtr passes b to the host as pointer and length.
func bytesPtr(b []byte) (unsafe.Pointer, uint32) {
	return unsafe.Pointer(unsafe.SliceData(b)), uint32(len(b))
}
