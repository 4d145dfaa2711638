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

// domainAPI implements bridge.HostDomainAPI over a host VPXPluginAPI table.
type domainAPI struct {
	api *C.VPXPluginAPI
}

var _ bridge.HostDomainAPI = (*domainAPI)(nil)

func millis(d time.Duration) C.uint {
	if d < 0 {
		return 0
	}
	return C.uint(d / time.Millisecond)
}

func (d *domainAPI) GetTableInfo() (protocol.TableInfo, error) {
	if d.api.GetTableInfo == nil {
		return protocol.TableInfo{}, unavailable("GetTableInfo")
	}
	info := (*C.VPXTableInfo)(C.calloc(1, C.sizeof_VPXTableInfo))
	defer C.free(unsafe.Pointer(info))

	C.vpxapi_get_table_info(d.api, info)

	// The path belongs to the host; copy it now.
	var path string
	if info.path != nil {
		path = C.GoString(info.path)
	}
	return protocol.TableInfo{
		Path:   path,
		Width:  float32(info.tableWidth),
		Height: float32(info.tableHeight),
	}, nil
}

func (d *domainAPI) GetOption(spec protocol.OptionSpec) (float32, error) {
	if d.api.GetOption == nil {
		return 0, unavailable("GetOption")
	}

	page := C.CString(spec.PageID)
	defer C.free(unsafe.Pointer(page))
	option := C.CString(spec.OptionID)
	defer C.free(unsafe.Pointer(option))
	name := C.CString(spec.Name)
	defer C.free(unsafe.Pointer(name))

	// NULL-terminated array of choice labels.
	n := len(spec.Values)
	values := (**C.char)(C.calloc(C.size_t(n+1), C.size_t(unsafe.Sizeof((*C.char)(nil)))))
	defer C.free(unsafe.Pointer(values))
	slots := unsafe.Slice(values, n+1)
	for i, v := range spec.Values {
		slots[i] = C.CString(v)
	}
	defer func() {
		for i := 0; i < n; i++ {
			C.free(unsafe.Pointer(slots[i]))
		}
	}()

	v := C.vpxapi_get_option(d.api, page, option, C.uint(spec.Show), name,
		C.float(spec.Min), C.float(spec.Max), C.float(spec.Step), C.float(spec.Default),
		C.int(spec.Unit), values)
	return float32(v), nil
}

func (d *domainAPI) PushNotification(message string, length time.Duration) (protocol.NotificationHandle, error) {
	if d.api.PushNotification == nil {
		return 0, unavailable("PushNotification")
	}
	cmsg := C.CString(message)
	defer C.free(unsafe.Pointer(cmsg))

	return protocol.NotificationHandle(C.vpxapi_push_notification(d.api, cmsg, millis(length))), nil
}

func (d *domainAPI) UpdateNotification(handle protocol.NotificationHandle, message string, length time.Duration) error {
	if d.api.UpdateNotification == nil {
		return unavailable("UpdateNotification")
	}
	cmsg := C.CString(message)
	defer C.free(unsafe.Pointer(cmsg))

	C.vpxapi_update_notification(d.api, C.uint(handle), cmsg, millis(length))
	return nil
}

func (d *domainAPI) DisableStaticPrerendering(disable bool) error {
	if d.api.DisableStaticPrerendering == nil {
		return unavailable("DisableStaticPrerendering")
	}
	var flag C.int
	if disable {
		flag = 1
	}
	C.vpxapi_disable_static_prerendering(d.api, flag)
	return nil
}

func (d *domainAPI) GetActiveViewSetup() (protocol.ViewSetup, error) {
	if d.api.GetActiveViewSetup == nil {
		return protocol.ViewSetup{}, unavailable("GetActiveViewSetup")
	}
	def := (*C.VPXViewSetupDef)(C.calloc(1, C.sizeof_VPXViewSetupDef))
	defer C.free(unsafe.Pointer(def))

	C.vpxapi_get_active_view_setup(d.api, def)

	var f [19]float32
	for i, v := range viewFloats(def) {
		f[i] = float32(v)
	}
	return protocol.ViewSetupFromFloats(int32(def.viewMode), f), nil
}

func (d *domainAPI) SetActiveViewSetup(view protocol.ViewSetup) error {
	if d.api.SetActiveViewSetup == nil {
		return unavailable("SetActiveViewSetup")
	}
	def := (*C.VPXViewSetupDef)(C.calloc(1, C.sizeof_VPXViewSetupDef))
	defer C.free(unsafe.Pointer(def))

	def.viewMode = C.int(view.ViewMode)
	dst := viewFloats(def)
	for i, v := range view.Floats() {
		dst[i] = C.float(v)
	}
	C.vpxapi_set_active_view_setup(d.api, def)
	return nil
}

// viewFloats views the 19 consecutive float fields of def as an array.
func viewFloats(def *C.VPXViewSetupDef) *[19]C.float {
	return (*[19]C.float)(unsafe.Pointer(&def.sceneScaleX))
}
