package wasm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/woxQAQ/vpxplugin-go/internal/emulator"
	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// HostFunctions serves the "vpx" host module from an emulated host.
// Every function resolves its caller by guest module name, which is the
// instance id.
type HostFunctions struct {
	host    *emulator.Host
	runtime *Runtime
	logger  *zap.Logger
}

// NewHostFunctions creates the host module implementation.
func NewHostFunctions(runtime *Runtime, host *emulator.Host, logger *zap.Logger) *HostFunctions {
	return &HostFunctions{
		host:    host,
		runtime: runtime,
		logger:  logger.With(zap.String("component", "wasm-host")),
	}
}

// guestSlot is the GetAPI payload of a wasm plugin: an 8 byte cell in its
// memory.
type guestSlot struct {
	mem *Memory
	ptr uint32
	err error
}

func (s *guestSlot) StoreAPI(handle uint64) {
	s.err = s.mem.WriteUint64(s.ptr, handle)
}

func statusOf(err error) uint32 {
	var (
		unknownNS    *emulator.UnknownNamespaceError
		unknownID    *emulator.UnknownIDError
		subscription *emulator.SubscriptionError
		notification *emulator.UnknownNotificationError
		memory       *MemoryAccessError
		syntax       *json.SyntaxError
	)
	switch {
	case err == nil:
		return uint32(protocol.StatusOK)
	case errors.As(err, &unknownNS), errors.As(err, &unknownID):
		return uint32(protocol.StatusUnknownMessage)
	case errors.As(err, &subscription), errors.As(err, &notification),
		errors.As(err, &memory), errors.As(err, &syntax):
		return uint32(protocol.StatusInvalidArgument)
	default:
		return uint32(protocol.StatusFailed)
	}
}

func (h *HostFunctions) caller(mod api.Module) (*Instance, bool) {
	inst, ok := h.runtime.GetInstance(mod.Name())
	if !ok {
		h.logger.Warn("Host call from untracked module", zap.String("module", mod.Name()))
	}
	return inst, ok
}

// fail logs err and converts it to a status.
func (h *HostFunctions) fail(fn string, mod api.Module, err error) uint32 {
	if err != nil {
		h.logger.Debug("Host function failed",
			zap.String("function", fn),
			zap.String("instance_id", mod.Name()),
			zap.Error(err),
		)
	}
	return statusOf(err)
}

// Export builds and instantiates the "vpx" host module.
func (h *HostFunctions) Export(ctx context.Context) error {
	b := h.runtime.runtime.NewHostModuleBuilder(protocol.WasmModule)

	b.NewFunctionBuilder().
		WithFunc(h.logMessage).
		WithParameterNames("level", "ptr", "length").
		Export("log_message")

	b.NewFunctionBuilder().
		WithFunc(h.getMessageID).
		WithParameterNames("ns_ptr", "ns_len", "name_ptr", "name_len", "id_ptr").
		Export("get_message_id")

	b.NewFunctionBuilder().
		WithFunc(h.subscribe).
		WithParameterNames("endpoint", "id", "context").
		Export("subscribe")

	b.NewFunctionBuilder().
		WithFunc(h.unsubscribe).
		WithParameterNames("id").
		Export("unsubscribe")

	b.NewFunctionBuilder().
		WithFunc(h.broadcast).
		WithParameterNames("endpoint", "id", "payload_ptr").
		Export("broadcast")

	b.NewFunctionBuilder().
		WithFunc(h.releaseMessageID).
		WithParameterNames("id").
		Export("release_message_id")

	b.NewFunctionBuilder().
		WithFunc(h.getSetting).
		WithParameterNames("ns_ptr", "ns_len", "name_ptr", "name_len", "buf_ptr", "buf_cap", "len_ptr").
		Export("get_setting")

	b.NewFunctionBuilder().
		WithFunc(h.runOnMainThread).
		WithParameterNames("delay_seconds", "context").
		Export("run_on_main_thread")

	b.NewFunctionBuilder().
		WithFunc(h.getTableInfo).
		WithParameterNames("path_ptr", "path_cap", "len_ptr", "size_ptr").
		Export("get_table_info")

	b.NewFunctionBuilder().
		WithFunc(h.getOption).
		WithParameterNames("spec_ptr", "spec_len", "value_ptr").
		Export("get_option")

	b.NewFunctionBuilder().
		WithFunc(h.pushNotification).
		WithParameterNames("msg_ptr", "msg_len", "length_ms", "handle_ptr").
		Export("push_notification")

	b.NewFunctionBuilder().
		WithFunc(h.updateNotification).
		WithParameterNames("handle", "msg_ptr", "msg_len", "length_ms").
		Export("update_notification")

	b.NewFunctionBuilder().
		WithFunc(h.disableStaticPrerendering).
		WithParameterNames("disable").
		Export("disable_static_prerendering")

	b.NewFunctionBuilder().
		WithFunc(h.getActiveViewSetup).
		WithParameterNames("view_ptr").
		Export("get_active_view_setup")

	b.NewFunctionBuilder().
		WithFunc(h.setActiveViewSetup).
		WithParameterNames("view_ptr").
		Export("set_active_view_setup")

	_, err := b.Instantiate(ctx)
	return err
}

// logMessage forwards a guest log line.
// level: 0 = debug, 1 = info, 2 = warn, 3 = error
func (h *HostFunctions) logMessage(_ context.Context, mod api.Module, level, ptr, length uint32) {
	msg, err := NewMemory(mod).ReadString(ptr, length)
	if err != nil {
		h.logger.Error("Failed to read log message from Wasm memory",
			zap.Uint32("ptr", ptr),
			zap.Uint32("length", length),
		)
		return
	}

	logger := h.logger.With(zap.String("instance_id", mod.Name()))
	if inst, ok := h.runtime.GetInstance(mod.Name()); ok {
		logger = inst.logger
	}

	switch level {
	case protocol.LogDebug:
		logger.Debug(msg)
	case protocol.LogWarn:
		logger.Warn(msg)
	case protocol.LogError:
		logger.Error(msg)
	default:
		logger.Info(msg)
	}
}

func (h *HostFunctions) getMessageID(_ context.Context, mod api.Module, nsPtr, nsLen, namePtr, nameLen, idPtr uint32) uint32 {
	mem := NewMemory(mod)
	ns, err := mem.ReadString(nsPtr, nsLen)
	if err != nil {
		return h.fail("get_message_id", mod, err)
	}
	name, err := mem.ReadString(namePtr, nameLen)
	if err != nil {
		return h.fail("get_message_id", mod, err)
	}
	id, err := h.host.GetMessageID(ns, name)
	if err != nil {
		return h.fail("get_message_id", mod, err)
	}
	if err := mem.WriteUint32(idPtr, uint32(id)); err != nil {
		_ = h.host.ReleaseMessageID(id)
		return h.fail("get_message_id", mod, err)
	}
	return statusOf(nil)
}

func (h *HostFunctions) subscribe(_ context.Context, mod api.Module, endpoint, id, token uint32) uint32 {
	inst, ok := h.caller(mod)
	if !ok {
		return uint32(protocol.StatusUnavailable)
	}
	err := h.host.Subscribe(protocol.EndpointID(endpoint), protocol.MessageID(id), func(id protocol.MessageID, _ any) {
		inst.Dispatch(id, token)
	})
	return h.fail("subscribe", mod, err)
}

func (h *HostFunctions) unsubscribe(_ context.Context, mod api.Module, id uint32) uint32 {
	inst, ok := h.caller(mod)
	if !ok {
		return uint32(protocol.StatusUnavailable)
	}
	return h.fail("unsubscribe", mod, h.host.Unsubscribe(inst.Endpoint, protocol.MessageID(id)))
}

func (h *HostFunctions) broadcast(_ context.Context, mod api.Module, endpoint, id, payloadPtr uint32) uint32 {
	var payload any
	var slot *guestSlot
	if payloadPtr != 0 && protocol.MessageID(id) == emulator.IDGetAPI {
		slot = &guestSlot{mem: NewMemory(mod), ptr: payloadPtr}
		payload = slot
	}
	if _, err := h.host.Broadcast(protocol.EndpointID(endpoint), protocol.MessageID(id), payload); err != nil {
		return h.fail("broadcast", mod, err)
	}
	if slot != nil {
		return h.fail("broadcast", mod, slot.err)
	}
	return statusOf(nil)
}

func (h *HostFunctions) releaseMessageID(_ context.Context, mod api.Module, id uint32) uint32 {
	return h.fail("release_message_id", mod, h.host.ReleaseMessageID(protocol.MessageID(id)))
}

func (h *HostFunctions) getSetting(_ context.Context, mod api.Module, nsPtr, nsLen, namePtr, nameLen, bufPtr, bufCap, lenPtr uint32) uint32 {
	mem := NewMemory(mod)
	ns, err := mem.ReadString(nsPtr, nsLen)
	if err != nil {
		return h.fail("get_setting", mod, err)
	}
	name, err := mem.ReadString(namePtr, nameLen)
	if err != nil {
		return h.fail("get_setting", mod, err)
	}
	n, err := mem.WriteString(bufPtr, bufCap, h.host.GetSetting(ns, name))
	if err == nil {
		err = mem.WriteUint32(lenPtr, n)
	}
	return h.fail("get_setting", mod, err)
}

func (h *HostFunctions) runOnMainThread(_ context.Context, mod api.Module, delay float64, token uint32) uint32 {
	inst, ok := h.caller(mod)
	if !ok {
		return uint32(protocol.StatusUnavailable)
	}
	h.host.RunOnMainThread(time.Duration(delay*float64(time.Second)), func() {
		inst.Timer(token)
	})
	return statusOf(nil)
}

func (h *HostFunctions) getTableInfo(_ context.Context, mod api.Module, pathPtr, pathCap, lenPtr, sizePtr uint32) uint32 {
	mem := NewMemory(mod)
	info, err := h.host.Domain().GetTableInfo()
	if err != nil {
		return h.fail("get_table_info", mod, err)
	}
	n, err := mem.WriteString(pathPtr, pathCap, info.Path)
	if err == nil {
		err = mem.WriteUint32(lenPtr, n)
	}
	if err == nil {
		err = mem.WriteTableSize(sizePtr, info)
	}
	return h.fail("get_table_info", mod, err)
}

func (h *HostFunctions) getOption(_ context.Context, mod api.Module, specPtr, specLen, valuePtr uint32) uint32 {
	mem := NewMemory(mod)
	raw, err := mem.ReadString(specPtr, specLen)
	if err != nil {
		return h.fail("get_option", mod, err)
	}
	var spec protocol.OptionSpec
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return h.fail("get_option", mod, err)
	}
	v, err := h.host.Domain().GetOption(spec)
	if err != nil {
		return h.fail("get_option", mod, err)
	}
	return h.fail("get_option", mod, mem.WriteUint32(valuePtr, math.Float32bits(v)))
}

func (h *HostFunctions) pushNotification(_ context.Context, mod api.Module, msgPtr, msgLen, lengthMs, handlePtr uint32) uint32 {
	mem := NewMemory(mod)
	msg, err := mem.ReadString(msgPtr, msgLen)
	if err != nil {
		return h.fail("push_notification", mod, err)
	}
	handle, err := h.host.Domain().PushNotification(msg, time.Duration(lengthMs)*time.Millisecond)
	if err != nil {
		return h.fail("push_notification", mod, err)
	}
	return h.fail("push_notification", mod, mem.WriteUint32(handlePtr, uint32(handle)))
}

func (h *HostFunctions) updateNotification(_ context.Context, mod api.Module, handle, msgPtr, msgLen, lengthMs uint32) uint32 {
	msg, err := NewMemory(mod).ReadString(msgPtr, msgLen)
	if err != nil {
		return h.fail("update_notification", mod, err)
	}
	err = h.host.Domain().UpdateNotification(protocol.NotificationHandle(handle), msg, time.Duration(lengthMs)*time.Millisecond)
	return h.fail("update_notification", mod, err)
}

func (h *HostFunctions) disableStaticPrerendering(_ context.Context, mod api.Module, disable uint32) uint32 {
	return h.fail("disable_static_prerendering", mod, h.host.Domain().DisableStaticPrerendering(disable != 0))
}

func (h *HostFunctions) getActiveViewSetup(_ context.Context, mod api.Module, viewPtr uint32) uint32 {
	view, err := h.host.Domain().GetActiveViewSetup()
	if err != nil {
		return h.fail("get_active_view_setup", mod, err)
	}
	return h.fail("get_active_view_setup", mod, NewMemory(mod).WriteViewSetup(viewPtr, view))
}

func (h *HostFunctions) setActiveViewSetup(_ context.Context, mod api.Module, viewPtr uint32) uint32 {
	view, err := NewMemory(mod).ReadViewSetup(viewPtr)
	if err != nil {
		return h.fail("set_active_view_setup", mod, err)
	}
	return h.fail("set_active_view_setup", mod, h.host.Domain().SetActiveViewSetup(view))
}
