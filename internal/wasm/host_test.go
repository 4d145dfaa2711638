package wasm

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/woxQAQ/vpxplugin-go/internal/emulator"
	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// Guest memory layout used by the host function tests.
const (
	scratchA = 1024
	scratchB = 2048
	outPtr   = 4096
	outPtr2  = 4100
	bufPtr   = 8192
)

func hostFixture(t *testing.T) (*fixture, *Instance) {
	t.Helper()
	f := newFixture(t, nil)
	inst := f.probe(t, 11)
	return f, inst
}

func put(t *testing.T, inst *Instance, ptr uint32, s string) (uint32, uint32) {
	t.Helper()
	if !inst.module.Memory().Write(ptr, []byte(s)) {
		t.Fatalf("Failed to write %q at %d", s, ptr)
	}
	return ptr, uint32(len(s))
}

func read(t *testing.T, inst *Instance, ptr, n uint32) string {
	t.Helper()
	b, ok := inst.module.Memory().Read(ptr, n)
	if !ok {
		t.Fatalf("Failed to read %d bytes at %d", n, ptr)
	}
	return string(b)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want protocol.WasmStatus
	}{
		{nil, protocol.StatusOK},
		{&emulator.UnknownIDError{ID: 9}, protocol.StatusUnknownMessage},
		{&emulator.UnknownNamespaceError{Namespace: "X"}, protocol.StatusUnknownMessage},
		{&emulator.SubscriptionError{Reason: "already subscribed"}, protocol.StatusInvalidArgument},
		{&emulator.UnknownNotificationError{Handle: 3}, protocol.StatusInvalidArgument},
		{&MemoryAccessError{Operation: "read"}, protocol.StatusInvalidArgument},
		{errors.New("boom"), protocol.StatusFailed},
	}
	for _, tt := range tests {
		if got := protocol.WasmStatus(statusOf(tt.err)); got != tt.want {
			t.Errorf("statusOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestHostGetMessageIDAndRelease(t *testing.T) {
	f, inst := hostFixture(t)
	h := f.manager.hostFuncs

	nsPtr, nsLen := put(t, inst, scratchA, "Test")
	namePtr, nameLen := put(t, inst, scratchB, "Ping")

	if st := h.getMessageID(f.ctx, inst.module, nsPtr, nsLen, namePtr, nameLen, outPtr); st != 0 {
		t.Fatalf("get_message_id status = %d", st)
	}
	id := protocol.MessageID(readU32(t, inst, outPtr))
	if id < 6 {
		t.Errorf("dynamic id = %d, want >= 6", id)
	}
	if refs := f.host.Refs(id); refs != 1 {
		t.Errorf("Refs = %d, want 1", refs)
	}

	if st := h.releaseMessageID(f.ctx, inst.module, uint32(id)); st != 0 {
		t.Fatalf("release_message_id status = %d", st)
	}
	if st := h.releaseMessageID(f.ctx, inst.module, uint32(id)); protocol.WasmStatus(st) != protocol.StatusUnknownMessage {
		t.Errorf("second release status = %d, want unknown message", st)
	}

	// Out of range string.
	if st := h.getMessageID(f.ctx, inst.module, 0xFFFFFF00, 0x1000, namePtr, nameLen, outPtr); protocol.WasmStatus(st) != protocol.StatusInvalidArgument {
		t.Errorf("out of range status = %d, want invalid argument", st)
	}
}

func TestHostBroadcastGetAPI(t *testing.T) {
	f, inst := hostFixture(t)
	h := f.manager.hostFuncs

	if st := h.broadcast(f.ctx, inst.module, 11, uint32(emulator.IDGetAPI), bufPtr); st != 0 {
		t.Fatalf("broadcast status = %d", st)
	}
	handle, ok := inst.module.Memory().ReadUint64Le(bufPtr)
	if !ok || handle != emulator.DomainHandle {
		t.Errorf("slot = %#x, want %#x", handle, emulator.DomainHandle)
	}

	if st := h.broadcast(f.ctx, inst.module, 11, 999, 0); protocol.WasmStatus(st) != protocol.StatusUnknownMessage {
		t.Errorf("unknown id status = %d", st)
	}
}

func TestHostGetSetting(t *testing.T) {
	f, inst := hostFixture(t)
	h := f.manager.hostFuncs
	f.host.SetSetting("Player", "Name", "Ada Lovelace")

	nsPtr, nsLen := put(t, inst, scratchA, "Player")
	namePtr, nameLen := put(t, inst, scratchB, "Name")

	if st := h.getSetting(f.ctx, inst.module, nsPtr, nsLen, namePtr, nameLen, bufPtr, 64, outPtr); st != 0 {
		t.Fatalf("get_setting status = %d", st)
	}
	n := readU32(t, inst, outPtr)
	if got := read(t, inst, bufPtr, n); got != "Ada Lovelace" {
		t.Errorf("setting = %q", got)
	}

	// Small buffer: truncated copy, full length reported.
	if st := h.getSetting(f.ctx, inst.module, nsPtr, nsLen, namePtr, nameLen, bufPtr+512, 3, outPtr); st != 0 {
		t.Fatalf("get_setting status = %d", st)
	}
	if n := readU32(t, inst, outPtr); n != 12 {
		t.Errorf("length = %d, want 12", n)
	}
	if got := read(t, inst, bufPtr+512, 3); got != "Ada" {
		t.Errorf("truncated = %q, want Ada", got)
	}
}

func TestHostRunOnMainThread(t *testing.T) {
	f, inst := hostFixture(t)
	h := f.manager.hostFuncs

	if st := h.runOnMainThread(f.ctx, inst.module, 0.5, 21); st != 0 {
		t.Fatalf("run_on_main_thread status = %d", st)
	}
	if f.host.PendingTimers() != 1 {
		t.Fatalf("PendingTimers = %d, want 1", f.host.PendingTimers())
	}
	if fired := f.host.Advance(400 * time.Millisecond); fired != 0 {
		t.Errorf("fired early: %d", fired)
	}
	if fired := f.host.Advance(100 * time.Millisecond); fired != 1 {
		t.Errorf("fired = %d, want 1", fired)
	}
	if got := readU32(t, inst, 8); got != 21 {
		t.Errorf("timer context = %d, want 21", got)
	}
}

func TestHostTableInfo(t *testing.T) {
	f, inst := hostFixture(t)
	h := f.manager.hostFuncs
	f.host.Domain().SetTableInfo(protocol.TableInfo{Path: "/tables/blood.vpx", Width: 952, Height: 2162})

	if st := h.getTableInfo(f.ctx, inst.module, bufPtr, 256, outPtr, scratchA); st != 0 {
		t.Fatalf("get_table_info status = %d", st)
	}
	if got := read(t, inst, bufPtr, readU32(t, inst, outPtr)); got != "/tables/blood.vpx" {
		t.Errorf("path = %q", got)
	}
	w, _ := inst.module.Memory().ReadFloat32Le(scratchA)
	hgt, _ := inst.module.Memory().ReadFloat32Le(scratchA + 4)
	if w != 952 || hgt != 2162 {
		t.Errorf("size = %vx%v", w, hgt)
	}
}

func TestHostGetOption(t *testing.T) {
	f, inst := hostFixture(t)
	h := f.manager.hostFuncs

	spec := protocol.OptionSpec{
		PageID: "rainbow", OptionID: "color", Show: protocol.ShowUI | protocol.ShowTweak,
		Name: "Use red or blue", Min: 0, Max: 1, Step: 1, Default: 1,
		Values: []string{"Red", "Blue"},
	}
	raw, err := json.Marshal(spec)
	if err != nil {
		t.Fatal(err)
	}
	specPtr, specLen := put(t, inst, bufPtr, string(raw))

	if st := h.getOption(f.ctx, inst.module, specPtr, specLen, outPtr); st != 0 {
		t.Fatalf("get_option status = %d", st)
	}
	if got := math.Float32frombits(readU32(t, inst, outPtr)); got != 1 {
		t.Errorf("value = %v, want default 1", got)
	}
	opt, ok := f.host.Domain().Option("rainbow/color")
	if !ok || opt.Spec.Name != "Use red or blue" || len(opt.Spec.Values) != 2 {
		t.Errorf("registered option = %+v", opt)
	}

	badPtr, badLen := put(t, inst, scratchA, "{not json")
	if st := h.getOption(f.ctx, inst.module, badPtr, badLen, outPtr); protocol.WasmStatus(st) != protocol.StatusInvalidArgument {
		t.Errorf("bad spec status = %d, want invalid argument", st)
	}
}

func TestHostNotifications(t *testing.T) {
	f, inst := hostFixture(t)
	h := f.manager.hostFuncs

	msgPtr, msgLen := put(t, inst, scratchA, "Hello World")
	if st := h.pushNotification(f.ctx, inst.module, msgPtr, msgLen, 5000, outPtr); st != 0 {
		t.Fatalf("push_notification status = %d", st)
	}
	handle := protocol.NotificationHandle(readU32(t, inst, outPtr))

	n, ok := f.host.Domain().Notification(handle)
	if !ok || n.Message != "Hello World" || n.Length != 5*time.Second {
		t.Errorf("notification = %+v", n)
	}

	updPtr, updLen := put(t, inst, scratchB, "Bye")
	if st := h.updateNotification(f.ctx, inst.module, uint32(handle), updPtr, updLen, 1000); st != 0 {
		t.Fatalf("update_notification status = %d", st)
	}
	if n, _ := f.host.Domain().Notification(handle); n.Message != "Bye" {
		t.Errorf("updated message = %q", n.Message)
	}

	if st := h.updateNotification(f.ctx, inst.module, 999, updPtr, updLen, 1000); protocol.WasmStatus(st) != protocol.StatusInvalidArgument {
		t.Errorf("unknown handle status = %d, want invalid argument", st)
	}
}

func TestHostViewSetupAndPrerendering(t *testing.T) {
	f, inst := hostFixture(t)
	h := f.manager.hostFuncs

	var floats [19]float32
	for i := range floats {
		floats[i] = float32(i) + 0.25
	}
	view := protocol.ViewSetupFromFloats(1, floats)
	if err := NewMemory(inst.module).WriteViewSetup(bufPtr, view); err != nil {
		t.Fatal(err)
	}

	if st := h.setActiveViewSetup(f.ctx, inst.module, bufPtr); st != 0 {
		t.Fatalf("set_active_view_setup status = %d", st)
	}
	if got, _ := f.host.Domain().GetActiveViewSetup(); got != view {
		t.Errorf("host view = %+v", got)
	}

	if st := h.getActiveViewSetup(f.ctx, inst.module, scratchA); st != 0 {
		t.Fatalf("get_active_view_setup status = %d", st)
	}
	got, err := NewMemory(inst.module).ReadViewSetup(scratchA)
	if err != nil || got != view {
		t.Errorf("guest view = %+v, %v", got, err)
	}

	if st := h.disableStaticPrerendering(f.ctx, inst.module, 1); st != 0 {
		t.Fatalf("disable_static_prerendering status = %d", st)
	}
	if f.host.Domain().StaticPrerendering() {
		t.Error("static prerendering should be disabled")
	}
}
