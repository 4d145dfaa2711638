package emulator

import (
	"time"
	"unsafe"

	"go.uber.org/zap"

	"github.com/woxQAQ/vpxplugin-go/internal/bridge"
	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// pointerSlot is the GetAPI payload of an in-process plugin: the address of
// the bridge's pointer-sized slot.
type pointerSlot struct {
	p *uintptr
}

func (s pointerSlot) StoreAPI(handle uint64) {
	*s.p = uintptr(handle)
}

// InProcess connects a bridge.Loader compiled into the host binary to a Host.
// It plays the part of the C function table and the trampoline.
type InProcess struct {
	host     *Host
	endpoint protocol.EndpointID
	loader   *bridge.Loader
	logger   *zap.Logger
}

var _ bridge.HostMessageBus = (*InProcess)(nil)

// NewInProcess binds loader to host under endpoint.
func NewInProcess(host *Host, endpoint protocol.EndpointID, loader *bridge.Loader, logger *zap.Logger) *InProcess {
	return &InProcess{
		host:     host,
		endpoint: endpoint,
		loader:   loader,
		logger:   logger.With(zap.String("component", "inprocess"), zap.Uint32("endpoint", uint32(endpoint))),
	}
}

// Load loads the plugin as PluginLoad would.
func (p *InProcess) Load() error {
	return p.loader.Load(p.endpoint, p)
}

// Unload unloads the plugin as PluginUnload would.
func (p *InProcess) Unload() error {
	return p.loader.Unload()
}

// Loader returns the bound loader.
func (p *InProcess) Loader() *bridge.Loader {
	return p.loader
}

// Endpoint returns the plugin's endpoint id.
func (p *InProcess) Endpoint() protocol.EndpointID {
	return p.endpoint
}

func (p *InProcess) GetMessageID(namespace, name string) (protocol.MessageID, error) {
	return p.host.GetMessageID(namespace, name)
}

func (p *InProcess) Subscribe(endpoint protocol.EndpointID, id protocol.MessageID, ctx bridge.Context) error {
	return p.host.Subscribe(endpoint, id, func(id protocol.MessageID, _ any) {
		p.loader.Trampoline(id, ctx)
	})
}

func (p *InProcess) Unsubscribe(id protocol.MessageID) error {
	return p.host.Unsubscribe(p.endpoint, id)
}

func (p *InProcess) Broadcast(endpoint protocol.EndpointID, id protocol.MessageID, payload unsafe.Pointer) error {
	var data any
	if payload != nil {
		if id == IDGetAPI {
			data = pointerSlot{p: (*uintptr)(payload)}
		} else {
			data = payload
		}
	}
	_, err := p.host.Broadcast(endpoint, id, data)
	return err
}

func (p *InProcess) ReleaseMessageID(id protocol.MessageID) error {
	return p.host.ReleaseMessageID(id)
}

func (p *InProcess) GetSetting(namespace, name string) (string, error) {
	return p.host.GetSetting(namespace, name), nil
}

func (p *InProcess) RunOnMainThread(delay time.Duration, ctx bridge.Context) error {
	p.host.RunOnMainThread(delay, func() {
		p.loader.TimerTrampoline(ctx)
	})
	return nil
}

func (p *InProcess) DomainAPI(table uintptr) bridge.HostDomainAPI {
	if uint64(table) != DomainHandle {
		p.logger.Warn("Unknown VPX API handle", zap.Uintptr("handle", table))
		return nil
	}
	return p.host.Domain()
}
