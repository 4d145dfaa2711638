package bridge

import (
	"unsafe"

	"go.uber.org/zap"

	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// Session is the runtime state of one loaded plugin: host handles, the
// subscription table and the plugin instance it exclusively owns.
type Session struct {
	endpoint protocol.EndpointID
	bus      HostMessageBus
	domain   HostDomainAPI

	resolver *Resolver
	subs     *Subscriptions
	plugin   Plugin
	api      *API
	state    State

	logger       *zap.Logger
	pluginLogger *zap.Logger
}

func newSession(endpoint protocol.EndpointID, bus HostMessageBus, plugin Plugin, tokens *Context, logger *zap.Logger) *Session {
	s := &Session{
		endpoint:     endpoint,
		bus:          bus,
		resolver:     NewResolver(bus, logger),
		subs:         NewSubscriptions(bus, endpoint, logger),
		plugin:       plugin,
		state:        StateLoading,
		logger:       logger.With(zap.String("component", "session"), zap.Uint32("endpoint", uint32(endpoint))),
		pluginLogger: logger.Named("plugin"),
	}
	s.subs.shareTokens(tokens)
	s.api = &API{s: s}
	return s
}

// handshake fetches the VPX domain API: broadcast GetAPI to ourselves with the
// address of a pointer-sized slot, which the host fills synchronously.
func (s *Session) handshake() error {
	id, err := s.resolver.Resolve(protocol.Namespace, protocol.MsgGetAPI)
	if err != nil {
		return err
	}

	slot := new(uintptr)
	if err := s.bus.Broadcast(s.endpoint, id, unsafe.Pointer(slot)); err != nil {
		return err
	}
	if *slot == 0 {
		s.logger.Warn("Host did not provide the VPX API, domain calls will fail")
		return nil
	}

	s.domain = s.bus.DomainAPI(*slot)
	if s.domain == nil {
		s.logger.Warn("Host returned an unusable VPX API handle", zap.Uintptr("handle", *slot))
		return nil
	}
	s.logger.Info("VPX API acquired", zap.Uint32("message_id", uint32(id)))
	return nil
}

// teardown releases everything the session acquired from the host.
func (s *Session) teardown() {
	s.subs.UnregisterAll()
	s.resolver.ReleaseAll()
	s.domain = nil
	s.state = StateUnloaded
}

func (s *Session) unloadPlugin() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Plugin OnUnload panicked", zap.Any("panic", r))
		}
	}()
	s.plugin.OnUnload()
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Endpoint returns the host-assigned endpoint id.
func (s *Session) Endpoint() protocol.EndpointID {
	return s.endpoint
}

// API returns the facade handed to the plugin.
func (s *Session) API() *API {
	return s.api
}

// Subscriptions returns the session's subscription table.
func (s *Session) Subscriptions() *Subscriptions {
	return s.subs
}

// Resolver returns the session's id resolver.
func (s *Session) Resolver() *Resolver {
	return s.resolver
}

// HasDomainAPI reports whether the GetAPI handshake produced a domain table.
func (s *Session) HasDomainAPI() bool {
	return s.domain != nil
}

// Plugin returns the plugin instance.
func (s *Session) Plugin() Plugin {
	return s.plugin
}
