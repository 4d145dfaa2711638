package bridge

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// Loader guards the single plugin session of a process and drives its
// lifecycle: Unloaded -> Loading -> Loaded -> Unloading -> Unloaded.
//
// A Loader is not safe for concurrent use. The host must call Load,
// Trampoline, TimerTrampoline and Unload serially from one thread.
type Loader struct {
	factory Factory
	base    *zap.Logger
	logger  *zap.Logger
	session *Session
	tokens  Context
}

// NewLoader creates a loader that instantiates plugins with factory.
func NewLoader(factory Factory, logger *zap.Logger) *Loader {
	return &Loader{
		factory: factory,
		base:    logger,
		logger:  logger.With(zap.String("component", "loader")),
	}
}

// Load creates the session for endpoint, fetches the domain API and runs the
// plugin's OnLoad. It fails with *LifecycleViolationError if a session exists;
// the existing session is left untouched.
//
// A failed handshake or OnLoad tears the new session down before returning.
// Panics raised by OnLoad are not recovered.
func (l *Loader) Load(endpoint protocol.EndpointID, bus HostMessageBus) error {
	if l.session != nil {
		return &LifecycleViolationError{Operation: "load", State: l.session.state}
	}

	l.logger.Info("Loading plugin", zap.Uint32("endpoint", uint32(endpoint)))

	plugin := l.factory()
	if plugin == nil {
		return fmt.Errorf("plugin factory returned nil")
	}

	s := newSession(endpoint, bus, plugin, &l.tokens, l.base)
	l.session = s

	if err := s.handshake(); err != nil {
		s.teardown()
		l.session = nil
		return fmt.Errorf("GetAPI handshake failed: %w", err)
	}

	if err := s.plugin.OnLoad(s.api); err != nil {
		s.teardown()
		l.session = nil
		return fmt.Errorf("plugin load failed: %w", err)
	}

	s.state = StateLoaded
	l.logger.Info("Plugin loaded",
		zap.Uint32("endpoint", uint32(endpoint)),
		zap.Int("subscriptions", s.subs.Len()),
		zap.Bool("vpx_api", s.domain != nil),
	)
	return nil
}

// Unload runs the plugin's OnUnload, then unsubscribes and releases every
// subscription and resolved id, and drops the session.
func (l *Loader) Unload() error {
	s := l.session
	if s == nil {
		return &LifecycleViolationError{Operation: "unload", State: StateUnloaded}
	}
	if s.state != StateLoaded {
		return &LifecycleViolationError{Operation: "unload", State: s.state}
	}

	l.logger.Info("Unloading plugin", zap.Uint32("endpoint", uint32(s.endpoint)))

	s.state = StateUnloading
	s.unloadPlugin()
	s.teardown()
	l.session = nil

	l.logger.Info("Plugin unloaded")
	return nil
}

// Session returns the live session, or nil when unloaded.
func (l *Loader) Session() *Session {
	return l.session
}

// State returns the lifecycle state.
func (l *Loader) State() State {
	if l.session == nil {
		return StateUnloaded
	}
	return l.session.state
}

// Trampoline is the target of every host message callback. It never panics:
// a failing callback is logged and swallowed at this edge.
func (l *Loader) Trampoline(id protocol.MessageID, ctx Context) {
	defer l.recoverCallback("message", zap.Uint32("message_id", uint32(id)))

	s := l.session
	if s == nil {
		l.logger.Debug("Dropping message without session", zap.Uint32("message_id", uint32(id)))
		return
	}
	if !s.subs.DispatchContext(ctx, id) {
		l.logger.Debug("Dropping message for released subscription",
			zap.Uint32("message_id", uint32(id)),
			zap.Uintptr("context", uintptr(ctx)),
		)
	}
}

// TimerTrampoline is the target of every RunOnMainThread callback.
func (l *Loader) TimerTrampoline(ctx Context) {
	defer l.recoverCallback("timer", zap.Uintptr("context", uintptr(ctx)))

	s := l.session
	if s == nil {
		return
	}
	s.subs.FireTimer(ctx)
}

func (l *Loader) recoverCallback(kind string, field zap.Field) {
	if r := recover(); r != nil {
		l.logger.Error("callback panicked",
			zap.String("kind", kind),
			field,
			zap.Any("panic", r),
		)
	}
}
