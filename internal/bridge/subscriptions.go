package bridge

import (
	"sort"

	"go.uber.org/zap"

	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// subscription is the single owner of a registered callback.
type subscription struct {
	id        protocol.MessageID
	namespace string
	name      string
	callback  Callback
	ctx       Context
	calls     uint64
}

// Subscriptions is the table of live subscriptions of one session, keyed by
// message id. Each entry is also addressable by the context token handed to
// the host, which is how the trampoline finds it again.
//
// An entry is released exactly once: by UnregisterAll. Released tokens are
// never handed out again, so a late host callback carrying one is a no-op.
type Subscriptions struct {
	bus      HostMessageBus
	endpoint protocol.EndpointID
	logger   *zap.Logger

	byID      map[protocol.MessageID]*subscription
	byContext map[Context]*subscription
	timers    map[Context]func()
	next      *Context
}

// NewSubscriptions creates an empty table that subscribes through bus on behalf of endpoint.
func NewSubscriptions(bus HostMessageBus, endpoint protocol.EndpointID, logger *zap.Logger) *Subscriptions {
	return &Subscriptions{
		bus:       bus,
		endpoint:  endpoint,
		logger:    logger.With(zap.String("component", "subscriptions")),
		byID:      make(map[protocol.MessageID]*subscription),
		byContext: make(map[Context]*subscription),
		timers:    make(map[Context]func()),
		next:      new(Context),
	}
}

// shareTokens makes the table draw tokens from next, so that tables created
// one after another never hand out the same token.
func (s *Subscriptions) shareTokens(next *Context) {
	s.next = next
}

func (s *Subscriptions) allocContext() Context {
	*s.next++
	return *s.next
}

// Register takes ownership of cb and subscribes it to id on the host.
func (s *Subscriptions) Register(id protocol.MessageID, namespace, name string, cb Callback) error {
	if _, exists := s.byID[id]; exists {
		return &DuplicateSubscriptionError{ID: id, Namespace: namespace, Name: name}
	}

	sub := &subscription{
		id:        id,
		namespace: namespace,
		name:      name,
		callback:  cb,
		ctx:       s.allocContext(),
	}
	s.byID[id] = sub
	s.byContext[sub.ctx] = sub

	if err := s.bus.Subscribe(s.endpoint, id, sub.ctx); err != nil {
		delete(s.byID, id)
		delete(s.byContext, sub.ctx)
		return err
	}

	s.logger.Info("Subscribed",
		zap.String("namespace", namespace),
		zap.String("name", name),
		zap.Uint32("message_id", uint32(id)),
		zap.Uintptr("context", uintptr(sub.ctx)),
	)
	return nil
}

// Dispatch invokes the callback registered for id, if any.
func (s *Subscriptions) Dispatch(id protocol.MessageID) bool {
	sub, ok := s.byID[id]
	if !ok {
		return false
	}
	s.invoke(sub, id)
	return true
}

// DispatchContext invokes the callback owning ctx with the delivered id.
// Unknown tokens belong to released subscriptions and are ignored.
func (s *Subscriptions) DispatchContext(ctx Context, id protocol.MessageID) bool {
	sub, ok := s.byContext[ctx]
	if !ok {
		return false
	}
	s.invoke(sub, id)
	return true
}

func (s *Subscriptions) invoke(sub *subscription, id protocol.MessageID) {
	sub.calls++
	sub.callback(id)
}

// Calls returns how often the callback for id has been invoked.
func (s *Subscriptions) Calls(id protocol.MessageID) uint64 {
	if sub, ok := s.byID[id]; ok {
		return sub.calls
	}
	return 0
}

// Has reports whether id has a live subscription.
func (s *Subscriptions) Has(id protocol.MessageID) bool {
	_, ok := s.byID[id]
	return ok
}

// Len returns the number of live subscriptions.
func (s *Subscriptions) Len() int {
	return len(s.byID)
}

// IDs returns the subscribed ids in ascending order.
func (s *Subscriptions) IDs() []protocol.MessageID {
	ids := make([]protocol.MessageID, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Schedule stores a one-shot timer callback and returns its token.
func (s *Subscriptions) Schedule(fn func()) Context {
	ctx := s.allocContext()
	s.timers[ctx] = fn
	return ctx
}

// Cancel drops a pending timer without running it.
func (s *Subscriptions) Cancel(ctx Context) {
	delete(s.timers, ctx)
}

// FireTimer runs and releases the timer owning ctx.
func (s *Subscriptions) FireTimer(ctx Context) bool {
	fn, ok := s.timers[ctx]
	if !ok {
		return false
	}
	delete(s.timers, ctx)
	fn()
	return true
}

// PendingTimers returns the number of timers not yet fired.
func (s *Subscriptions) PendingTimers() int {
	return len(s.timers)
}

// UnregisterAll unsubscribes and releases every entry. Safe on an empty table.
func (s *Subscriptions) UnregisterAll() {
	for _, id := range s.IDs() {
		sub := s.byID[id]
		s.logger.Info("Unsubscribing",
			zap.String("name", sub.name),
			zap.Uint32("message_id", uint32(id)),
			zap.Uint64("calls", sub.calls),
		)
		if err := s.bus.Unsubscribe(id); err != nil {
			s.logger.Warn("Host unsubscribe failed",
				zap.Uint32("message_id", uint32(id)),
				zap.Error(err),
			)
		}
		delete(s.byContext, sub.ctx)
		delete(s.byID, id)
	}

	// Pending timers cannot be withdrawn from the host; dropping them turns a
	// late fire into a no-op.
	for ctx := range s.timers {
		delete(s.timers, ctx)
	}
}
