// Package emulator is a headless model of the VPX host: message ids,
// endpoint subscriptions, synchronous broadcast, the GetAPI provider and the
// domain state plugins query. It lets plugins run without the game.
//
// A Host is not safe for concurrent use. Like the real host it calls
// subscribers synchronously, and subscribers may call back into it.
package emulator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// Ids the host assigns at startup.
const (
	IDOnGameStart       protocol.MessageID = 1
	IDOnGameEnd         protocol.MessageID = 2
	IDOnPrepareFrame    protocol.MessageID = 3
	IDOnSettingsChanged protocol.MessageID = 4
	IDGetAPI            protocol.MessageID = 5

	firstDynamicID protocol.MessageID = 6
)

// Version is the VPX release whose plugin API the host emulates.
const Version = "10.8.0"

// HostEndpoint is the sender of messages broadcast by the host itself.
const HostEndpoint protocol.EndpointID = 0

// DomainHandle is stored into GetAPI slots. It identifies the host's Domain.
const DomainHandle uint64 = 0x56505850

// Subscriber receives a broadcast. payload is whatever the sender passed.
type Subscriber func(id protocol.MessageID, payload any)

// APISlot is implemented by GetAPI payloads the host can write the domain
// handle into.
type APISlot interface {
	StoreAPI(handle uint64)
}

type messageKey struct {
	namespace string
	name      string
}

type message struct {
	id      protocol.MessageID
	key     messageKey
	refs    int
	builtin bool
}

type subscriber struct {
	endpoint protocol.EndpointID
	fn       Subscriber
}

// Options configures a Host.
type Options struct {
	// Strict rejects lookups outside Namespaces.
	Strict bool
	// Namespaces known in strict mode in addition to VPX.
	Namespaces []string
	// Metrics receives host activity. Nil uses an unregistered set.
	Metrics *Metrics
}

// Host is the emulated message bus plus domain state.
type Host struct {
	logger  *zap.Logger
	metrics *Metrics

	strict     bool
	namespaces map[string]bool

	byKey map[messageKey]*message
	byID  map[protocol.MessageID]*message
	next  protocol.MessageID

	subs     map[protocol.MessageID][]subscriber
	settings map[string]string

	domain *Domain
	clock  time.Duration
	timers timerQueue
	seq    uint64
}

// NewHost creates a host with the VPX messages pre-registered.
func NewHost(logger *zap.Logger, opts Options) *Host {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}

	h := &Host{
		logger:     logger.With(zap.String("component", "host")),
		metrics:    metrics,
		strict:     opts.Strict,
		namespaces: map[string]bool{protocol.Namespace: true},
		byKey:      make(map[messageKey]*message),
		byID:       make(map[protocol.MessageID]*message),
		next:       firstDynamicID,
		subs:       make(map[protocol.MessageID][]subscriber),
		settings:   make(map[string]string),
	}
	for _, ns := range opts.Namespaces {
		h.namespaces[ns] = true
	}
	h.domain = newDomain(h.Now, metrics)

	for id, name := range map[protocol.MessageID]string{
		IDOnGameStart:       protocol.EvtOnGameStart,
		IDOnGameEnd:         protocol.EvtOnGameEnd,
		IDOnPrepareFrame:    protocol.EvtOnPrepareFrame,
		IDOnSettingsChanged: protocol.EvtOnSettingsChanged,
		IDGetAPI:            protocol.MsgGetAPI,
	} {
		m := &message{id: id, key: messageKey{protocol.Namespace, name}, builtin: true}
		h.byKey[m.key] = m
		h.byID[id] = m
	}
	return h
}

// Metrics returns the metrics the host records into.
func (h *Host) Metrics() *Metrics {
	return h.metrics
}

// Domain returns the domain state served to GetAPI callers.
func (h *Host) Domain() *Domain {
	return h.domain
}

// GetMessageID returns the id of namespace/name, assigning one on first use.
// Each call takes a reference that ReleaseMessageID gives back.
func (h *Host) GetMessageID(namespace, name string) (protocol.MessageID, error) {
	key := messageKey{namespace, name}
	m, ok := h.byKey[key]
	if !ok {
		if h.strict && !h.namespaces[namespace] {
			return 0, &UnknownNamespaceError{Namespace: namespace, Name: name}
		}
		m = &message{id: h.next, key: key}
		h.next++
		h.byKey[key] = m
		h.byID[m.id] = m
		h.logger.Debug("Assigned message id",
			zap.String("namespace", namespace),
			zap.String("name", name),
			zap.Uint32("message_id", uint32(m.id)),
		)
	}
	m.refs++
	h.metrics.MessageRefs.Inc()
	return m.id, nil
}

// ReleaseMessageID drops one reference. Dynamic ids without references are
// forgotten; their numbers are not reused.
func (h *Host) ReleaseMessageID(id protocol.MessageID) error {
	m, ok := h.byID[id]
	if !ok || m.refs == 0 {
		return &UnknownIDError{ID: id}
	}
	m.refs--
	h.metrics.MessageRefs.Dec()
	if m.refs == 0 && !m.builtin && len(h.subs[id]) == 0 {
		delete(h.byKey, m.key)
		delete(h.byID, id)
	}
	return nil
}

// Refs returns the outstanding references of id.
func (h *Host) Refs(id protocol.MessageID) int {
	if m, ok := h.byID[id]; ok {
		return m.refs
	}
	return 0
}

// MessageName returns the namespace and name id was assigned for.
func (h *Host) MessageName(id protocol.MessageID) (namespace, name string, ok bool) {
	m, ok := h.byID[id]
	if !ok {
		return "", "", false
	}
	return m.key.namespace, m.key.name, true
}

// Subscribe registers fn for id on behalf of endpoint. An endpoint holds at
// most one subscription per id.
func (h *Host) Subscribe(endpoint protocol.EndpointID, id protocol.MessageID, fn Subscriber) error {
	if _, ok := h.byID[id]; !ok {
		return &UnknownIDError{ID: id}
	}
	for _, s := range h.subs[id] {
		if s.endpoint == endpoint {
			return &SubscriptionError{Endpoint: endpoint, ID: id, Reason: "already subscribed"}
		}
	}
	h.subs[id] = append(h.subs[id], subscriber{endpoint: endpoint, fn: fn})
	h.metrics.Subscriptions.Inc()
	return nil
}

// Unsubscribe removes the subscription of endpoint for id.
func (h *Host) Unsubscribe(endpoint protocol.EndpointID, id protocol.MessageID) error {
	list := h.subs[id]
	for i, s := range list {
		if s.endpoint != endpoint {
			continue
		}
		h.subs[id] = append(list[:i:i], list[i+1:]...)
		if len(h.subs[id]) == 0 {
			delete(h.subs, id)
		}
		h.metrics.Subscriptions.Dec()
		return nil
	}
	return &SubscriptionError{Endpoint: endpoint, ID: id, Reason: "not subscribed"}
}

// Subscribers returns the number of subscriptions to id.
func (h *Host) Subscribers(id protocol.MessageID) int {
	return len(h.subs[id])
}

// Broadcast delivers id to every subscriber in subscription order and
// returns the number of deliveries. Subscribers added or removed during the
// broadcast take effect for the next one.
//
// GetAPI is answered by the host: a payload implementing APISlot receives
// DomainHandle before any subscriber runs.
func (h *Host) Broadcast(sender protocol.EndpointID, id protocol.MessageID, payload any) (int, error) {
	m, ok := h.byID[id]
	if !ok {
		return 0, &UnknownIDError{ID: id}
	}
	label := m.key.namespace + "." + m.key.name
	h.metrics.Broadcasts.WithLabelValues(label).Inc()

	if id == IDGetAPI {
		if slot, ok := payload.(APISlot); ok {
			slot.StoreAPI(DomainHandle)
			h.logger.Debug("Provided VPX API", zap.Uint32("endpoint", uint32(sender)))
		}
	}

	snapshot := append([]subscriber(nil), h.subs[id]...)
	for _, s := range snapshot {
		s.fn(id, payload)
	}
	h.metrics.Deliveries.WithLabelValues(label).Add(float64(len(snapshot)))
	return len(snapshot), nil
}

// BroadcastName resolves namespace/name and broadcasts it from the host.
func (h *Host) BroadcastName(namespace, name string, payload any) (int, error) {
	id, err := h.GetMessageID(namespace, name)
	if err != nil {
		return 0, err
	}
	defer func() { _ = h.ReleaseMessageID(id) }()
	return h.Broadcast(HostEndpoint, id, payload)
}

// SetSetting stores a setting value.
func (h *Host) SetSetting(namespace, name, value string) {
	h.settings[namespace+"/"+name] = value
}

// GetSetting returns a setting value, empty when unset.
func (h *Host) GetSetting(namespace, name string) string {
	return h.settings[namespace+"/"+name]
}

// SetOption overrides the value of a plugin option and notifies plugins with
// OnSettingsChanged. It returns the number of deliveries.
func (h *Host) SetOption(key string, value float32) (int, error) {
	h.domain.SetOverride(key, value)
	return h.Broadcast(HostEndpoint, IDOnSettingsChanged, nil)
}
