// Package bridgetest provides an in-memory host for exercising the bridge
// without a C host. Message ids follow the numbering of the original
// host test harness: OnGameStart=1, OnGameEnd=2, OnPrepareFrame=3,
// OnSettingsChanged=4, GetAPI=5.
package bridgetest

import (
	"errors"
	"time"
	"unsafe"

	"github.com/woxQAQ/vpxplugin-go/internal/bridge"
	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// Endpoint is the endpoint id used by tests.
const Endpoint protocol.EndpointID = 123

// Well-known ids assigned by NewBus.
const (
	IDOnGameStart       protocol.MessageID = 1
	IDOnGameEnd         protocol.MessageID = 2
	IDOnPrepareFrame    protocol.MessageID = 3
	IDOnSettingsChanged protocol.MessageID = 4
	IDGetAPI            protocol.MessageID = 5
)

// domainHandle is the value stored into the GetAPI slot.
const domainHandle uintptr = 0xD0

// ErrNoSuchMessage is returned by GetMessageID for unregistered pairs.
var ErrNoSuchMessage = errors.New("no such message")

// Call records one host call.
type Call struct {
	Op       string
	Endpoint protocol.EndpointID
	ID       protocol.MessageID
	Context  bridge.Context
}

// Timer records a RunOnMainThread request.
type Timer struct {
	Delay   time.Duration
	Context bridge.Context
}

type key struct{ namespace, name string }

// Bus is a scripted HostMessageBus.
type Bus struct {
	ids        map[key]protocol.MessageID
	Subscribed map[protocol.MessageID]bridge.Context
	Calls      []Call
	Lookups    int
	Released   []protocol.MessageID
	Settings   map[string]string
	Timers     []Timer

	// Domain is stored into the GetAPI slot. Nil leaves the slot empty.
	Domain *Domain

	// Missing marks host functions as absent, by operation name.
	Missing map[string]bool

	target *bridge.Loader
}

var _ bridge.HostMessageBus = (*Bus)(nil)

// NewBus creates a bus with the well-known ids and a default domain API.
func NewBus() *Bus {
	return &Bus{
		ids: map[key]protocol.MessageID{
			{protocol.Namespace, protocol.EvtOnGameStart}:       IDOnGameStart,
			{protocol.Namespace, protocol.EvtOnGameEnd}:         IDOnGameEnd,
			{protocol.Namespace, protocol.EvtOnPrepareFrame}:    IDOnPrepareFrame,
			{protocol.Namespace, protocol.EvtOnSettingsChanged}: IDOnSettingsChanged,
			{protocol.Namespace, protocol.MsgGetAPI}:            IDGetAPI,
		},
		Subscribed: make(map[protocol.MessageID]bridge.Context),
		Settings:   make(map[string]string),
		Missing:    make(map[string]bool),
		Domain:     NewDomain(),
	}
}

// Attach routes Fire, FireTimers and self-broadcasts into loader.
func (b *Bus) Attach(loader *bridge.Loader) {
	b.target = loader
}

// Define registers an extra namespace/name pair.
func (b *Bus) Define(namespace, name string, id protocol.MessageID) {
	b.ids[key{namespace, name}] = id
}

func (b *Bus) missing(op string) error {
	if b.Missing[op] {
		return &bridge.HostAPIUnavailableError{Operation: op}
	}
	return nil
}

func (b *Bus) record(c Call) {
	b.Calls = append(b.Calls, c)
}

// CallsTo returns the recorded calls of one operation.
func (b *Bus) CallsTo(op string) []Call {
	var out []Call
	for _, c := range b.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (b *Bus) GetMessageID(namespace, name string) (protocol.MessageID, error) {
	if err := b.missing("get_message_id"); err != nil {
		return 0, err
	}
	b.Lookups++
	id, ok := b.ids[key{namespace, name}]
	if !ok {
		return 0, ErrNoSuchMessage
	}
	b.record(Call{Op: "get_message_id", ID: id})
	return id, nil
}

func (b *Bus) Subscribe(endpoint protocol.EndpointID, id protocol.MessageID, ctx bridge.Context) error {
	if err := b.missing("subscribe"); err != nil {
		return err
	}
	b.record(Call{Op: "subscribe", Endpoint: endpoint, ID: id, Context: ctx})
	b.Subscribed[id] = ctx
	return nil
}

func (b *Bus) Unsubscribe(id protocol.MessageID) error {
	if err := b.missing("unsubscribe"); err != nil {
		return err
	}
	b.record(Call{Op: "unsubscribe", ID: id})
	delete(b.Subscribed, id)
	return nil
}

func (b *Bus) Broadcast(endpoint protocol.EndpointID, id protocol.MessageID, payload unsafe.Pointer) error {
	if err := b.missing("broadcast"); err != nil {
		return err
	}
	b.record(Call{Op: "broadcast", Endpoint: endpoint, ID: id})

	if id == IDGetAPI {
		if payload != nil && b.Domain != nil {
			*(*uintptr)(payload) = domainHandle
		}
		return nil
	}
	b.Fire(id)
	return nil
}

func (b *Bus) ReleaseMessageID(id protocol.MessageID) error {
	if err := b.missing("release_message_id"); err != nil {
		return err
	}
	b.Released = append(b.Released, id)
	return nil
}

func (b *Bus) GetSetting(namespace, name string) (string, error) {
	if err := b.missing("get_setting"); err != nil {
		return "", err
	}
	return b.Settings[namespace+"/"+name], nil
}

func (b *Bus) RunOnMainThread(delay time.Duration, ctx bridge.Context) error {
	if err := b.missing("run_on_main_thread"); err != nil {
		return err
	}
	b.Timers = append(b.Timers, Timer{Delay: delay, Context: ctx})
	return nil
}

func (b *Bus) DomainAPI(table uintptr) bridge.HostDomainAPI {
	if table != domainHandle || b.Domain == nil {
		return nil
	}
	return b.Domain
}

// Fire delivers id to the attached loader the way the host would.
// It reports whether a subscription existed on the host side.
func (b *Bus) Fire(id protocol.MessageID) bool {
	ctx, ok := b.Subscribed[id]
	if !ok || b.target == nil {
		return false
	}
	b.target.Trampoline(id, ctx)
	return true
}

// FireTimers runs every recorded timer in order and clears the queue.
func (b *Bus) FireTimers() {
	timers := b.Timers
	b.Timers = nil
	for _, t := range timers {
		if b.target != nil {
			b.target.TimerTrampoline(t.Context)
		}
	}
}
