package emulator

import (
	"math"
	"sort"
	"time"

	"github.com/woxQAQ/vpxplugin-go/internal/bridge"
	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// Option is a plugin option as declared through GetOption.
type Option struct {
	Spec  protocol.OptionSpec
	Value float32
}

// Notification is an on-screen message.
type Notification struct {
	Handle  protocol.NotificationHandle
	Message string
	Length  time.Duration
	Posted  time.Duration
	Updates int
}

// Expired reports whether the notification is no longer shown at now.
func (n *Notification) Expired(now time.Duration) bool {
	return now >= n.Posted+n.Length
}

// Domain is the VPX state served to plugins through GetAPI.
type Domain struct {
	now     func() time.Duration
	metrics *Metrics

	table       protocol.TableInfo
	view        protocol.ViewSetup
	options     map[string]*Option
	overrides   map[string]float32
	notes       map[protocol.NotificationHandle]*Notification
	nextHandle  protocol.NotificationHandle
	prerenderOn bool
}

var _ bridge.HostDomainAPI = (*Domain)(nil)

func newDomain(now func() time.Duration, metrics *Metrics) *Domain {
	return &Domain{
		now:         now,
		metrics:     metrics,
		options:     make(map[string]*Option),
		overrides:   make(map[string]float32),
		notes:       make(map[protocol.NotificationHandle]*Notification),
		prerenderOn: true,
	}
}

// SetTableInfo replaces the loaded table.
func (d *Domain) SetTableInfo(info protocol.TableInfo) {
	d.table = info
}

func (d *Domain) GetTableInfo() (protocol.TableInfo, error) {
	return d.table, nil
}

// GetOption declares spec and returns its value: the override set by the
// user, else the default, clamped to [Min, Max] and snapped to Step.
func (d *Domain) GetOption(spec protocol.OptionSpec) (float32, error) {
	key := spec.Key()
	v, ok := d.overrides[key]
	if !ok {
		v = spec.Default
	}
	v = normalize(spec, v)
	d.options[key] = &Option{Spec: spec, Value: v}
	return v, nil
}

func normalize(spec protocol.OptionSpec, v float32) float32 {
	if spec.Step > 0 {
		n := math.Round(float64((v - spec.Min) / spec.Step))
		v = spec.Min + float32(n)*spec.Step
	}
	if spec.Max > spec.Min {
		v = min(max(v, spec.Min), spec.Max)
	}
	return v
}

// SetOverride stores a user value for the option key ("page/option").
// Declared options pick it up immediately, others on declaration.
func (d *Domain) SetOverride(key string, value float32) {
	d.overrides[key] = value
	if o, ok := d.options[key]; ok {
		o.Value = normalize(o.Spec, value)
	}
}

// Option returns a declared option.
func (d *Domain) Option(key string) (Option, bool) {
	o, ok := d.options[key]
	if !ok {
		return Option{}, false
	}
	return *o, true
}

// Options returns the declared options ordered by key.
func (d *Domain) Options() []Option {
	keys := make([]string, 0, len(d.options))
	for k := range d.options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Option, 0, len(keys))
	for _, k := range keys {
		out = append(out, *d.options[k])
	}
	return out
}

func (d *Domain) PushNotification(message string, length time.Duration) (protocol.NotificationHandle, error) {
	d.nextHandle++
	d.notes[d.nextHandle] = &Notification{
		Handle:  d.nextHandle,
		Message: message,
		Length:  length,
		Posted:  d.now(),
	}
	d.metrics.Notifications.Inc()
	return d.nextHandle, nil
}

func (d *Domain) UpdateNotification(handle protocol.NotificationHandle, message string, length time.Duration) error {
	n, ok := d.notes[handle]
	if !ok {
		return &UnknownNotificationError{Handle: handle}
	}
	n.Message = message
	n.Length = length
	n.Posted = d.now()
	n.Updates++
	return nil
}

// Notification returns a pushed notification.
func (d *Domain) Notification(handle protocol.NotificationHandle) (Notification, bool) {
	n, ok := d.notes[handle]
	if !ok {
		return Notification{}, false
	}
	return *n, true
}

// ActiveNotifications returns the notifications still shown, oldest handle first.
func (d *Domain) ActiveNotifications() []Notification {
	now := d.now()
	var out []Notification
	for _, n := range d.notes {
		if !n.Expired(now) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

func (d *Domain) DisableStaticPrerendering(disable bool) error {
	d.prerenderOn = !disable
	return nil
}

// StaticPrerendering reports whether static prerendering is enabled.
func (d *Domain) StaticPrerendering() bool {
	return d.prerenderOn
}

func (d *Domain) GetActiveViewSetup() (protocol.ViewSetup, error) {
	return d.view, nil
}

func (d *Domain) SetActiveViewSetup(view protocol.ViewSetup) error {
	d.view = view
	return nil
}
