package bridgetest

import (
	"time"

	"github.com/woxQAQ/vpxplugin-go/internal/bridge"
	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// Notification records a pushed or updated notification.
type Notification struct {
	Handle  protocol.NotificationHandle
	Message string
	Length  time.Duration
}

// Domain is an in-memory HostDomainAPI.
type Domain struct {
	Table         protocol.TableInfo
	View          protocol.ViewSetup
	Options       map[string]float32
	Specs         []protocol.OptionSpec
	Notifications []Notification
	Prerendering  bool
	Missing       map[string]bool

	nextHandle protocol.NotificationHandle
}

var _ bridge.HostDomainAPI = (*Domain)(nil)

// NewDomain creates a domain with a sample table.
func NewDomain() *Domain {
	return &Domain{
		Table: protocol.TableInfo{
			Path:   "/tables/test.vpx",
			Width:  1000,
			Height: 2000,
		},
		Options:      make(map[string]float32),
		Missing:      make(map[string]bool),
		Prerendering: true,
	}
}

func (d *Domain) missing(op string) error {
	if d.Missing[op] {
		return &bridge.HostAPIUnavailableError{Operation: op}
	}
	return nil
}

func (d *Domain) GetTableInfo() (protocol.TableInfo, error) {
	if err := d.missing("get_table_info"); err != nil {
		return protocol.TableInfo{}, err
	}
	return d.Table, nil
}

func (d *Domain) GetOption(spec protocol.OptionSpec) (float32, error) {
	if err := d.missing("get_option"); err != nil {
		return 0, err
	}
	d.Specs = append(d.Specs, spec)
	if v, ok := d.Options[spec.Key()]; ok {
		return v, nil
	}
	return spec.Default, nil
}

func (d *Domain) PushNotification(message string, length time.Duration) (protocol.NotificationHandle, error) {
	if err := d.missing("push_notification"); err != nil {
		return 0, err
	}
	d.nextHandle++
	d.Notifications = append(d.Notifications, Notification{Handle: d.nextHandle, Message: message, Length: length})
	return d.nextHandle, nil
}

func (d *Domain) UpdateNotification(handle protocol.NotificationHandle, message string, length time.Duration) error {
	if err := d.missing("update_notification"); err != nil {
		return err
	}
	d.Notifications = append(d.Notifications, Notification{Handle: handle, Message: message, Length: length})
	return nil
}

func (d *Domain) DisableStaticPrerendering(disable bool) error {
	if err := d.missing("disable_static_prerendering"); err != nil {
		return err
	}
	d.Prerendering = !disable
	return nil
}

func (d *Domain) GetActiveViewSetup() (protocol.ViewSetup, error) {
	if err := d.missing("get_active_view_setup"); err != nil {
		return protocol.ViewSetup{}, err
	}
	return d.View, nil
}

func (d *Domain) SetActiveViewSetup(view protocol.ViewSetup) error {
	if err := d.missing("set_active_view_setup"); err != nil {
		return err
	}
	d.View = view
	return nil
}
