package bridge

import (
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// API is the surface handed to plugins. It validates and forwards; every call
// is a single round trip to the host and any string the host returns is copied
// before the call returns.
type API struct {
	s *Session
}

// Endpoint returns the endpoint id the host assigned to this plugin.
func (a *API) Endpoint() protocol.EndpointID {
	return a.s.endpoint
}

// Logger returns the plugin's logger.
func (a *API) Logger() *zap.Logger {
	return a.s.pluginLogger
}

// Resolve looks up the message id of namespace/name.
func (a *API) Resolve(namespace, name string) (protocol.MessageID, error) {
	return a.s.resolver.Resolve(namespace, name)
}

// Subscribe registers cb for namespace/name. At most one callback may be
// registered per message.
func (a *API) Subscribe(namespace, name string, cb Callback) (protocol.MessageID, error) {
	a.s.logger.Debug("subscribe", zap.String("namespace", namespace), zap.String("name", name))

	if !a.s.state.acceptsSubscriptions() {
		return 0, &LifecycleViolationError{Operation: "subscribe", State: a.s.state}
	}
	if cb == nil {
		return 0, fmt.Errorf("subscribe %s.%s: nil callback", namespace, name)
	}

	id, err := a.s.resolver.Resolve(namespace, name)
	if err != nil {
		return 0, err
	}
	if err := a.s.subs.Register(id, namespace, name, cb); err != nil {
		return 0, err
	}
	return id, nil
}

// Broadcast sends namespace/name to endpoint without payload.
func (a *API) Broadcast(endpoint protocol.EndpointID, namespace, name string) error {
	a.s.logger.Debug("broadcast",
		zap.Uint32("endpoint", uint32(endpoint)),
		zap.String("namespace", namespace),
		zap.String("name", name),
	)

	id, err := a.s.resolver.Resolve(namespace, name)
	if err != nil {
		return err
	}
	return a.s.bus.Broadcast(endpoint, id, nil)
}

// Setting reads a host setting.
func (a *API) Setting(namespace, name string) (string, error) {
	if err := checkCStrings("namespace", namespace, "setting name", name); err != nil {
		return "", err
	}
	value, err := a.s.bus.GetSetting(namespace, name)
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(value) {
		return "", &EncodingError{Field: "setting value", Value: value, Reason: "invalid UTF-8"}
	}
	return value, nil
}

// RunOnMainThread asks the host to run fn once on its main thread after delay.
// Timers still pending at unload never run.
func (a *API) RunOnMainThread(delay time.Duration, fn func()) error {
	if !a.s.state.acceptsSubscriptions() {
		return &LifecycleViolationError{Operation: "schedule", State: a.s.state}
	}
	if fn == nil {
		return fmt.Errorf("run on main thread: nil function")
	}

	ctx := a.s.subs.Schedule(fn)
	if err := a.s.bus.RunOnMainThread(delay, ctx); err != nil {
		a.s.subs.Cancel(ctx)
		return err
	}
	return nil
}

func (a *API) domain(op string) (HostDomainAPI, error) {
	if a.s.domain == nil {
		return nil, &HostAPIUnavailableError{Operation: op}
	}
	return a.s.domain, nil
}

// TableInfo returns the table currently loaded by the host.
func (a *API) TableInfo() (protocol.TableInfo, error) {
	a.s.logger.Debug("get_table_info")

	d, err := a.domain("get_table_info")
	if err != nil {
		return protocol.TableInfo{}, err
	}
	info, err := d.GetTableInfo()
	if err != nil {
		return protocol.TableInfo{}, err
	}
	if !utf8.ValidString(info.Path) {
		return protocol.TableInfo{}, &EncodingError{Field: "table path", Value: info.Path, Reason: "invalid UTF-8"}
	}
	return info, nil
}

// Option declares an option and returns its current value. For choice lists
// the value is the index of the selected entry in spec.Values.
func (a *API) Option(spec protocol.OptionSpec) (float32, error) {
	a.s.logger.Debug("get_option", zap.String("option", spec.Name))

	if err := checkCStrings(
		"page id", spec.PageID,
		"option id", spec.OptionID,
		"option name", spec.Name,
	); err != nil {
		return 0, err
	}
	for _, v := range spec.Values {
		if err := checkCString("option value", v); err != nil {
			return 0, err
		}
	}

	d, err := a.domain("get_option")
	if err != nil {
		return 0, err
	}
	return d.GetOption(spec)
}

// PushNotification shows message on screen for length.
func (a *API) PushNotification(message string, length time.Duration) (protocol.NotificationHandle, error) {
	a.s.logger.Debug("push_notification",
		zap.String("message", message),
		zap.Duration("length", length),
	)

	if err := checkCString("notification", message); err != nil {
		return 0, err
	}
	d, err := a.domain("push_notification")
	if err != nil {
		return 0, err
	}
	return d.PushNotification(message, length)
}

// UpdateNotification replaces the text and duration of a pushed notification.
func (a *API) UpdateNotification(handle protocol.NotificationHandle, message string, length time.Duration) error {
	if err := checkCString("notification", message); err != nil {
		return err
	}
	d, err := a.domain("update_notification")
	if err != nil {
		return err
	}
	return d.UpdateNotification(handle, message, length)
}

// DisableStaticPrerendering toggles the host's static prerendering.
func (a *API) DisableStaticPrerendering(disable bool) error {
	d, err := a.domain("disable_static_prerendering")
	if err != nil {
		return err
	}
	return d.DisableStaticPrerendering(disable)
}

// ActiveViewSetup returns the active view setup.
func (a *API) ActiveViewSetup() (protocol.ViewSetup, error) {
	a.s.logger.Debug("get_active_view_setup")

	d, err := a.domain("get_active_view_setup")
	if err != nil {
		return protocol.ViewSetup{}, err
	}
	return d.GetActiveViewSetup()
}

// SetActiveViewSetup replaces the active view setup.
func (a *API) SetActiveViewSetup(view protocol.ViewSetup) error {
	d, err := a.domain("set_active_view_setup")
	if err != nil {
		return err
	}
	return d.SetActiveViewSetup(view)
}
