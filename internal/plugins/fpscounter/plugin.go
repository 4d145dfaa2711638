// Package fpscounter is a sample plugin that logs the frame rate and greets
// the player when a game starts.
package fpscounter

import (
	"time"

	"go.uber.org/zap"

	"github.com/woxQAQ/vpxplugin-go/internal/bridge"
	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// Greeting is pushed as a notification on game start.
const Greeting = "Hello World"

// GreetingLength is how long the greeting stays on screen.
const GreetingLength = 5 * time.Second

// Plugin is the FPS counter plugin.
type Plugin struct {
	api     *bridge.API
	logger  *zap.Logger
	counter *Counter
	now     func() time.Time

	// LastFPS is the most recent rate reported.
	LastFPS float64
	// Greeting is the handle of the game start notification.
	Greeting protocol.NotificationHandle
}

// New returns a plugin measuring with the wall clock.
func New() bridge.Plugin {
	return NewWithClock(time.Now)
}

// NewWithClock returns a plugin measuring with now.
func NewWithClock(now func() time.Time) *Plugin {
	return &Plugin{now: now}
}

func (p *Plugin) OnLoad(api *bridge.API) error {
	p.api = api
	p.logger = api.Logger()
	p.counter = NewCounter(p.now)
	p.logger.Info("Plugin loading")

	for _, sub := range []struct {
		name string
		cb   bridge.Callback
	}{
		{protocol.EvtOnGameStart, p.onGameStart},
		{protocol.EvtOnGameEnd, p.onGameEnd},
		{protocol.EvtOnPrepareFrame, p.onPrepareFrame},
		{protocol.EvtOnSettingsChanged, p.onSettingsChanged},
	} {
		if _, err := api.Subscribe(protocol.Namespace, sub.name, sub.cb); err != nil {
			return err
		}
	}
	return nil
}

func (p *Plugin) OnUnload() {
	p.logger.Info("Plugin unloading")
}

func (p *Plugin) onGameStart(id protocol.MessageID) {
	p.logger.Info("Game is starting", zap.Uint32("event_id", uint32(id)))

	if view, err := p.api.ActiveViewSetup(); err != nil {
		p.logger.Warn("Failed to read view setup", zap.Error(err))
	} else {
		p.logger.Info("Active view setup", zap.Int32("view_mode", view.ViewMode))
	}

	if table, err := p.api.TableInfo(); err != nil {
		p.logger.Warn("Failed to read table info", zap.Error(err))
	} else {
		p.logger.Info("Active table", zap.String("path", table.Path))
	}

	handle, err := p.api.PushNotification(Greeting, GreetingLength)
	if err != nil {
		p.logger.Warn("Failed to push notification", zap.Error(err))
		return
	}
	p.Greeting = handle
}

func (p *Plugin) onGameEnd(id protocol.MessageID) {
	p.logger.Info("Game is ending", zap.Uint32("event_id", uint32(id)))
}

func (p *Plugin) onPrepareFrame(protocol.MessageID) {
	if fps, ok := p.counter.Update(); ok {
		p.LastFPS = fps
		p.logger.Info("FPS", zap.Float64("fps", fps))
	}
}

func (p *Plugin) onSettingsChanged(protocol.MessageID) {
	p.logger.Info("Settings changed")
}
