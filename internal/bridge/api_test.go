package bridge_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woxQAQ/vpxplugin-go/internal/bridge"
	"github.com/woxQAQ/vpxplugin-go/internal/bridge/bridgetest"
	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// loaded returns the API of a freshly loaded empty plugin.
func loaded(t *testing.T) (*bridge.API, *bridge.Loader, *bridgetest.Bus) {
	t.Helper()
	p := &testPlugin{}
	loader, bus := newLoader(t, p)
	require.NoError(t, loader.Load(bridgetest.Endpoint, bus))
	t.Cleanup(func() {
		if loader.State() == bridge.StateLoaded {
			_ = loader.Unload()
		}
	})
	return p.api, loader, bus
}

func TestAPI_Resolve(t *testing.T) {
	api, _, bus := loaded(t)
	before := bus.Lookups

	id, err := api.Resolve(protocol.Namespace, protocol.EvtOnPrepareFrame)
	require.NoError(t, err)
	assert.Equal(t, bridgetest.IDOnPrepareFrame, id)
	assert.Equal(t, before+1, bus.Lookups)

	// No caching: every call asks the host.
	_, err = api.Resolve(protocol.Namespace, protocol.EvtOnPrepareFrame)
	require.NoError(t, err)
	assert.Equal(t, before+2, bus.Lookups)
}

func TestAPI_ResolveUnknown(t *testing.T) {
	api, _, _ := loaded(t)

	_, err := api.Resolve("Other", "Nothing")
	var unknown *bridge.UnknownMessageError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Other", unknown.Namespace)
	assert.True(t, errors.Is(err, bridgetest.ErrNoSuchMessage))
}

func TestAPI_ResolveEmbeddedNUL(t *testing.T) {
	api, _, bus := loaded(t)
	before := bus.Lookups

	_, err := api.Resolve(protocol.Namespace, "OnGame\x00Start")
	var encoding *bridge.EncodingError
	require.ErrorAs(t, err, &encoding)
	assert.Equal(t, "message name", encoding.Field)
	assert.Equal(t, before, bus.Lookups, "host must not be called")
}

func TestAPI_SubscribeDuplicate(t *testing.T) {
	api, loader, bus := loaded(t)
	calls := 0

	id, err := api.Subscribe(protocol.Namespace, protocol.EvtOnGameStart, func(protocol.MessageID) { calls++ })
	require.NoError(t, err)
	assert.Equal(t, bridgetest.IDOnGameStart, id)

	_, err = api.Subscribe(protocol.Namespace, protocol.EvtOnGameStart, func(protocol.MessageID) { calls += 100 })
	var dup *bridge.DuplicateSubscriptionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, bridgetest.IDOnGameStart, dup.ID)

	assert.Len(t, bus.CallsTo("subscribe"), 1)
	assert.Equal(t, 1, loader.Session().Subscriptions().Len())

	bus.Fire(bridgetest.IDOnGameStart)
	assert.Equal(t, 1, calls)
}

func TestAPI_SubscribeNilCallback(t *testing.T) {
	api, _, bus := loaded(t)

	_, err := api.Subscribe(protocol.Namespace, protocol.EvtOnGameStart, nil)
	require.Error(t, err)
	assert.Empty(t, bus.CallsTo("subscribe"))
}

func TestAPI_SubscribeReceivesID(t *testing.T) {
	api, _, bus := loaded(t)
	var got protocol.MessageID

	_, err := api.Subscribe(protocol.Namespace, protocol.EvtOnSettingsChanged, func(id protocol.MessageID) { got = id })
	require.NoError(t, err)

	bus.Fire(bridgetest.IDOnSettingsChanged)
	assert.Equal(t, bridgetest.IDOnSettingsChanged, got)
}

func TestAPI_SubscribeHostFailure(t *testing.T) {
	api, loader, bus := loaded(t)
	bus.Missing["subscribe"] = true

	_, err := api.Subscribe(protocol.Namespace, protocol.EvtOnGameEnd, func(protocol.MessageID) {})
	var unavailable *bridge.HostAPIUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Zero(t, loader.Session().Subscriptions().Len())

	// The failed registration left nothing behind; a retry succeeds.
	delete(bus.Missing, "subscribe")
	_, err = api.Subscribe(protocol.Namespace, protocol.EvtOnGameEnd, func(protocol.MessageID) {})
	require.NoError(t, err)
}

func TestAPI_BroadcastToSelf(t *testing.T) {
	api, _, bus := loaded(t)
	bus.Define("Test", "Ping", 6)
	var got []protocol.MessageID

	_, err := api.Subscribe("Test", "Ping", func(id protocol.MessageID) { got = append(got, id) })
	require.NoError(t, err)

	require.NoError(t, api.Broadcast(api.Endpoint(), "Test", "Ping"))
	assert.Equal(t, []protocol.MessageID{6}, got)
}

func TestAPI_Setting(t *testing.T) {
	api, _, bus := loaded(t)
	bus.Settings["Player/Volume"] = "80"

	v, err := api.Setting("Player", "Volume")
	require.NoError(t, err)
	assert.Equal(t, "80", v)

	v, err = api.Setting("Player", "Missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	bus.Settings["Player/Bad"] = "\xff\xfe"
	_, err = api.Setting("Player", "Bad")
	var encoding *bridge.EncodingError
	assert.ErrorAs(t, err, &encoding)

	_, err = api.Setting("Play\x00er", "Volume")
	assert.ErrorAs(t, err, &encoding)
}

func TestAPI_RunOnMainThreadHostFailure(t *testing.T) {
	api, loader, bus := loaded(t)
	bus.Missing["run_on_main_thread"] = true

	err := api.RunOnMainThread(time.Second, func() {})
	require.Error(t, err)
	assert.Zero(t, loader.Session().Subscriptions().PendingTimers())
}

func TestAPI_TableInfo(t *testing.T) {
	api, _, _ := loaded(t)

	info, err := api.TableInfo()
	require.NoError(t, err)
	assert.Equal(t, "/tables/test.vpx", info.Path)
	assert.Equal(t, float32(1000), info.Width)
	assert.Equal(t, float32(2000), info.Height)
}

func TestAPI_Option(t *testing.T) {
	api, _, bus := loaded(t)
	spec := protocol.OptionSpec{
		PageID:   "FPS",
		OptionID: "Enable",
		Show:     protocol.ShowUI,
		Name:     "Show FPS",
		Min:      0,
		Max:      1,
		Step:     1,
		Default:  1,
		Values:   []string{"Hide", "Show"},
	}

	v, err := api.Option(spec)
	require.NoError(t, err)
	assert.Equal(t, float32(1), v)
	require.Len(t, bus.Domain.Specs, 1)
	assert.Equal(t, spec, bus.Domain.Specs[0])

	bus.Domain.Options["FPS/Enable"] = 0
	v, err = api.Option(spec)
	require.NoError(t, err)
	assert.Zero(t, v)

	spec.Values = []string{"Hi\x00de"}
	_, err = api.Option(spec)
	var encoding *bridge.EncodingError
	assert.ErrorAs(t, err, &encoding)
}

func TestAPI_Notifications(t *testing.T) {
	api, _, bus := loaded(t)

	h, err := api.PushNotification("Hello", 2*time.Second)
	require.NoError(t, err)
	assert.NotZero(t, h)

	require.NoError(t, api.UpdateNotification(h, "Bye", time.Second))
	require.Len(t, bus.Domain.Notifications, 2)
	assert.Equal(t, bridgetest.Notification{Handle: h, Message: "Bye", Length: time.Second}, bus.Domain.Notifications[1])

	_, err = api.PushNotification("a\x00b", time.Second)
	var encoding *bridge.EncodingError
	assert.ErrorAs(t, err, &encoding)
	assert.Len(t, bus.Domain.Notifications, 2)
}

func TestAPI_ViewSetup(t *testing.T) {
	api, _, bus := loaded(t)

	var floats [19]float32
	for i := range floats {
		floats[i] = float32(i) / 2
	}
	view := protocol.ViewSetupFromFloats(2, floats)
	require.NoError(t, api.SetActiveViewSetup(view))

	got, err := api.ActiveViewSetup()
	require.NoError(t, err)
	assert.Equal(t, view, got)
	assert.Equal(t, view, bus.Domain.View)
}

func TestAPI_DisableStaticPrerendering(t *testing.T) {
	api, _, bus := loaded(t)

	require.NoError(t, api.DisableStaticPrerendering(true))
	assert.False(t, bus.Domain.Prerendering)
	require.NoError(t, api.DisableStaticPrerendering(false))
	assert.True(t, bus.Domain.Prerendering)
}

func TestAPI_DomainFunctionMissing(t *testing.T) {
	api, _, bus := loaded(t)
	bus.Domain.Missing["get_active_view_setup"] = true

	_, err := api.ActiveViewSetup()
	var unavailable *bridge.HostAPIUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "get_active_view_setup", unavailable.Operation)
}
