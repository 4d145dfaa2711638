package emulator

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

func TestDomain_GetOption(t *testing.T) {
	h := newTestHost(t, Options{})
	d := h.Domain()
	spec := protocol.OptionSpec{PageID: "rainbow", OptionID: "color", Min: 0, Max: 1, Step: 1, Default: 0}

	v, err := d.GetOption(spec)
	require.NoError(t, err)
	assert.Zero(t, v)

	d.SetOverride("rainbow/color", 1)
	o, ok := d.Option("rainbow/color")
	require.True(t, ok)
	assert.Equal(t, float32(1), o.Value)

	v, err = d.GetOption(spec)
	require.NoError(t, err)
	assert.Equal(t, float32(1), v)
}

func TestDomain_OptionNormalize(t *testing.T) {
	tests := []struct {
		name string
		spec protocol.OptionSpec
		in   float32
		want float32
	}{
		{"above max", protocol.OptionSpec{Min: 0, Max: 1, Step: 1}, 5, 1},
		{"below min", protocol.OptionSpec{Min: 10, Max: 100, Step: 5}, -3, 10},
		{"snap to step", protocol.OptionSpec{Min: 0, Max: 100, Step: 5}, 42, 40},
		{"no step", protocol.OptionSpec{Min: 0, Max: 1}, 0.25, 0.25},
		{"unbounded", protocol.OptionSpec{}, 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, normalize(tt.spec, tt.in), 1e-6)
		})
	}
}

func TestDomain_Options(t *testing.T) {
	d := newTestHost(t, Options{}).Domain()
	_, _ = d.GetOption(protocol.OptionSpec{PageID: "b", OptionID: "x"})
	_, _ = d.GetOption(protocol.OptionSpec{PageID: "a", OptionID: "y"})

	opts := d.Options()
	require.Len(t, opts, 2)
	assert.Equal(t, "a/y", opts[0].Spec.Key())
}

func TestDomain_Notifications(t *testing.T) {
	h := newTestHost(t, Options{})
	d := h.Domain()

	a, err := d.PushNotification("Hello", 2*time.Second)
	require.NoError(t, err)
	b, err := d.PushNotification("World", 5*time.Second)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, d.ActiveNotifications(), 2)

	h.Advance(3 * time.Second)
	active := d.ActiveNotifications()
	require.Len(t, active, 1)
	assert.Equal(t, b, active[0].Handle)

	require.NoError(t, d.UpdateNotification(a, "Again", time.Second))
	n, ok := d.Notification(a)
	require.True(t, ok)
	assert.Equal(t, "Again", n.Message)
	assert.Equal(t, 1, n.Updates)
	assert.Len(t, d.ActiveNotifications(), 2)

	var unknown *UnknownNotificationError
	assert.ErrorAs(t, d.UpdateNotification(99, "x", time.Second), &unknown)
	assert.Equal(t, float64(2), testutil.ToFloat64(h.Metrics().Notifications))
}

func TestDomain_ViewAndPrerendering(t *testing.T) {
	d := newTestHost(t, Options{}).Domain()
	assert.True(t, d.StaticPrerendering())

	require.NoError(t, d.DisableStaticPrerendering(true))
	assert.False(t, d.StaticPrerendering())

	view := protocol.ViewSetup{ViewMode: 1, FOV: 45}
	require.NoError(t, d.SetActiveViewSetup(view))
	got, err := d.GetActiveViewSetup()
	require.NoError(t, err)
	assert.Equal(t, view, got)
}
