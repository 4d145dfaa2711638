//go:build cgo && !wasip1

package cabi

import (
	"testing"
	"time"

	"github.com/woxQAQ/vpxplugin-go/internal/bridge"
)

func TestMillis(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want uint
	}{
		{0, 0},
		{1500 * time.Millisecond, 1500},
		{5 * time.Second, 5000},
		{-time.Second, 0},
		{999 * time.Microsecond, 0},
	}
	for _, tt := range tests {
		if got := uint(millis(tt.in)); got != tt.want {
			t.Errorf("millis(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRegisterTwicePanics(t *testing.T) {
	saved := factory
	t.Cleanup(func() { factory = saved })

	factory = nil
	Register(func() bridge.Plugin { return nil })

	defer func() {
		if recover() == nil {
			t.Error("second Register() should panic")
		}
	}()
	Register(func() bridge.Plugin { return nil })
}

func TestDispatchBeforeLoad(t *testing.T) {
	if loader != nil {
		t.Skip("loader already initialised")
	}
	// Must not touch a nil loader.
	vpxbridgeDispatch(1, 1, nil)
	vpxbridgeTimer(1)
}
