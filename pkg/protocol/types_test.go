package protocol

import "testing"

func TestViewSetupFloatsRoundTrip(t *testing.T) {
	v := ViewSetup{
		ViewMode:               2,
		SceneScaleX:            1,
		SceneScaleZ:            3,
		FOV:                    45,
		InterpupillaryDistance: 63,
	}

	got := ViewSetupFromFloats(v.ViewMode, v.Floats())
	if got != v {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, v)
	}
}

func TestOptionUnitString(t *testing.T) {
	cases := map[OptionUnit]string{
		OptionUnitNone:    "none",
		OptionUnitPercent: "percent",
		OptionUnit(42):    "unknown",
	}
	for unit, want := range cases {
		if got := unit.String(); got != want {
			t.Errorf("OptionUnit(%d).String() = %s, want %s", unit, got, want)
		}
	}
}

func TestOptionSpecKey(t *testing.T) {
	spec := OptionSpec{PageID: "rainbow", OptionID: "color"}
	if spec.Key() != "rainbow/color" {
		t.Errorf("Key() = %s, want rainbow/color", spec.Key())
	}
}

func TestEventsOrder(t *testing.T) {
	want := []string{EvtOnGameStart, EvtOnGameEnd, EvtOnPrepareFrame, EvtOnSettingsChanged}
	if len(Events) != len(want) {
		t.Fatalf("len(Events) = %d, want %d", len(Events), len(want))
	}
	for i := range want {
		if Events[i] != want[i] {
			t.Errorf("Events[%d] = %s, want %s", i, Events[i], want[i])
		}
	}
}

func TestPluginNamespaces(t *testing.T) {
	namespaces := []string{Namespace, PinMAMENamespace, ControllerNamespace}
	seen := make(map[string]bool)
	for _, ns := range namespaces {
		if ns == "" || seen[ns] {
			t.Errorf("namespace %q empty or duplicated", ns)
		}
		seen[ns] = true
	}

	for _, msg := range []string{CtlGetDMDSource, CtlGetRenderDMD, CtlGetIdentifyDMD} {
		if msg == "" {
			t.Error("controller message name is empty")
		}
	}
	if PinMAMEEvtOnGameStart != EvtOnGameStart || PinMAMEEvtOnGameEnd != EvtOnGameEnd {
		t.Error("PinMAME game events share the VPX event names")
	}
}
