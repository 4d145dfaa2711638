package protocol

// Wire-level types shared by the plugin bridge, its bindings and the host emulator.
// Everything here is a plain value: nothing references host-owned memory.

// MessageID identifies a (namespace, name) pair on the host message bus.
// It is assigned by the host and only valid for one load/unload cycle.
type MessageID uint32

// EndpointID identifies a plugin session for addressed broadcasts.
type EndpointID uint32

// NotificationHandle identifies an on-screen notification pushed by a plugin.
type NotificationHandle uint32

// Well-known message names of the VPX namespace.
const (
	Namespace = "VPX"

	MsgGetAPI            = "GetAPI"
	EvtOnGameStart       = "OnGameStart"
	EvtOnGameEnd         = "OnGameEnd"
	EvtOnPrepareFrame    = "OnPrepareFrame"
	EvtOnSettingsChanged = "OnSettingsChanged"
)

// Messages of the PinMAME plugin, broadcast by ROM based tables.
const (
	PinMAMENamespace = "PinMAME"

	PinMAMEEvtOnGameStart = "OnGameStart"
	PinMAMEEvtOnGameEnd   = "OnGameEnd"
)

// Messages of the controller plugin API, used to query DMD sources.
const (
	ControllerNamespace = "Controller"

	CtlGetDMDSource   = "GetDMDSource"
	CtlGetRenderDMD   = "GetRenderDMD"
	CtlGetIdentifyDMD = "GetIdentifyDMD"
)

// Events lists the VPX events a plugin may subscribe to, in host registration order.
var Events = []string{
	EvtOnGameStart,
	EvtOnGameEnd,
	EvtOnPrepareFrame,
	EvtOnSettingsChanged,
}

// TableInfo describes the table currently loaded by the host.
type TableInfo struct {
	Path   string  `json:"path" yaml:"path"`
	Width  float32 `json:"width" yaml:"width"`
	Height float32 `json:"height" yaml:"height"`
}

// ViewSetup mirrors VPXViewSetupDef.
type ViewSetup struct {
	ViewMode               int32   `json:"viewMode" yaml:"view_mode"`
	SceneScaleX            float32 `json:"sceneScaleX" yaml:"scene_scale_x"`
	SceneScaleY            float32 `json:"sceneScaleY" yaml:"scene_scale_y"`
	SceneScaleZ            float32 `json:"sceneScaleZ" yaml:"scene_scale_z"`
	ViewX                  float32 `json:"viewX" yaml:"view_x"`
	ViewY                  float32 `json:"viewY" yaml:"view_y"`
	ViewZ                  float32 `json:"viewZ" yaml:"view_z"`
	LookAt                 float32 `json:"lookAt" yaml:"look_at"`
	ViewportRotation       float32 `json:"viewportRotation" yaml:"viewport_rotation"`
	FOV                    float32 `json:"fov" yaml:"fov"`
	Layback                float32 `json:"layback" yaml:"layback"`
	ViewHOfs               float32 `json:"viewHOfs" yaml:"view_h_ofs"`
	ViewVOfs               float32 `json:"viewVOfs" yaml:"view_v_ofs"`
	WindowTopZOfs          float32 `json:"windowTopZOfs" yaml:"window_top_z_ofs"`
	WindowBottomZOfs       float32 `json:"windowBottomZOfs" yaml:"window_bottom_z_ofs"`
	ScreenWidth            float32 `json:"screenWidth" yaml:"screen_width"`
	ScreenHeight           float32 `json:"screenHeight" yaml:"screen_height"`
	ScreenInclination      float32 `json:"screenInclination" yaml:"screen_inclination"`
	RealToVirtualScale     float32 `json:"realToVirtualScale" yaml:"real_to_virtual_scale"`
	InterpupillaryDistance float32 `json:"interpupillaryDistance" yaml:"interpupillary_distance"`
}

// Floats returns the 19 float fields of v in declaration order.
// Bindings use it to marshal the record into flat host memory.
func (v ViewSetup) Floats() [19]float32 {
	return [19]float32{
		v.SceneScaleX, v.SceneScaleY, v.SceneScaleZ,
		v.ViewX, v.ViewY, v.ViewZ,
		v.LookAt, v.ViewportRotation, v.FOV, v.Layback,
		v.ViewHOfs, v.ViewVOfs, v.WindowTopZOfs, v.WindowBottomZOfs,
		v.ScreenWidth, v.ScreenHeight, v.ScreenInclination,
		v.RealToVirtualScale, v.InterpupillaryDistance,
	}
}

// ViewSetupFromFloats is the inverse of ViewSetup.Floats.
func ViewSetupFromFloats(mode int32, f [19]float32) ViewSetup {
	return ViewSetup{
		ViewMode:               mode,
		SceneScaleX:            f[0],
		SceneScaleY:            f[1],
		SceneScaleZ:            f[2],
		ViewX:                  f[3],
		ViewY:                  f[4],
		ViewZ:                  f[5],
		LookAt:                 f[6],
		ViewportRotation:       f[7],
		FOV:                    f[8],
		Layback:                f[9],
		ViewHOfs:               f[10],
		ViewVOfs:               f[11],
		WindowTopZOfs:          f[12],
		WindowBottomZOfs:       f[13],
		ScreenWidth:            f[14],
		ScreenHeight:           f[15],
		ScreenInclination:      f[16],
		RealToVirtualScale:     f[17],
		InterpupillaryDistance: f[18],
	}
}

// OptionUnit is the display unit of a plugin option.
type OptionUnit int32

const (
	OptionUnitNone OptionUnit = iota
	OptionUnitPercent
)

// String returns a string representation of the unit.
func (u OptionUnit) String() string {
	switch u {
	case OptionUnitNone:
		return "none"
	case OptionUnitPercent:
		return "percent"
	default:
		return "unknown"
	}
}

// ShowMask selects where the host shows an option.
type ShowMask uint32

const (
	ShowUI    ShowMask = 1 << 0
	ShowTweak ShowMask = 1 << 1
)

// OptionSpec declares a plugin option and its bounds.
// When Values is non-empty the option is a choice list and the host returns
// the selected index as a float.
type OptionSpec struct {
	PageID   string     `json:"pageId"`
	OptionID string     `json:"optionId"`
	Show     ShowMask   `json:"show"`
	Name     string     `json:"name"`
	Min      float32    `json:"min"`
	Max      float32    `json:"max"`
	Step     float32    `json:"step"`
	Default  float32    `json:"default"`
	Unit     OptionUnit `json:"unit"`
	Values   []string   `json:"values,omitempty"`
}

// Key returns the page/option pair identifying the option on the host.
func (o OptionSpec) Key() string {
	return o.PageID + "/" + o.OptionID
}
