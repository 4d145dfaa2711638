package bridge

// State represents the lifecycle state of the plugin session.
type State int

// Lifecycle states.
const (
	// StateUnloaded - No session exists.
	StateUnloaded State = iota

	// StateLoading - Handshake and OnLoad are running.
	StateLoading

	// StateLoaded - Steady state, events are dispatched.
	StateLoaded

	// StateUnloading - OnUnload and subscription teardown are running.
	StateUnloading
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateUnloading:
		return "unloading"
	default:
		return "unknown"
	}
}

// acceptsSubscriptions reports whether new subscriptions may be registered.
func (s State) acceptsSubscriptions() bool {
	return s == StateLoading || s == StateLoaded
}
