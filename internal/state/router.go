package state

// GuiFlag is the administrative kill switch state. It starts unknown and
// is resolved by the first gui-status probe; a failed probe resolves to
// enabled so an unreachable flag endpoint never locks the operator out.
type GuiFlag int

const (
	GuiUnknown GuiFlag = iota
	GuiEnabled
	GuiDisabled
)

// Screen identifies what the console renders.
type Screen int

const (
	ScreenLoading Screen = iota
	ScreenDisabled
	ScreenSetPassword
	ScreenLogin
	ScreenSetup
	ScreenDashboard
)

func (s Screen) String() string {
	switch s {
	case ScreenLoading:
		return "loading"
	case ScreenDisabled:
		return "disabled"
	case ScreenSetPassword:
		return "set-password"
	case ScreenLogin:
		return "login"
	case ScreenSetup:
		return "setup"
	case ScreenDashboard:
		return "dashboard"
	default:
		return "unknown"
	}
}

// AuthState is the credential gate's verdict on a snapshot.
type AuthState int

const (
	AuthUnknown AuthState = iota
	AuthPasswordSetupRequired
	AuthLoginRequired
	Authenticated
)

// AuthStateFor reads the credential state out of a snapshot. An unloaded
// snapshot is unknown, never authenticated.
func AuthStateFor(snap Snapshot) AuthState {
	switch {
	case !snap.Loaded:
		return AuthUnknown
	case !snap.HasAdminPassword:
		return AuthPasswordSetupRequired
	case !snap.LoggedIn:
		return AuthLoginRequired
	default:
		return Authenticated
	}
}

// Route maps the current state to a screen. The checks are ordered:
// the kill switch beats everything, an unloaded snapshot renders as
// loading, then the credential gate. inSetup keeps an operator inside
// the wizard even after their first webhook verifies.
func Route(gui GuiFlag, snap Snapshot, inSetup bool) Screen {
	if gui == GuiDisabled {
		return ScreenDisabled
	}
	if gui == GuiUnknown {
		return ScreenLoading
	}
	switch AuthStateFor(snap) {
	case AuthUnknown:
		return ScreenLoading
	case AuthPasswordSetupRequired:
		return ScreenSetPassword
	case AuthLoginRequired:
		return ScreenLogin
	}
	if inSetup || !snap.HasWebhooks {
		return ScreenSetup
	}
	return ScreenDashboard
}
