package state

import "testing"

func TestRoute(t *testing.T) {
	loaded := func(mut func(*Snapshot)) Snapshot {
		snap := Snapshot{Loaded: true, HasAdminPassword: true, LoggedIn: true, HasWebhooks: true}
		if mut != nil {
			mut(&snap)
		}
		return snap
	}

	cases := []struct {
		name    string
		gui     GuiFlag
		snap    Snapshot
		inSetup bool
		want    Screen
	}{
		{"kill switch beats everything", GuiDisabled, loaded(nil), true, ScreenDisabled},
		{"unknown gui renders loading", GuiUnknown, loaded(nil), false, ScreenLoading},
		{"unloaded snapshot renders loading", GuiEnabled, Snapshot{}, false, ScreenLoading},
		{"no admin password", GuiEnabled, loaded(func(s *Snapshot) {
			s.HasAdminPassword = false
			s.LoggedIn = false
		}), false, ScreenSetPassword},
		{"logged out", GuiEnabled, loaded(func(s *Snapshot) { s.LoggedIn = false }), false, ScreenLogin},
		{"no webhooks forces setup", GuiEnabled, loaded(func(s *Snapshot) { s.HasWebhooks = false }), false, ScreenSetup},
		{"inSetup holds the wizard open", GuiEnabled, loaded(nil), true, ScreenSetup},
		{"steady state is the dashboard", GuiEnabled, loaded(nil), false, ScreenDashboard},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Route(tc.gui, tc.snap, tc.inSetup)
			if got != tc.want {
				t.Fatalf("Route = %v, want %v", got, tc.want)
			}
			// Routing is pure: same inputs, same screen.
			if again := Route(tc.gui, tc.snap, tc.inSetup); again != got {
				t.Fatalf("Route not deterministic: %v then %v", got, again)
			}
		})
	}
}

func TestAuthStateFor(t *testing.T) {
	cases := []struct {
		name string
		snap Snapshot
		want AuthState
	}{
		{"unloaded", Snapshot{}, AuthUnknown},
		{"no password", Snapshot{Loaded: true}, AuthPasswordSetupRequired},
		{"logged out", Snapshot{Loaded: true, HasAdminPassword: true}, AuthLoginRequired},
		{"logged in", Snapshot{Loaded: true, HasAdminPassword: true, LoggedIn: true}, Authenticated},
	}
	for _, tc := range cases {
		if got := AuthStateFor(tc.snap); got != tc.want {
			t.Fatalf("%s: AuthStateFor = %v, want %v", tc.name, got, tc.want)
		}
	}
}
