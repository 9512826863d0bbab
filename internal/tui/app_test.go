package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ultradns/ultradns-push-notifier/internal/api"
	"github.com/ultradns/ultradns-push-notifier/internal/state"
)

func updateApp(t *testing.T, m appModel, msg tea.Msg) (appModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(appModel), cmd
}

func TestApp_DisabledStopsEverything(t *testing.T) {
	backend := &fakeBackend{guiDisabled: true}
	m := newTestApp(t, backend, nil)

	m, cmd := updateApp(t, m, guiStatusMsg{disabled: true})
	if cmd != nil {
		t.Fatal("disabled console issued further requests")
	}
	if m.screen() != state.ScreenDisabled {
		t.Fatalf("screen = %v, want disabled", m.screen())
	}
	if !strings.Contains(m.View(), "disabled") {
		t.Fatal("disabled view missing notice")
	}
}

func TestApp_GuiProbeFailureAssumesEnabled(t *testing.T) {
	m := newTestApp(t, &fakeBackend{}, nil)

	m, cmd := updateApp(t, m, guiStatusMsg{err: errors.New("connection refused")})
	if m.gui != state.GuiEnabled {
		t.Fatalf("gui = %v, want enabled", m.gui)
	}
	if cmd == nil {
		t.Fatal("bootstrap not kicked off")
	}
}

func TestApp_BootstrapChain(t *testing.T) {
	backend := &fakeBackend{}
	fetcher := &fakeFetcher{status: &api.Status{HasAdminPassword: true}}
	m := newTestApp(t, backend, fetcher)

	m, cmd := updateApp(t, m, guiStatusMsg{disabled: false})
	m, cmd = updateApp(t, m, cmd().(bootstrapMsg))
	m, _ = updateApp(t, m, cmd().(statusMsg))

	if m.screen() != state.ScreenLogin {
		t.Fatalf("screen = %v, want login", m.screen())
	}
	if len(backend.calls) != 1 || backend.calls[0] != "init" {
		t.Fatalf("backend calls = %v", backend.calls)
	}
}

func TestApp_FreshLoginLandsInWizard(t *testing.T) {
	m := newTestApp(t, &fakeBackend{}, nil)
	m.gui = state.GuiEnabled

	m, _ = updateApp(t, m, statusMsg{snap: state.Snapshot{
		Loaded: true, HasAdminPassword: true, LoggedIn: true,
	}})
	if m.screen() != state.ScreenSetup {
		t.Fatalf("screen = %v, want setup", m.screen())
	}
	if !m.inSetup {
		t.Fatal("inSetup not set")
	}
}

func TestApp_RefreshDoesNotResetWizard(t *testing.T) {
	m := newTestApp(t, &fakeBackend{}, nil)
	m.gui = state.GuiEnabled
	m.inSetup = true
	m.wizard.step = stepURL
	m.wizard.platform = api.PlatformTeams
	m.wizard.input = "https://example.com/hook"

	m, _ = updateApp(t, m, statusMsg{snap: state.Snapshot{
		Loaded: true, HasAdminPassword: true, LoggedIn: true, HasWebhooks: true,
	}})
	if m.screen() != state.ScreenSetup {
		t.Fatalf("screen = %v, refresh kicked operator out of wizard", m.screen())
	}
	if m.wizard.step != stepURL || m.wizard.input != "https://example.com/hook" {
		t.Fatal("wizard state reset by refresh")
	}
}

func TestApp_DeleteFailureLeavesCache(t *testing.T) {
	fetcher := &fakeFetcher{status: &api.Status{
		LoggedIn: true, HasAdminPassword: true, HasWebhooks: true,
		Webhooks: []api.Webhook{{Token: "t1", Type: api.PlatformTeams, Status: "verified"}},
	}}
	m := newTestApp(t, &fakeBackend{}, fetcher)
	m.gui = state.GuiEnabled
	m, _ = updateApp(t, m, m.refresh()())

	m, _ = updateApp(t, m, deleteResultMsg{token: "t1", err: errors.New("backend returned status 500")})
	if len(m.session.Store.Snapshot().Webhooks) != 1 {
		t.Fatal("failed delete removed webhook from cache")
	}
	if m.errMsg == "" {
		t.Fatal("delete failure not surfaced")
	}
}

func TestApp_DeleteSuccessRemovesFromCache(t *testing.T) {
	fetcher := &fakeFetcher{status: &api.Status{
		LoggedIn: true, HasAdminPassword: true, HasWebhooks: true,
		Webhooks: []api.Webhook{
			{Token: "t1", Type: api.PlatformTeams, Status: "verified"},
			{Token: "t2", Type: api.PlatformSlack, Status: "verified"},
		},
	}}
	m := newTestApp(t, &fakeBackend{}, fetcher)
	m.gui = state.GuiEnabled
	m, _ = updateApp(t, m, m.refresh()())

	m, _ = updateApp(t, m, deleteResultMsg{token: "t1"})
	webhooks := m.session.Store.Snapshot().Webhooks
	if len(webhooks) != 1 || webhooks[0].Token != "t2" {
		t.Fatalf("webhooks after delete = %+v", webhooks)
	}
}

func TestApp_LogoutResetsEverything(t *testing.T) {
	m := newTestApp(t, &fakeBackend{}, nil)
	m.gui = state.GuiEnabled
	m.snap = state.Snapshot{Loaded: true, HasAdminPassword: true, LoggedIn: true, HasWebhooks: true}
	m.inSetup = true
	oldSession := m.session

	fresh, err := m.deps.NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	m, cmd := updateApp(t, m, logoutMsg{session: fresh})
	if m.session == oldSession {
		t.Fatal("session not replaced")
	}
	if m.gui != state.GuiUnknown || m.snap.Loaded || m.inSetup {
		t.Fatalf("state not reset: gui=%v loaded=%v inSetup=%v", m.gui, m.snap.Loaded, m.inSetup)
	}
	if m.screen() != state.ScreenLoading {
		t.Fatalf("screen = %v, want loading", m.screen())
	}
	if cmd == nil {
		t.Fatal("bootstrap chain not restarted")
	}
}
