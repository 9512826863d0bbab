package tui

import (
	"context"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ultradns/ultradns-push-notifier/internal/api"
	"github.com/ultradns/ultradns-push-notifier/internal/state"
)

type fakeBackend struct {
	guiDisabled bool
	guiErr      error
	loginErr    error
	setupResult *api.SetupResult
	setupErr    error
	deleteErr   error

	insecure    bool
	calls       []string
	deleted     []string
	logoutCalls int
}

func (f *fakeBackend) GuiDisabled(_ context.Context) (bool, error) {
	f.calls = append(f.calls, "gui-status")
	return f.guiDisabled, f.guiErr
}

func (f *fakeBackend) Bootstrap(_ context.Context) error {
	f.calls = append(f.calls, "init")
	return nil
}

func (f *fakeBackend) Login(_ context.Context, _ string) error {
	f.calls = append(f.calls, "login")
	return f.loginErr
}

func (f *fakeBackend) Logout(_ context.Context) error {
	f.logoutCalls++
	return nil
}

func (f *fakeBackend) CreateWebhook(_ context.Context, _ api.Platform, _ string) (*api.SetupResult, error) {
	f.calls = append(f.calls, "setup")
	return f.setupResult, f.setupErr
}

func (f *fakeBackend) DeleteWebhook(_ context.Context, token string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, token)
	return nil
}

func (f *fakeBackend) CallbackEndpoint(platform api.Platform, token string) string {
	return fmt.Sprintf("https://push.example.com/api/%s/%s", platform, token)
}

func (f *fakeBackend) Insecure() bool { return f.insecure }

type fakeFetcher struct {
	status *api.Status
	err    error
}

func (f *fakeFetcher) FetchStatus(_ context.Context) (*api.Status, error) {
	return f.status, f.err
}

func newTestApp(t *testing.T, backend *fakeBackend, fetcher *fakeFetcher) appModel {
	t.Helper()
	if fetcher == nil {
		fetcher = &fakeFetcher{status: &api.Status{}}
	}
	session := &Session{Backend: backend, Store: state.NewStore(fetcher, nil)}
	deps := Deps{
		NewSession: func() (*Session, error) {
			return &Session{Backend: &fakeBackend{}, Store: state.NewStore(fetcher, nil)}, nil
		},
	}
	return newAppModel(context.Background(), deps, session)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func keyEnter() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEnter} }
func keyEsc() tea.KeyMsg   { return tea.KeyMsg{Type: tea.KeyEscape} }
func keyDown() tea.KeyMsg  { return tea.KeyMsg{Type: tea.KeyDown} }
func keyUp() tea.KeyMsg    { return tea.KeyMsg{Type: tea.KeyUp} }
