// Package tui is the terminal console: a bubbletea program that walks the
// operator from session bootstrap through login, webhook setup, and the
// webhook dashboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ultradns/ultradns-push-notifier/internal/api"
	"github.com/ultradns/ultradns-push-notifier/internal/audit"
	otelpkg "github.com/ultradns/ultradns-push-notifier/internal/otel"
	"github.com/ultradns/ultradns-push-notifier/internal/state"
)

// Backend is the slice of the API client the console drives.
type Backend interface {
	GuiDisabled(ctx context.Context) (bool, error)
	Bootstrap(ctx context.Context) error
	Login(ctx context.Context, password string) error
	Logout(ctx context.Context) error
	CreateWebhook(ctx context.Context, platform api.Platform, webhookURL string) (*api.SetupResult, error)
	DeleteWebhook(ctx context.Context, token string) error
	CallbackEndpoint(platform api.Platform, token string) string
	Insecure() bool
}

// Session bundles a backend client with the store caching its snapshots.
// Logout discards the whole session: cookie jar, API token, and cache go
// together.
type Session struct {
	Backend Backend
	Store   *state.Store
}

// Deps wires the console to the rest of the program. PollInterval is read
// when a wizard starts verifying, so config reloads apply to the next run.
type Deps struct {
	NewSession   func() (*Session, error)
	PollInterval func() time.Duration
	Logger       *slog.Logger
	Metrics      *otelpkg.Metrics
}

const dashboardRefreshEvery = 10 * time.Second

type guiStatusMsg struct {
	disabled bool
	err      error
}

type bootstrapMsg struct {
	err error
}

type statusMsg struct {
	snap state.Snapshot
	err  error
}

type loginResultMsg struct {
	err error
}

type logoutMsg struct {
	session *Session
	err     error
}

type setupSubmitMsg struct {
	result *api.SetupResult
	err    error
}

type verifiedMsg struct{}

type deleteResultMsg struct {
	token string
	err   error
}

type refreshTickMsg struct{}

type ctxDoneMsg struct{}

type appModel struct {
	ctx     context.Context
	deps    Deps
	session *Session
	logger  *slog.Logger

	gui         state.GuiFlag
	snap        state.Snapshot
	inSetup     bool
	tickRunning bool

	auth   authModel
	wizard wizardModel
	dash   dashModel

	width    int
	height   int
	errMsg   string
	quitting bool
}

func newAppModel(ctx context.Context, deps Deps, session *Session) appModel {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return appModel{
		ctx:     ctx,
		deps:    deps,
		session: session,
		logger:  logger,
		gui:     state.GuiUnknown,
		auth:    newAuthModel(),
		wizard:  newWizardModel(),
		dash:    newDashModel(),
	}
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.checkGui(), waitCtxDone(m.ctx))
}

func waitCtxDone(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ctxDoneMsg{}
	}
}

func (m appModel) checkGui() tea.Cmd {
	backend := m.session.Backend
	ctx := m.ctx
	return func() tea.Msg {
		disabled, err := backend.GuiDisabled(ctx)
		return guiStatusMsg{disabled: disabled, err: err}
	}
}

func (m appModel) bootstrap() tea.Cmd {
	backend := m.session.Backend
	ctx := m.ctx
	return func() tea.Msg {
		return bootstrapMsg{err: backend.Bootstrap(ctx)}
	}
}

func (m appModel) refresh() tea.Cmd {
	store := m.session.Store
	ctx := m.ctx
	return func() tea.Msg {
		snap, err := store.Refresh(ctx)
		return statusMsg{snap: snap, err: err}
	}
}

func refreshTick() tea.Cmd {
	return tea.Tick(dashboardRefreshEvery, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

func (m appModel) logout() tea.Cmd {
	backend := m.session.Backend
	newSession := m.deps.NewSession
	ctx := m.ctx
	logger := m.logger
	return func() tea.Msg {
		if err := backend.Logout(ctx); err != nil {
			logger.Warn("logout request failed", "error", err)
		}
		session, err := newSession()
		return logoutMsg{session: session, err: err}
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case ctxDoneMsg:
		m.quitting = true
		return m, tea.Quit

	case guiStatusMsg:
		if msg.err != nil {
			// An unreachable flag endpoint must not lock the operator
			// out; the backend enforces the switch server-side anyway.
			m.logger.Warn("gui-status probe failed, assuming enabled", "error", msg.err)
			m.gui = state.GuiEnabled
			return m, m.bootstrap()
		}
		if msg.disabled {
			m.gui = state.GuiDisabled
			return m, nil
		}
		m.gui = state.GuiEnabled
		return m, m.bootstrap()

	case bootstrapMsg:
		if msg.err != nil {
			m.errMsg = humanError(msg.err)
			m.logger.Error("session bootstrap failed", "error", msg.err)
		}
		return m, m.refresh()

	case statusMsg:
		return m.applyStatus(msg)

	case refreshTickMsg:
		// The wizard polls on its own cadence and a disabled console
		// makes no further calls; everything else stays fresh here,
		// including loading after a failed refresh.
		switch m.screen() {
		case state.ScreenSetup, state.ScreenDisabled:
			return m, refreshTick()
		default:
			return m, tea.Batch(m.refresh(), refreshTick())
		}

	case loginResultMsg:
		return m.applyLoginResult(msg)

	case logoutMsg:
		return m.applyLogout(msg)

	case setupSubmitMsg:
		if msg.err == nil {
			audit.Record("webhook.create", "ok", msg.result.Token)
		} else {
			audit.Record("webhook.create", "error", msg.err.Error())
		}
		var cmd tea.Cmd
		m.wizard, cmd = m.wizard.update(msg, m.wizardEnv())
		return m, cmd

	case verifiedMsg:
		audit.Record("webhook.verify", "ok", "")
		var cmd tea.Cmd
		m.wizard, cmd = m.wizard.update(msg, m.wizardEnv())
		return m, cmd

	case deleteResultMsg:
		return m.applyDeleteResult(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m appModel) screen() state.Screen {
	return state.Route(m.gui, m.snap, m.inSetup)
}

func (m appModel) applyStatus(msg statusMsg) (tea.Model, tea.Cmd) {
	m.snap = msg.snap

	// Exactly one tick chain; refreshTickMsg keeps it alive afterwards.
	var cmd tea.Cmd
	if !m.tickRunning {
		m.tickRunning = true
		cmd = refreshTick()
	}

	if msg.err != nil {
		m.errMsg = humanError(msg.err)
		return m, cmd
	}
	m.errMsg = ""

	// Land a freshly logged-in operator with no webhooks straight in the
	// wizard. Refreshes never reset a wizard already in progress.
	if m.snap.LoggedIn && !m.snap.HasWebhooks && !m.inSetup {
		m.inSetup = true
		m.wizard = newWizardModel()
	}
	m.dash = m.dash.withWebhooks(m.snap.Webhooks)
	return m, cmd
}

func (m appModel) applyLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.auth, cmd = m.auth.applyResult(msg.err)
	if msg.err == nil {
		audit.Record("login", "ok", "")
		return m, m.refresh()
	}
	if errors.Is(msg.err, api.ErrInvalidPassword) {
		audit.Record("login", "invalid_password", "")
	}
	return m, cmd
}

func (m appModel) applyLogout(msg logoutMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil || msg.session == nil {
		m.errMsg = humanError(msg.err)
		m.logger.Error("session reset failed", "error", msg.err)
		return m, nil
	}
	audit.Record("logout", "ok", "")
	// Full reset: fresh cookie jar, fresh token, fresh cache, and the
	// whole bootstrap chain again from the kill-switch probe.
	m.session = msg.session
	m.gui = state.GuiUnknown
	m.snap = state.Snapshot{}
	m.inSetup = false
	m.auth = newAuthModel()
	m.wizard = m.wizard.cancelPolling()
	m.wizard = newWizardModel()
	m.dash = newDashModel()
	m.errMsg = ""
	return m, m.checkGui()
}

func (m appModel) applyDeleteResult(msg deleteResultMsg) (tea.Model, tea.Cmd) {
	m.dash = m.dash.deleteFinished()
	if msg.err != nil {
		// Failed delete leaves the cached list untouched.
		m.errMsg = humanError(msg.err)
		m.logger.Warn("webhook delete failed", "token", msg.token, "error", msg.err)
		audit.Record("webhook.delete", "error", msg.token)
		return m, nil
	}
	audit.Record("webhook.delete", "ok", msg.token)
	m.session.Store.RemoveWebhook(msg.token)
	m.snap = m.session.Store.Snapshot()
	m.dash = m.dash.withWebhooks(m.snap.Webhooks)
	m.errMsg = ""
	return m, m.refresh()
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		m.wizard = m.wizard.cancelPolling()
		return m, tea.Quit
	}

	switch m.screen() {
	case state.ScreenDisabled, state.ScreenLoading:
		if msg.String() == "q" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case state.ScreenSetPassword, state.ScreenLogin:
		var cmd tea.Cmd
		m.auth, cmd = m.auth.handleKey(msg, m.authEnv())
		return m, cmd

	case state.ScreenSetup:
		return m.handleSetupKey(msg)

	case state.ScreenDashboard:
		return m.handleDashboardKey(msg)
	}
	return m, nil
}

func (m appModel) handleSetupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Esc on the first step leaves the wizard when the dashboard has
	// something to show; with no webhooks there is nowhere to go back to.
	if msg.String() == "esc" && m.wizard.atEntry() && m.snap.HasWebhooks {
		m.inSetup = false
		m.wizard = m.wizard.cancelPolling()
		m.wizard = newWizardModel()
		return m, m.refresh()
	}
	if m.wizard.finished() && (msg.String() == "enter" || msg.String() == "ctrl+m") {
		m.inSetup = false
		m.wizard = newWizardModel()
		return m, m.refresh()
	}
	var cmd tea.Cmd
	m.wizard, cmd = m.wizard.handleKey(msg, m.wizardEnv())
	return m, cmd
}

func (m appModel) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.dash.confirmOpen() {
		var cmd tea.Cmd
		m.dash, cmd = m.dash.handleConfirmKey(msg, m.dashEnv())
		return m, cmd
	}
	switch msg.String() {
	case "a":
		m.inSetup = true
		m.wizard = newWizardModel()
		return m, nil
	case "r":
		return m, m.refresh()
	case "ctrl+l":
		return m, m.logout()
	case "q":
		m.quitting = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.dash, cmd = m.dash.handleKey(msg, m.dashEnv())
	return m, cmd
}

func (m appModel) authEnv() authEnv {
	return authEnv{ctx: m.ctx, backend: m.session.Backend}
}

func (m appModel) wizardEnv() wizardEnv {
	var interval time.Duration
	if m.deps.PollInterval != nil {
		interval = m.deps.PollInterval()
	}
	return wizardEnv{
		ctx:      m.ctx,
		backend:  m.session.Backend,
		store:    m.session.Store,
		interval: interval,
		logger:   m.logger,
		metrics:  m.deps.Metrics,
	}
}

func (m appModel) dashEnv() dashEnv {
	return dashEnv{ctx: m.ctx, backend: m.session.Backend}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func (m appModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render("UltraDNS Push Notifier") + "\n")
	b.WriteString("  " + dimStyle.Render(strings.Repeat("─", 40)) + "\n\n")

	switch m.screen() {
	case state.ScreenDisabled:
		b.WriteString("  The admin console is disabled on this deployment.\n")
		b.WriteString("\n  " + dimStyle.Render("[q] Quit") + "\n")
	case state.ScreenLoading:
		b.WriteString("  Connecting to backend...\n")
	case state.ScreenSetPassword, state.ScreenLogin:
		b.WriteString(m.auth.view(m.screen() == state.ScreenSetPassword))
	case state.ScreenSetup:
		b.WriteString(m.wizard.view())
	case state.ScreenDashboard:
		b.WriteString(m.dash.view())
	}

	if m.errMsg != "" {
		b.WriteString("\n  " + errStyle.Render("⚠ "+m.errMsg) + "\n")
	}
	return b.String()
}

// Run starts the console and blocks until it exits or ctx is cancelled.
func Run(ctx context.Context, deps Deps) error {
	// BubbleTea should restore the terminal on exit, but an interrupt at
	// an unfortunate time can leave ICRNL off. Best-effort safety net.
	defer bestEffortResetTTY()

	if deps.NewSession == nil {
		return fmt.Errorf("tui: NewSession is required")
	}
	session, err := deps.NewSession()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	m := newAppModel(ctx, deps, session)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))
	_, err = p.Run()
	if err != nil && ctx.Err() != nil {
		// Renderer errors during shutdown are noise.
		return nil
	}
	return err
}
