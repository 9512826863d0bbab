package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ultradns/ultradns-push-notifier/internal/api"
	otelpkg "github.com/ultradns/ultradns-push-notifier/internal/otel"
	"github.com/ultradns/ultradns-push-notifier/internal/state"
)

type wizardStep int

const (
	stepPlatform wizardStep = iota // Pick the chat platform
	stepURL                        // Destination webhook URL
	stepVerify                     // Wait for the test message
	stepDone                       // Verified
)

const totalWizardSteps = 3

func wizardStepNum(s wizardStep) int {
	switch s {
	case stepPlatform:
		return 1
	case stepURL:
		return 2
	default:
		return 3
	}
}

func wizardStepTitle(s wizardStep) string {
	switch s {
	case stepPlatform:
		return "Platform"
	case stepURL:
		return "Webhook URL"
	default:
		return "Verification"
	}
}

type platformOption struct {
	platform api.Platform
	label    string
	hint     string
	enabled  bool
}

var platformOptions = []platformOption{
	{api.PlatformTeams, "Microsoft Teams", "Workflows or incoming-webhook URL", true},
	{api.PlatformSlack, "Slack", "Incoming-webhook URL (hooks.slack.com)", true},
	{"discord", "Discord", "Coming soon", false},
}

type wizardEnv struct {
	ctx      context.Context
	backend  Backend
	store    *state.Store
	interval time.Duration
	logger   *slog.Logger
	metrics  *otelpkg.Metrics
}

// wizardModel walks the operator through registering one webhook: pick a
// platform, enter the destination URL, then wait for the backend's test
// message to be confirmed. Esc steps back with state preserved.
type wizardModel struct {
	step       wizardStep
	cursor     int
	platform   api.Platform
	input      string
	pos        int
	showHelp   bool
	submitting bool
	errText    string

	token    string
	endpoint string
	insecure bool

	poller     *state.Poller
	pollCancel context.CancelFunc
}

func newWizardModel() wizardModel {
	return wizardModel{step: stepPlatform}
}

func (m wizardModel) atEntry() bool {
	return m.step == stepPlatform && !m.submitting
}

func (m wizardModel) finished() bool {
	return m.step == stepDone
}

// cancelPolling stops a running verification poller. Safe to call when
// none is running.
func (m wizardModel) cancelPolling() wizardModel {
	if m.pollCancel != nil {
		m.pollCancel()
		m.pollCancel = nil
		m.poller = nil
	}
	return m
}

func (m wizardModel) handleKey(msg tea.KeyMsg, env wizardEnv) (wizardModel, tea.Cmd) {
	key := msg.String()
	switch m.step {
	case stepPlatform:
		return m.handlePlatformKey(key)
	case stepURL:
		return m.handleURLKey(key, env)
	case stepVerify:
		if key == "esc" {
			// Abandon this attempt; the URL survives for editing.
			m = m.cancelPolling()
			m.step = stepURL
			m.errText = ""
		}
		return m, nil
	}
	return m, nil
}

func (m wizardModel) handlePlatformKey(key string) (wizardModel, tea.Cmd) {
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(platformOptions)-1 {
			m.cursor++
		}
	case "i":
		m.showHelp = !m.showHelp
	case "enter", "ctrl+m", "ctrl+j":
		opt := platformOptions[m.cursor]
		if !opt.enabled {
			m.errText = fmt.Sprintf("%s support is not available yet", opt.label)
			return m, nil
		}
		if m.platform != opt.platform {
			// Switching platforms invalidates a URL typed for the old one.
			m.input = ""
			m.pos = 0
		}
		m.platform = opt.platform
		m.step = stepURL
		m.errText = ""
	}
	return m, nil
}

func (m wizardModel) handleURLKey(key string, env wizardEnv) (wizardModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	switch key {
	case "esc":
		m.step = stepPlatform
		m.errText = ""
		for i, opt := range platformOptions {
			if opt.platform == m.platform {
				m.cursor = i
			}
		}
		return m, nil
	case "ctrl+o":
		m.showHelp = !m.showHelp
		return m, nil
	case "enter", "ctrl+m", "ctrl+j":
		raw := strings.TrimSpace(m.input)
		if err := validateWebhookURL(raw); err != nil {
			m.errText = err.Error()
			return m, nil
		}
		m.submitting = true
		m.errText = ""
		backend, ctx, platform := env.backend, env.ctx, m.platform
		return m, func() tea.Msg {
			result, err := backend.CreateWebhook(ctx, platform, raw)
			return setupSubmitMsg{result: result, err: err}
		}
	default:
		m.input, m.pos, _ = editKey(key, m.input, m.pos)
		return m, nil
	}
}

func (m wizardModel) update(msg tea.Msg, env wizardEnv) (wizardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case setupSubmitMsg:
		m.submitting = false
		if msg.err != nil {
			m.errText = humanError(msg.err)
			return m, nil
		}
		m.token = msg.result.Token
		m.endpoint = env.backend.CallbackEndpoint(m.platform, m.token)
		m.insecure = env.backend.Insecure()
		m.step = stepVerify
		if !msg.result.WaitingForTest {
			// Backend already saw the test message land.
			m.step = stepDone
			return m, nil
		}
		return m.startPolling(env)

	case verifiedMsg:
		m = m.cancelPolling()
		m.step = stepDone
		return m, nil
	}
	return m, nil
}

func (m wizardModel) startPolling(env wizardEnv) (wizardModel, tea.Cmd) {
	pollCtx, cancel := context.WithCancel(env.ctx)
	m.pollCancel = cancel
	m.poller = state.NewPoller(env.store, env.interval, env.logger, env.metrics)
	go m.poller.Run(pollCtx)
	return m, waitForVerified(pollCtx, m.poller)
}

// waitForVerified bridges the poller into the update loop. Selecting on
// the poll context too keeps a cancelled wizard from leaking this goroutine.
func waitForVerified(ctx context.Context, p *state.Poller) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-p.Done():
			return verifiedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// validateWebhookURL requires a value and nothing more. Shape and scheme
// are the backend's call; it rejects what the platform cannot deliver to.
func validateWebhookURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("webhook URL is required")
	}
	return nil
}

func (m wizardModel) view() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  📋 Add Webhook — Step %d/%d: %s\n\n",
		wizardStepNum(m.step), totalWizardSteps, wizardStepTitle(m.step)))

	switch m.step {
	case stepPlatform:
		b.WriteString("  Where should DNS change notifications go?\n\n")
		for i, opt := range platformOptions {
			cursor := "  "
			if i == m.cursor {
				cursor = "> "
			}
			label := opt.label
			hint := dimStyle.Render("— " + opt.hint)
			if !opt.enabled {
				label = dimStyle.Render(label)
			}
			b.WriteString(fmt.Sprintf("  %s%-18s %s\n", cursor, label, hint))
		}
		if m.showHelp {
			b.WriteString("\n" + platformInstructions(platformOptions[m.cursor].platform))
		}
		b.WriteString("\n  " + dimStyle.Render("[Enter] Select  [i] Instructions  [Ctrl+C] Quit") + "\n")

	case stepURL:
		b.WriteString(fmt.Sprintf("  Paste the %s webhook URL:\n\n", platformLabel(m.platform)))
		b.WriteString(fmt.Sprintf("  > %s\n", renderCursor(m.input, m.pos)))
		if strings.HasPrefix(strings.TrimSpace(m.input), "http://") {
			// Advisory only; submission still goes through.
			b.WriteString("  " + warnStyle.Render("⚠ Not an https URL; the platform may refuse delivery.") + "\n")
		}
		if m.showHelp {
			b.WriteString("\n" + platformInstructions(m.platform))
		}
		if m.submitting {
			b.WriteString("\n  " + dimStyle.Render("Registering webhook...") + "\n")
		}
		b.WriteString("\n  " + dimStyle.Render("[Enter] Register  [Ctrl+O] Instructions  [Esc] Back") + "\n")

	case stepVerify:
		b.WriteString("  A test notification was sent to your channel.\n\n")
		b.WriteString("  Point UltraDNS push notifications at this endpoint:\n")
		b.WriteString("    " + okStyle.Render(m.endpoint) + "\n\n")
		if m.insecure {
			b.WriteString("  " + warnStyle.Render("⚠ This endpoint is plain HTTP. UltraDNS requires HTTPS;") + "\n")
			b.WriteString("  " + warnStyle.Render("  put a TLS proxy in front before registering it.") + "\n\n")
		}
		b.WriteString("  ⏳ Waiting for the test message to be confirmed...\n")
		b.WriteString("\n  " + dimStyle.Render("[Esc] Back  [Ctrl+C] Quit") + "\n")

	case stepDone:
		b.WriteString("  " + okStyle.Render("✔ Webhook verified!") + "\n\n")
		b.WriteString(fmt.Sprintf("  %s will now receive DNS change notifications.\n", platformLabel(m.platform)))
		b.WriteString("\n  " + dimStyle.Render("[Enter] Continue") + "\n")
	}

	if m.errText != "" {
		b.WriteString("\n  " + errStyle.Render("⚠ "+m.errText) + "\n")
	}
	return b.String()
}

func platformLabel(p api.Platform) string {
	for _, opt := range platformOptions {
		if opt.platform == p {
			return opt.label
		}
	}
	return string(p)
}

func platformInstructions(p api.Platform) string {
	var lines []string
	switch p {
	case api.PlatformTeams:
		lines = []string{
			"How to get a Teams webhook URL:",
			"  1. In Teams, open the channel and choose Workflows.",
			"  2. Pick \"Post to a channel when a webhook request is received\".",
			"  3. Copy the URL the workflow gives you.",
		}
	case api.PlatformSlack:
		lines = []string{
			"How to get a Slack webhook URL:",
			"  1. Create a Slack app at api.slack.com/apps.",
			"  2. Enable Incoming Webhooks and add one to your channel.",
			"  3. Copy the hooks.slack.com URL.",
		}
	default:
		lines = []string{"No instructions for this platform yet."}
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString("  " + dimStyle.Render(l) + "\n")
	}
	return b.String()
}
