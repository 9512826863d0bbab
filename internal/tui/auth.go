package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ultradns/ultradns-push-notifier/internal/api"
)

// authModel is the password gate. The same form serves two screens: first
// launch sets the admin password, afterwards it logs in. The backend's
// login endpoint handles both.
type authModel struct {
	input      string
	pos        int
	submitting bool
	errText    string
}

type authEnv struct {
	ctx     context.Context
	backend Backend
}

func newAuthModel() authModel {
	return authModel{}
}

func (m authModel) handleKey(msg tea.KeyMsg, env authEnv) (authModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	key := msg.String()
	switch key {
	case "enter", "ctrl+m", "ctrl+j":
		// Non-empty is the only client-side rule; the backend owns
		// password policy on both first launch and login.
		password := m.input
		if strings.TrimSpace(password) == "" {
			m.errText = "Password is required"
			return m, nil
		}
		m.submitting = true
		m.errText = ""
		backend, ctx := env.backend, env.ctx
		return m, func() tea.Msg {
			return loginResultMsg{err: backend.Login(ctx, password)}
		}
	case "esc":
		m.input = ""
		m.pos = 0
		m.errText = ""
		return m, nil
	default:
		m.input, m.pos, _ = editKey(key, m.input, m.pos)
		return m, nil
	}
}

// applyResult handles the login outcome. A rejected password keeps the
// typed input so the operator can fix a typo instead of retyping.
func (m authModel) applyResult(err error) (authModel, tea.Cmd) {
	m.submitting = false
	switch {
	case err == nil:
		m.input = ""
		m.pos = 0
		m.errText = ""
	case errors.Is(err, api.ErrInvalidPassword):
		m.errText = "Invalid password"
	default:
		m.errText = humanError(err)
	}
	return m, nil
}

func (m authModel) view(setPassword bool) string {
	var b strings.Builder
	if setPassword {
		b.WriteString("  Set the admin password for this deployment.\n\n")
	} else {
		b.WriteString("  Enter the admin password.\n\n")
	}

	masked := strings.Repeat("*", runeLen(m.input))
	b.WriteString(fmt.Sprintf("  🔑 > %s\n", renderCursor(masked, m.pos)))

	if m.submitting {
		b.WriteString("\n  " + dimStyle.Render("Checking...") + "\n")
	} else if m.errText != "" {
		b.WriteString("\n  " + errStyle.Render("⚠ "+m.errText) + "\n")
	}

	b.WriteString("\n  " + dimStyle.Render("[Enter] Submit  [Esc] Clear  [Ctrl+C] Quit") + "\n")
	return b.String()
}
