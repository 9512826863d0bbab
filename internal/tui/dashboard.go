package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ultradns/ultradns-push-notifier/internal/api"
)

type dashEnv struct {
	ctx     context.Context
	backend Backend
}

// dashModel lists the configured webhooks. Deletes go through a confirm
// modal and only touch the list after the backend accepted them.
type dashModel struct {
	webhooks []api.Webhook
	cursor   int

	confirm  confirmModal
	deleting bool
}

func newDashModel() dashModel {
	return dashModel{}
}

func (m dashModel) withWebhooks(webhooks []api.Webhook) dashModel {
	m.webhooks = webhooks
	if m.cursor >= len(webhooks) {
		m.cursor = len(webhooks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

func (m dashModel) confirmOpen() bool {
	return m.confirm.open
}

func (m dashModel) deleteFinished() dashModel {
	m.deleting = false
	return m
}

func (m dashModel) handleKey(msg tea.KeyMsg, _ dashEnv) (dashModel, tea.Cmd) {
	if m.deleting {
		return m, nil
	}
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.webhooks)-1 {
			m.cursor++
		}
	case "d", "delete":
		if len(m.webhooks) > 0 {
			wh := m.webhooks[m.cursor]
			m.confirm = openConfirm(
				fmt.Sprintf("Remove the %s webhook?", wh.Type.Label()),
				"Notifications to this channel stop immediately.")
		}
	}
	return m, nil
}

func (m dashModel) handleConfirmKey(msg tea.KeyMsg, env dashEnv) (dashModel, tea.Cmd) {
	decided, confirmed := m.confirm.handleKey(msg.String())
	m.confirm = decided
	if !confirmed {
		return m, nil
	}
	if m.cursor >= len(m.webhooks) {
		return m, nil
	}
	token := m.webhooks[m.cursor].Token
	m.deleting = true
	backend, ctx := env.backend, env.ctx
	return m, func() tea.Msg {
		return deleteResultMsg{token: token, err: backend.DeleteWebhook(ctx, token)}
	}
}

var cardStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240")).Padding(0, 1).Width(56)

var cardSelectedStyle = cardStyle.BorderForeground(lipgloss.Color("62"))

func (m dashModel) view() string {
	var b strings.Builder
	b.WriteString("  Configured webhooks\n\n")

	if len(m.webhooks) == 0 {
		b.WriteString("  " + dimStyle.Render("No webhooks yet. Press [a] to add one.") + "\n")
	}

	for i, wh := range m.webhooks {
		style := cardStyle
		if i == m.cursor {
			style = cardSelectedStyle
		}
		status := okStyle.Render("● " + wh.Status)
		if wh.Status != "verified" {
			status = warnStyle.Render("● " + wh.Status)
		}
		card := fmt.Sprintf("%s  %s\n%s\n%s",
			titleStyle.Render(wh.Type.Label()), status,
			dimStyle.Render("token "+wh.Token),
			truncate(wh.WebhookURL, 52))
		for _, line := range strings.Split(style.Render(card), "\n") {
			b.WriteString("  " + line + "\n")
		}
	}

	if m.confirm.open {
		b.WriteString("\n")
		for _, line := range strings.Split(m.confirm.view(), "\n") {
			b.WriteString("  " + line + "\n")
		}
	} else if m.deleting {
		b.WriteString("\n  " + dimStyle.Render("Removing webhook...") + "\n")
	}

	b.WriteString("\n  " + dimStyle.Render("[a] Add  [d] Delete  [r] Refresh  [Ctrl+L] Log out  [q] Quit") + "\n")
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
