package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// confirmModal is a two-button yes/no dialog. Cancel is focused first so
// a reflexive Enter never destroys anything.
type confirmModal struct {
	open    bool
	title   string
	detail  string
	onYes   bool
}

func openConfirm(title, detail string) confirmModal {
	return confirmModal{open: true, title: title, detail: detail}
}

// handleKey consumes one key and reports (newState, confirmed).
func (m confirmModal) handleKey(key string) (confirmModal, bool) {
	switch key {
	case "esc", "n":
		m.open = false
		return m, false
	case "y":
		m.open = false
		return m, true
	case "left", "right", "tab":
		m.onYes = !m.onYes
		return m, false
	case "enter", "ctrl+m":
		confirmed := m.onYes
		m.open = false
		return m, confirmed
	}
	return m, false
}

func (m confirmModal) view() string {
	if !m.open {
		return ""
	}
	border := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("196")).Padding(1, 2).Width(50)

	yes, no := "[ Delete ]", "[ Cancel ]"
	if m.onYes {
		yes = errStyle.Render(yes)
	} else {
		no = okStyle.Render(no)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title) + "\n")
	if m.detail != "" {
		b.WriteString(dimStyle.Render(m.detail) + "\n")
	}
	b.WriteString("\n" + no + "  " + yes + dimStyle.Render("   ([y]/[n] also work)"))
	return border.Render(b.String())
}
