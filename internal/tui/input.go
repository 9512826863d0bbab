package tui

import "strings"

// runeLen returns the number of runes in s.
func runeLen(s string) int {
	return len([]rune(s))
}

// renderCursor inserts a block cursor (█) at rune position pos within s.
func renderCursor(s string, pos int) string {
	runes := []rune(s)
	if pos >= len(runes) {
		return s + "█"
	}
	return string(runes[:pos]) + "█" + string(runes[pos:])
}

// runeInsertAt inserts text at rune position pos within s.
func runeInsertAt(s string, pos int, text string) string {
	runes := []rune(s)
	if pos >= len(runes) {
		return s + text
	}
	return string(runes[:pos]) + text + string(runes[pos:])
}

// runeDeleteAt deletes the rune before position pos, returning the new string.
func runeDeleteAt(s string, pos int) string {
	runes := []rune(s)
	if pos <= 0 || pos > len(runes) {
		return s
	}
	return string(runes[:pos-1]) + string(runes[pos:])
}

// deleteWordAt deletes the word before rune position pos, returning new string and position.
func deleteWordAt(s string, pos int) (string, int) {
	runes := []rune(s)
	if pos <= 0 {
		return s, 0
	}
	i := pos
	for i > 0 && runes[i-1] == ' ' {
		i--
	}
	for i > 0 && runes[i-1] != ' ' {
		i--
	}
	return string(runes[:i]) + string(runes[pos:]), i
}

// editKey applies one text-editing key to (s, pos) and reports whether the
// key was consumed. Enter and esc are left for the caller.
func editKey(key, s string, pos int) (string, int, bool) {
	switch key {
	case "left":
		if pos > 0 {
			pos--
		}
	case "right":
		if pos < runeLen(s) {
			pos++
		}
	case "home", "ctrl+a":
		pos = 0
	case "end", "ctrl+e":
		pos = runeLen(s)
	case "backspace":
		if pos > 0 {
			s = runeDeleteAt(s, pos)
			pos--
		}
	case "alt+backspace":
		s, pos = deleteWordAt(s, pos)
	case "tab", "shift+tab", "up", "down":
		// ignore
	default:
		if key == "space" {
			key = " "
		}
		if strings.HasPrefix(key, "ctrl+") || strings.HasPrefix(key, "alt+") {
			return s, pos, false
		}
		s = runeInsertAt(s, pos, key)
		pos += runeLen(key)
	}
	return s, pos, true
}
