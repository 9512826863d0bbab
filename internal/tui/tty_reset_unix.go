//go:build !windows

package tui

import (
	"os"
	"os/exec"
)

// bestEffortResetTTY puts the terminal back into a sane state. BubbleTea
// normally restores it, but an interrupt mid-render can leave ICRNL off
// and Enter printing ^M in the shell afterwards.
func bestEffortResetTTY() {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return
	}
	if (fi.Mode() & os.ModeCharDevice) == 0 {
		return
	}
	// Use /dev/tty so this works even with redirected stdin.
	_ = exec.Command("sh", "-lc", "stty sane < /dev/tty >/dev/null 2>&1 || true").Run()
}
