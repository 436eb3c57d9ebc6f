// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TERMINAL DETECTION
// =============================================================================

// IsTTY reports whether stdin is a terminal.
func IsTTY() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// IsStdoutTTY reports whether stdout is a terminal.
func IsStdoutTTY() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

// Separator widths for command output.
const (
	fallbackWidth = 80
	minWidth      = 40
	maxWidth      = 100
)

// GetTerminalWidth returns the stdout width clamped to [minWidth, maxWidth],
// or fallbackWidth when stdout is not a terminal.
func GetTerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallbackWidth
	}
	return min(max(w, minWidth), maxWidth)
}

// =============================================================================
// COLOR
// =============================================================================

var colorProfile = sync.OnceValue(func() termenv.Profile {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return termenv.Ascii
	case os.Getenv("FORCE_COLOR") != "":
		return termenv.ANSI256
	case !IsStdoutTTY():
		return termenv.Ascii
	}
	return termenv.ColorProfile()
})

// GetColorProfile returns the termenv profile used for command output.
// NO_COLOR wins over FORCE_COLOR; otherwise color follows whether stdout
// is a terminal.
func GetColorProfile() termenv.Profile { return colorProfile() }
