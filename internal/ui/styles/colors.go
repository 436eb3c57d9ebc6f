// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// Mode selects a palette.
type Mode int

const (
	Light Mode = iota
	Dark
)

// String returns the mode name.
func (m Mode) String() string {
	if m == Dark {
		return "dark"
	}
	return "light"
}

// Palette is the set of colors a theme is built from.
type Palette struct {
	Accent      lipgloss.Color
	AccentAlt   lipgloss.Color
	Success     lipgloss.Color
	Warning     lipgloss.Color
	Danger      lipgloss.Color
	Info        lipgloss.Color
	Surface     lipgloss.Color
	SurfaceDim  lipgloss.Color
	Overlay     lipgloss.Color
	Selection   lipgloss.Color
	Text        lipgloss.Color
	TextDim     lipgloss.Color
	TextMuted   lipgloss.Color
	TextInverse lipgloss.Color

	UserBg      lipgloss.Color
	UserFg      lipgloss.Color
	UserBorder  lipgloss.Color
	AssistantBg lipgloss.Color
	AssistantFg lipgloss.Color
	AssistantBd lipgloss.Color
	SystemBg    lipgloss.Color
	SystemFg    lipgloss.Color
}

// LightPalette is used with the light theme.
var LightPalette = Palette{
	Accent:      "#7C3AED",
	AccentAlt:   "#0891B2",
	Success:     "#15803D",
	Warning:     "#D97706",
	Danger:      "#DC2626",
	Info:        "#2563EB",
	Surface:     "#FFFFFF",
	SurfaceDim:  "#F5F5F5",
	Overlay:     "#E5E5E5",
	Selection:   "#BFDBFE",
	Text:        "#1F2937",
	TextDim:     "#6B7280",
	TextMuted:   "#9CA3AF",
	TextInverse: "#FFFFFF",

	UserBg:      "#DBEAFE",
	UserFg:      "#1E40AF",
	UserBorder:  "#3B82F6",
	AssistantBg: "#F5F3FF",
	AssistantFg: "#5B4B8A",
	AssistantBd: "#C4B5FD",
	SystemBg:    "#FEF3C7",
	SystemFg:    "#92400E",
}

// DarkPalette is used with the dark theme (Catppuccin Mocha surfaces).
var DarkPalette = Palette{
	Accent:      "#A78BFA",
	AccentAlt:   "#22D3EE",
	Success:     "#22C55E",
	Warning:     "#F59E0B",
	Danger:      "#EF4444",
	Info:        "#3B82F6",
	Surface:     "#1E1E2E",
	SurfaceDim:  "#181825",
	Overlay:     "#313244",
	Selection:   "#1E3A5F",
	Text:        "#CDD6F4",
	TextDim:     "#A6ADC8",
	TextMuted:   "#6C7086",
	TextInverse: "#1E1E2E",

	UserBg:      "#1D4ED8",
	UserFg:      "#E0F2FE",
	UserBorder:  "#3B82F6",
	AssistantBg: "#3B3655",
	AssistantFg: "#E9E4F5",
	AssistantBd: "#A78BFA",
	SystemBg:    "#78350F",
	SystemFg:    "#FEF3C7",
}

// PaletteFor returns the palette of a mode.
func PaletteFor(m Mode) Palette {
	if m == Dark {
		return DarkPalette
	}
	return LightPalette
}

// =============================================================================
// ACCESSIBILITY: Shapes alongside colors for colorblind users
// =============================================================================

// StatusIndicatorSet contains text/shape indicators for status states.
type StatusIndicatorSet struct {
	Success string
	Error   string
	Warning string
	Info    string
	Pending string
	Active  string
}

// StatusIndicators are ASCII-only for maximum compatibility.
var StatusIndicators = StatusIndicatorSet{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
	Pending: "[ ]",
	Active:  "[*]",
}
