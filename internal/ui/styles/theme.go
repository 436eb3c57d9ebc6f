// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Spinner is the ASCII line spinner shown while a reply streams or models
// load.
var Spinner = spinner.Spinner{
	Frames: []string{"|", "/", "-", "\\"},
	FPS:    spinner.Line.FPS,
}

// Theme holds all the styled components for the application.
type Theme struct {
	Mode         Mode
	Palette      Palette
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// FRAME
	// ==========================================================================

	App       lipgloss.Style
	TabBar    lipgloss.Style
	Tab       lipgloss.Style
	TabActive lipgloss.Style
	Brand     lipgloss.Style

	// ==========================================================================
	// SIDEBAR
	// ==========================================================================

	Sidebar             lipgloss.Style
	SidebarTitle        lipgloss.Style
	SidebarItem         lipgloss.Style
	SidebarItemSelected lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	SystemBubble    lipgloss.Style
	FailedBubble    lipgloss.Style
	MessageMeta     lipgloss.Style

	// ==========================================================================
	// INPUT
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style

	// ==========================================================================
	// LISTS (models, settings, mcp)
	// ==========================================================================

	SectionTitle     lipgloss.Style
	ListItem         lipgloss.Style
	ListItemSelected lipgloss.Style
	ListMeta         lipgloss.Style

	// ==========================================================================
	// STATUS BAR
	// ==========================================================================

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// ACCESSIBILITY: Status styles paired with StatusIndicators
	// ==========================================================================

	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	InfoStyle    lipgloss.Style
	MutedStyle   lipgloss.Style
}

// NewTheme creates a theme for mode with all styles configured.
func NewTheme(mode Mode) *Theme {
	t := &Theme{
		Mode:         mode,
		Palette:      PaletteFor(mode),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// initStyles builds every style from the palette.
func (t *Theme) initStyles() {
	p := t.Palette

	t.App = lipgloss.NewStyle().Foreground(p.Text)

	t.TabBar = lipgloss.NewStyle().
		Background(p.SurfaceDim).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(p.Overlay)

	t.Tab = lipgloss.NewStyle().
		Foreground(p.TextDim).
		Padding(0, 2)

	t.TabActive = lipgloss.NewStyle().
		Foreground(p.TextInverse).
		Background(p.Accent).
		Bold(true).
		Padding(0, 2)

	t.Brand = lipgloss.NewStyle().
		Foreground(p.AccentAlt).
		Bold(true).
		Padding(0, 1)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(p.Overlay).
		Padding(0, 1)

	t.SidebarTitle = lipgloss.NewStyle().
		Foreground(p.Accent).
		Bold(true).
		MarginBottom(1)

	t.SidebarItem = lipgloss.NewStyle().
		Foreground(p.TextDim)

	t.SidebarItemSelected = lipgloss.NewStyle().
		Foreground(p.Text).
		Background(p.Selection).
		Bold(true)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(p.UserFg).
		Background(p.UserBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.UserBorder).
		Padding(0, 2).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(p.AssistantFg).
		Background(p.AssistantBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.AssistantBd).
		Padding(0, 2).
		MarginRight(4)

	t.SystemBubble = lipgloss.NewStyle().
		Foreground(p.SystemFg).
		Background(p.SystemBg).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(p.Warning).
		Padding(0, 2).
		Align(lipgloss.Center)

	t.FailedBubble = lipgloss.NewStyle().
		Foreground(p.Danger).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(p.Danger).
		BorderLeft(true).
		PaddingLeft(2)

	t.MessageMeta = lipgloss.NewStyle().
		Foreground(p.TextMuted).
		Italic(true)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(p.Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(p.AccentAlt).
		Bold(true)

	// Lists
	t.SectionTitle = lipgloss.NewStyle().
		Foreground(p.Accent).
		Bold(true).
		MarginTop(1)

	t.ListItem = lipgloss.NewStyle().
		Foreground(p.Text).
		PaddingLeft(2)

	t.ListItemSelected = lipgloss.NewStyle().
		Foreground(p.Text).
		Background(p.Selection).
		Bold(true).
		PaddingLeft(2)

	t.ListMeta = lipgloss.NewStyle().
		Foreground(p.TextMuted)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(p.SurfaceDim).
		Foreground(p.TextDim).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(p.AccentAlt).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(p.TextMuted)

	// ACCESSIBILITY: Bold high-contrast colors, used with StatusIndicators
	t.SuccessStyle = lipgloss.NewStyle().Foreground(p.Success).Bold(true)
	t.ErrorStyle = lipgloss.NewStyle().Foreground(p.Danger).Bold(true)
	t.WarningStyle = lipgloss.NewStyle().Foreground(p.Warning).Bold(true)
	t.InfoStyle = lipgloss.NewStyle().Foreground(p.Info).Bold(true)
	t.MutedStyle = lipgloss.NewStyle().Foreground(p.TextMuted)
}

// RenderSuccess renders a success message with its shape indicator.
func (t *Theme) RenderSuccess(message string) string {
	return t.SuccessStyle.Render(StatusIndicators.Success + " " + message)
}

// RenderError renders an error message with its shape indicator.
func (t *Theme) RenderError(message string) string {
	return t.ErrorStyle.Render(StatusIndicators.Error + " " + message)
}

// RenderWarning renders a warning message with its shape indicator.
func (t *Theme) RenderWarning(message string) string {
	return t.WarningStyle.Render(StatusIndicators.Warning + " " + message)
}

// RenderInfo renders an informational message with its shape indicator.
func (t *Theme) RenderInfo(message string) string {
	return t.InfoStyle.Render(StatusIndicators.Info + " " + message)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
