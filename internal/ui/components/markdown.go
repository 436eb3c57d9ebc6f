// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/moly-tui/internal/ui/styles"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// Markdown renders assistant replies with glamour. The term renderer is
// rebuilt only when the theme mode or wrap width changes.
type Markdown struct {
	renderer *glamour.TermRenderer
	mode     styles.Mode
	width    int
}

// NewMarkdown creates a renderer; the first Render builds it.
func NewMarkdown() *Markdown {
	return &Markdown{width: -1}
}

// Render returns content rendered for width columns. Rendering failures fall
// back to the raw text.
func (m *Markdown) Render(content string, mode styles.Mode, width int) string {
	if width < 20 {
		width = 20
	}
	if m.renderer == nil || m.mode != mode || m.width != width {
		style := "light"
		if mode == styles.Dark {
			style = "dark"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			m.renderer = nil
			return content
		}
		m.renderer, m.mode, m.width = r, mode, width
	}

	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
