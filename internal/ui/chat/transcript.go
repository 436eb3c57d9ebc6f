// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/moly-tui/internal/model"
	"github.com/jeranaias/moly-tui/internal/ui/components"
	"github.com/jeranaias/moly-tui/internal/ui/styles"
)

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// Renderer turns a conversation into the text shown in the transcript
// viewport.
type Renderer struct {
	theme    *styles.Theme
	markdown *components.Markdown

	// cache holds rendered markdown of finished replies by message id.
	cache map[string]cachedReply
}

type cachedReply struct {
	content string
	width   int
	mode    styles.Mode
	out     string
}

// NewRenderer creates a transcript renderer.
func NewRenderer(theme *styles.Theme) *Renderer {
	return &Renderer{
		theme:    theme,
		markdown: components.NewMarkdown(),
		cache:    make(map[string]cachedReply),
	}
}

// SetTheme swaps the theme after a preference change.
func (r *Renderer) SetTheme(theme *styles.Theme) {
	r.theme = theme
}

// Render renders every message of c for width columns. spinner is shown on
// an in-progress reply that has no content yet.
func (r *Renderer) Render(c *model.Conversation, width int, spinner string) string {
	if c == nil || c.IsEmpty() {
		return r.theme.MutedStyle.Render("Type a message and press Enter to start.")
	}

	bubbleWidth := width * 4 / 5
	if bubbleWidth < 20 {
		bubbleWidth = width
	}

	blocks := make([]string, 0, len(c.Messages))
	for _, msg := range c.Messages {
		blocks = append(blocks, r.message(msg, width, bubbleWidth, spinner))
	}
	return strings.Join(blocks, "\n\n")
}

func (r *Renderer) message(msg model.Message, width, bubbleWidth int, spinner string) string {
	t := r.theme
	inner := bubbleWidth - 6

	switch msg.Role {
	case model.RoleUser:
		bubble := t.UserBubble.Width(bubbleWidth).Render(msg.Content)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble)

	case model.RoleSystem:
		return lipgloss.PlaceHorizontal(width, lipgloss.Center,
			t.SystemBubble.Width(bubbleWidth).Render(msg.Content))
	}

	meta := msg.Role.DisplayName()
	if !msg.Model.IsZero() {
		meta = msg.Model.BareModelID()
	}
	header := t.MessageMeta.Render(meta)

	body := msg.Content
	switch {
	case msg.IsStreaming() && body == "":
		body = spinner + " thinking"
	case msg.IsStreaming():
		// Partial markdown renders poorly; show raw text until complete.
		body += " " + spinner
	default:
		body = r.renderReply(msg, inner)
	}
	out := header + "\n" + t.AssistantBubble.Width(bubbleWidth).Render(body)

	if msg.IsFailed() {
		out += "\n" + t.FailedBubble.Render(t.RenderError(msg.Error))
	}
	return out
}

func (r *Renderer) renderReply(msg model.Message, width int) string {
	mode := r.theme.Mode
	if c, ok := r.cache[msg.ID]; ok && c.content == msg.Content && c.width == width && c.mode == mode {
		return c.out
	}
	out := r.markdown.Render(msg.Content, mode, width)
	r.cache[msg.ID] = cachedReply{content: msg.Content, width: width, mode: mode, out: out}
	return out
}

// Forget drops cached renderings. The chat panel calls it when the
// conversation changes.
func (r *Renderer) Forget() {
	clear(r.cache)
}
