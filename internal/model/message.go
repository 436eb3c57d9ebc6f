// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/moly-tui/internal/provider"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE STATE
// =============================================================================

// State tracks the lifecycle of an assistant turn.
type State string

const (
	StateComplete  State = "complete"
	StateStreaming State = "streaming"
	StateFailed    State = "failed"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in a conversation. Messages are values: the store
// replaces them rather than mutating them in place, so a snapshot never
// observes a half-applied change.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// Model that produced an assistant message.
	Model provider.ModelRef `json:"model"`

	State State  `json:"state,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewMessage creates a completed message with a generated ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        NewMessageID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		State:     StateComplete,
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// NewAssistantMessage creates an empty streaming assistant message for ref.
func NewAssistantMessage(id string, ref provider.ModelRef) Message {
	if id == "" {
		id = NewMessageID()
	}
	return Message{
		ID:        id,
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		Model:     ref,
		State:     StateStreaming,
	}
}

// IsStreaming reports whether the message is still receiving content.
func (m Message) IsStreaming() bool {
	return m.State == StateStreaming
}

// IsFailed reports whether the turn ended in an error.
func (m Message) IsFailed() bool {
	return m.State == StateFailed
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// NewMessageID returns a unique message identifier.
func NewMessageID() string {
	return "msg_" + uuid.NewString()
}
