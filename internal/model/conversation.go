// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/moly-tui/internal/provider"
	"github.com/jeranaias/moly-tui/internal/util"
)

const (
	// DefaultTitle is shown until the first user message names the chat.
	DefaultTitle = "New Chat"

	// TitleMaxRunes bounds titles derived from the first user message.
	TitleMaxRunes = 50

	// MaxMessages is the maximum number of messages kept per conversation.
	// When exceeded, the oldest non-system messages are pruned.
	MaxMessages = 1000
)

// ErrMessageNotFound is returned when a turn references an unknown message.
var ErrMessageNotFound = errors.New("message not found")

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a chat with its history and model binding.
//
// Conversations reachable from a store snapshot are shared and must be treated
// as read-only; mutate a Clone.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Model is the selected model for new turns.
	Model provider.ModelRef `json:"model"`

	// ProviderID is the provider that services new messages. It normally
	// matches Model.ProviderID but can diverge after a provider switch.
	ProviderID string `json:"provider_id"`

	Messages []Message `json:"messages"`
}

// NewConversation creates a conversation bound to ref.
func NewConversation(id string, ref provider.ModelRef) *Conversation {
	if id == "" {
		id = NewConversationID()
	}
	now := time.Now()
	return &Conversation{
		ID:         id,
		Title:      DefaultTitle,
		CreatedAt:  now,
		UpdatedAt:  now,
		Model:      ref,
		ProviderID: ref.ProviderID,
		Messages:   make([]Message, 0),
	}
}

// NewConversationID returns a unique conversation identifier.
func NewConversationID() string {
	return "conv_" + uuid.NewString()
}

// Clone returns a copy that can be mutated without affecting c.
// Messages are values, so copying the slice is a deep copy.
func (c *Conversation) Clone() *Conversation {
	clone := *c
	clone.Messages = make([]Message, len(c.Messages))
	copy(clone.Messages, c.Messages)
	return &clone
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message and refreshes title and timestamps.
func (c *Conversation) AddMessage(msg Message) {
	if msg.ID == "" {
		msg.ID = NewMessageID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if msg.State == "" {
		msg.State = StateComplete
	}
	c.Messages = append(c.Messages, msg)
	c.touch()
	c.updateTitle()
	c.pruneOldMessages()
}

// MessageIndex returns the index of the message with id, or -1.
func (c *Conversation) MessageIndex(id string) int {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].ID == id {
			return i
		}
	}
	return -1
}

// AppendDelta appends streamed content to a streaming message.
func (c *Conversation) AppendDelta(messageID, delta string) error {
	i := c.MessageIndex(messageID)
	if i < 0 || !c.Messages[i].IsStreaming() {
		return ErrMessageNotFound
	}
	c.Messages[i].Content += delta
	c.touch()
	return nil
}

// FinishMessage ends a streaming message. A non-empty errMsg marks it failed.
func (c *Conversation) FinishMessage(messageID, errMsg string) error {
	i := c.MessageIndex(messageID)
	if i < 0 || !c.Messages[i].IsStreaming() {
		return ErrMessageNotFound
	}
	if errMsg != "" {
		c.Messages[i].State = StateFailed
		c.Messages[i].Error = errMsg
	} else {
		c.Messages[i].State = StateComplete
	}
	c.touch()
	return nil
}

// Streaming returns the in-flight assistant message, if any.
func (c *Conversation) Streaming() (Message, bool) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].IsStreaming() {
			return c.Messages[i], true
		}
	}
	return Message{}, false
}

// History returns the messages to send to a model: completed messages with
// content, in order.
func (c *Conversation) History() []Message {
	out := make([]Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m.State == StateComplete && m.Content != "" {
			out = append(out, m)
		}
	}
	return out
}

// LastMessage returns the most recent message.
func (c *Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// MODEL BINDING
// =============================================================================

// SetModel selects the model for new turns and routes to its provider.
func (c *Conversation) SetModel(ref provider.ModelRef) {
	c.Model = ref
	c.ProviderID = ref.ProviderID
	c.touch()
}

// RouteTo changes the provider servicing new messages without changing the
// selected model.
func (c *Conversation) RouteTo(providerID string) {
	c.ProviderID = providerID
	c.touch()
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// updateTitle derives the title from the first user message.
func (c *Conversation) updateTitle() {
	if c.Title != "" && c.Title != DefaultTitle {
		return
	}
	for _, msg := range c.Messages {
		if msg.Role == RoleUser && msg.Content != "" {
			c.Title = util.TruncateRunes(util.SingleLine(msg.Content), TitleMaxRunes)
			return
		}
	}
}

// SetTitle manually sets the conversation title.
func (c *Conversation) SetTitle(title string) {
	c.Title = title
	c.touch()
}

// GetTitle returns the conversation title or the default.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return DefaultTitle
}

// =============================================================================
// HELPERS
// =============================================================================

func (c *Conversation) touch() {
	c.UpdatedAt = time.Now()
}

// pruneOldMessages keeps system messages and the most recent MaxMessages others.
func (c *Conversation) pruneOldMessages() {
	if len(c.Messages) <= MaxMessages {
		return
	}

	var system, other []Message
	for _, msg := range c.Messages {
		if msg.Role == RoleSystem {
			system = append(system, msg)
		} else {
			other = append(other, msg)
		}
	}
	if len(other) > MaxMessages {
		other = other[len(other)-MaxMessages:]
	}

	c.Messages = make([]Message, 0, len(system)+len(other))
	c.Messages = append(c.Messages, system...)
	c.Messages = append(c.Messages, other...)
}
