// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"sort"

	"github.com/jeranaias/moly-tui/internal/mcp"
	"github.com/jeranaias/moly-tui/internal/model"
	"github.com/jeranaias/moly-tui/internal/prefs"
	"github.com/jeranaias/moly-tui/internal/provider"
	"github.com/jeranaias/moly-tui/internal/view"
)

// Snapshot is an immutable view of the store at one revision.
//
// Slices and conversations reachable from a snapshot are shared with later
// snapshots and must not be modified.
type Snapshot struct {
	Revision    uint64
	Preferences prefs.Preferences

	// Providers lists every registered provider in registration order.
	Providers []provider.Descriptor

	// Models is the aggregate model list.
	Models []provider.ModelRef

	// ActiveProvider is the provider servicing new messages, or "".
	ActiveProvider string

	// CurrentConversationID is the conversation shown in the chat view, or "".
	CurrentConversationID string

	MCP mcp.Config

	registry      *provider.Registry
	conversations map[string]*model.Conversation
	order         []string
}

// ActiveView returns the view the user last navigated to.
func (s *Snapshot) ActiveView() view.ID {
	return s.Preferences.ActiveView
}

// Registry returns a private copy of the provider registry as of this
// snapshot, for workers that need to enumerate providers.
func (s *Snapshot) Registry() *provider.Registry {
	return s.registry.Clone()
}

// Provider returns the descriptor with id.
func (s *Snapshot) Provider(id string) (provider.Descriptor, bool) {
	for _, d := range s.Providers {
		if d.ID == id {
			return d, true
		}
	}
	return provider.Descriptor{}, false
}

// ModelsFor returns the aggregate entries of one provider.
func (s *Snapshot) ModelsFor(providerID string) []provider.ModelRef {
	var out []provider.ModelRef
	for _, m := range s.Models {
		if m.ProviderID == providerID {
			out = append(out, m)
		}
	}
	return out
}

// Conversation returns the conversation with id.
func (s *Snapshot) Conversation(id string) (*model.Conversation, bool) {
	c, ok := s.conversations[id]
	return c, ok
}

// CurrentConversation returns the conversation shown in the chat view.
func (s *Snapshot) CurrentConversation() (*model.Conversation, bool) {
	return s.Conversation(s.CurrentConversationID)
}

// Conversations returns every conversation, most recently updated first.
func (s *Snapshot) Conversations() []*model.Conversation {
	out := make([]*model.Conversation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.conversations[id])
	}
	return out
}

// ConversationCount returns the number of conversations.
func (s *Snapshot) ConversationCount() int {
	return len(s.conversations)
}

// recencyOrder returns conversation ids, most recently updated first.
func recencyOrder(convs map[string]*model.Conversation) []string {
	ids := make([]string, 0, len(convs))
	for id := range convs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := convs[ids[i]], convs[ids[j]]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})
	return ids
}
