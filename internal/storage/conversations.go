// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/moly-tui/internal/model"
	"github.com/jeranaias/moly-tui/internal/provider"
	"github.com/jeranaias/moly-tui/internal/util"
)

// ConversationMeta contains metadata for listing conversations.
type ConversationMeta struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Model        provider.ModelRef `json:"model"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	MessageCount int               `json:"message_count"`
	Preview      string            `json:"preview"` // Last message truncated
}

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ConversationStore handles conversation persistence.
type ConversationStore struct {
	// BaseDir is the directory for storing conversations
	// Default: <data dir>/chats/
	BaseDir string
}

// NewConversationStoreWithDir creates a store with a custom directory.
func NewConversationStoreWithDir(baseDir string) (*ConversationStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &ConversationStore{BaseDir: baseDir}, nil
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save persists a conversation, replacing any previous version.
func (s *ConversationStore) Save(conv *model.Conversation) error {
	path, err := s.filePath(conv.ID)
	if err != nil {
		return err
	}
	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	return util.WriteJSON(path, conv, 0644)
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load retrieves a conversation by ID.
func (s *ConversationStore) Load(id string) (*model.Conversation, error) {
	path, err := s.filePath(id)
	if err != nil {
		return nil, err
	}

	var conv model.Conversation
	if err := util.ReadJSON(path, &conv); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if conv.ID != id {
		return nil, fmt.Errorf("conversation file %s holds id %q", filepath.Base(path), conv.ID)
	}
	return &conv, nil
}

// LoadAll loads every stored conversation, most recently updated first.
// Unreadable files are skipped and counted.
func (s *ConversationStore) LoadAll() ([]*model.Conversation, int, error) {
	ids, err := s.ids()
	if err != nil {
		return nil, 0, err
	}

	convs := make([]*model.Conversation, 0, len(ids))
	skipped := 0
	for _, id := range ids {
		conv, err := s.Load(id)
		if err != nil {
			skipped++ // Skip corrupted files
			continue
		}
		convs = append(convs, conv)
	}

	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
	return convs, skipped, nil
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns metadata for all saved conversations (most recent first).
func (s *ConversationStore) List() ([]ConversationMeta, error) {
	convs, _, err := s.LoadAll()
	if err != nil {
		return nil, err
	}

	metas := make([]ConversationMeta, 0, len(convs))
	for _, conv := range convs {
		preview := ""
		if last, ok := conv.LastMessage(); ok {
			preview = util.TruncateRunes(util.SingleLine(last.Content), 80)
		}
		metas = append(metas, ConversationMeta{
			ID:           conv.ID,
			Title:        conv.GetTitle(),
			Model:        conv.Model,
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
			MessageCount: len(conv.Messages),
			Preview:      preview,
		})
	}
	return metas, nil
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes a conversation by ID.
func (s *ConversationStore) Delete(id string) error {
	path, err := s.filePath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// ids returns the IDs of every conversation file.
func (s *ConversationStore) ids() ([]string, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

// filePath returns the file path for a conversation ID.
// SECURITY: IDs become file names, so separators and dot segments are rejected.
func (s *ConversationStore) filePath(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return filepath.Join(s.BaseDir, id+".json"), nil
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ErrInvalidID is returned for IDs that cannot be used as file names.
var ErrInvalidID = &ConversationError{Message: "invalid conversation id"}

// ConversationError represents a conversation-related error.
// It implements the error interface and can be compared using errors.Is.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
