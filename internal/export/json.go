// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/moly-tui/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports conversations to JSON format. The document wraps the
// conversation in the same shape the conversation store writes, so an export
// can be dropped back into the chats directory.
type JSONExporter struct {
	options *Options
}

// Document is the JSON export layout.
type Document struct {
	ExportedAt   time.Time           `json:"exported_at"`
	Generator    string              `json:"generator"`
	Conversation *model.Conversation `json:"conversation"`
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a conversation to JSON format.
func (e *JSONExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	msgs := exportable(conv, e.options)
	if len(msgs) == 0 {
		return nil, ErrEmptyConversation
	}

	out := conv.Clone()
	out.Messages = msgs
	return json.MarshalIndent(Document{
		ExportedAt:   e.options.clock().UTC(),
		Generator:    "moly",
		Conversation: out,
	}, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}
