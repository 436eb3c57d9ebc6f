// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package view tracks which panel is frontmost and drives the re-attachment
// protocol panels follow when they become visible again.
package view

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ID identifies a top-level panel.
type ID string

const (
	Chat     ID = "chat"
	Models   ID = "models"
	Settings ID = "settings"
	Mcp      ID = "mcp"
)

// All returns every view in tab order.
func All() []ID {
	return []ID{Chat, Models, Settings, Mcp}
}

// Valid reports whether v is one of the known views.
func (v ID) Valid() bool {
	switch v {
	case Chat, Models, Settings, Mcp:
		return true
	}
	return false
}

// Parse converts user or file input into an ID.
func Parse(s string) (ID, error) {
	v := ID(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", fmt.Errorf("unknown view %q", s)
	}
	return v, nil
}

var titleCaser = cases.Title(language.English)

// Title returns the tab label for v.
func (v ID) Title() string {
	if v == Mcp {
		return "MCP"
	}
	return titleCaser.String(string(v))
}

// Next returns the view after v in tab order, wrapping around.
func (v ID) Next() ID {
	all := All()
	for i, id := range all {
		if id == v {
			return all[(i+1)%len(all)]
		}
	}
	return Chat
}

// Prev returns the view before v in tab order, wrapping around.
func (v ID) Prev() ID {
	all := All()
	for i, id := range all {
		if id == v {
			return all[(i+len(all)-1)%len(all)]
		}
	}
	return Chat
}
