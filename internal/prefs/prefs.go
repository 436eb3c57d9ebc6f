// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prefs persists user preferences as a JSON document in the data
// directory. Loading never fails: a missing or corrupt file yields defaults.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jeranaias/moly-tui/internal/logging"
	"github.com/jeranaias/moly-tui/internal/provider"
	"github.com/jeranaias/moly-tui/internal/util"
	"github.com/jeranaias/moly-tui/internal/view"
)

// FileName is the preferences file name inside the data directory.
const FileName = "preferences.json"

// ErrPersistenceFailure is returned when preferences cannot be read or written.
var ErrPersistenceFailure = errors.New("preferences persistence failure")

// =============================================================================
// PREFERENCES
// =============================================================================

// Theme is the UI color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Preferences is the persisted settings record. It is rewritten in full on
// every change.
type Preferences struct {
	Theme             Theme              `json:"theme"`
	SidebarExpanded   bool               `json:"sidebar_expanded"`
	ActiveView        view.ID            `json:"active_view"`
	LastSelectedModel *provider.ModelRef `json:"last_selected_model,omitempty"`
}

// Defaults returns the preferences used when nothing is stored.
func Defaults() Preferences {
	return Preferences{
		Theme:           ThemeLight,
		SidebarExpanded: true,
		ActiveView:      view.Chat,
	}
}

// Equal reports whether p and o hold the same values.
func (p Preferences) Equal(o Preferences) bool {
	if p.Theme != o.Theme || p.SidebarExpanded != o.SidebarExpanded || p.ActiveView != o.ActiveView {
		return false
	}
	if (p.LastSelectedModel == nil) != (o.LastSelectedModel == nil) {
		return false
	}
	return p.LastSelectedModel == nil || *p.LastSelectedModel == *o.LastSelectedModel
}

// Clone returns a copy that shares no pointers with p.
func (p Preferences) Clone() Preferences {
	if p.LastSelectedModel != nil {
		ref := *p.LastSelectedModel
		p.LastSelectedModel = &ref
	}
	return p
}

// WithModel returns a copy of p with LastSelectedModel set to ref.
func (p Preferences) WithModel(ref provider.ModelRef) Preferences {
	p.LastSelectedModel = &ref
	return p
}

// sanitize replaces invalid fields with their defaults and reports whether
// anything was replaced.
func (p *Preferences) sanitize() bool {
	d := Defaults()
	changed := false
	if !p.Theme.Valid() {
		p.Theme = d.Theme
		changed = true
	}
	if !p.ActiveView.Valid() {
		p.ActiveView = d.ActiveView
		changed = true
	}
	if p.LastSelectedModel != nil && (p.LastSelectedModel.ProviderID == "" || p.LastSelectedModel.ModelID == "") {
		p.LastSelectedModel = nil
		changed = true
	}
	return changed
}

// =============================================================================
// STORE
// =============================================================================

// Store reads and writes the preferences file.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore creates a preferences store for the file at path.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logging.OrNop(logger).Named("prefs")}
}

// NewStoreInDir creates a preferences store for FileName inside dir.
func NewStoreInDir(dir string, logger *zap.Logger) *Store {
	return NewStore(filepath.Join(dir, FileName), logger)
}

// Path returns the preferences file path.
func (s *Store) Path() string {
	return s.path
}

// Read loads the stored preferences. Invalid fields are replaced with their
// defaults. A missing file is reported with an error wrapping
// ErrPersistenceFailure and satisfying os.IsNotExist via errors.Is.
func (s *Store) Read() (Preferences, error) {
	p := Defaults()
	if err := util.ReadJSON(s.path, &p); err != nil {
		return Defaults(), fmt.Errorf("%w: read %s: %w", ErrPersistenceFailure, s.path, err)
	}
	if p.sanitize() {
		s.logger.Warn("preferences contained invalid values; defaults substituted",
			zap.String("path", s.path))
	}
	return p, nil
}

// Load returns the stored preferences, or defaults when the file is missing
// or unreadable. Failures are logged, never returned.
func (s *Store) Load() Preferences {
	p, err := s.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("no preferences file; using defaults", zap.String("path", s.path))
		} else {
			s.logger.Warn("failed to load preferences; using defaults",
				zap.String("path", s.path), zap.Error(err))
		}
		return Defaults()
	}
	return p
}

// Save atomically rewrites the preferences file.
func (s *Store) Save(p Preferences) error {
	if err := util.WriteJSON(s.path, p, 0644); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}
	return nil
}
