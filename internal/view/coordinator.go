// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package view

import "sync"

// =============================================================================
// VISIBILITY STATE
// =============================================================================

// State is the visibility of a single view.
type State int

const (
	Hidden State = iota
	Visible
)

// String returns the state name.
func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "hidden"
}

// EventKind distinguishes visibility transitions.
type EventKind int

const (
	BecameHidden EventKind = iota
	BecameVisible
)

// Event is emitted by Activate for each view whose state changed.
type Event struct {
	Kind EventKind
	View ID
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator is the visibility state machine. Exactly one view is Visible.
type Coordinator struct {
	mu      sync.Mutex
	visible ID
}

// NewCoordinator creates a coordinator with startup visible and every other
// view hidden. An invalid startup view falls back to Chat.
func NewCoordinator(startup ID) *Coordinator {
	if !startup.Valid() {
		startup = Chat
	}
	return &Coordinator{visible: startup}
}

// Activate makes v the frontmost view. It returns a BecameHidden event for
// the previously visible view followed by exactly one BecameVisible event for
// v. Activating the view that is already visible changes nothing and returns
// no events.
func (c *Coordinator) Activate(v ID) []Event {
	if !v.Valid() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.visible == v {
		return nil
	}
	prev := c.visible
	c.visible = v
	return []Event{
		{Kind: BecameHidden, View: prev},
		{Kind: BecameVisible, View: v},
	}
}

// Visible returns the frontmost view.
func (c *Coordinator) Visible() ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// State returns the visibility of v.
func (c *Coordinator) State(v ID) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.visible == v {
		return Visible
	}
	return Hidden
}
