// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package view

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    ID
		wantErr bool
	}{
		{"chat", Chat, false},
		{" Models ", Models, false},
		{"SETTINGS", Settings, false},
		{"mcp", Mcp, false},
		{"sidebar", "", true},
		{"", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := Parse(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestTitle(t *testing.T) {
	require.Equal(t, "Chat", Chat.Title())
	require.Equal(t, "Settings", Settings.Title())
	require.Equal(t, "MCP", Mcp.Title())
}

func TestNextPrevWrap(t *testing.T) {
	require.Equal(t, Models, Chat.Next())
	require.Equal(t, Chat, Mcp.Next())
	require.Equal(t, Mcp, Chat.Prev())
}

func TestCoordinator_InitialState(t *testing.T) {
	c := NewCoordinator(Settings)

	for _, v := range All() {
		want := Hidden
		if v == Settings {
			want = Visible
		}
		require.Equal(t, want, c.State(v), "view %s", v)
	}
}

func TestCoordinator_InvalidStartupFallsBackToChat(t *testing.T) {
	require.Equal(t, Chat, NewCoordinator("bogus").Visible())
}

func TestCoordinator_ActivateEmitsOnce(t *testing.T) {
	c := NewCoordinator(Chat)

	events := c.Activate(Models)
	require.Equal(t, []Event{
		{Kind: BecameHidden, View: Chat},
		{Kind: BecameVisible, View: Models},
	}, events)
	require.Equal(t, Visible, c.State(Models))
	require.Equal(t, Hidden, c.State(Chat))

	// Already frontmost: nothing changes.
	require.Empty(t, c.Activate(Models))
	require.Equal(t, Models, c.Visible())
}

func TestCoordinator_ActivateInvalid(t *testing.T) {
	c := NewCoordinator(Chat)
	require.Nil(t, c.Activate("nope"))
	require.Equal(t, Chat, c.Visible())
}

func TestAttachment_ReacquireIdempotent(t *testing.T) {
	var a Attachment
	calls := 0
	acquire := func() { calls++ }

	require.True(t, a.Reacquire(4, acquire))
	require.False(t, a.Reacquire(4, acquire))
	require.Equal(t, 1, calls)

	require.True(t, a.Reacquire(5, acquire))
	require.Equal(t, 2, calls)

	rev, attached := a.Revision()
	require.True(t, attached)
	require.Equal(t, uint64(5), rev)
}

func TestAttachment_DetachForcesReacquire(t *testing.T) {
	var a Attachment
	calls := 0
	acquire := func() { calls++ }

	a.Reacquire(7, acquire)
	a.Detach()
	require.True(t, a.Reacquire(7, acquire))
	require.Equal(t, 2, calls)
}
