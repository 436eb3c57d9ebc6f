// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

// =============================================================================
// LIST CURSOR
// =============================================================================

// Cursor is a selection index over a list whose length changes between
// renders.
type Cursor struct {
	Index int
}

// Clamp keeps the cursor inside a list of n items.
func (c *Cursor) Clamp(n int) {
	if c.Index >= n {
		c.Index = n - 1
	}
	if c.Index < 0 {
		c.Index = 0
	}
}

// Up moves the cursor up, wrapping to the bottom.
func (c *Cursor) Up(n int) {
	if n == 0 {
		return
	}
	c.Index = (c.Index - 1 + n) % n
}

// Down moves the cursor down, wrapping to the top.
func (c *Cursor) Down(n int) {
	if n == 0 {
		return
	}
	c.Index = (c.Index + 1) % n
}

// Window returns the [start, end) range of a list of n items that keeps the
// cursor visible in height rows.
func (c Cursor) Window(n, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := c.Index - height/2
	if start < 0 {
		start = 0
	}
	if start+height > n {
		start = n - height
	}
	return start, start + height
}
