// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package view

// Attachment records which store revision a panel's cached handles were
// taken from. A panel calls Reacquire when it becomes visible; the acquire
// callback drops cached handles and re-reads them from the current snapshot.
type Attachment struct {
	attached bool
	revision uint64
}

// Reacquire runs acquire unless the panel is already attached at rev.
// It reports whether acquire ran.
func (a *Attachment) Reacquire(rev uint64, acquire func()) bool {
	if a.attached && a.revision == rev {
		return false
	}
	acquire()
	a.attached = true
	a.revision = rev
	return true
}

// Detach forgets the attachment so the next Reacquire always runs.
// Panels call it when they become hidden.
func (a *Attachment) Detach() {
	a.attached = false
}

// Revision returns the revision of the last acquisition and whether the
// panel is attached.
func (a *Attachment) Revision() (uint64, bool) {
	return a.revision, a.attached
}
