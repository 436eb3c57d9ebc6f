// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"errors"
	"fmt"

	"github.com/jeranaias/moly-tui/internal/aggregate"
	"github.com/jeranaias/moly-tui/internal/prefs"
)

var (
	// ErrNotFound is returned when an action names an unknown conversation,
	// provider, model or MCP server.
	ErrNotFound = errors.New("not found")

	// ErrInvalidAction is returned for malformed actions such as an empty id
	// or an unknown enum value.
	ErrInvalidAction = errors.New("invalid action")

	// ErrStaleResult marks a worker result that no longer applies.
	ErrStaleResult = aggregate.ErrStaleResult

	// ErrProviderUnreachable marks a failed provider fetch.
	ErrProviderUnreachable = aggregate.ErrProviderUnreachable

	// ErrPersistenceFailure marks a failed preferences read or write.
	ErrPersistenceFailure = prefs.ErrPersistenceFailure
)

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAction, fmt.Sprintf(format, args...))
}

func stale(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStaleResult, fmt.Sprintf(format, args...))
}
