// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a provider id is not registered.
var ErrNotFound = errors.New("provider not found")

// Registry is an ordered mapping from provider id to Descriptor.
//
// Registry is not safe for concurrent mutation; it is owned by the store,
// which serializes every write.
type Registry struct {
	order []string
	byID  map[string]Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Descriptor)}
}

// Upsert registers or replaces the provider with the given id and returns the
// stored descriptor. A new id is appended; an existing id keeps its position.
// The generation is bumped and the status reset, since the connection facts
// may have changed.
func (r *Registry) Upsert(id string, d Descriptor) Descriptor {
	d.ID = id
	prev, exists := r.byID[id]
	if !exists {
		r.order = append(r.order, id)
	}
	d.Generation = prev.Generation + 1
	d.StatusDetail = ""
	if d.HasCredentials() {
		d.Status = StatusNotConnected
	} else {
		d.Status = StatusUnconfigured
	}
	r.byID[id] = d
	return d
}

// Remove unregisters a provider.
func (r *Registry) Remove(id string) error {
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(r.byID, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// SetStatus records the connection status of a provider.
func (r *Registry) SetStatus(id string, status Status, detail string) error {
	d, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	d.Status = status
	d.StatusDetail = detail
	r.byID[id] = d
	return nil
}

// Get returns the descriptor for id.
func (r *Registry) Get(id string) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return len(r.order)
}

// List returns every descriptor in registration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// ListEnabled returns the enabled descriptors in registration order.
func (r *Registry) ListEnabled() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		if d := r.byID[id]; d.Enabled {
			out = append(out, d)
		}
	}
	return out
}

// IsEnabled reports whether id is registered and enabled.
func (r *Registry) IsEnabled(id string) bool {
	d, ok := r.byID[id]
	return ok && d.Enabled
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		order: append([]string(nil), r.order...),
		byID:  make(map[string]Descriptor, len(r.byID)),
	}
	for id, d := range r.byID {
		c.byID[id] = d
	}
	return c
}
