// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/moly-tui/internal/logging"
	"github.com/jeranaias/moly-tui/internal/model"
	"github.com/jeranaias/moly-tui/internal/provider"
)

// ErrNoProvider is returned when a turn is started with no provider.
var ErrNoProvider = errors.New("no provider selected")

// ErrUnknownModel is returned when a turn names a model missing from the
// model table.
var ErrUnknownModel = errors.New("model not offered")

// Options configures a Router.
type Options struct {
	// Factory builds provider clients (default: DefaultFactory).
	Factory ClientFactory

	// Timeout bounds non-streaming requests such as model listings.
	Timeout time.Duration

	Logger *zap.Logger
}

// Router services new messages through the active provider and keeps the
// model table the chat view offers.
//
// Router is safe for concurrent use.
type Router struct {
	mu      sync.RWMutex
	active  provider.Descriptor
	client  Client
	models  []provider.ModelRef
	factory ClientFactory
	logger  *zap.Logger
}

// New creates a Router with no active provider.
func New(opts Options) *Router {
	logger := logging.OrNop(opts.Logger).Named("router")
	if opts.Factory == nil {
		opts.Factory = DefaultFactory(opts.Timeout, logger)
	}
	return &Router{factory: opts.Factory, logger: logger}
}

// =============================================================================
// ACTIVE PROVIDER AND MODEL TABLE
// =============================================================================

// SetProvider makes d the active provider. The model table is reset, as a
// new client starts without one. A zero descriptor detaches the router.
func (r *Router) SetProvider(d provider.Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.models = nil
	if d.ID == "" {
		r.active = provider.Descriptor{}
		r.client = nil
		return nil
	}

	client, err := r.factory(d)
	if err != nil {
		return err
	}
	r.active = d
	r.client = client
	r.logger.Debug("provider set", zap.String("provider", d.ID), zap.String("kind", string(d.Kind)))
	return nil
}

// SetModels replaces the model table.
func (r *Router) SetModels(models []provider.ModelRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models = append([]provider.ModelRef(nil), models...)
}

// offers reports whether ref may be used for a turn. An empty table, as
// right after a switch or before the first refresh, offers everything.
func (r *Router) offers(ref provider.ModelRef) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models) == 0 || slices.Contains(r.models, ref)
}

// Active returns the active provider descriptor.
func (r *Router) Active() provider.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// =============================================================================
// TURNS
// =============================================================================

// Request describes one chat turn.
type Request struct {
	// Provider services the turn. Conversations may be routed to a provider
	// other than the router's active one.
	Provider provider.Descriptor
	ModelID  string
	History  []model.Message
}

// Stream runs a chat turn and calls onDelta for each content fragment, in
// order, on the calling goroutine. It returns when the turn completes.
func (r *Router) Stream(ctx context.Context, req Request, onDelta func(string)) error {
	if req.Provider.ID == "" {
		return ErrNoProvider
	}
	ref := provider.ModelRef{ProviderID: req.Provider.ID, ModelID: req.ModelID}
	if !r.offers(ref) {
		return fmt.Errorf("%w: %s", ErrUnknownModel, ref)
	}
	client, err := r.clientFor(req.Provider)
	if err != nil {
		return err
	}

	start := time.Now()
	var fragments int
	err = client.Stream(ctx, req.ModelID, req.History, func(s string) {
		fragments++
		onDelta(s)
	})
	r.logger.Debug("turn finished",
		zap.String("provider", req.Provider.ID),
		zap.String("model", req.ModelID),
		zap.Int("fragments", fragments),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
	if err != nil {
		return fmt.Errorf("%s/%s: %w", req.Provider.ID, req.ModelID, err)
	}
	return nil
}

// ListModels implements provider.Fetcher.
func (r *Router) ListModels(ctx context.Context, d provider.Descriptor) ([]string, error) {
	client, err := r.clientFor(d)
	if err != nil {
		return nil, err
	}
	return client.ListModels(ctx)
}

// clientFor reuses the active client when d is the active connection.
func (r *Router) clientFor(d provider.Descriptor) (Client, error) {
	r.mu.RLock()
	if r.client != nil && r.active.SameConnection(d) {
		c := r.client
		r.mu.RUnlock()
		return c, nil
	}
	r.mu.RUnlock()
	return r.factory(d)
}
