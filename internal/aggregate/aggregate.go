// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/moly-tui/internal/logging"
	"github.com/jeranaias/moly-tui/internal/provider"
)

var (
	// ErrStaleResult is returned when a fetch result arrives after its
	// provider was removed, disabled or reconfigured.
	ErrStaleResult = errors.New("stale result")

	// ErrProviderUnreachable is returned when a provider's model fetch failed.
	// Its previously known models are kept.
	ErrProviderUnreachable = errors.New("provider unreachable")
)

// DefaultConcurrency bounds parallel provider fetches.
const DefaultConcurrency = 4

// Switcher is the routing client that services new messages. SetProvider
// resets its model table; a zero descriptor means no provider.
type Switcher interface {
	SetProvider(d provider.Descriptor) error
	SetModels(models []provider.ModelRef)
}

// FetchResult is the outcome of one provider fetch. Generation is the
// provider generation the fetch was started against.
type FetchResult struct {
	ProviderID string
	Generation uint64
	Models     []string
	Err        error
	Duration   time.Duration
}

// Options configures an Aggregator.
type Options struct {
	Fetcher      provider.Fetcher
	Switcher     Switcher
	FetchTimeout time.Duration
	Concurrency  int
	Logger       *zap.Logger
}

// Aggregator tracks the last-known models of every provider and which
// provider is active.
type Aggregator struct {
	mu     sync.RWMutex
	known  map[string][]string
	active string

	// switchMu serializes SwitchActiveProvider and Publish so the window
	// between clearing and restoring the switcher's table is never observed.
	switchMu sync.Mutex

	fetcher      provider.Fetcher
	switcher     Switcher
	fetchTimeout time.Duration
	concurrency  int
	logger       *zap.Logger
}

// New creates an Aggregator.
func New(opts Options) *Aggregator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Aggregator{
		known:        make(map[string][]string),
		fetcher:      opts.Fetcher,
		switcher:     opts.Switcher,
		fetchTimeout: opts.FetchTimeout,
		concurrency:  opts.Concurrency,
		logger:       logging.OrNop(opts.Logger).Named("aggregate"),
	}
}

// =============================================================================
// AGGREGATE LIST
// =============================================================================

// Models returns the aggregate: every enabled provider's last-known models in
// registration order, then model order.
func (a *Aggregator) Models(reg *provider.Registry) []provider.ModelRef {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.modelsLocked(reg)
}

func (a *Aggregator) modelsLocked(reg *provider.Registry) []provider.ModelRef {
	var out []provider.ModelRef
	for _, d := range reg.ListEnabled() {
		for _, id := range a.known[d.ID] {
			out = append(out, provider.ModelRef{ProviderID: d.ID, ModelID: id})
		}
	}
	return out
}

// Known returns the last-known model ids of a provider, enabled or not.
func (a *Aggregator) Known(id string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.known[id]...)
}

// Contains reports whether ref is part of the aggregate.
func (a *Aggregator) Contains(reg *provider.Registry, ref provider.ModelRef) bool {
	if !reg.IsEnabled(ref.ProviderID) {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, id := range a.known[ref.ProviderID] {
		if id == ref.ModelID {
			return true
		}
	}
	return false
}

// Publish pushes the current aggregate to the switcher and returns it.
// Callers invoke it after any change to providers or models.
func (a *Aggregator) Publish(reg *provider.Registry) []provider.ModelRef {
	a.switchMu.Lock()
	defer a.switchMu.Unlock()

	models := a.Models(reg)
	if a.switcher != nil {
		a.switcher.SetModels(models)
	}
	return models
}

// =============================================================================
// RECORDING RESULTS
// =============================================================================

// Record stores the models returned by a provider, replacing what was known.
// Duplicate and empty ids are dropped; the first occurrence wins.
func (a *Aggregator) Record(id string, models []string) {
	clean := dedupe(models)
	a.mu.Lock()
	a.known[id] = clean
	a.mu.Unlock()
}

// Restore seeds last-known models for providers that have none yet, such as
// from a persisted catalog at startup. Fresh results are never overwritten.
func (a *Aggregator) Restore(models map[string][]string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, list := range models {
		if _, ok := a.known[id]; ok {
			continue
		}
		a.known[id] = dedupe(list)
	}
}

// MarkDegraded flags a provider whose fetch failed. Known models are kept.
func (a *Aggregator) MarkDegraded(reg *provider.Registry, id string, cause error) error {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return reg.SetStatus(id, provider.StatusDegraded, detail)
}

// CheckResult reports whether res still applies to the registry: its provider
// must exist, be enabled and still be at the generation the fetch started on.
func CheckResult(reg *provider.Registry, res FetchResult) error {
	d, ok := reg.Get(res.ProviderID)
	switch {
	case !ok:
		return fmt.Errorf("%w: provider %q was removed", ErrStaleResult, res.ProviderID)
	case !d.Enabled:
		return fmt.Errorf("%w: provider %q is disabled", ErrStaleResult, res.ProviderID)
	case d.Generation != res.Generation:
		return fmt.Errorf("%w: provider %q changed (generation %d, result %d)",
			ErrStaleResult, res.ProviderID, d.Generation, res.Generation)
	}
	return nil
}

// Apply records a fetch result. Stale results are rejected with
// ErrStaleResult and change nothing. A failed fetch marks the provider
// degraded and returns an error wrapping ErrProviderUnreachable; its known
// models are retained.
func (a *Aggregator) Apply(reg *provider.Registry, res FetchResult) error {
	if err := CheckResult(reg, res); err != nil {
		return err
	}
	if res.Err != nil {
		if err := a.MarkDegraded(reg, res.ProviderID, res.Err); err != nil {
			return err
		}
		a.logger.Warn("provider fetch failed; keeping known models",
			zap.String("provider", res.ProviderID),
			zap.Int("known", len(a.Known(res.ProviderID))),
			zap.Error(res.Err))
		return fmt.Errorf("%w: %s: %w", ErrProviderUnreachable, res.ProviderID, res.Err)
	}

	a.Record(res.ProviderID, res.Models)
	a.logger.Debug("provider models recorded",
		zap.String("provider", res.ProviderID),
		zap.Int("models", len(res.Models)),
		zap.Duration("duration", res.Duration))
	return reg.SetStatus(res.ProviderID, provider.StatusConnected, "")
}

// ReplaceAll replaces every provider's known models with refs, grouped by
// provider in the order given. Enabled providers absent from refs end up with
// no models; disabled ones keep what they had so re-enabling shows them again.
// Every ref must name a registered provider.
func (a *Aggregator) ReplaceAll(reg *provider.Registry, refs []provider.ModelRef) error {
	grouped := make(map[string][]string)
	for _, ref := range refs {
		if !reg.Has(ref.ProviderID) {
			return fmt.Errorf("%w: %q", provider.ErrNotFound, ref.ProviderID)
		}
		grouped[ref.ProviderID] = append(grouped[ref.ProviderID], ref.ModelID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	known := make(map[string][]string, len(grouped))
	for id, list := range a.known {
		if reg.Has(id) && !reg.IsEnabled(id) {
			known[id] = list
		}
	}
	a.known = known
	for id, list := range grouped {
		a.known[id] = dedupe(list)
	}
	return nil
}

// Forget drops everything known about a removed provider.
func (a *Aggregator) Forget(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.known, id)
	if a.active == id {
		a.active = ""
	}
}

// =============================================================================
// FETCHING
// =============================================================================

// Fetch queries a single provider. It never returns an error directly; the
// outcome is carried in the result.
func (a *Aggregator) Fetch(ctx context.Context, d provider.Descriptor) FetchResult {
	res := FetchResult{ProviderID: d.ID, Generation: d.Generation}
	if a.fetcher == nil {
		res.Err = errors.New("no fetcher configured")
		return res
	}
	if a.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.fetchTimeout)
		defer cancel()
	}

	start := time.Now()
	res.Models, res.Err = a.fetcher.ListModels(ctx, d)
	res.Duration = time.Since(start)
	return res
}

// FetchAll queries every fetchable provider in parallel and returns the
// results in registration order. One slow or failing provider does not block
// the others.
func (a *Aggregator) FetchAll(ctx context.Context, reg *provider.Registry) []FetchResult {
	var targets []provider.Descriptor
	for _, d := range reg.ListEnabled() {
		if d.Fetchable() {
			targets = append(targets, d)
		}
	}

	results := make([]FetchResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, d := range targets {
		g.Go(func() error {
			results[i] = a.Fetch(gctx, d)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Refresh fetches every enabled provider and applies the results. Failing
// providers keep their known models and are marked degraded. The returned
// list is the new aggregate.
func (a *Aggregator) Refresh(ctx context.Context, reg *provider.Registry) []provider.ModelRef {
	for _, res := range a.FetchAll(ctx, reg) {
		if err := a.Apply(reg, res); err != nil && !errors.Is(err, ErrProviderUnreachable) {
			a.logger.Debug("discarding fetch result", zap.String("provider", res.ProviderID), zap.Error(err))
		}
	}
	return a.Publish(reg)
}

// =============================================================================
// ACTIVE PROVIDER
// =============================================================================

// Active returns the id of the provider servicing new messages.
func (a *Aggregator) Active() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active
}

// SwitchActiveProvider routes new messages to the provider with id.
//
// The switcher drops its model table when its provider changes, so the
// aggregate is captured first and re-applied after the switch, also when the
// switch fails. The whole sequence runs under the switch lock.
func (a *Aggregator) SwitchActiveProvider(reg *provider.Registry, id string) error {
	d, ok := reg.Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", provider.ErrNotFound, id)
	}
	if !d.Enabled {
		return fmt.Errorf("provider %q is disabled", id)
	}

	a.switchMu.Lock()
	defer a.switchMu.Unlock()

	snapshot := a.Models(reg)
	if a.switcher != nil {
		err := a.switcher.SetProvider(d)
		a.switcher.SetModels(snapshot)
		if err != nil {
			return fmt.Errorf("switch to %q: %w", id, err)
		}
	}

	a.mu.Lock()
	prev := a.active
	a.active = id
	a.mu.Unlock()

	a.logger.Info("active provider switched",
		zap.String("from", prev),
		zap.String("to", id),
		zap.Int("models", len(snapshot)))
	return nil
}

// ClearActive detaches the switcher from every provider, keeping its table.
func (a *Aggregator) ClearActive(reg *provider.Registry) {
	a.switchMu.Lock()
	defer a.switchMu.Unlock()

	snapshot := a.Models(reg)
	if a.switcher != nil {
		_ = a.switcher.SetProvider(provider.Descriptor{})
		a.switcher.SetModels(snapshot)
	}
	a.mu.Lock()
	a.active = ""
	a.mu.Unlock()
}

// Fallback picks the provider to hand control to when the active one goes
// away: the first enabled provider with known models, else the first enabled
// provider.
func (a *Aggregator) Fallback(reg *provider.Registry) (provider.Descriptor, bool) {
	enabled := reg.ListEnabled()
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, d := range enabled {
		if len(a.known[d.ID]) > 0 {
			return d, true
		}
	}
	if len(enabled) > 0 {
		return enabled[0], true
	}
	return provider.Descriptor{}, false
}

// Resolve maps a saved model reference onto the aggregate: the exact entry if
// present, else the same provider's model whose id matches once a "models/"
// prefix is ignored, else the first aggregate model. It reports false when the
// aggregate is empty.
func (a *Aggregator) Resolve(reg *provider.Registry, ref provider.ModelRef) (provider.ModelRef, bool) {
	models := a.Models(reg)
	if len(models) == 0 {
		return provider.ModelRef{}, false
	}
	for _, m := range models {
		if m == ref {
			return m, true
		}
	}
	bare := ref.BareModelID()
	for _, m := range models {
		if m.ProviderID == ref.ProviderID && m.BareModelID() == bare {
			return m, true
		}
	}
	return models[0], true
}

func dedupe(models []string) []string {
	seen := make(map[string]struct{}, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
