// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/moly-tui/internal/aggregate"
	"github.com/jeranaias/moly-tui/internal/logging"
	"github.com/jeranaias/moly-tui/internal/mcp"
	"github.com/jeranaias/moly-tui/internal/model"
	"github.com/jeranaias/moly-tui/internal/prefs"
	"github.com/jeranaias/moly-tui/internal/provider"
)

// catalogTimeout bounds a single catalog write.
const catalogTimeout = 5 * time.Second

// =============================================================================
// SINKS
// =============================================================================

// PreferencesStore loads and saves preferences. *prefs.Store implements it.
type PreferencesStore interface {
	Load() prefs.Preferences
	Save(p prefs.Preferences) error
}

// ConversationSink persists conversations. *storage.ConversationStore
// implements it.
type ConversationSink interface {
	Save(conv *model.Conversation) error
	Delete(id string) error
}

// CatalogSink persists last-known provider models. *catalog.Catalog
// implements it.
type CatalogSink interface {
	Put(ctx context.Context, providerID string, models []string) error
	Delete(ctx context.Context, providerID string) error
}

// Options configures a Store. Every sink is optional.
type Options struct {
	// Aggregator owns the model lists and the routing switch. A bare
	// aggregator without fetcher or switcher is created when nil.
	Aggregator *aggregate.Aggregator

	// Providers are registered in order at construction.
	Providers []provider.Descriptor

	Preferences   PreferencesStore
	Conversations ConversationSink
	Catalog       CatalogSink

	// SaveProviders writes provider settings back to the config file.
	SaveProviders func([]provider.Descriptor) error

	// MCP is the initial MCP configuration; SaveMCP persists changes.
	MCP     mcp.Config
	SaveMCP func(mcp.Config) error

	Logger *zap.Logger
}

// =============================================================================
// STORE
// =============================================================================

// Store is the single owner of application state.
type Store struct {
	mu       sync.Mutex
	revision uint64
	prefs    prefs.Preferences
	reg      *provider.Registry
	agg      *aggregate.Aggregator
	mcp      mcp.Config

	// convs is replaced, never modified, once published in a snapshot.
	convs   map[string]*model.Conversation
	current string

	snap atomic.Pointer[Snapshot]

	subMu  sync.Mutex
	subs   map[int]chan uint64
	nextID int

	prefsStore    PreferencesStore
	convSink      ConversationSink
	catalogSink   CatalogSink
	saveProviders func([]provider.Descriptor) error
	saveMCP       func(mcp.Config) error

	// Failed writes retried on the next successful action.
	prefsPending     bool
	providersPending bool
	mcpPending       bool
	convPending      map[string]bool

	logger *zap.Logger
}

// New creates a store. Preferences are loaded from opts.Preferences, falling
// back to defaults.
func New(opts Options) *Store {
	logger := logging.OrNop(opts.Logger).Named("store")

	agg := opts.Aggregator
	if agg == nil {
		agg = aggregate.New(aggregate.Options{Logger: opts.Logger})
	}

	p := prefs.Defaults()
	if opts.Preferences != nil {
		p = opts.Preferences.Load()
	}

	reg := provider.NewRegistry()
	for _, d := range opts.Providers {
		reg.Upsert(d.ID, d)
	}

	mcpCfg := opts.MCP
	if mcpCfg.Servers == nil {
		mcpCfg = mcp.Default()
	}

	s := &Store{
		prefs:         p,
		reg:           reg,
		agg:           agg,
		mcp:           mcpCfg,
		convs:         make(map[string]*model.Conversation),
		subs:          make(map[int]chan uint64),
		prefsStore:    opts.Preferences,
		convSink:      opts.Conversations,
		catalogSink:   opts.Catalog,
		saveProviders: opts.SaveProviders,
		saveMCP:       opts.SaveMCP,
		convPending:   make(map[string]bool),
		logger:        logger,
	}

	s.mu.Lock()
	agg.Publish(reg)
	s.publish()
	s.mu.Unlock()
	return s
}

// Snapshot returns the current immutable snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Revision returns the current revision.
func (s *Store) Revision() uint64 {
	return s.snap.Load().Revision
}

// Apply applies one action. On success the revision increments by exactly
// one and subscribers are signalled. On failure nothing changes.
func (s *Store) Apply(a Action) error {
	if a == nil {
		return invalid("nil action")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTxn()
	if err := a.apply(s, tx); err != nil {
		s.logger.Debug("action rejected",
			zap.String("action", actionName(a)),
			zap.Uint64("revision", s.revision),
			zap.Error(err))
		return err
	}

	s.revision++
	s.persist(tx)
	snap := s.publish()
	s.notify(snap.Revision)

	s.logger.Debug("action applied",
		zap.String("action", actionName(a)),
		zap.Uint64("revision", snap.Revision))
	return nil
}

// =============================================================================
// WORKER ACCESS
// =============================================================================

// FetchModels queries every fetchable provider of snap in parallel. It reads
// no store state and is meant to run off the event loop; deliver the results
// with ProviderModelsLoaded.
func (s *Store) FetchModels(ctx context.Context, snap *Snapshot) []aggregate.FetchResult {
	return s.agg.FetchAll(ctx, snap.Registry())
}

// FetchProvider queries a single provider.
func (s *Store) FetchProvider(ctx context.Context, d provider.Descriptor) aggregate.FetchResult {
	return s.agg.Fetch(ctx, d)
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe returns a channel that receives the latest revision after each
// successful action. Signals coalesce: a slow reader sees only the newest
// revision. Call the returned function to unsubscribe.
func (s *Store) Subscribe() (<-chan uint64, func()) {
	ch := make(chan uint64, 1)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify(rev uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- rev:
		default:
			// Replace the unread revision with the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- rev:
			default:
			}
		}
	}
}

// =============================================================================
// PUBLICATION AND PERSISTENCE
// =============================================================================

func (s *Store) publish() *Snapshot {
	snap := &Snapshot{
		Revision:              s.revision,
		Preferences:           s.prefs.Clone(),
		Providers:             s.reg.List(),
		Models:                s.agg.Models(s.reg),
		ActiveProvider:        s.agg.Active(),
		CurrentConversationID: s.current,
		MCP:                   s.mcp.Clone(),
		registry:              s.reg.Clone(),
		conversations:         s.convs,
		order:                 recencyOrder(s.convs),
	}
	s.snap.Store(snap)
	return snap
}

// txn collects the writes an action requires.
type txn struct {
	prefs         bool
	providers     bool
	mcp           bool
	saveConvs     []string
	deleteConvs   []string
	catalogPut    []string
	catalogDelete []string
}

func newTxn() *txn {
	return &txn{}
}

func (tx *txn) saveConversation(id string) {
	tx.saveConvs = append(tx.saveConvs, id)
}

// persist runs the sinks. Failures are logged and retried on the next
// successful action.
func (s *Store) persist(tx *txn) {
	if s.prefsStore != nil && (tx.prefs || s.prefsPending) {
		if err := s.prefsStore.Save(s.prefs); err != nil {
			s.prefsPending = true
			s.logger.Warn("preferences save failed; will retry", zap.Error(err))
		} else {
			if s.prefsPending {
				s.logger.Info("pending preferences saved")
			}
			s.prefsPending = false
		}
	}

	if s.convSink != nil {
		for _, id := range tx.deleteConvs {
			delete(s.convPending, id)
			if err := s.convSink.Delete(id); err != nil {
				s.logger.Warn("conversation delete failed", zap.String("conversation", id), zap.Error(err))
			}
		}
		for _, id := range tx.saveConvs {
			s.convPending[id] = true
		}
		for id := range s.convPending {
			c, ok := s.convs[id]
			if !ok {
				delete(s.convPending, id)
				continue
			}
			if err := s.convSink.Save(c); err != nil {
				s.logger.Warn("conversation save failed; will retry", zap.String("conversation", id), zap.Error(err))
				continue
			}
			delete(s.convPending, id)
		}
	}

	if s.saveProviders != nil && (tx.providers || s.providersPending) {
		if err := s.saveProviders(s.reg.List()); err != nil {
			s.providersPending = true
			s.logger.Warn("provider settings save failed; will retry", zap.Error(err))
		} else {
			s.providersPending = false
		}
	}

	if s.saveMCP != nil && (tx.mcp || s.mcpPending) {
		if err := s.saveMCP(s.mcp); err != nil {
			s.mcpPending = true
			s.logger.Warn("mcp configuration save failed; will retry", zap.Error(err))
		} else {
			s.mcpPending = false
		}
	}

	if s.catalogSink != nil && (len(tx.catalogPut) > 0 || len(tx.catalogDelete) > 0) {
		ctx, cancel := context.WithTimeout(context.Background(), catalogTimeout)
		defer cancel()
		for _, id := range tx.catalogPut {
			if err := s.catalogSink.Put(ctx, id, s.agg.Known(id)); err != nil {
				s.logger.Warn("catalog write failed", zap.String("provider", id), zap.Error(err))
			}
		}
		for _, id := range tx.catalogDelete {
			if err := s.catalogSink.Delete(ctx, id); err != nil {
				s.logger.Warn("catalog delete failed", zap.String("provider", id), zap.Error(err))
			}
		}
	}
}

// =============================================================================
// STATE HELPERS
// =============================================================================

// putConversation stores c in a fresh map so published snapshots are never
// modified.
func (s *Store) putConversation(c *model.Conversation) {
	next := maps.Clone(s.convs)
	next[c.ID] = c
	s.convs = next
}

func (s *Store) deleteConversation(id string) {
	next := maps.Clone(s.convs)
	delete(next, id)
	s.convs = next
}

// updateConversation applies fn to a clone of the conversation and stores
// the clone only if fn succeeds.
func (s *Store) updateConversation(id string, fn func(c *model.Conversation) error) error {
	cur, ok := s.convs[id]
	if !ok {
		return notFound("conversation", id)
	}
	c := cur.Clone()
	if err := fn(c); err != nil {
		return err
	}
	s.putConversation(c)
	return nil
}

// mostRecent returns the most recently updated conversation id, or "".
func (s *Store) mostRecent() string {
	if order := recencyOrder(s.convs); len(order) > 0 {
		return order[0]
	}
	return ""
}

// handOff moves routing to the aggregator's fallback provider after the
// active provider was removed or disabled.
func (s *Store) handOff() {
	fb, ok := s.agg.Fallback(s.reg)
	if !ok {
		s.agg.ClearActive(s.reg)
		s.logger.Info("no provider left to route to")
		return
	}
	if err := s.agg.SwitchActiveProvider(s.reg, fb.ID); err != nil {
		s.logger.Warn("fallback switch failed", zap.String("provider", fb.ID), zap.Error(err))
		s.agg.ClearActive(s.reg)
	}
}

// ensureRoute attaches a provider when none is active: the current
// conversation's provider, else the last selected model's, else the
// fallback.
func (s *Store) ensureRoute() {
	active := s.agg.Active()
	if active != "" {
		if !s.reg.IsEnabled(active) {
			s.handOff()
		}
		return
	}

	target := ""
	if c, ok := s.convs[s.current]; ok && s.reg.IsEnabled(c.ProviderID) {
		target = c.ProviderID
	} else if ref := s.prefs.LastSelectedModel; ref != nil && s.reg.IsEnabled(ref.ProviderID) {
		target = ref.ProviderID
	} else if fb, ok := s.agg.Fallback(s.reg); ok {
		target = fb.ID
	}
	if target == "" {
		return
	}
	if err := s.agg.SwitchActiveProvider(s.reg, target); err != nil {
		s.logger.Warn("initial provider switch failed", zap.String("provider", target), zap.Error(err))
	}
}

// routeTo switches to providerID when it is enabled and not already active.
// Failures are logged; the caller's change stands.
func (s *Store) routeTo(providerID string) {
	if providerID == "" || providerID == s.agg.Active() || !s.reg.IsEnabled(providerID) {
		return
	}
	if err := s.agg.SwitchActiveProvider(s.reg, providerID); err != nil {
		s.logger.Warn("provider switch failed", zap.String("provider", providerID), zap.Error(err))
	}
}

// restoreSelections rebinds the saved model and the current conversation's
// model when they are no longer offered.
func (s *Store) restoreSelections(tx *txn) {
	if len(s.agg.Models(s.reg)) == 0 {
		return
	}

	if ref := s.prefs.LastSelectedModel; ref != nil && !s.agg.Contains(s.reg, *ref) {
		if resolved, ok := s.agg.Resolve(s.reg, *ref); ok {
			s.logger.Info("saved model unavailable; substituting",
				zap.String("saved", ref.String()), zap.String("model", resolved.String()))
			s.prefs = s.prefs.WithModel(resolved)
			tx.prefs = true
		}
	}

	c, ok := s.convs[s.current]
	if !ok || s.agg.Contains(s.reg, c.Model) {
		return
	}
	resolved, ok := s.agg.Resolve(s.reg, c.Model)
	if !ok {
		return
	}
	clone := c.Clone()
	clone.SetModel(resolved)
	s.putConversation(clone)
	tx.saveConversation(clone.ID)
}

func actionName(a Action) string {
	return fmt.Sprintf("%T", a)
}
