// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"errors"

	"go.uber.org/zap"

	"github.com/jeranaias/moly-tui/internal/aggregate"
	"github.com/jeranaias/moly-tui/internal/mcp"
	"github.com/jeranaias/moly-tui/internal/model"
	"github.com/jeranaias/moly-tui/internal/prefs"
	"github.com/jeranaias/moly-tui/internal/provider"
	"github.com/jeranaias/moly-tui/internal/view"
)

// Action is a state change. The set is closed: only the types in this file
// implement it.
//
// An action validates before it mutates, so a failing action leaves the
// store untouched.
type Action interface {
	apply(s *Store, tx *txn) error
}

// =============================================================================
// PREFERENCES
// =============================================================================

// SetTheme selects the color theme.
type SetTheme struct {
	Theme prefs.Theme
}

func (a SetTheme) apply(s *Store, tx *txn) error {
	if !a.Theme.Valid() {
		return invalid("unknown theme %q", a.Theme)
	}
	s.prefs.Theme = a.Theme
	tx.prefs = true
	return nil
}

// SetSidebarExpanded expands or collapses the conversation sidebar.
type SetSidebarExpanded struct {
	Expanded bool
}

func (a SetSidebarExpanded) apply(s *Store, tx *txn) error {
	s.prefs.SidebarExpanded = a.Expanded
	tx.prefs = true
	return nil
}

// SetActiveView records the view the user navigated to.
type SetActiveView struct {
	View view.ID
}

func (a SetActiveView) apply(s *Store, tx *txn) error {
	if !a.View.Valid() {
		return invalid("unknown view %q", a.View)
	}
	s.prefs.ActiveView = a.View
	tx.prefs = true
	return nil
}

// =============================================================================
// PROVIDERS
// =============================================================================

// UpsertProvider registers or reconfigures a provider. It never fetches
// models; the caller schedules a refresh. FromFile marks changes read from
// the config file, which are not written back.
type UpsertProvider struct {
	ID         string
	Descriptor provider.Descriptor
	FromFile   bool
}

func (a UpsertProvider) apply(s *Store, tx *txn) error {
	if a.ID == "" {
		return invalid("provider id is empty")
	}
	if !a.Descriptor.Kind.Valid() {
		return invalid("provider %q: unknown kind %q", a.ID, a.Descriptor.Kind)
	}

	wasActive := s.agg.Active() == a.ID
	d := s.reg.Upsert(a.ID, a.Descriptor)
	tx.providers = !a.FromFile

	switch {
	case wasActive && !d.Enabled:
		s.handOff()
	case wasActive:
		// Reconnect so the routing client picks up the new settings.
		if err := s.agg.SwitchActiveProvider(s.reg, d.ID); err != nil {
			s.logger.Warn("reconnect failed", zap.String("provider", d.ID), zap.Error(err))
		}
	}
	s.agg.Publish(s.reg)
	s.ensureRoute()
	return nil
}

// RemoveProvider unregisters a provider and drops its models. If it was
// active, routing falls back to another provider, and conversations bound to
// it are rerouted.
type RemoveProvider struct {
	ID       string
	FromFile bool
}

func (a RemoveProvider) apply(s *Store, tx *txn) error {
	if !s.reg.Has(a.ID) {
		return notFound("provider", a.ID)
	}

	wasActive := s.agg.Active() == a.ID
	if err := s.reg.Remove(a.ID); err != nil {
		return err
	}
	s.agg.Forget(a.ID)
	tx.providers = !a.FromFile
	tx.catalogDelete = append(tx.catalogDelete, a.ID)

	if wasActive {
		s.handOff()
	}
	s.agg.Publish(s.reg)

	target := s.agg.Active()
	for _, c := range s.convs {
		if c.ProviderID != a.ID && c.Model.ProviderID != a.ID {
			continue
		}
		clone := c.Clone()
		if clone.Model.ProviderID == a.ID {
			if resolved, ok := s.agg.Resolve(s.reg, clone.Model); ok {
				clone.SetModel(resolved)
			}
		}
		if clone.ProviderID == a.ID {
			clone.RouteTo(target)
		}
		s.putConversation(clone)
		tx.saveConversation(clone.ID)
	}
	return nil
}

// SetProviderStatus records a provider's connection status.
type SetProviderStatus struct {
	ID     string
	Status provider.Status
	Detail string
}

func (a SetProviderStatus) apply(s *Store, tx *txn) error {
	if !s.reg.Has(a.ID) {
		return notFound("provider", a.ID)
	}
	return s.reg.SetStatus(a.ID, a.Status, a.Detail)
}

// SwitchActiveProvider routes new messages to a provider, including those of
// the current conversation. The aggregate model list is preserved across the
// switch.
type SwitchActiveProvider struct {
	ID string
}

func (a SwitchActiveProvider) apply(s *Store, tx *txn) error {
	d, ok := s.reg.Get(a.ID)
	if !ok {
		return notFound("provider", a.ID)
	}
	if !d.Enabled {
		return invalid("provider %q is disabled", a.ID)
	}
	if err := s.agg.SwitchActiveProvider(s.reg, a.ID); err != nil {
		return err
	}

	// The current conversation follows the switch; otherwise selecting it
	// again would route back to its old provider.
	if c, ok := s.convs[s.current]; ok && c.ProviderID != a.ID {
		clone := c.Clone()
		clone.RouteTo(a.ID)
		s.putConversation(clone)
		tx.saveConversation(clone.ID)
	}
	return nil
}

// =============================================================================
// MODELS
// =============================================================================

// ReplaceAggregateModels replaces the whole aggregate. Every entry must name
// a registered provider.
type ReplaceAggregateModels struct {
	Models []provider.ModelRef
}

func (a ReplaceAggregateModels) apply(s *Store, tx *txn) error {
	if err := s.agg.ReplaceAll(s.reg, a.Models); err != nil {
		if errors.Is(err, provider.ErrNotFound) {
			return errors.Join(ErrNotFound, err)
		}
		return err
	}
	for _, d := range s.reg.List() {
		tx.catalogPut = append(tx.catalogPut, d.ID)
	}
	s.agg.Publish(s.reg)
	s.restoreSelections(tx)
	s.ensureRoute()
	return nil
}

// ProviderModelsLoaded delivers fetch results from a worker.
//
// Stale results are discarded. Failed fetches mark their provider degraded
// and keep its known models. The action fails with ErrStaleResult only when
// every result was stale.
type ProviderModelsLoaded struct {
	Results []aggregate.FetchResult
}

func (a ProviderModelsLoaded) apply(s *Store, tx *txn) error {
	if len(a.Results) == 0 {
		return invalid("no fetch results")
	}

	// Every result is checked before any is applied, so an all-stale batch
	// changes nothing.
	fresh := make([]aggregate.FetchResult, 0, len(a.Results))
	var staleErr error
	for _, res := range a.Results {
		if err := aggregate.CheckResult(s.reg, res); err != nil {
			s.logger.Debug("discarding stale fetch result",
				zap.String("provider", res.ProviderID), zap.Error(err))
			staleErr = err
			continue
		}
		fresh = append(fresh, res)
	}
	if len(fresh) == 0 {
		return staleErr
	}

	for _, res := range fresh {
		err := s.agg.Apply(s.reg, res)
		switch {
		case err == nil:
			tx.catalogPut = append(tx.catalogPut, res.ProviderID)
		case errors.Is(err, ErrProviderUnreachable):
			// Logged by the aggregator; the provider is now degraded.
		default:
			s.logger.Warn("fetch result not applied", zap.String("provider", res.ProviderID), zap.Error(err))
		}
	}

	s.agg.Publish(s.reg)
	s.restoreSelections(tx)
	s.ensureRoute()
	return nil
}

// RestoreCatalog seeds last-known models persisted by an earlier run.
// Providers that already have fresh results are left alone.
type RestoreCatalog struct {
	Models map[string][]string
}

func (a RestoreCatalog) apply(s *Store, tx *txn) error {
	known := make(map[string][]string, len(a.Models))
	for id, list := range a.Models {
		if s.reg.Has(id) {
			known[id] = list
		}
	}
	s.agg.Restore(known)
	s.agg.Publish(s.reg)
	s.ensureRoute()
	return nil
}

// SelectModel binds a conversation to a model from the aggregate, remembers
// it as the last selection and routes to its provider.
type SelectModel struct {
	ConversationID string
	Model          provider.ModelRef
}

func (a SelectModel) apply(s *Store, tx *txn) error {
	cur, ok := s.convs[a.ConversationID]
	if !ok {
		return notFound("conversation", a.ConversationID)
	}
	if !s.agg.Contains(s.reg, a.Model) {
		return notFound("model", a.Model.String())
	}

	// The switch is the only step that can fail, so it runs first.
	if s.agg.Active() != a.Model.ProviderID {
		if err := s.agg.SwitchActiveProvider(s.reg, a.Model.ProviderID); err != nil {
			return err
		}
	}

	c := cur.Clone()
	c.SetModel(a.Model)
	s.putConversation(c)
	tx.saveConversation(c.ID)

	s.prefs = s.prefs.WithModel(a.Model)
	tx.prefs = true
	return nil
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// CreateConversation starts a conversation and makes it current. A zero
// Model inherits the most recent conversation's model, else the last
// selected model, else the first model in the aggregate. ID may be empty to
// generate one.
type CreateConversation struct {
	ID    string
	Model provider.ModelRef
}

func (a CreateConversation) apply(s *Store, tx *txn) error {
	if a.ID != "" {
		if _, exists := s.convs[a.ID]; exists {
			return invalid("conversation %q already exists", a.ID)
		}
	}

	ref := a.Model
	if !ref.IsZero() && !s.reg.Has(ref.ProviderID) {
		return notFound("provider", ref.ProviderID)
	}
	if ref.IsZero() {
		if recent, ok := s.convs[s.mostRecent()]; ok {
			ref = recent.Model
		}
	}
	if ref.IsZero() && s.prefs.LastSelectedModel != nil {
		ref = *s.prefs.LastSelectedModel
	}
	if ref.IsZero() {
		if first, ok := s.agg.Resolve(s.reg, provider.ModelRef{}); ok {
			ref = first
		}
	}

	c := model.NewConversation(a.ID, ref)
	s.putConversation(c)
	s.current = c.ID
	tx.saveConversation(c.ID)
	s.routeTo(c.ProviderID)
	return nil
}

// SelectConversation makes a conversation current and routes to its
// provider.
type SelectConversation struct {
	ID string
}

func (a SelectConversation) apply(s *Store, tx *txn) error {
	c, ok := s.convs[a.ID]
	if !ok {
		return notFound("conversation", a.ID)
	}
	s.current = a.ID
	s.routeTo(c.ProviderID)
	return nil
}

// DeleteConversation removes a conversation. Deleting the current one
// selects the most recently updated remaining conversation.
type DeleteConversation struct {
	ID string
}

func (a DeleteConversation) apply(s *Store, tx *txn) error {
	if _, ok := s.convs[a.ID]; !ok {
		return notFound("conversation", a.ID)
	}
	s.deleteConversation(a.ID)
	tx.deleteConvs = append(tx.deleteConvs, a.ID)
	if s.current == a.ID {
		s.current = s.mostRecent()
	}
	return nil
}

// LoadConversations adds persisted conversations, replacing any with the
// same id. If none is current, the most recent becomes current.
type LoadConversations struct {
	Conversations []*model.Conversation
}

func (a LoadConversations) apply(s *Store, tx *txn) error {
	next := make(map[string]*model.Conversation, len(s.convs)+len(a.Conversations))
	for id, c := range s.convs {
		next[id] = c
	}
	for _, c := range a.Conversations {
		if c == nil || c.ID == "" {
			continue
		}
		next[c.ID] = c.Clone()
	}
	s.convs = next

	if _, ok := s.convs[s.current]; !ok {
		s.current = s.mostRecent()
	}
	s.ensureRoute()
	return nil
}

// AppendMessage adds a completed message to a conversation.
type AppendMessage struct {
	ConversationID string
	Message        model.Message
}

func (a AppendMessage) apply(s *Store, tx *txn) error {
	if !a.Message.Role.Valid() {
		return invalid("unknown role %q", a.Message.Role)
	}
	err := s.updateConversation(a.ConversationID, func(c *model.Conversation) error {
		c.AddMessage(a.Message)
		return nil
	})
	if err != nil {
		return err
	}
	tx.saveConversation(a.ConversationID)
	return nil
}

// =============================================================================
// STREAMED TURNS
// =============================================================================

// StartTurn adds an empty streaming assistant message. A zero Model uses the
// conversation's model.
type StartTurn struct {
	ConversationID string
	MessageID      string
	Model          provider.ModelRef
}

func (a StartTurn) apply(s *Store, tx *txn) error {
	if a.MessageID == "" {
		return invalid("message id is empty")
	}
	return s.updateConversation(a.ConversationID, func(c *model.Conversation) error {
		if _, busy := c.Streaming(); busy {
			return invalid("conversation %q already has a reply in progress", c.ID)
		}
		ref := a.Model
		if ref.IsZero() {
			ref = c.Model
		}
		c.AddMessage(model.NewAssistantMessage(a.MessageID, ref))
		return nil
	})
}

// AppendDelta appends streamed text to an in-progress reply. Deltas for a
// deleted conversation or a finished reply are stale.
type AppendDelta struct {
	ConversationID string
	MessageID      string
	Delta          string
}

func (a AppendDelta) apply(s *Store, tx *txn) error {
	return s.finishOrAppend(a.ConversationID, a.MessageID, func(c *model.Conversation) error {
		return c.AppendDelta(a.MessageID, a.Delta)
	}, nil)
}

// CompleteTurn marks a reply complete.
type CompleteTurn struct {
	ConversationID string
	MessageID      string
}

func (a CompleteTurn) apply(s *Store, tx *txn) error {
	return s.finishOrAppend(a.ConversationID, a.MessageID, func(c *model.Conversation) error {
		return c.FinishMessage(a.MessageID, "")
	}, tx)
}

// FailTurn marks a reply failed. Partial content is kept.
type FailTurn struct {
	ConversationID string
	MessageID      string
	Err            string
}

func (a FailTurn) apply(s *Store, tx *txn) error {
	msg := a.Err
	if msg == "" {
		msg = "request failed"
	}
	return s.finishOrAppend(a.ConversationID, a.MessageID, func(c *model.Conversation) error {
		return c.FinishMessage(a.MessageID, msg)
	}, tx)
}

// finishOrAppend applies a streaming update, mapping missing targets to
// ErrStaleResult. A non-nil tx persists the conversation.
func (s *Store) finishOrAppend(convID, msgID string, fn func(c *model.Conversation) error, tx *txn) error {
	if _, ok := s.convs[convID]; !ok {
		return stale("conversation %q is gone", convID)
	}
	err := s.updateConversation(convID, fn)
	if errors.Is(err, model.ErrMessageNotFound) {
		return stale("message %q is not streaming", msgID)
	}
	if err != nil {
		return err
	}
	if tx != nil {
		tx.saveConversation(convID)
	}
	return nil
}

// =============================================================================
// MCP
// =============================================================================

// SetMcpServerEnabled enables or disables one MCP server.
type SetMcpServerEnabled struct {
	ID      string
	Enabled bool
}

func (a SetMcpServerEnabled) apply(s *Store, tx *txn) error {
	cfg, err := s.mcp.SetServerEnabled(a.ID, a.Enabled)
	if err != nil {
		if errors.Is(err, mcp.ErrServerNotFound) {
			return notFound("mcp server", a.ID)
		}
		return err
	}
	s.mcp = cfg
	tx.mcp = true
	return nil
}

// SetMcpEnabled turns MCP support on or off.
type SetMcpEnabled struct {
	Enabled bool
}

func (a SetMcpEnabled) apply(s *Store, tx *txn) error {
	s.mcp = s.mcp.Clone()
	s.mcp.Enabled = a.Enabled
	tx.mcp = true
	return nil
}

// SetMcpDangerousMode allows MCP tools to run without confirmation.
type SetMcpDangerousMode struct {
	Enabled bool
}

func (a SetMcpDangerousMode) apply(s *Store, tx *txn) error {
	s.mcp = s.mcp.Clone()
	s.mcp.DangerousMode = a.Enabled
	tx.mcp = true
	return nil
}

// ReplaceMcpConfig installs a configuration re-read from disk. It is not
// written back.
type ReplaceMcpConfig struct {
	Config mcp.Config
}

func (a ReplaceMcpConfig) apply(s *Store, tx *txn) error {
	if err := a.Config.Validate(); err != nil {
		return invalid("mcp configuration: %v", err)
	}
	s.mcp = a.Config.Clone()
	return nil
}
