// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/moly-tui/internal/cloud"
	"github.com/jeranaias/moly-tui/internal/model"
	"github.com/jeranaias/moly-tui/internal/ollama"
	"github.com/jeranaias/moly-tui/internal/provider"
)

// Client is the capability a provider backend offers: list models and
// stream a chat turn.
type Client interface {
	ListModels(ctx context.Context) ([]string, error)
	Stream(ctx context.Context, modelID string, history []model.Message, onDelta func(string)) error
}

// ClientFactory builds a Client for a descriptor.
type ClientFactory func(d provider.Descriptor) (Client, error)

// DefaultFactory returns the factory that builds real HTTP clients.
func DefaultFactory(timeout time.Duration, logger *zap.Logger) ClientFactory {
	return func(d provider.Descriptor) (Client, error) {
		if d.Endpoint == "" {
			return nil, fmt.Errorf("provider %q has no endpoint", d.ID)
		}
		switch d.Kind {
		case provider.KindOllama:
			return &ollamaClient{
				c: ollama.NewClientWithConfig(&ollama.ClientConfig{
					BaseURL: d.Endpoint,
					Timeout: timeout,
				}),
				logger: logger,
			}, nil
		case provider.KindOpenAI, "":
			return &cloudClient{c: cloud.NewClient(cloud.Config{
				BaseURL: d.Endpoint,
				APIKey:  d.APIKey,
				Timeout: timeout,
				Logger:  logger,
			})}, nil
		default:
			return nil, fmt.Errorf("provider %q: unsupported kind %q", d.ID, d.Kind)
		}
	}
}

// =============================================================================
// OLLAMA ADAPTER
// =============================================================================

type ollamaClient struct {
	c      *ollama.Client
	logger *zap.Logger
}

func (o *ollamaClient) ListModels(ctx context.Context) ([]string, error) {
	return o.c.ModelNames(ctx)
}

func (o *ollamaClient) Stream(ctx context.Context, modelID string, history []model.Message, onDelta func(string)) error {
	msgs := make([]ollama.Message, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, ollama.Message{Role: m.Role.String(), Content: m.Content})
	}
	return o.c.ChatStream(ctx, modelID, msgs, func(chunk ollama.StreamChunk) {
		if chunk.Content != "" {
			onDelta(chunk.Content)
		}
		if chunk.Done && o.logger != nil {
			o.logger.Debug("ollama reply finished",
				zap.String("model", chunk.Model),
				zap.String("reason", chunk.DoneReason),
				zap.Int("completion_tokens", chunk.CompletionTokens),
				zap.Float64("tokens_per_second", chunk.TokensPerSecond()),
				zap.Duration("total", chunk.TotalDuration))
		}
	})
}

// =============================================================================
// OPENAI-COMPATIBLE ADAPTER
// =============================================================================

type cloudClient struct {
	c *cloud.Client
}

func (o *cloudClient) ListModels(ctx context.Context) ([]string, error) {
	return o.c.ModelIDs(ctx)
}

func (o *cloudClient) Stream(ctx context.Context, modelID string, history []model.Message, onDelta func(string)) error {
	msgs := make([]cloud.ChatMessage, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, cloud.ChatMessage{Role: m.Role.String(), Content: m.Content})
	}
	return o.c.ChatStream(ctx, modelID, msgs, func(chunk cloud.StreamChunk) {
		if s := chunk.GetContent(); s != "" {
			onDelta(s)
		}
	})
}
