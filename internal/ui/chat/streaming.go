// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/moly-tui/internal/logging"
	"github.com/jeranaias/moly-tui/internal/router"
	"github.com/jeranaias/moly-tui/internal/store"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer batches deltas so a reply produces one store update per
// batch rather than one per token. A batch is released when it holds
// batchSize fragments or minFlush has passed since the last release.
//
// Thread-safety: all operations are protected by a mutex.
type StreamingBuffer struct {
	mu         sync.Mutex
	buffer     strings.Builder
	tokenCount int
	lastFlush  time.Time

	batchSize int
	maxFPS    int
	minFlush  time.Duration
}

const (
	defaultBatchSize = 15
	defaultMaxFPS    = 30
)

// NewStreamingBuffer creates a buffer with a batch size of 15 fragments and
// at most 30 releases per second.
func NewStreamingBuffer() *StreamingBuffer {
	return NewStreamingBufferWithConfig(defaultBatchSize, defaultMaxFPS)
}

// NewStreamingBufferWithConfig creates a buffer with custom thresholds.
// Out-of-range values fall back to the defaults.
func NewStreamingBufferWithConfig(batchSize, maxFPS int) *StreamingBuffer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = defaultMaxFPS
	}
	return &StreamingBuffer{
		batchSize: batchSize,
		maxFPS:    maxFPS,
		minFlush:  time.Duration(1000/maxFPS) * time.Millisecond,
		lastFlush: time.Now(),
	}
}

// Write adds a fragment to the buffer.
func (sb *StreamingBuffer) Write(token string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.WriteString(token)
	sb.tokenCount++
}

// Flush returns the buffered content when a threshold has been reached.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if !sb.shouldFlushLocked() {
		return "", false
	}
	return sb.takeLocked(), true
}

// ForceFlush returns whatever is buffered regardless of thresholds.
func (sb *StreamingBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if sb.buffer.Len() == 0 {
		return "", false
	}
	return sb.takeLocked(), true
}

// ShouldFlush reports whether Flush would release content.
func (sb *StreamingBuffer) ShouldFlush() bool {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.shouldFlushLocked()
}

// Pending returns the number of fragments waiting to be released.
func (sb *StreamingBuffer) Pending() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.tokenCount
}

// Reset drops buffered content.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.Reset()
	sb.tokenCount = 0
	sb.lastFlush = time.Now()
}

// GetConfig returns the buffer thresholds.
func (sb *StreamingBuffer) GetConfig() (batchSize, maxFPS int, minFlush time.Duration) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.batchSize, sb.maxFPS, sb.minFlush
}

// caller must hold sb.mu
func (sb *StreamingBuffer) shouldFlushLocked() bool {
	if sb.buffer.Len() == 0 {
		return false
	}
	return sb.tokenCount >= sb.batchSize || time.Since(sb.lastFlush) >= sb.minFlush
}

// caller must hold sb.mu
func (sb *StreamingBuffer) takeLocked() string {
	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.tokenCount = 0
	sb.lastFlush = time.Now()
	return content
}

// =============================================================================
// STREAM RUNNER
// =============================================================================

// Sender delivers messages to the event loop. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// Streamer runs one chat turn. *router.Router implements it.
type Streamer interface {
	Stream(ctx context.Context, req router.Request, onDelta func(string)) error
}

// TurnMsg carries a streamed-turn action from a runner goroutine to the
// event loop, which applies it.
type TurnMsg struct {
	Action store.Action
}

// Turn identifies the assistant message a stream fills.
type Turn struct {
	ConversationID string
	MessageID      string
	Request        router.Request
}

// cancelledReason is recorded on a reply stopped by the user.
const cancelledReason = "cancelled"

// StreamRunner runs turns off the event loop. At most one turn runs per
// conversation.
type StreamRunner struct {
	sender   Sender
	streamer Streamer
	logger   *zap.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewStreamRunner creates a runner that reports to sender.
func NewStreamRunner(sender Sender, streamer Streamer, logger *zap.Logger) *StreamRunner {
	return &StreamRunner{
		sender:   sender,
		streamer: streamer,
		logger:   logging.OrNop(logger).Named("stream"),
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Start runs turn in a new goroutine. The StartTurn action must already have
// been applied. It reports false when the conversation already has a turn
// running.
func (r *StreamRunner) Start(ctx context.Context, turn Turn) bool {
	r.mu.Lock()
	if _, busy := r.cancels[turn.ConversationID]; busy {
		r.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancels[turn.ConversationID] = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer r.finish(turn.ConversationID)
		r.run(ctx, turn)
	}()
	return true
}

// Cancel stops the turn running for a conversation.
func (r *StreamRunner) Cancel(conversationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancel, ok := r.cancels[conversationID]
	if ok {
		cancel()
	}
	return ok
}

// Running reports whether a turn is running for a conversation.
func (r *StreamRunner) Running(conversationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cancels[conversationID]
	return ok
}

// Close cancels every running turn and waits for the goroutines to exit.
func (r *StreamRunner) Close() {
	r.mu.Lock()
	for _, cancel := range r.cancels {
		cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *StreamRunner) finish(conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, ok := r.cancels[conversationID]; ok {
		cancel()
		delete(r.cancels, conversationID)
	}
}

func (r *StreamRunner) run(ctx context.Context, turn Turn) {
	buf := NewStreamingBuffer()
	send := func(delta string) {
		r.sender.Send(TurnMsg{Action: store.AppendDelta{
			ConversationID: turn.ConversationID,
			MessageID:      turn.MessageID,
			Delta:          delta,
		}})
	}

	err := r.streamer.Stream(ctx, turn.Request, func(s string) {
		buf.Write(s)
		if content, ok := buf.Flush(); ok {
			send(content)
		}
	})
	if content, ok := buf.ForceFlush(); ok {
		send(content)
	}

	switch {
	case err == nil:
		r.sender.Send(TurnMsg{Action: store.CompleteTurn{
			ConversationID: turn.ConversationID,
			MessageID:      turn.MessageID,
		}})
	case errors.Is(err, context.Canceled):
		r.logger.Debug("turn cancelled", zap.String("conversation", turn.ConversationID))
		r.sender.Send(TurnMsg{Action: store.FailTurn{
			ConversationID: turn.ConversationID,
			MessageID:      turn.MessageID,
			Err:            cancelledReason,
		}})
	default:
		r.logger.Warn("turn failed",
			zap.String("conversation", turn.ConversationID),
			zap.String("provider", turn.Request.Provider.ID),
			zap.Error(err))
		r.sender.Send(TurnMsg{Action: store.FailTurn{
			ConversationID: turn.ConversationID,
			MessageID:      turn.MessageID,
			Err:            err.Error(),
		}})
	}
}
