// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// CLIENT CONFIG TESTS
// =============================================================================

func TestNewClientWithConfig_Defaults(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{})

	if client.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", client.BaseURL(), DefaultBaseURL)
	}
	if client.config.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", client.config.Timeout)
	}
}

func TestNewClientWithConfig_TrimsSlash(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{BaseURL: "http://host:11434/"})
	if client.BaseURL() != "http://host:11434" {
		t.Errorf("BaseURL = %q", client.BaseURL())
	}
}

// =============================================================================
// MODEL LIST TESTS
// =============================================================================

func TestModelNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ListModelsResponse{Models: []ModelInfo{
			{Name: "llama3.1:8b"},
			{Name: "qwen2.5-coder:7b"},
		}})
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	names, err := client.ModelNames(context.Background())
	if err != nil {
		t.Fatalf("ModelNames failed: %v", err)
	}
	if strings.Join(names, ",") != "llama3.1:8b,qwen2.5-coder:7b" {
		t.Errorf("ModelNames = %v", names)
	}
}

func TestListModels_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	if _, err := client.ListModels(context.Background()); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestListModels_NotRunning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: url, Timeout: time.Second})
	_, err := client.ListModels(context.Background())
	if !IsNotRunning(err) {
		t.Errorf("expected not-running error, got %v", err)
	}
}

func TestListModels_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.ListModels(ctx)
	if !IsTimeout(err) {
		t.Errorf("expected timeout error, got %v", err)
	}
}

// =============================================================================
// STREAMING TESTS
// =============================================================================

func streamServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !req.Stream {
			t.Error("request should ask for streaming")
		}
		for _, line := range lines {
			fmt.Fprintln(w, line)
		}
	}))
}

func TestChatStream(t *testing.T) {
	server := streamServer(t,
		`{"model":"llama3","message":{"role":"assistant","content":"Hel"},"done":false}`,
		``,
		`not json`,
		`{"model":"llama3","message":{"role":"assistant","content":"lo"},"done":false}`,
		`{"model":"llama3","message":{"role":"assistant","content":""},"done":true,"eval_count":2,"eval_duration":1000000000}`,
	)
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	var got strings.Builder
	var final StreamChunk
	err := client.ChatStream(context.Background(), "llama3", []Message{{Role: "user", Content: "hi"}}, func(c StreamChunk) {
		got.WriteString(c.Content)
		if c.Done {
			final = c
		}
	})
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	if got.String() != "Hello" {
		t.Errorf("content = %q, want %q", got.String(), "Hello")
	}
	if final.CompletionTokens != 2 || final.TokensPerSecond() != 2 {
		t.Errorf("final chunk = %+v", final)
	}
}

func TestChatStream_MidStreamError(t *testing.T) {
	server := streamServer(t,
		`{"message":{"role":"assistant","content":"partial"},"done":false}`,
		`{"error":"model crashed"}`,
	)
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	err := client.ChatStream(context.Background(), "llama3", nil, func(StreamChunk) {})
	if err == nil || !strings.Contains(err.Error(), "model crashed") {
		t.Errorf("expected mid-stream error, got %v", err)
	}
}

func TestChatStream_ModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	err := client.ChatStream(context.Background(), "missing", nil, func(StreamChunk) {})
	if !IsModelNotFound(err) {
		t.Errorf("expected model-not-found, got %v", err)
	}
}

func TestStreamReader_CarriesModelAcrossChunks(t *testing.T) {
	input := `{"model":"m","message":{"content":"a"}}` + "\n" +
		`{"message":{"content":"b"},"done":true,"eval_count":4,"eval_duration":2000000000}` + "\n"
	reader := NewStreamReader(strings.NewReader(input))

	var chunks []StreamChunk
	if err := reader.Process(context.Background(), func(c StreamChunk) { chunks = append(chunks, c) }); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	last := chunks[1]
	if last.Model != "m" || !last.Done || last.TokensPerSecond() != 2 {
		t.Errorf("final chunk = %+v", last)
	}
}

func TestStreamReader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := NewStreamReader(strings.NewReader(`{"message":{"content":"a"}}` + "\n"))
	if err := reader.Process(ctx, func(StreamChunk) {}); err != context.Canceled {
		t.Errorf("Process = %v, want context.Canceled", err)
	}
}

func TestClientError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &ClientError{Type: ErrTypeTimeout, Message: "request timed out"})
	if !IsTimeout(err) {
		t.Error("wrapped timeout should match ErrTimeout")
	}
	if IsNotRunning(err) {
		t.Error("timeout should not match ErrNotRunning")
	}
}
