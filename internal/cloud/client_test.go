// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(url string) *Client {
	return NewClient(Config{BaseURL: url, APIKey: "sk-test", RetryDelay: time.Millisecond})
}

// =============================================================================
// MODEL LIST TESTS
// =============================================================================

func TestModelIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o"},{"id":"gpt-4o-mini"}]}`))
	}))
	defer server.Close()

	ids, err := testClient(server.URL + "/v1/").ModelIDs(context.Background())
	if err != nil {
		t.Fatalf("ModelIDs failed: %v", err)
	}
	if strings.Join(ids, ",") != "gpt-4o,gpt-4o-mini" {
		t.Errorf("ModelIDs = %v", ids)
	}
}

func TestListModels_NotConfigured(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://unused", APIKey: "  "})
	if _, err := client.ListModels(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestListModels_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, ErrAuthFailed},
		{http.StatusPaymentRequired, ``, ErrInsufficientCredits},
		{http.StatusNotFound, `{"error":{"message":"nope"}}`, ErrModelNotFound},
		{http.StatusForbidden, `[{"error":{"code":403,"message":"denied"}}]`, ErrAuthFailed},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprint(tc.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := testClient(server.URL).ListModels(context.Background())
			if !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestListModels_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"invalid_request","message":"bad"}}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).ListModels(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Code != "invalid_request" || apiErr.Status != http.StatusBadRequest {
		t.Errorf("APIError = %+v", apiErr)
	}
}

// =============================================================================
// RETRY TESTS
// =============================================================================

func TestRetry_RecoversFromTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data":[{"id":"m"}]}`))
	}))
	defer server.Close()

	ids, err := testClient(server.URL).ModelIDs(context.Background())
	if err != nil {
		t.Fatalf("ModelIDs failed: %v", err)
	}
	if len(ids) != 1 || calls.Load() != 3 {
		t.Errorf("ids=%v calls=%d", ids, calls.Load())
	}
}

func TestRetry_GivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testClient(server.URL).ListModels(context.Background())
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if calls.Load() != DefaultMaxRetries {
		t.Errorf("calls = %d, want %d", calls.Load(), DefaultMaxRetries)
	}
}

func TestCalculateBackoff_Capped(t *testing.T) {
	c := NewClient(Config{RetryDelay: time.Second})
	if got := c.calculateBackoff(2); got != 4*time.Second {
		t.Errorf("backoff(2) = %v, want 4s", got)
	}
	if got := c.calculateBackoff(10); got != retryMaxDelay {
		t.Errorf("backoff(10) = %v, want %v", got, retryMaxDelay)
	}
}

// =============================================================================
// STREAMING TESTS
// =============================================================================

func sseServer(t *testing.T, events ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, e := range events {
			fmt.Fprintf(w, "data: %s\n\n", e)
		}
	}))
}

func TestChatStream(t *testing.T) {
	server := sseServer(t,
		`{"choices":[{"delta":{"role":"assistant","content":"Hel"}}]}`,
		`{"choices":[{"delta":{"content":"lo"}}]}`,
		`garbage`,
		`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		`[DONE]`,
	)
	defer server.Close()

	var got strings.Builder
	err := testClient(server.URL).ChatStream(context.Background(), "gpt-4o",
		[]ChatMessage{{Role: "user", Content: "hi"}},
		func(c StreamChunk) { got.WriteString(c.GetContent()) })
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	if got.String() != "Hello" {
		t.Errorf("content = %q, want %q", got.String(), "Hello")
	}
}

func TestChatStream_ErrorEventKeepsPartial(t *testing.T) {
	server := sseServer(t,
		`{"choices":[{"delta":{"content":"part"}}]}`,
		`{"error":{"message":"overloaded"}}`,
	)
	defer server.Close()

	err := testClient(server.URL).ChatStream(context.Background(), "m", nil, func(StreamChunk) {})
	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("expected *StreamError, got %v", err)
	}
	if streamErr.Partial != "part" || !strings.Contains(err.Error(), "overloaded") {
		t.Errorf("StreamError = %v (partial %q)", err, streamErr.Partial)
	}
}

func TestChatStream_Concurrent(t *testing.T) {
	server := sseServer(t, `{"choices":[{"delta":{"content":"x"},"finish_reason":"stop"}]}`)
	defer server.Close()
	client := testClient(server.URL)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs <- client.ChatStream(context.Background(), fmt.Sprintf("model-%d", n), nil, func(StreamChunk) {})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent stream failed: %v", err)
		}
	}
}

func TestSSEReader_MultiLineData(t *testing.T) {
	reader := NewSSEReader(strings.NewReader("event: msg\ndata: a\ndata: b\n\n: comment\ndata: tail"))

	kind, data, err := reader.ReadEvent()
	if err != nil || kind != "msg" || string(data) != "a\nb" {
		t.Fatalf("first event = %q %q %v", kind, data, err)
	}
	_, data, err = reader.ReadEvent()
	if err != nil || string(data) != "tail" {
		t.Fatalf("second event = %q %v", data, err)
	}
}
