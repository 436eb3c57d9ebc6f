// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the Ollama API.
//
// Only the two calls moly needs are implemented: listing installed models
// (GET /api/tags) and streaming a chat turn (POST /api/chat).
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: "http://127.0.0.1:11434"})
//	names, err := client.ModelNames(ctx)
//
//	err = client.ChatStream(ctx, "llama3.1:8b", msgs, func(c ollama.StreamChunk) {
//	    fmt.Print(c.Content)
//	})
//
// Errors are *ClientError values; use IsNotRunning, IsTimeout and
// IsModelNotFound to classify them.
package ollama
