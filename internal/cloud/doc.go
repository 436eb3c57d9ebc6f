// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides a client for OpenAI-compatible chat APIs.
//
// OpenAI, Anthropic, Gemini, Groq and DeepSeek all expose the same two
// endpoints moly needs: GET /models and POST /chat/completions with SSE
// streaming. Requests carry a bearer token; 5xx and 429 responses are retried
// with exponential backoff.
//
// CLOUD: API keys never appear in logs.
package cloud
