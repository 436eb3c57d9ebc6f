// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

// DefaultOllamaURL is the local Ollama endpoint.
// Uses an explicit IPv4 address to avoid IPv6 localhost resolution issues on Windows.
const DefaultOllamaURL = "http://127.0.0.1:11434"

// Supported returns the providers known out of the box, in display order.
// Cloud providers start without credentials and are therefore unconfigured
// until a key is supplied.
func Supported() []Descriptor {
	return []Descriptor{
		{ID: "openai", Name: "OpenAI", Kind: KindOpenAI, Endpoint: "https://api.openai.com/v1", Enabled: true},
		{ID: "anthropic", Name: "Anthropic", Kind: KindOpenAI, Endpoint: "https://api.anthropic.com/v1", Enabled: true},
		{ID: "gemini", Name: "Google Gemini", Kind: KindOpenAI, Endpoint: "https://generativelanguage.googleapis.com/v1beta/openai", Enabled: true},
		{ID: "ollama", Name: "Ollama (Local)", Kind: KindOllama, Endpoint: DefaultOllamaURL, Enabled: true},
		{ID: "groq", Name: "Groq", Kind: KindOpenAI, Endpoint: "https://api.groq.com/openai/v1", Enabled: true},
		{ID: "deepseek", Name: "DeepSeek", Kind: KindOpenAI, Endpoint: "https://api.deepseek.com/v1", Enabled: true},
	}
}
