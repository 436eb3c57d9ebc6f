// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sort"
	"strings"

	"github.com/jeranaias/moly-tui/internal/provider"
)

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo is display metadata for a well-known model family. Providers
// only report bare ids, so the Models view enriches them from this table.
type ModelInfo struct {
	// Family is the id prefix that identifies the model family.
	Family string `json:"family"`

	// Name is the human-readable display name.
	Name string `json:"name"`

	// MaxTokens is the context window size.
	MaxTokens int `json:"max_tokens"`

	// Description is a brief explanation of the model's strengths.
	Description string `json:"description"`
}

// =============================================================================
// KNOWN FAMILIES
// =============================================================================

var families = []ModelInfo{
	{Family: "claude-3-5-sonnet", Name: "Claude 3.5 Sonnet", MaxTokens: 200000, Description: "Best balance of speed and capability"},
	{Family: "claude-3-haiku", Name: "Claude 3 Haiku", MaxTokens: 200000, Description: "Fast and efficient for simple tasks"},
	{Family: "claude-3-opus", Name: "Claude 3 Opus", MaxTokens: 200000, Description: "Most capable for complex reasoning"},
	{Family: "gpt-4o-mini", Name: "GPT-4o Mini", MaxTokens: 128000, Description: "Cost-effective for simple tasks"},
	{Family: "gpt-4o", Name: "GPT-4o", MaxTokens: 128000, Description: "Fast multimodal model with vision"},
	{Family: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", MaxTokens: 2000000, Description: "Very long context multimodal model"},
	{Family: "gemini-1.5-flash", Name: "Gemini 1.5 Flash", MaxTokens: 1000000, Description: "Low latency long context model"},
	{Family: "deepseek-chat", Name: "DeepSeek Chat", MaxTokens: 64000, Description: "General purpose chat model"},
	{Family: "deepseek-coder", Name: "DeepSeek Coder", MaxTokens: 16384, Description: "Strong code understanding"},
	{Family: "llama3.1", Name: "Llama 3.1", MaxTokens: 128000, Description: "Extended context Llama 3"},
	{Family: "llama3", Name: "Llama 3", MaxTokens: 8192, Description: "Meta's versatile open-source model"},
	{Family: "qwen2.5-coder", Name: "Qwen 2.5 Coder", MaxTokens: 32768, Description: "Optimized for code generation"},
	{Family: "codellama", Name: "Code Llama", MaxTokens: 16384, Description: "Meta's code-focused model"},
	{Family: "mixtral", Name: "Mixtral 8x7B", MaxTokens: 32768, Description: "MoE for complex reasoning"},
	{Family: "mistral", Name: "Mistral", MaxTokens: 32768, Description: "Fast and efficient general purpose"},
	{Family: "phi3", Name: "Phi-3", MaxTokens: 4096, Description: "Microsoft's compact efficient model"},
	{Family: "gemma2", Name: "Gemma 2", MaxTokens: 8192, Description: "Google's lightweight model"},
}

func init() {
	// Longest family first so "gpt-4o-mini" wins over "gpt-4o".
	sort.SliceStable(families, func(i, j int) bool {
		return len(families[i].Family) > len(families[j].Family)
	})
}

// Describe returns metadata for the model family ref belongs to.
// Matching ignores the "models/" prefix and Ollama tags ("llama3.1:8b").
func Describe(ref provider.ModelRef) (ModelInfo, bool) {
	id := strings.ToLower(ref.BareModelID())
	if i := strings.IndexByte(id, ':'); i >= 0 {
		id = id[:i]
	}
	for _, info := range families {
		if strings.HasPrefix(id, info.Family) {
			return info, true
		}
	}
	return ModelInfo{}, false
}

// CapabilitiesString returns a short summary of the model's strengths.
func (m ModelInfo) CapabilitiesString() string {
	caps := []string{}

	if m.MaxTokens >= 100000 {
		caps = append(caps, "Long context")
	} else if m.MaxTokens >= 32000 {
		caps = append(caps, "Extended context")
	}
	if strings.Contains(strings.ToLower(m.Name), "coder") || strings.Contains(strings.ToLower(m.Name), "code ") {
		caps = append(caps, "Code")
	}

	if len(caps) == 0 {
		return "General purpose"
	}
	return strings.Join(caps, ", ")
}
