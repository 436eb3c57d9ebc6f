// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: a chat with its messages, selected model and routing provider
//   - Message: a single message value; assistant turns move through
//     streaming, complete and failed states
//   - Role: message role enumeration (user, assistant, system)
//   - ModelInfo: display metadata for well-known model families
//
// # Usage
//
//	conv := model.NewConversation("", provider.ModelRef{ProviderID: "ollama", ModelID: "llama3.1:8b"})
//	conv.AddMessage(model.NewUserMessage("Hello!"))
//	fmt.Println(conv.GetTitle()) // "Hello!"
//
// Conversations held by a store snapshot are shared; Clone before mutating.
package model
