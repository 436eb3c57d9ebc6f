// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence.
//
// Each conversation is one JSON file named after its ID, written atomically.
// Conversations are never removed implicitly; Delete is the only way a file
// disappears.
//
// # Usage
//
//	store, err := storage.NewConversationStoreWithDir(filepath.Join(dataDir, "chats"))
//	err = store.Save(conv)
//	convs, skipped, err := store.LoadAll()
//	metas, err := store.List()
package storage
