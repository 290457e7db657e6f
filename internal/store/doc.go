// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the client state: conversations, per-conversation
// messages and citations, the seven agent states, documents and UI flags.
//
// A Store is constructed with New and passed to whatever needs it; there is
// no package-level instance. All methods are safe for concurrent use.
// Subscribe lets a UI re-render after each change:
//
//	st := store.New()
//	unsub := st.Subscribe(func() { program.Send(StoreChangedMsg{}) })
//	defer unsub()
package store
