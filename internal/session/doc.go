// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session runs the send/receive flow for chat turns.
//
// Submit applies the user's message optimistically: it creates the
// conversation if none is active, appends the user message and an empty
// assistant placeholder, marks the store loading and streaming, and posts the
// message in the background. Streamed tokens land in the placeholder through
// the realtime package. When the backend replies, the placeholder's id,
// content and timestamp are replaced by the server's. When it fails, the
// placeholder is left as it is and the error is recorded.
//
// Backend message lists never overwrite the store while a turn is in flight,
// or the placeholder would be lost. SyncMessages enforces that.
package session
