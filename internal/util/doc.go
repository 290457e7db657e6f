// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small text and file helpers shared by the session,
// export and UI packages.
//
//	title := util.ConversationTitle(input)      // "first 50 chars..."
//	cell := util.TruncateWidth(agentTask, 24)   // fits a 24-column cell
//	err := util.AtomicWriteFile(path, data, 0o644)
package util
