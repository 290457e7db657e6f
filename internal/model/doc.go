// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures mirrored from the platform backend.
//
// These are plain values. The client state store owns every instance at
// runtime; other packages receive copies.
//
// # Key Types
//
//   - Conversation: chat session header (title, timestamps, message count)
//   - Message: single message with role, content, and creation time
//   - AgentName / AgentStatus / AgentState: live status of the seven backend agents
//   - ToolCallRecord: a tool invocation reported by an agent
//   - Citation: a source surfaced by an agent or attached to a response
//   - Document, KnowledgeItem, AgentTrace, Metrics: read models from the REST API
//   - Timestamp: lenient time wrapper for the backend's zone-less ISO strings
//
// # Usage
//
//	conv := model.NewConversation(uuid.NewString(), "Quarterly plan", time.Now())
//	msg := model.NewMessage(id, conv.ID, model.RoleUser, "Hello", time.Now())
package model
