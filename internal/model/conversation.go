// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// DefaultConversationTitle is shown for conversations without a title.
const DefaultConversationTitle = "New Conversation"

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the header of a chat session. Messages are held separately
// by the store, keyed by conversation ID.
type Conversation struct {
	ID           string         `json:"id"`
	Title        *string        `json:"title"`
	CreatedAt    Timestamp      `json:"created_at"`
	UpdatedAt    Timestamp      `json:"updated_at"`
	Metadata     map[string]any `json:"metadata"`
	MessageCount int            `json:"message_count"`
}

// NewConversation creates a local conversation. An empty title is stored as null.
func NewConversation(id, title string, now time.Time) Conversation {
	c := Conversation{
		ID:        id,
		CreatedAt: NewTimestamp(now),
		UpdatedAt: NewTimestamp(now),
		Metadata:  map[string]any{},
	}
	if title != "" {
		c.Title = &title
	}
	return c
}

// DisplayTitle returns the title, or DefaultConversationTitle when unset.
func (c Conversation) DisplayTitle() string {
	if c.Title == nil || *c.Title == "" {
		return DefaultConversationTitle
	}
	return *c.Title
}

// Clone returns a copy that shares no pointers or maps with c.
func (c Conversation) Clone() Conversation {
	out := c
	if c.Title != nil {
		title := *c.Title
		out.Title = &title
	}
	if c.Metadata != nil {
		out.Metadata = make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// CloneConversations deep-copies a conversation slice.
func CloneConversations(convs []Conversation) []Conversation {
	out := make([]Conversation, len(convs))
	for i, c := range convs {
		out[i] = c.Clone()
	}
	return out
}
