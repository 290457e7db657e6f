// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jeranaias/oneshot-tui/internal/model"
)

// CreateConversationRequest is the body of CreateConversation.
type CreateConversationRequest struct {
	Title    string         `json:"title,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SendMessageRequest is the body of SendMessage.
type SendMessageRequest struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ListConversations returns conversations, newest first.
func (c *Client) ListConversations(ctx context.Context, limit, offset int) ([]model.Conversation, error) {
	var out []model.Conversation
	err := c.doJSON(ctx, http.MethodGet, "/api/chat/conversations",
		pageQuery(limit, offset, DefaultPageSize), nil, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateConversation creates an empty conversation.
func (c *Client) CreateConversation(ctx context.Context, req CreateConversationRequest) (*model.Conversation, error) {
	var out model.Conversation
	if err := c.doJSON(ctx, http.MethodPost, "/api/chat/conversations", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetConversation fetches one conversation.
func (c *Client) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	p, err := pathID(id)
	if err != nil {
		return nil, err
	}
	var out model.Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/api/chat/conversations/"+p, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMessages returns a conversation's messages in chronological order.
func (c *Client) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error) {
	p, err := pathID(conversationID)
	if err != nil {
		return nil, err
	}
	var out []model.Message
	err = c.doJSON(ctx, http.MethodGet, "/api/chat/conversations/"+p+"/messages",
		pageQuery(limit, offset, DefaultMessagePageSize), nil, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage posts a user message and blocks until the backend returns the
// persisted assistant reply.
func (c *Client) SendMessage(ctx context.Context, conversationID string, req SendMessageRequest) (*model.Message, error) {
	p, err := pathID(conversationID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: empty message content", ErrInvalidArgument)
	}
	var out model.Message
	if err := c.doJSON(ctx, http.MethodPost, "/api/chat/conversations/"+p+"/messages", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
