// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/oneshot-tui/internal/session"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// waitForTurn blocks in a command goroutine until the turn settles.
func waitForTurn(turn *session.Turn) tea.Cmd {
	return func() tea.Msg {
		<-turn.Done()
		return turnSettledMsg{turn: turn}
	}
}

// refreshConversations reloads the conversation list. Without a lister the
// local list is all there is.
func (m Model) refreshConversations() tea.Cmd {
	sess, ctx, timeout := m.sess, m.ctx, m.cfg.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		err := sess.RefreshConversations(ctx)
		if err == session.ErrNoLister {
			err = nil
		}
		return refreshedMsg{err: err}
	}
}

// loadMessages reloads a conversation's messages from the backend.
func (m Model) loadMessages(id string) tea.Cmd {
	sess, ctx, timeout := m.sess, m.ctx, m.cfg.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		_, err := sess.Refresh(ctx, id)
		if err == session.ErrNoLister {
			err = nil
		}
		return refreshedMsg{conversationID: id, err: err}
	}
}

// fetchDocument loads a document announced by the agents.
func (m Model) fetchDocument(id string) tea.Cmd {
	docs, ctx, timeout := m.docs, m.ctx, m.cfg.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		doc, err := docs.GetDocument(ctx, id)
		return documentLoadedMsg{doc: doc, err: err}
	}
}
