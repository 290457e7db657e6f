// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// CHAT VIEWPORT
// =============================================================================

// ChatViewport scrolls rendered messages. It follows new content while the
// user is at the bottom and stops following once they scroll up.
type ChatViewport struct {
	viewport   viewport.Model
	autoScroll bool
}

// NewChatViewport creates an 80x20 viewport.
func NewChatViewport() *ChatViewport {
	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()
	return &ChatViewport{viewport: vp, autoScroll: true}
}

// SetSize resizes the viewport.
func (cv *ChatViewport) SetSize(width, height int) {
	cv.viewport.Width = width
	cv.viewport.Height = max(height, 1)
	if cv.autoScroll {
		cv.viewport.GotoBottom()
	}
}

// SetContent replaces the content, keeping the bottom in view when
// following.
func (cv *ChatViewport) SetContent(content string) {
	cv.viewport.SetContent(content)
	if cv.autoScroll {
		cv.viewport.GotoBottom()
	}
}

// Update forwards scrolling keys and mouse wheel events.
func (cv *ChatViewport) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	cv.viewport, cmd = cv.viewport.Update(msg)
	cv.autoScroll = cv.viewport.AtBottom()
	return cmd
}

// ScrollToBottom jumps to the end and resumes following.
func (cv *ChatViewport) ScrollToBottom() {
	cv.viewport.GotoBottom()
	cv.autoScroll = true
}

// Following reports whether new content scrolls into view.
func (cv *ChatViewport) Following() bool {
	return cv.autoScroll
}

// View renders the visible window.
func (cv *ChatViewport) View() string {
	return cv.viewport.View()
}
