// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	"github.com/jeranaias/oneshot-tui/internal/model"
	"github.com/jeranaias/oneshot-tui/internal/ui/styles"
)

// =============================================================================
// CONVERSATION LIST
// =============================================================================

// ConversationList is the left-hand list of conversations with the active
// one highlighted.
type ConversationList struct {
	Width  int
	Height int

	items    []model.Conversation
	activeID string
	now      func() time.Time
	theme    *styles.Theme
}

// NewConversationList creates an empty list.
func NewConversationList(theme *styles.Theme) *ConversationList {
	return &ConversationList{Width: 28, theme: theme, now: time.Now}
}

// SetSize sets the outer size.
func (l *ConversationList) SetSize(width, height int) {
	l.Width = width
	l.Height = height
}

// SetConversations replaces the list.
func (l *ConversationList) SetConversations(items []model.Conversation) {
	l.items = items
}

// SetActive marks id as the active conversation.
func (l *ConversationList) SetActive(id string) {
	l.activeID = id
}

// Len returns the number of conversations.
func (l *ConversationList) Len() int {
	return len(l.items)
}

// Next returns the id after the active one, wrapping around. With no active
// conversation it returns the first. It returns "" for an empty list.
func (l *ConversationList) Next() string {
	return l.step(1)
}

// Prev is Next in reverse.
func (l *ConversationList) Prev() string {
	return l.step(-1)
}

func (l *ConversationList) step(delta int) string {
	n := len(l.items)
	if n == 0 {
		return ""
	}
	idx := l.indexOf(l.activeID)
	if idx < 0 {
		if delta > 0 {
			return l.items[0].ID
		}
		return l.items[n-1].ID
	}
	return l.items[((idx+delta)%n+n)%n].ID
}

func (l *ConversationList) indexOf(id string) int {
	for i, c := range l.items {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// View renders the list. Long lists scroll to keep the active entry visible.
func (l *ConversationList) View() string {
	inner := max(l.Width-4, 8)
	rows := []string{l.theme.PanelTitle.Render("Conversations"), ""}

	if len(l.items) == 0 {
		rows = append(rows, l.theme.Muted.Render("No conversations yet"))
		rows = append(rows, l.theme.Muted.Render("ctrl+n to start one"))
		return l.frame(rows)
	}

	// Two rows per entry; the border, title and both scroll markers take six.
	visible := len(l.items)
	if l.Height > 0 {
		visible = min(visible, max((l.Height-6)/2, 1))
	}
	first := 0
	if idx := l.indexOf(l.activeID); idx >= visible {
		first = idx - visible + 1
	}
	if first > 0 {
		rows = append(rows, l.theme.Muted.Render(fmt.Sprintf("  ↑ %d more", first)))
	}

	now := l.now()
	for _, c := range l.items[first:min(first+visible, len(l.items))] {
		title := fit(c.DisplayTitle(), inner-2)
		meta := relativeTime(c.UpdatedAt.Time, now)
		if c.MessageCount > 0 {
			meta = fmt.Sprintf("%s · %d msgs", meta, c.MessageCount)
		}
		if c.ID == l.activeID {
			rows = append(rows, l.theme.ListActive.Render("> "+title))
		} else {
			rows = append(rows, l.theme.ListItem.Render("  "+title))
		}
		rows = append(rows, l.theme.Muted.Render("  "+clip(meta, inner-2)))
	}
	if rest := len(l.items) - first - visible; rest > 0 {
		rows = append(rows, l.theme.Muted.Render(fmt.Sprintf("  ↓ %d more", rest)))
	}
	return l.frame(rows)
}

func (l *ConversationList) frame(rows []string) string {
	style := l.theme.Panel.Width(max(l.Width-2, 0))
	if l.Height > 2 {
		style = style.Height(l.Height - 2)
		return style.Render(lines(rows, l.Height-2))
	}
	return style.Render(lines(rows, 0))
}
