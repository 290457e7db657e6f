// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/oneshot-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// Connection is the realtime link state shown in the status bar.
type Connection int

const (
	ConnOffline Connection = iota
	ConnConnecting
	ConnOpen
	ConnReconnecting
	ConnFailed
)

// String returns the display label.
func (c Connection) String() string {
	switch c {
	case ConnConnecting:
		return "connecting"
	case ConnOpen:
		return "live"
	case ConnReconnecting:
		return "reconnecting"
	case ConnFailed:
		return "offline"
	default:
		return "idle"
	}
}

// StatusBar is the bottom line: connection, activity, errors and key hints.
type StatusBar struct {
	Width int

	Conn         Connection
	Attempt      int
	MaxAttempts  int
	Loading      bool
	Streaming    bool
	ActiveAgents int
	Error        string
	Notice       string
	ShowHints    bool

	theme *styles.Theme
}

// NewStatusBar creates a status bar with key hints on.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, ShowHints: true, theme: theme}
}

// SetWidth sets the width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

func (s *StatusBar) connStyle() lipgloss.Style {
	base := lipgloss.NewStyle().Padding(0, 1).Foreground(styles.TextInverse).Bold(true)
	switch s.Conn {
	case ConnOpen:
		return base.Background(styles.Emerald)
	case ConnConnecting, ConnReconnecting:
		return base.Background(styles.Amber)
	case ConnFailed:
		return base.Background(styles.Rose)
	default:
		return base.Background(styles.TextMuted)
	}
}

// View renders the bar at exactly Width cells.
func (s *StatusBar) View() string {
	label := s.Conn.String()
	if s.Conn == ConnReconnecting && s.MaxAttempts > 0 {
		label = fmt.Sprintf("reconnecting %d/%d", s.Attempt, s.MaxAttempts)
	}
	left := []string{s.connStyle().Render(label)}

	switch {
	case s.Error != "":
		left = append(left, s.theme.Error.Render(" "+styles.StatusIndicator("error")+" "+s.Error))
	case s.Streaming:
		left = append(left, s.theme.StatusValue.Render("streaming"))
	case s.Loading:
		left = append(left, s.theme.StatusValue.Render("waiting for agents"))
	case s.Notice != "":
		left = append(left, s.theme.StatusValue.Render(s.Notice))
	}
	if s.ActiveAgents > 0 {
		left = append(left, s.theme.StatusValue.Render(fmt.Sprintf("%d agents active", s.ActiveAgents)))
	}

	leftStr := strings.Join(left, "")
	var right string
	if s.ShowHints && s.Width >= 80 {
		right = s.theme.Muted.Render("enter send · ctrl+n new · tab switch · ctrl+y copy · ctrl+b panel · ctrl+c quit")
	}

	gap := s.Width - lipgloss.Width(leftStr) - lipgloss.Width(right)
	if gap < 1 {
		right = ""
		gap = max(s.Width-lipgloss.Width(leftStr), 0)
	}
	bar := leftStr + strings.Repeat(" ", gap) + right
	return s.theme.StatusBar.MaxWidth(s.Width).Render(bar)
}
