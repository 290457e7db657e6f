// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/oneshot-tui/internal/ui/styles"
)

// Layout constants. They must match what View renders.
const (
	headerHeight    = 1
	inputHeight     = 3
	inputAreaHeight = inputHeight + 1 // separator + textarea
	statusBarHeight = 1

	conversationListWidth = 28
	sidePanelWidth        = 36
)

// =============================================================================
// LAYOUT
// =============================================================================

// columns returns the widths of the left list, centre and right panel for
// the current size. Zero means the column is hidden.
func (m Model) columns() (left, centre, right int) {
	mode := m.theme.GetLayoutMode()
	if m.sidebarOpen && mode != styles.LayoutNarrow {
		right = sidePanelWidth
	}
	if mode == styles.LayoutWide {
		left = conversationListWidth
	}
	centre = max(m.width-left-right, 20)
	return left, centre, right
}

func (m Model) bodyHeight() int {
	return max(m.height-headerHeight-inputAreaHeight-statusBarHeight, 3)
}

// layout resizes every component for the current window and re-renders.
func (m *Model) layout() {
	m.theme.SetSize(m.width, m.height)
	left, centre, right := m.columns()
	body := m.bodyHeight()

	m.conversations.SetSize(left, body)
	m.agents.SetSize(right, body)
	m.citations.Width = right
	m.messages.SetWidth(max(centre-2, 10))
	m.viewport.SetSize(centre, body)
	m.input.SetWidth(max(m.width-2, 10))
	m.status.SetWidth(m.width)
	m.help.Width = m.width
	m.render()
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	if m.showHelp {
		return m.renderHelp()
	}

	left, _, right := m.columns()
	cols := []string{}
	if left > 0 {
		cols = append(cols, m.conversations.View())
	}
	cols = append(cols, m.viewport.View())
	if right > 0 {
		cols = append(cols, m.renderSidePanel())
	}
	body := lipgloss.NewStyle().
		Height(m.bodyHeight()).
		MaxHeight(m.bodyHeight()).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, cols...))

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.theme.Muted.Render(strings.Repeat("─", max(m.width, 1))),
		m.input.View(),
		m.status.View(),
	)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("OneShot")
	sub := m.activeTitle
	if sub == "" {
		sub = "New conversation"
	}
	line := title + "  " + m.theme.HeaderSubtitle.Render(sub)
	return m.theme.Header.Width(m.width).MaxWidth(m.width).Render(line)
}

// renderSidePanel stacks agent activity over the sources list. The agent
// panel gives up height to the citations when there are any.
func (m Model) renderSidePanel() string {
	body := m.bodyHeight()
	cits := m.citations.View()
	if cits == "" {
		m.agents.SetSize(m.agents.Width, body)
		return m.agents.View()
	}
	citH := min(lipgloss.Height(cits), body/2)
	m.agents.SetSize(m.agents.Width, body-citH)
	cits = lipgloss.NewStyle().MaxHeight(citH).Render(cits)
	return lipgloss.JoinVertical(lipgloss.Left, m.agents.View(), cits)
}

func (m Model) renderHelp() string {
	title := m.theme.PanelTitle.Render("Keys")
	hint := m.theme.Muted.Render("press any key to close")
	box := m.theme.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", m.help.FullHelpView(m.keyMap.FullHelp()), "", hint))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
