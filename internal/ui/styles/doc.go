// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles holds the oneshot TUI palette and theme.

All colors are lipgloss AdaptiveColors, so one palette serves dark and
light terminals. NewTheme picks the background from the [ui] theme setting
or, in auto mode, from the terminal.

# Agents

Each agent has an identity color (AgentColor) and each status a badge
color (StatusColor) plus an ASCII marker (StatusIndicator) so that status
stays readable without color:

	orchestrator  purple     thinking   amber   [~]
	strategist    blue       executing  blue    [>]
	researcher    emerald    waiting    purple  [.]
	analyst       orange     completed  emerald [OK]
	scribe        pink       error      rose    [X]
	advisor       cyan
	memory        yellow

# Layout

GetLayoutMode maps the terminal width to a breakpoint. Narrow terminals
show only the message pane; medium adds the agent panel; wide adds the
conversation list.
*/
package styles
