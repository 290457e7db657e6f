// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/oneshot-tui/internal/model"
	"github.com/jeranaias/oneshot-tui/internal/ui/styles"
)

// toolLabels shortens the backend's tool names for the panel.
var toolLabels = map[string]string{
	"search_web":                   "Web Search",
	"search_news":                  "News Search",
	"search_trends":                "Trend Search",
	"analyze_hashtags":             "Hashtags",
	"search_competitor_content":    "Competitors",
	"fetch_mcp":                    "Fetch (MCP)",
	"filesystem_mcp":               "File Save (MCP)",
	"get_brand_guidelines":         "Brand Guide",
	"get_past_posts":               "Past Posts",
	"get_content_calendar":         "Calendar",
	"search_knowledge_base":        "Knowledge",
	"calculate_engagement_metrics": "Metrics",
	"recommend_posting_schedule":   "Schedule",
}

// ToolLabel returns the display label for a tool name.
func ToolLabel(name string) string {
	if l, ok := toolLabels[name]; ok {
		return l
	}
	return name
}

// =============================================================================
// AGENT PANEL
// =============================================================================

// AgentPanel lists every agent with its status, current task and the tools
// it has called during the turn.
type AgentPanel struct {
	Width  int
	Height int

	agents []model.AgentState
	frame  int
	theme  *styles.Theme
}

// NewAgentPanel creates an empty panel.
func NewAgentPanel(theme *styles.Theme) *AgentPanel {
	return &AgentPanel{Width: 32, theme: theme}
}

// SetSize sets the outer size.
func (p *AgentPanel) SetSize(width, height int) {
	p.Width = width
	p.Height = height
}

// SetAgents replaces the displayed agent states.
func (p *AgentPanel) SetAgents(agents []model.AgentState) {
	p.agents = agents
}

// Tick advances the activity animation.
func (p *AgentPanel) Tick() {
	p.frame++
}

// ActiveCount returns the number of agents that are not idle.
func (p *AgentPanel) ActiveCount() int {
	n := 0
	for _, a := range p.agents {
		if a.Status != model.StatusIdle {
			n++
		}
	}
	return n
}

// View renders the panel.
func (p *AgentPanel) View() string {
	inner := max(p.Width-4, 10)

	title := p.theme.PanelTitle.Render("Agent Activity")
	if n := p.ActiveCount(); n > 0 {
		title += p.theme.Muted.Render(fmt.Sprintf("  %d active", n))
	}
	rows := []string{title, ""}

	for _, a := range p.agents {
		rows = append(rows, p.renderAgent(a, inner)...)
	}

	body := strings.Join(rows, "\n")
	style := p.theme.Panel.Width(max(p.Width-2, 0))
	if p.Height > 2 {
		style = style.Height(p.Height - 2)
	}
	return style.Render(body)
}

func (p *AgentPanel) renderAgent(a model.AgentState, width int) []string {
	name := lipgloss.NewStyle().Foreground(styles.AgentColor(a.Agent)).Bold(true).
		Render(a.Agent.DisplayName())
	badge := lipgloss.NewStyle().Foreground(styles.StatusColor(a.Status)).
		Render(styles.StatusIndicator(a.Status) + " " + string(a.Status))

	gap := width - lipgloss.Width(name) - lipgloss.Width(badge)
	rows := []string{name + strings.Repeat(" ", max(gap, 1)) + badge}

	if task := a.Task(); task != "" {
		rows = append(rows, p.theme.AgentTask.Render(clip(task, width-4)))
	}

	for i, tc := range a.ToolCalls {
		style := p.theme.ToolChip
		label := ToolLabel(tc.Name)
		if tc.Kind == model.ToolKindMCP {
			style = p.theme.MCPChip
		}
		rows = append(rows, "  "+style.Render(styles.TreePrefix(i == len(a.ToolCalls)-1)+clip(label, width-6)))
	}

	switch a.Status {
	case model.StatusThinking:
		frames := styles.ThinkingSpinner.Frames
		rows = append(rows, "  "+p.theme.Warning.Render(frames[p.frame%len(frames)]))
	case model.StatusExecuting:
		rows = append(rows, "  "+lipgloss.NewStyle().Foreground(styles.Blue).
			Render(styles.RenderPulse(min(width-2, 20), p.frame)))
	}
	return rows
}
