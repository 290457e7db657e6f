// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/oneshot-tui/internal/model"
	"github.com/jeranaias/oneshot-tui/internal/ui/styles"
)

// =============================================================================
// CITATION PANEL
// =============================================================================

// CitationPanel lists the sources gathered for the active conversation,
// newest last.
type CitationPanel struct {
	Width    int
	MaxItems int

	citations []model.Citation
	theme     *styles.Theme
}

// NewCitationPanel creates a panel showing at most 8 sources.
func NewCitationPanel(theme *styles.Theme) *CitationPanel {
	return &CitationPanel{Width: 32, MaxItems: 8, theme: theme}
}

// SetCitations replaces the displayed citations.
func (p *CitationPanel) SetCitations(c []model.Citation) {
	p.citations = c
}

// Len returns the number of citations held.
func (p *CitationPanel) Len() int {
	return len(p.citations)
}

// View renders the panel, or "" when there are no citations.
func (p *CitationPanel) View() string {
	if len(p.citations) == 0 {
		return ""
	}
	inner := max(p.Width-4, 10)

	rows := []string{p.theme.PanelTitle.Render(fmt.Sprintf("Sources (%d)", len(p.citations)))}

	start := 0
	if p.MaxItems > 0 && len(p.citations) > p.MaxItems {
		start = len(p.citations) - p.MaxItems
		rows = append(rows, p.theme.Muted.Render(fmt.Sprintf("+%d earlier", start)))
	}
	for i := start; i < len(p.citations); i++ {
		c := p.citations[i]
		num := fmt.Sprintf("[%d] ", i+1)
		label := clip(c.Label(), inner-len(num))
		if c.URL != "" {
			label = p.theme.Link.Render(label)
		} else {
			label = p.theme.Citation.Render(label)
		}
		rows = append(rows, p.theme.Muted.Render(num)+label)

		if src := citationSource(c); src != "" {
			rows = append(rows, "    "+p.theme.Muted.Render(clip(src, inner-4)))
		}
	}
	return p.theme.Panel.Width(max(p.Width-2, 0)).Render(strings.Join(rows, "\n"))
}

// citationSource describes who produced a citation, e.g. "Researcher via web_search".
func citationSource(c model.Citation) string {
	var parts []string
	if c.Agent != "" {
		parts = append(parts, c.Agent.DisplayName())
	}
	if c.SourceTool != "" {
		parts = append(parts, "via "+c.SourceTool)
	}
	return strings.Join(parts, " ")
}
