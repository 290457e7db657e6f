// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/oneshot-tui/internal/export"
)

// errNothingToExport is reported when no conversation is active.
var errNothingToExport = errors.New("no conversation to export")

// =============================================================================
// EXPORT HANDLERS
// =============================================================================

// exportActive writes the active conversation as markdown, citations
// included, from the store's copy.
func (m Model) exportActive() tea.Cmd {
	conv, ok := m.store.ActiveConversation()
	if !ok {
		return func() tea.Msg { return exportDoneMsg{err: errNothingToExport} }
	}
	msgs := m.store.Messages(conv.ID)
	cits := m.store.Citations(conv.ID)

	opts := export.DefaultOptions()
	if m.exportDir != "" {
		opts.OutputDir = m.exportDir
	}
	if m.theme != nil && !m.theme.IsDark {
		opts.Theme = "light"
	}

	return func() tea.Msg {
		exporter, err := export.ForFormat("md", opts)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		path, err := export.ExportToFile(&conv, msgs, cits, exporter, opts)
		return exportDoneMsg{path: path, err: err}
	}
}
