// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// =============================================================================
// SPINNERS
// =============================================================================

// ThinkingSpinner animates an assistant placeholder that has no tokens yet.
var ThinkingSpinner = spinner.Spinner{
	Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
	FPS:    time.Second / 6,
}

// ActivitySpinner marks working agents in the side panel.
var ActivitySpinner = spinner.Spinner{
	Frames: []string{"|", "/", "-", "\\"},
	FPS:    time.Second / 10,
}

// =============================================================================
// PROGRESS
// =============================================================================

// RenderPulse renders a bar of width cells with a lit segment that moves
// with frame, for agents that are executing with no known progress.
func RenderPulse(width, frame int) string {
	if width <= 0 {
		return ""
	}
	seg := max(width/3, 1)
	span := width + seg
	start := frame%span - seg

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i >= start && i < start+seg {
			b.WriteString("=")
		} else {
			b.WriteString("-")
		}
	}
	return b.String()
}

// TreeChars draws nested lists such as tool calls under an agent.
var TreeChars = struct {
	Branch string
	Last   string
}{
	Branch: "├─ ",
	Last:   "└─ ",
}

// TreePrefix returns the branch prefix for an item.
func TreePrefix(isLast bool) string {
	if isLast {
		return TreeChars.Last
	}
	return TreeChars.Branch
}
