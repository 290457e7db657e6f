// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "..."

// TitleRunes is the rune budget of an optimistic conversation title.
const TitleRunes = 50

// Normalize trims s and converts it to NFC so composed and decomposed input
// count the same number of runes.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ConversationTitle derives a conversation title from the first message:
// the first TitleRunes runes of the normalized text, plus "..." when
// anything was cut.
func ConversationTitle(content string) string {
	s := Normalize(content)
	runes := []rune(s)
	if len(runes) <= TitleRunes {
		return s
	}
	return string(runes[:TitleRunes]) + Ellipsis
}

// TruncateRunes cuts s to at most maxRunes runes, the ellipsis included.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= len(Ellipsis) {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-len(Ellipsis)]) + Ellipsis
}

// TruncateWidth cuts s to fit maxWidth terminal columns, counting wide
// characters as two.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= len(Ellipsis) {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, Ellipsis)
}

// StringWidth returns the display width of s in terminal columns.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// PadRight pads s with spaces to width columns.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// FirstLine returns the first non-blank line of s, trimmed.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}
