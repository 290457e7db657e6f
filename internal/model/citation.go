// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// CitationType tags where a citation came from.
type CitationType string

const (
	CitationURL       CitationType = "url"
	CitationKnowledge CitationType = "knowledge"
	CitationOther     CitationType = "other"
)

// Citation is a source surfaced during a turn. Only URL is used for
// deduplication; citations without one are always kept.
type Citation struct {
	Type       CitationType `json:"type"`
	URL        string       `json:"url,omitempty"`
	Preview    string       `json:"preview,omitempty"`
	SourceTool string       `json:"source_tool,omitempty"`
	Agent      AgentName    `json:"agent,omitempty"`
}

// Label returns the most descriptive short text for the citation.
func (c Citation) Label() string {
	switch {
	case c.URL != "":
		return c.URL
	case c.SourceTool != "":
		return c.SourceTool
	case c.Preview != "":
		return c.Preview
	default:
		return string(c.Type)
	}
}
