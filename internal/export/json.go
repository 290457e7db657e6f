// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"

	"github.com/jeranaias/oneshot-tui/internal/model"
)

// SchemaVersion is bumped whenever the JSON layout changes.
const SchemaVersion = 1

// Transcript is the JSON export document.
type Transcript struct {
	Version      int                `json:"version"`
	ExportedAt   model.Timestamp    `json:"exported_at"`
	Conversation model.Conversation `json:"conversation"`
	Messages     []model.Message    `json:"messages"`
	Citations    []model.Citation   `json:"citations"`
}

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter writes the Transcript document. It ignores the metadata and
// timestamp options; the document always carries everything.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export renders the transcript as indented JSON. Empty collections encode
// as [] so consumers never see null.
func (e *JSONExporter) Export(conv *model.Conversation, msgs []model.Message, cits []model.Citation) ([]byte, error) {
	if conv == nil {
		return nil, ErrNilConversation
	}
	doc := Transcript{
		Version:      SchemaVersion,
		ExportedAt:   model.NewTimestamp(e.options.now()),
		Conversation: *conv,
		Messages:     visibleMessages(msgs),
		Citations:    append([]model.Citation{}, cits...),
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
