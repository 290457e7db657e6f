// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/oneshot-tui/internal/model"
	"github.com/jeranaias/oneshot-tui/internal/util"
)

var (
	// ErrNilConversation is returned when there is nothing to export.
	ErrNilConversation = errors.New("export: conversation is nil")

	// ErrNoMessages is returned for conversations without visible messages.
	ErrNoMessages = errors.New("export: conversation has no messages")

	// ErrUnknownFormat is returned by ForFormat.
	ErrUnknownFormat = errors.New("export: unsupported format")
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders one conversation with its messages and citations.
type Exporter interface {
	// Export renders the transcript in the target format.
	Export(conv *model.Conversation, msgs []model.Message, cits []model.Citation) ([]byte, error)

	// FileExtension returns the extension including the dot, e.g. ".md".
	FileExtension() string

	// MimeType returns the MIME type of the output.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir receives generated filenames. Default: current directory.
	OutputDir string

	// Path, when set, is used verbatim instead of a generated filename.
	Path string

	// OpenAfterExport opens the file with the desktop's default handler.
	OpenAfterExport bool

	// IncludeMetadata adds the header block (ids, dates, counts).
	IncludeMetadata bool

	// IncludeTimestamps adds per-message times.
	IncludeTimestamps bool

	// Theme for HTML export, "light" or "dark".
	Theme string

	// Now stamps the export. Default: time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
		Now:               time.Now,
	}
}

func (o *Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// ForFormat returns the exporter for a format name: md/markdown, json, html/htm.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile renders the transcript and writes it atomically. The file is
// named after the conversation title unless opts.Path is set.
func ExportToFile(conv *model.Conversation, msgs []model.Message, cits []model.Citation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(conv, msgs, cits)
	if err != nil {
		return "", err
	}

	outputPath := opts.Path
	if outputPath == "" {
		dir := opts.OutputDir
		if dir == "" {
			dir = "."
		}
		outputPath = filepath.Join(dir, Filename(conv, exporter.FileExtension(), opts.now()))
	}

	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		// The file exists either way; failing to launch a viewer is not an export error.
		_ = openFile(outputPath)
	}
	return outputPath, nil
}

// Filename builds "conversation_<title>_<stamp><ext>".
func Filename(conv *model.Conversation, ext string, at time.Time) string {
	title := model.DefaultConversationTitle
	if conv != nil {
		title = conv.DisplayTitle()
	}
	return fmt.Sprintf("conversation_%s_%s%s", sanitizeFilename(title), at.Format("20060102_150405"), ext)
}

// visibleMessages drops assistant placeholders that never received content.
func visibleMessages(msgs []model.Message) []model.Message {
	out := make([]model.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.IsEmptyAssistant() {
			continue
		}
		out = append(out, m)
	}
	return out
}

func validate(conv *model.Conversation, msgs []model.Message) ([]model.Message, error) {
	if conv == nil {
		return nil, ErrNilConversation
	}
	visible := visibleMessages(msgs)
	if len(visible) == 0 {
		return nil, ErrNoMessages
	}
	return visible, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename keeps a filename portable across Windows and Unix.
func sanitizeFilename(s string) string {
	s = util.TruncateRunes(strings.TrimSpace(s), util.TitleRunes)

	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('_')
		case strings.ContainsRune(`/\:*?"<>|`, r), r < 32, r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "conversation"
	}
	return b.String()
}

func openFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}

func formatTimestamp(t model.Timestamp) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatShortTimestamp(t model.Timestamp) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("15:04:05")
}

// citationSource describes who found a citation, e.g. "researcher via web_search".
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
