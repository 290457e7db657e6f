// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/oneshot-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter writes a transcript as Markdown with YAML frontmatter.
// Citations become footnotes under a Sources heading.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export renders the transcript as Markdown.
func (e *MarkdownExporter) Export(conv *model.Conversation, msgs []model.Message, cits []model.Citation) ([]byte, error) {
	visible, err := validate(conv, msgs)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	title := conv.DisplayTitle()
	exported := e.options.now()

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(title))
		fmt.Fprintf(&sb, "conversation: %s\n", escapeYAML(conv.ID))
		if !conv.CreatedAt.IsZero() {
			fmt.Fprintf(&sb, "date: %s\n", conv.CreatedAt.Format(time.RFC3339))
		}
		if !conv.UpdatedAt.IsZero() {
			fmt.Fprintf(&sb, "updated: %s\n", conv.UpdatedAt.Format(time.RFC3339))
		}
		fmt.Fprintf(&sb, "messages: %d\n", len(visible))
		if len(cits) > 0 {
			fmt.Fprintf(&sb, "citations: %d\n", len(cits))
		}
		fmt.Fprintf(&sb, "exported: %s\n", exported.Format(time.RFC3339))
		sb.WriteString("generator: oneshot-tui\n")
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title))

	for i, msg := range visible {
		label := msg.Role.DisplayName()
		if e.options.IncludeTimestamps && !msg.CreatedAt.IsZero() {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(msg.CreatedAt))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", label)
		}
		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString("\n\n")
		if i < len(visible)-1 {
			sb.WriteString("---\n\n")
		}
	}

	if len(cits) > 0 {
		sb.WriteString("## Sources\n\n")
		refs := make([]string, len(cits))
		for i := range cits {
			refs[i] = fmt.Sprintf("[^%d]", i+1)
		}
		fmt.Fprintf(&sb, "Referenced during this conversation: %s\n\n", strings.Join(refs, " "))
		for i, c := range cits {
			fmt.Fprintf(&sb, "[^%d]: %s\n", i+1, footnote(c))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("---\n\n")
	fmt.Fprintf(&sb, "*Exported from oneshot on %s*\n", exported.Format("January 2, 2006 at 3:04 PM"))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// footnote renders one citation: the link or label, the preview, and who found it.
func footnote(c model.Citation) string {
	var sb strings.Builder
	if c.URL != "" {
		fmt.Fprintf(&sb, "<%s>", c.URL)
	} else {
		sb.WriteString(escapeMarkdown(c.Label()))
	}
	if c.Preview != "" && c.Preview != c.Label() {
		fmt.Fprintf(&sb, " %s", escapeMarkdown(oneLine(c.Preview)))
	}
	if src := citationSource(c); src != "" {
		fmt.Fprintf(&sb, " (%s)", src)
	}
	return sb.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes characters that would break a heading or footnote.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer(
		"#", "\\#",
		"*", "\\*",
		"_", "\\_",
		"[", "\\[",
		"]", "\\]",
	)
	return r.Replace(s)
}

// escapeYAML quotes a frontmatter value when it contains YAML syntax.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		r := strings.NewReplacer(
			"\\", "\\\\",
			"\"", "\\\"",
			"\n", "\\n",
			"\r", "\\r",
		)
		return "\"" + r.Replace(s) + "\""
	}
	return s
}
