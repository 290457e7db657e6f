// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/jeranaias/oneshot-tui/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter writes a standalone page. Message bodies are rendered from
// Markdown with GFM extensions and sanitized before embedding, so content
// from the agents can never inject markup or script.
type HTMLExporter struct {
	options  *Options
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{
		options: opts,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// Export renders the transcript as an HTML page.
func (e *HTMLExporter) Export(conv *model.Conversation, msgs []model.Message, cits []model.Citation) ([]byte, error) {
	visible, err := validate(conv, msgs)
	if err != nil {
		return nil, err
	}

	title := html.EscapeString(conv.DisplayTitle())
	theme := "dark"
	if strings.EqualFold(e.options.Theme, "light") {
		theme = "light"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"UTF-8\">\n")
	sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", title)
	sb.WriteString("<meta name=\"generator\" content=\"oneshot-tui\">\n")
	if !conv.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "<meta name=\"date\" content=\"%s\">\n", conv.CreatedAt.Format(time.RFC3339))
	}
	sb.WriteString(stylesheet)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n<div class=\"container\">\n", theme)

	if e.options.IncludeMetadata {
		sb.WriteString("<header class=\"header\">\n")
		fmt.Fprintf(&sb, "<h1>%s</h1>\n<div class=\"metadata\">\n", title)
		fmt.Fprintf(&sb, "<span><strong>Created:</strong> %s</span>\n", formatTimestamp(conv.CreatedAt))
		fmt.Fprintf(&sb, "<span><strong>Messages:</strong> %d</span>\n", len(visible))
		if len(cits) > 0 {
			fmt.Fprintf(&sb, "<span><strong>Sources:</strong> %d</span>\n", len(cits))
		}
		sb.WriteString("</div>\n</header>\n")
	}

	sb.WriteString("<main class=\"conversation\">\n")
	for _, msg := range visible {
		body, err := e.render(msg.Content)
		if err != nil {
			return nil, fmt.Errorf("export: render message %s: %w", msg.ID, err)
		}
		fmt.Fprintf(&sb, "<article class=\"message %s-message\">\n", roleClass(msg.Role))
		fmt.Fprintf(&sb, "<div class=\"message-header\"><span class=\"role\">%s</span>",
			html.EscapeString(msg.Role.DisplayName()))
		if e.options.IncludeTimestamps && !msg.CreatedAt.IsZero() {
			fmt.Fprintf(&sb, "<span class=\"timestamp\">%s</span>", formatShortTimestamp(msg.CreatedAt))
		}
		sb.WriteString("</div>\n<div class=\"message-content\">\n")
		sb.Write(body)
		sb.WriteString("</div>\n</article>\n")
	}
	sb.WriteString("</main>\n")

	if len(cits) > 0 {
		sb.WriteString(e.renderCitations(cits))
	}

	fmt.Fprintf(&sb, "<footer class=\"footer\">Exported from <strong>oneshot</strong> on %s</footer>\n",
		e.options.now().Format("January 2, 2006 at 3:04 PM"))
	sb.WriteString("</div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// render converts Markdown to sanitized HTML.
func (e *HTMLExporter) render(content string) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.markdown.Convert([]byte(content), &buf); err != nil {
		return nil, err
	}
	return e.policy.SanitizeBytes(buf.Bytes()), nil
}

func (e *HTMLExporter) renderCitations(cits []model.Citation) string {
	var sb strings.Builder
	sb.WriteString("<section class=\"sources\">\n<h2>Sources</h2>\n<ol>\n")
	for _, c := range cits {
		sb.WriteString("<li>")
		if c.URL != "" {
			// The policy drops javascript: and other unsafe schemes from href.
			link := fmt.Sprintf("<a href=\"%s\" rel=\"nofollow noopener\">%s</a>",
				html.EscapeString(c.URL), html.EscapeString(c.URL))
			sb.WriteString(e.policy.Sanitize(link))
		} else {
			sb.WriteString(html.EscapeString(c.Label()))
		}
		if c.Preview != "" && c.Preview != c.Label() {
			fmt.Fprintf(&sb, " <span class=\"preview\">%s</span>", html.EscapeString(oneLine(c.Preview)))
		}
		if src := citationSource(c); src != "" {
			fmt.Fprintf(&sb, " <span class=\"source\">%s</span>", html.EscapeString(src))
		}
		sb.WriteString("</li>\n")
	}
	sb.WriteString("</ol>\n</section>\n")
	return sb.String()
}

func roleClass(r model.Role) string {
	switch r {
	case model.RoleUser, model.RoleAssistant, model.RoleSystem:
		return string(r)
	}
	return "other"
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const stylesheet = `<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
.dark-theme {
  --bg: #1a1b26; --panel: #24283b; --head: #414868; --text: #c0caf5;
  --muted: #565f89; --border: #414868; --user: #1f2335; --code: #16161e;
  --accent: #7aa2f7; --agent: #bb9af7;
}
.light-theme {
  --bg: #ffffff; --panel: #f7f8fa; --head: #e1e4e8; --text: #24292e;
  --muted: #6a737d; --border: #e1e4e8; --user: #f1f4f8; --code: #f6f8fa;
  --accent: #0366d6; --agent: #6f42c1;
}
body {
  font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
  line-height: 1.6; color: var(--text); background: var(--bg); padding: 20px;
}
.container { max-width: 900px; margin: 0 auto; background: var(--panel); border-radius: 12px; overflow: hidden; }
.header { padding: 28px 32px; background: var(--head); border-bottom: 1px solid var(--border); }
.header h1 { font-size: 26px; margin-bottom: 8px; }
.metadata { display: flex; gap: 20px; flex-wrap: wrap; color: var(--muted); font-size: 14px; }
.conversation { padding: 24px 32px; }
.message { padding: 16px 20px; margin-bottom: 16px; border-radius: 8px; border: 1px solid var(--border); }
.user-message { background: var(--user); border-left: 4px solid var(--accent); }
.assistant-message { border-left: 4px solid var(--agent); }
.message-header { display: flex; justify-content: space-between; margin-bottom: 8px; font-weight: 600; }
.timestamp { color: var(--muted); font-weight: normal; font-size: 13px; }
.message-content p { margin-bottom: 10px; }
.message-content pre { background: var(--code); padding: 12px; border-radius: 6px; overflow-x: auto; }
.message-content code { font-family: "SF Mono", Monaco, "Fira Code", monospace; font-size: 14px; }
.message-content table { border-collapse: collapse; margin: 10px 0; }
.message-content th, .message-content td { border: 1px solid var(--border); padding: 4px 10px; }
.sources { padding: 0 32px 24px; }
.sources h2 { font-size: 18px; margin-bottom: 8px; }
.sources li { margin-left: 20px; margin-bottom: 4px; word-break: break-all; }
.sources a { color: var(--accent); }
.preview, .source { color: var(--muted); font-size: 14px; }
.footer { padding: 16px 32px; border-top: 1px solid var(--border); color: var(--muted); font-size: 13px; text-align: center; }
</style>
`
