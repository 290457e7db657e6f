// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/oneshot-tui/internal/model"
	"github.com/jeranaias/oneshot-tui/internal/ui/styles"
)

// ThinkingText accompanies the spinner on an empty streaming placeholder.
const ThinkingText = "Agents are working"

// =============================================================================
// MESSAGE LIST
// =============================================================================

type rendered struct {
	content string
	out     string
}

// MessageList renders a conversation's messages for the chat viewport.
//
// Settled assistant messages are rendered as markdown and cached by id.
// The message currently streaming is shown as wrapped plain text so that
// each token does not trigger a full markdown render. Empty assistant
// placeholders show a thinking indicator while they stream and are hidden
// otherwise.
type MessageList struct {
	Width        int
	ShowThinking bool

	messages    []model.Message
	streamingID string
	frame       int

	theme         *styles.Theme
	renderer      *glamour.TermRenderer
	rendererWidth int
	cache         map[string]rendered
}

// NewMessageList creates an empty list.
func NewMessageList(theme *styles.Theme) *MessageList {
	return &MessageList{
		Width:        80,
		ShowThinking: true,
		theme:        theme,
		cache:        make(map[string]rendered),
	}
}

// SetWidth sets the render width. Changing it drops the markdown cache.
func (l *MessageList) SetWidth(width int) {
	if width != l.Width {
		l.Width = width
		l.cache = make(map[string]rendered)
	}
}

// SetTheme swaps the theme and drops cached renders.
func (l *MessageList) SetTheme(theme *styles.Theme) {
	l.theme = theme
	l.renderer = nil
	l.cache = make(map[string]rendered)
}

// SetMessages replaces the messages. streamingID names the message that is
// receiving tokens, or "".
func (l *MessageList) SetMessages(msgs []model.Message, streamingID string) {
	l.messages = msgs
	l.streamingID = streamingID

	live := make(map[string]bool, len(msgs))
	for _, m := range msgs {
		live[m.ID] = true
	}
	for id := range l.cache {
		if !live[id] {
			delete(l.cache, id)
		}
	}
}

// Tick advances the thinking animation. It reports whether anything on
// screen is animating.
func (l *MessageList) Tick() bool {
	l.frame++
	return l.animating()
}

func (l *MessageList) animating() bool {
	if l.streamingID == "" || !l.ShowThinking {
		return false
	}
	for _, m := range l.messages {
		if m.ID == l.streamingID {
			return m.IsEmptyAssistant()
		}
	}
	return false
}

// Len returns the number of messages.
func (l *MessageList) Len() int {
	return len(l.messages)
}

// View renders every visible message separated by blank lines.
func (l *MessageList) View() string {
	if len(l.messages) == 0 {
		return l.theme.Muted.Render("Ask the agents anything. Enter sends, ctrl+n starts a new conversation.")
	}

	var blocks []string
	for _, m := range l.messages {
		if b := l.renderMessage(m); b != "" {
			blocks = append(blocks, b)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (l *MessageList) renderMessage(m model.Message) string {
	streaming := m.ID == l.streamingID
	if m.IsEmptyAssistant() && !streaming {
		return ""
	}

	header := l.header(m)
	bodyWidth := max(l.Width-2, 10)

	switch {
	case m.IsEmptyAssistant():
		if !l.ShowThinking {
			return header
		}
		frames := styles.ThinkingSpinner.Frames
		return header + "\n" + l.theme.Thinking.Render(ThinkingText+frames[l.frame%len(frames)])

	case m.Role == model.RoleAssistant && !streaming:
		return header + "\n" + l.markdown(m)

	default:
		body := lipgloss.NewStyle().Width(bodyWidth).Render(strings.TrimRight(m.Content, "\n"))
		return header + "\n" + l.theme.MessageBody.Render(body)
	}
}

func (l *MessageList) header(m model.Message) string {
	label := l.theme.Muted.Render(m.Role.DisplayName())
	switch m.Role {
	case model.RoleUser:
		label = l.theme.UserLabel.Render(m.Role.DisplayName())
	case model.RoleAssistant:
		label = l.theme.AssistantLabel.Render(m.Role.DisplayName())
	}
	if !m.CreatedAt.IsZero() {
		label += "  " + l.theme.Timestamp.Render(m.CreatedAt.Local().Format("15:04"))
	}
	return label
}

func (l *MessageList) markdown(m model.Message) string {
	if c, ok := l.cache[m.ID]; ok && c.content == m.Content {
		return c.out
	}

	out := l.theme.MessageBody.Render(
		lipgloss.NewStyle().Width(max(l.Width-2, 10)).Render(m.Content))
	if r := l.termRenderer(); r != nil {
		if md, err := r.Render(m.Content); err == nil {
			out = strings.Trim(md, "\n")
		}
	}
	l.cache[m.ID] = rendered{content: m.Content, out: out}
	return out
}

func (l *MessageList) termRenderer() *glamour.TermRenderer {
	if l.renderer != nil && l.rendererWidth == l.Width {
		return l.renderer
	}
	style := "dark"
	if l.theme != nil && !l.theme.IsDark {
		style = "light"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(l.Width-4, 20)),
	)
	if err != nil {
		return nil
	}
	l.renderer = r
	l.rendererWidth = l.Width
	return r
}
