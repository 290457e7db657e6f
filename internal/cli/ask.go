// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/oneshot-tui/internal/model"
	"github.com/jeranaias/oneshot-tui/internal/realtime"
	"github.com/jeranaias/oneshot-tui/internal/util"
)

// AskResult is the --json payload of ask.
type AskResult struct {
	ConversationID string           `json:"conversation_id"`
	Question       string           `json:"question"`
	Answer         *model.Message   `json:"answer"`
	Citations      []model.Citation `json:"citations"`
}

// HandleAsk sends one message and prints the reply.
//
// Unless --no-stream is given the live connection is opened first so agent
// activity can be shown on stderr while the backend works.
func HandleAsk(ctx context.Context, env *Env, args Args) error {
	p := args.Parser
	question := p.Joined(0)
	if question == "" {
		return ErrMissingArgument("question", `oneshot ask "What changed in our pipeline this week?"`)
	}

	rt := env.NewRuntime()
	defer rt.Close()

	convID, err := rt.StartConversation(ctx, env.Client, p.Flag("conversation"), util.ConversationTitle(question))
	if err != nil {
		return err
	}

	if !p.BoolFlag("no-stream") {
		showAgents := !args.JSON && !args.Quiet
		printer := newProgressPrinter(env.ErrOut, env.ErrOut, false, showAgents)
		rt.Manager.Connect(ctx, convID, realtime.Chain(rt.Session, printer))
	}

	turn, err := rt.Session.Submit(ctx, question)
	if err != nil {
		return NewCommandError("ask", "send", err)
	}
	reply, err := turn.Wait()
	if err != nil {
		return NewCommandError("ask", "send", err)
	}

	if args.JSON {
		return NewJSONResponse("ask", AskResult{
			ConversationID: convID,
			Question:       question,
			Answer:         reply,
			Citations:      nonNilSlice(rt.Store.Citations(convID)),
		}).Write(env.Out)
	}

	content := reply.Content
	if !p.BoolFlag("raw") && IsStdoutTTY() {
		content = renderMarkdown(content, GetTerminalWidth())
	}
	fmt.Fprintln(env.Out, strings.TrimRight(content, "\n"))

	if cits := rt.Store.Citations(convID); len(cits) > 0 && !args.Quiet {
		fmt.Fprintln(env.Out)
		fmt.Fprintln(env.Out, SectionStyle.Render(fmt.Sprintf("Sources (%d)", len(cits))))
		for i, c := range cits {
			fmt.Fprintf(env.Out, "  [%d] %s\n", i+1, c.Label())
		}
	}
	return nil
}

// renderMarkdown renders content for the terminal, falling back to the
// plain text when glamour fails.
func renderMarkdown(content string, width int) string {
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return content
	}
	out, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return out
}
