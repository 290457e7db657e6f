// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/oneshot-tui/internal/config"
	"github.com/jeranaias/oneshot-tui/internal/export"
	"github.com/jeranaias/oneshot-tui/internal/realtime"
	"github.com/jeranaias/oneshot-tui/internal/ui/styles"
	"github.com/jeranaias/oneshot-tui/internal/util"
)

// ErrPromptAborted is returned by the line reader on ctrl+c.
var ErrPromptAborted = liner.ErrPromptAborted

// =============================================================================
// LINE READER
// =============================================================================

// lineReader is the part of liner the REPL uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// ChatCLI wraps liner with a persistent history file.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates the line editor. History is kept in the config
// directory unless noHistory is set.
func NewChatCLI(noHistory bool) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{line: line}
	if !noHistory {
		if dir, err := config.ConfigDir(); err == nil {
			c.historyFile = filepath.Join(dir, "chat_history")
		}
	}
	c.LoadHistory()
	return c
}

// LoadHistory reads the history file if there is one.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// Prompt reads one line.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	return c.line.Prompt(prompt)
}

// AppendHistory records a non-empty line.
func (c *ChatCLI) AppendHistory(item string) {
	if strings.TrimSpace(item) != "" {
		c.line.AppendHistory(item)
	}
}

// SaveHistory writes the history file, owner-only.
func (c *ChatCLI) SaveHistory() {
	if c.historyFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// HandleChat runs the interactive chat loop.
func HandleChat(ctx context.Context, env *Env, args Args) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	rt := env.NewRuntime()
	defer rt.Close()

	line := NewChatCLI(args.Parser.BoolFlag("no-history"))
	defer line.Close()

	repl := newChatREPL(env, rt, line, !args.Quiet)
	if id := args.Parser.Flag("conversation"); id != "" {
		if err := repl.open(ctx, id); err != nil {
			return err
		}
	}
	return repl.run(ctx)
}

// chatREPL is the chat loop, separated from the terminal for tests.
type chatREPL struct {
	env     *Env
	rt      *Runtime
	line    lineReader
	printer *progressPrinter
	convID  string
	banner  bool
}

func newChatREPL(env *Env, rt *Runtime, line lineReader, banner bool) *chatREPL {
	return &chatREPL{
		env:     env,
		rt:      rt,
		line:    line,
		printer: newProgressPrinter(env.Out, env.ErrOut, true, true),
		banner:  banner,
	}
}

func (r *chatREPL) run(ctx context.Context) error {
	if r.banner {
		fmt.Fprintln(r.env.Out, TitleStyle.Render("OneShot chat"))
		fmt.Fprintln(r.env.Out, DimStyle.Render("Type /help for commands, /quit to leave."))
		fmt.Fprintln(r.env.Out)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		input, err := r.line.Prompt("> ")
		if err != nil {
			if errors.Is(err, ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.env.Out)
				return nil
			}
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			quit, err := r.command(ctx, input)
			if err != nil {
				DisplayError(r.env.ErrOut, err, false)
			}
			if quit {
				return nil
			}
			continue
		}

		if err := r.send(ctx, input); err != nil {
			DisplayError(r.env.ErrOut, err, false)
		}
	}
}

// open makes id the live conversation.
func (r *chatREPL) open(ctx context.Context, id string) error {
	convID, err := r.rt.StartConversation(ctx, r.env.Client, id, "")
	if err != nil {
		return err
	}
	r.connect(ctx, convID)
	for _, m := range r.rt.Store.Messages(convID) {
		if m.IsEmptyAssistant() {
			continue
		}
		fmt.Fprintf(r.env.Out, "%s %s\n", roleLabel(m.Role.DisplayName()), m.Content)
	}
	return nil
}

func (r *chatREPL) connect(ctx context.Context, convID string) {
	r.convID = convID
	r.rt.Manager.Connect(ctx, convID, realtime.Chain(r.rt.Session, r.printer))
}

// send submits one message and waits for the reply. Tokens stream to the
// terminal as they arrive; the settled reply is printed only if nothing
// streamed.
func (r *chatREPL) send(ctx context.Context, input string) error {
	if r.convID == "" {
		convID, err := r.rt.StartConversation(ctx, r.env.Client, "", util.ConversationTitle(input))
		if err != nil {
			return err
		}
		r.connect(ctx, convID)
	}

	r.printer.Reset()
	turn, err := r.rt.Session.Submit(ctx, input)
	if err != nil {
		return err
	}

	select {
	case <-turn.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	reply, err := turn.Wait()
	if err != nil {
		return err
	}

	if r.printer.Streamed() {
		fmt.Fprintln(r.env.Out)
	} else {
		fmt.Fprintln(r.env.Out, strings.TrimRight(reply.Content, "\n"))
	}
	fmt.Fprintln(r.env.Out)
	return nil
}

func roleLabel(name string) string {
	return PromptStyle.Render(name + ":")
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

const chatHelp = `Commands:
  /new               Start a new conversation
  /agents            Show agent status
  /citations         Show sources for this conversation
  /export [md|json|html] [path]
                     Save this conversation
  /help              Show this help
  /quit, /exit       Leave chat`

// command runs a slash command and reports whether the loop should end.
func (r *chatREPL) command(ctx context.Context, input string) (bool, error) {
	fields := strings.Fields(input)
	switch strings.ToLower(fields[0]) {
	case "/quit", "/exit", "/q":
		return true, nil

	case "/help", "/?":
		fmt.Fprintln(r.env.Out, chatHelp)

	case "/new":
		r.rt.Manager.Disconnect()
		r.rt.Store.SetActiveConversation("")
		r.convID = ""
		fmt.Fprintln(r.env.Out, DimStyle.Render("Started a new conversation."))

	case "/agents":
		for _, a := range r.rt.Store.AgentStates() {
			line := fmt.Sprintf("%-5s %s", styles.StatusIndicator(a.Status), agentStyle(a.Agent).Render(a.Agent.DisplayName()))
			if task := a.Task(); task != "" {
				line += " " + DimStyle.Render(util.TruncateRunes(task, 60))
			}
			fmt.Fprintln(r.env.Out, line)
		}

	case "/citations", "/sources":
		cits := r.rt.Store.Citations(r.convID)
		if len(cits) == 0 {
			fmt.Fprintln(r.env.Out, DimStyle.Render("No sources yet."))
			break
		}
		for i, c := range cits {
			fmt.Fprintf(r.env.Out, "  [%d] %s\n", i+1, c.Label())
		}

	case "/export":
		if r.convID == "" {
			return false, NewValidationError("conversation", "", "nothing to export yet")
		}
		format := "md"
		if len(fields) > 1 {
			format = fields[1]
		}
		opts := export.DefaultOptions()
		if len(fields) > 2 {
			opts.Path = fields[2]
		}
		path, err := exportConversation(r.rt, r.convID, format, opts)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(r.env.Out, SuccessStyle.Render("Saved "+path))

	default:
		return false, NewValidationErrorWithExample("command", fields[0], "unknown chat command", "/help")
	}
	return false, nil
}

// exportConversation writes the store's copy of a conversation.
func exportConversation(rt *Runtime, convID, format string, opts *export.Options) (string, error) {
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return "", err
	}
	conv, ok := rt.Store.ActiveConversation()
	if !ok || conv.ID != convID {
		return "", &NotFoundError{Resource: "conversation", ID: convID}
	}
	return export.ExportToFile(&conv, rt.Store.Messages(convID), rt.Store.Citations(convID), exporter, opts)
}
