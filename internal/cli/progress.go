// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/jeranaias/oneshot-tui/internal/events"
	"github.com/jeranaias/oneshot-tui/internal/realtime"
	"github.com/jeranaias/oneshot-tui/internal/ui/components"
	"github.com/jeranaias/oneshot-tui/internal/util"
)

// progressPrinter writes live agent activity. Tokens go to out when
// streaming is on; agent transitions go to status. It is a
// realtime.Handler and is called from the manager's goroutines.
type progressPrinter struct {
	mu       sync.Mutex
	out      io.Writer
	status   io.Writer
	tokens   bool
	agents   bool
	streamed bool
	midLine  bool
}

func newProgressPrinter(out, status io.Writer, tokens, agents bool) *progressPrinter {
	return &progressPrinter{out: out, status: status, tokens: tokens, agents: agents}
}

var _ realtime.Handler = (*progressPrinter)(nil)

func (p *progressPrinter) HandleEvent(evt events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e := evt.(type) {
	case *events.StreamToken:
		if p.tokens {
			fmt.Fprint(p.out, e.Token)
			p.streamed = true
			p.midLine = true
		}
		return
	}

	if !p.agents {
		return
	}
	line := ""
	switch e := evt.(type) {
	case *events.AgentStarted:
		line = fmt.Sprintf("%s %s", agentStyle(e.AgentName).Render(e.AgentName.DisplayName()), DimStyle.Render(util.TruncateRunes(e.Task, 70)))
	case *events.AgentToolCall:
		line = fmt.Sprintf("  %s%s", DimStyle.Render("├─ "), components.ToolLabel(e.Tool))
	case *events.AgentHandoff:
		line = fmt.Sprintf("%s %s %s", agentStyle(e.FromAgent).Render(e.FromAgent.DisplayName()), DimStyle.Render("→"), agentStyle(e.ToAgent).Render(e.ToAgent.DisplayName()))
	case *events.AgentCompleted:
		line = fmt.Sprintf("%s %s", agentStyle(e.AgentName).Render(e.AgentName.DisplayName()), SuccessStyle.Render("done"))
	case *events.AgentError:
		line = fmt.Sprintf("%s %s", agentStyle(e.AgentName).Render(e.AgentName.DisplayName()), ErrorStyle.Render(e.Error))
	case *events.ConnectionError:
		line = WarningStyle.Render(e.Error)
	case *realtime.Reconnecting:
		line = DimStyle.Render(fmt.Sprintf("reconnecting (attempt %d in %s)", e.Attempt, e.Delay))
	}
	if line == "" {
		return
	}
	if p.midLine {
		// Keep agent lines off the token stream's current line.
		fmt.Fprintln(p.out)
		p.midLine = false
	}
	fmt.Fprintln(p.status, line)
}

// Streamed reports whether any token was printed since the last Reset.
func (p *progressPrinter) Streamed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.streamed
}

// Reset starts a new turn.
func (p *progressPrinter) Reset() {
	p.mu.Lock()
	p.streamed = false
	p.midLine = false
	p.mu.Unlock()
}
