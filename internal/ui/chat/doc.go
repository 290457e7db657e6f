// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat view of the oneshot TUI.

The chat package implements the terminal client for the multi-agent
backend using the Bubble Tea framework. The store is the single source of
truth; the model renders snapshots of it and turns key presses into
session and realtime calls.

# Key Components

## Model (model.go)

The Model struct wires the store, the session and the realtime connector
to the components package:
  - ConversationList on the left (wide terminals)
  - MessageList inside a ChatViewport in the centre
  - AgentPanel and CitationPanel on the right, toggled with ctrl+b
  - a textarea for input and the StatusBar underneath

## Bridge (program.go)

Events reach the program from other goroutines:
  - store subscription callbacks become StoreChangedMsg, coalesced
  - realtime events become EventMsg after the session has seen them
  - config file edits become ConfigChangedMsg

# Usage

	err := chat.Run(ctx, chat.Options{
		Store:     rt.Store,
		Session:   rt.Session,
		Connector: rt.Manager,
		Documents: client,
		Config:    cfg,
		Logger:    log,
	}, configPath)
*/
package chat
