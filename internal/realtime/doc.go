// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package realtime keeps one WebSocket connection per active conversation
// and turns its event stream into store mutations.
//
// A Manager dials ws(s)://<base>/ws/agents/<conversation>, decodes each frame
// into an events.Event, applies it to the store with Apply and then forwards
// it to the caller's Handler. Dropped connections are retried with
// exponential backoff (2s, 4s, 8s, 16s, 30s) until five attempts fail in a
// row. Disconnect is the single teardown path: it cancels any pending
// reconnect, closes the socket and resets every agent to idle.
//
//	mgr := realtime.NewManager(st, cfg.Backend.WSURL, realtime.WithLogger(log))
//	mgr.Connect(ctx, conversationID, realtime.HandlerFunc(func(evt events.Event) {
//		program.Send(chat.EventMsg{Event: evt})
//	}))
//	defer mgr.Disconnect()
package realtime
