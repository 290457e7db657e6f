// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"time"

	"github.com/jeranaias/oneshot-tui/internal/events"
)

// Lifecycle signals produced by the manager itself. They travel through the
// same Handler as decoded backend events.
const (
	TypeClosed       events.EventType = "connection.closed"
	TypeReconnecting events.EventType = "connection.reconnecting"
)

// Closed reports that the live connection ended.
type Closed struct {
	Code   int
	Reason string
	Clean  bool
}

func (e *Closed) Type() events.EventType { return TypeClosed }

// Reconnecting reports a scheduled reconnect.
type Reconnecting struct {
	Attempt int
	Delay   time.Duration
}

func (e *Reconnecting) Type() events.EventType { return TypeReconnecting }

// Handler receives every event after the store has been updated.
//
// Events are one of the events package payloads, *Closed or *Reconnecting.
// Handlers are called from the manager's goroutines and must not block.
type Handler interface {
	HandleEvent(evt events.Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(evt events.Event)

// HandleEvent calls f(evt).
func (f HandlerFunc) HandleEvent(evt events.Event) { f(evt) }

type nopHandler struct{}

func (nopHandler) HandleEvent(events.Event) {}

// Chain fans each event out to hs in order. Nil handlers are skipped.
func Chain(hs ...Handler) Handler {
	return HandlerFunc(func(evt events.Event) {
		for _, h := range hs {
			if h != nil {
				h.HandleEvent(evt)
			}
		}
	})
}
