// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/oneshot-tui/internal/config"
	"github.com/jeranaias/oneshot-tui/internal/events"
	"github.com/jeranaias/oneshot-tui/internal/realtime"
)

// =============================================================================
// PROGRAM BRIDGE
// =============================================================================

// Bridge forwards store notifications and realtime events into a running
// program. Before Attach, and after the program exits, messages are dropped.
//
// Store notifications are coalesced: at most one StoreChangedMsg is queued
// until the model handles it, so a burst of tokens costs one render.
type Bridge struct {
	mu      sync.RWMutex
	send    func(tea.Msg)
	pending atomic.Bool
}

var _ realtime.Handler = (*Bridge)(nil)

// Attach starts delivery to send, usually (*tea.Program).Send.
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

// Detach stops delivery.
func (b *Bridge) Detach() {
	b.mu.Lock()
	b.send = nil
	b.mu.Unlock()
}

// Send delivers msg if attached.
func (b *Bridge) Send(msg tea.Msg) {
	b.mu.RLock()
	send := b.send
	b.mu.RUnlock()
	if send != nil {
		send(msg)
	}
}

// StoreChanged is the store subscription callback.
func (b *Bridge) StoreChanged() {
	if b.pending.CompareAndSwap(false, true) {
		b.Send(StoreChangedMsg{})
	}
}

// HandleEvent forwards a realtime event.
func (b *Bridge) HandleEvent(evt events.Event) {
	b.Send(EventMsg{Event: evt})
}

func (b *Bridge) clearPending() {
	b.pending.Store(false)
}

// =============================================================================
// RUN
// =============================================================================

// Run starts the full-screen TUI and blocks until the user quits or ctx is
// cancelled. When configPath is set, edits to the file are applied live.
func Run(ctx context.Context, opts Options, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	opts.Context = ctx

	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	m.bridge.Attach(p.Send)
	defer m.bridge.Detach()
	unsubscribe := opts.Store.Subscribe(m.bridge.StoreChanged)
	defer unsubscribe()

	if configPath != "" {
		err := config.Watch(ctx, configPath, func(cfg *config.Config, err error) {
			m.bridge.Send(ConfigChangedMsg{Config: cfg, Err: err})
		})
		if err != nil {
			m.log.WithError(err).Warn("config hot reload disabled")
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}
	return err
}
