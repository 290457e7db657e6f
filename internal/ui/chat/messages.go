// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/oneshot-tui/internal/config"
	"github.com/jeranaias/oneshot-tui/internal/events"
	"github.com/jeranaias/oneshot-tui/internal/model"
	"github.com/jeranaias/oneshot-tui/internal/session"
)

// Bubble Tea messages used by the chat model. Messages that originate
// outside the program (store changes, realtime events, config reloads) are
// delivered through Program.Send by the Bridge.

// =============================================================================
// EXTERNAL MESSAGES
// =============================================================================

// StoreChangedMsg reports that the store was mutated. Bursts are coalesced;
// the model always reads the latest snapshot.
type StoreChangedMsg struct{}

// EventMsg carries a realtime event after the store has applied it.
type EventMsg struct {
	Event events.Event
}

// ConfigChangedMsg carries a reloaded config, or the error that prevented
// the reload.
type ConfigChangedMsg struct {
	Config *config.Config
	Err    error
}

// =============================================================================
// INTERNAL MESSAGES
// =============================================================================

// TickMsg drives the thinking and activity animations.
type TickMsg time.Time

// turnSettledMsg reports that a submitted turn finished.
type turnSettledMsg struct {
	turn *session.Turn
}

// refreshedMsg reports a conversation or message reload.
type refreshedMsg struct {
	conversationID string
	err            error
}

// documentLoadedMsg carries a generated document fetched by id.
type documentLoadedMsg struct {
	doc *model.Document
	err error
}

// exportDoneMsg reports a markdown export.
type exportDoneMsg struct {
	path string
	err  error
}

// noticeExpiredMsg clears a transient notice if it is still the current one.
type noticeExpiredMsg struct {
	seq int
}
