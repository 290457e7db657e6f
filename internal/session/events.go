// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/jeranaias/oneshot-tui/internal/events"
	"github.com/jeranaias/oneshot-tui/internal/model"
)

// HandleEvent reacts to realtime events that need more than a store update.
// It satisfies realtime.Handler so it can be chained with a UI handler.
//
// An orchestrator completion schedules a message refetch for the active
// conversation. A generated document is added to the documents list.
// Connection errors are surfaced through the store's error field and
// cleared again once the connection reopens.
func (s *Session) HandleEvent(evt events.Event) {
	switch e := evt.(type) {
	case *events.AgentCompleted:
		if e.AgentName == model.AgentOrchestrator {
			s.ScheduleRefresh(s.store.ActiveConversationID(), RefreshDelay)
		}

	case *events.DocumentGenerated:
		if e.DocumentID == "" {
			return
		}
		s.store.AddDocument(model.Document{
			ID:        e.DocumentID,
			Title:     e.Title,
			DocType:   e.DocType,
			CreatedAt: model.NewTimestamp(s.now()),
		})

	case *events.ConnectionEstablished:
		s.mu.Lock()
		last := s.connErr
		s.connErr = ""
		s.mu.Unlock()
		if last != "" && s.store.LastError() == last {
			s.store.ClearError()
		}

	case *events.ConnectionError:
		s.mu.Lock()
		s.connErr = e.Error
		s.mu.Unlock()
		s.store.SetError(e.Error)
	}
}
