// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "github.com/jeranaias/oneshot-tui/internal/model"

// =============================================================================
// DOCUMENTS
// =============================================================================

// SetDocuments replaces the document list.
func (s *Store) SetDocuments(list []model.Document) {
	s.mutate(func() bool {
		s.documents = append([]model.Document(nil), list...)
		return true
	})
}

// AddDocument prepends doc to the list.
func (s *Store) AddDocument(doc model.Document) {
	s.mutate(func() bool {
		next := make([]model.Document, 0, len(s.documents)+1)
		s.documents = append(append(next, doc), s.documents...)
		return true
	})
}

// Documents returns a copy of the document list, newest first.
func (s *Store) Documents() []model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Document{}, s.documents...)
}

// =============================================================================
// UI FLAGS
// =============================================================================

// ToggleSidebar flips the sidebar flag.
func (s *Store) ToggleSidebar() {
	s.mutate(func() bool {
		s.sidebarOpen = !s.sidebarOpen
		return true
	})
}

// SetSidebarOpen sets the sidebar flag.
func (s *Store) SetSidebarOpen(open bool) {
	s.mutate(func() bool {
		if s.sidebarOpen == open {
			return false
		}
		s.sidebarOpen = open
		return true
	})
}

// SetLoading sets the loading flag.
func (s *Store) SetLoading(loading bool) {
	s.mutate(func() bool {
		if s.loading == loading {
			return false
		}
		s.loading = loading
		return true
	})
}

// SetError records the last user-visible error. "" clears it.
func (s *Store) SetError(msg string) {
	s.mutate(func() bool {
		if s.errMsg == msg {
			return false
		}
		s.errMsg = msg
		return true
	})
}

// ClearError clears the last error.
func (s *Store) ClearError() {
	s.SetError("")
}

// SetStreaming sets the streaming flag and the id of the message being
// streamed. The id is dropped when streaming is false.
func (s *Store) SetStreaming(streaming bool, messageID string) {
	if !streaming {
		messageID = ""
	}
	s.mutate(func() bool {
		if s.streaming == streaming && s.streamingMessageID == messageID {
			return false
		}
		s.streaming = streaming
		s.streamingMessageID = messageID
		return true
	})
}

// SidebarOpen reports whether the sidebar is open.
func (s *Store) SidebarOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sidebarOpen
}

// Loading reports whether a send is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Streaming reports whether a message is streaming.
func (s *Store) Streaming() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streaming
}

// StreamingMessageID returns the id of the message being streamed, or "".
func (s *Store) StreamingMessageID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streamingMessageID
}

// LastError returns the last error, or "".
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}
