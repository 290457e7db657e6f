// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "github.com/jeranaias/oneshot-tui/internal/model"

// =============================================================================
// MESSAGE MUTATIONS
// =============================================================================

// SetMessages replaces a conversation's message list wholesale.
//
// Callers syncing from the backend must not call this while a send is in
// flight, or the optimistic placeholder is lost.
func (s *Store) SetMessages(conversationID string, list []model.Message) {
	s.mutate(func() bool {
		s.messages[conversationID] = model.CloneMessages(list)
		return true
	})
}

// AddMessage appends msg to the conversation's list.
func (s *Store) AddMessage(conversationID string, msg model.Message) {
	s.mutate(func() bool {
		s.messages[conversationID] = append(s.messages[conversationID], msg.Clone())
		return true
	})
}

// AppendToLastMessage concatenates token onto the last message of the
// conversation. It is a no-op when the list is empty.
func (s *Store) AppendToLastMessage(conversationID, token string) {
	s.mutate(func() bool {
		msgs := s.messages[conversationID]
		if len(msgs) == 0 {
			return false
		}
		msgs[len(msgs)-1].Content += token
		return true
	})
}

// AppendToLastUnsettled is AppendToLastMessage, except that it refuses to
// touch the conversation's settled reply. It reports whether the token was
// appended.
func (s *Store) AppendToLastUnsettled(conversationID, token string) bool {
	appended := false
	s.mutate(func() bool {
		msgs := s.messages[conversationID]
		if len(msgs) == 0 {
			return false
		}
		last := &msgs[len(msgs)-1]
		if id := s.settled[conversationID]; id != "" && last.ID == id {
			return false
		}
		last.Content += token
		appended = true
		return true
	})
	return appended
}

// MarkSettled records messageID as the conversation's final reply. Later
// tokens that fall back to the last message leave it alone.
func (s *Store) MarkSettled(conversationID, messageID string) {
	s.mu.Lock()
	s.settled[conversationID] = messageID
	s.mu.Unlock()
}

// SettledMessageID returns the conversation's last settled reply id, or "".
func (s *Store) SettledMessageID(conversationID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settled[conversationID]
}

// AppendToMessage concatenates token onto the message with the given id.
// It reports whether the message was found.
func (s *Store) AppendToMessage(conversationID, messageID, token string) bool {
	found := false
	s.mutate(func() bool {
		if i := s.indexOfLocked(conversationID, messageID); i >= 0 {
			s.messages[conversationID][i].Content += token
			found = true
		}
		return found
	})
	return found
}

// ReplaceMessage applies fn to the message with the given id in place.
// It reports whether the message was found.
func (s *Store) ReplaceMessage(conversationID, messageID string, fn func(*model.Message)) bool {
	found := false
	s.mutate(func() bool {
		if i := s.indexOfLocked(conversationID, messageID); i >= 0 {
			fn(&s.messages[conversationID][i])
			found = true
		}
		return found
	})
	return found
}

func (s *Store) indexOfLocked(conversationID, messageID string) int {
	if messageID == "" {
		return -1
	}
	for i, m := range s.messages[conversationID] {
		if m.ID == messageID {
			return i
		}
	}
	return -1
}

// =============================================================================
// MESSAGE SELECTORS
// =============================================================================

// Messages returns a copy of the conversation's messages. The result is
// never nil.
func (s *Store) Messages(conversationID string) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneMessages(s.messages[conversationID])
}

// ActiveMessages returns the messages of the active conversation.
func (s *Store) ActiveMessages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeID == "" {
		return []model.Message{}
	}
	return model.CloneMessages(s.messages[s.activeID])
}

// HasMessage reports whether the conversation holds a message with the id.
func (s *Store) HasMessage(conversationID, messageID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOfLocked(conversationID, messageID) >= 0
}
