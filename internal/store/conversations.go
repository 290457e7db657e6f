// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "github.com/jeranaias/oneshot-tui/internal/model"

// =============================================================================
// CONVERSATION MUTATIONS
// =============================================================================

// SetConversations replaces the full conversation list.
func (s *Store) SetConversations(list []model.Conversation) {
	s.mutate(func() bool {
		s.conversations = model.CloneConversations(list)
		return true
	})
}

// AddConversation prepends conv to the list.
func (s *Store) AddConversation(conv model.Conversation) {
	s.mutate(func() bool {
		next := make([]model.Conversation, 0, len(s.conversations)+1)
		next = append(next, conv.Clone())
		next = append(next, s.conversations...)
		s.conversations = next
		return true
	})
}

// SetActiveConversation selects the active conversation. "" clears it.
func (s *Store) SetActiveConversation(id string) {
	s.mutate(func() bool {
		if s.activeID == id {
			return false
		}
		s.activeID = id
		return true
	})
}

// UpdateConversation applies fn to the conversation with the given id.
// It reports whether the conversation was found.
func (s *Store) UpdateConversation(id string, fn func(*model.Conversation)) bool {
	found := false
	s.mutate(func() bool {
		for i := range s.conversations {
			if s.conversations[i].ID == id {
				fn(&s.conversations[i])
				found = true
				return true
			}
		}
		return false
	})
	return found
}

// =============================================================================
// CONVERSATION SELECTORS
// =============================================================================

// Conversations returns a copy of the conversation list, newest first.
func (s *Store) Conversations() []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneConversations(s.conversations)
}

// ActiveConversationID returns the active conversation id, or "".
func (s *Store) ActiveConversationID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// ActiveConversation returns the active conversation if it is in the list.
func (s *Store) ActiveConversation() (model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeID == "" {
		return model.Conversation{}, false
	}
	for _, c := range s.conversations {
		if c.ID == s.activeID {
			return c.Clone(), true
		}
	}
	return model.Conversation{}, false
}
