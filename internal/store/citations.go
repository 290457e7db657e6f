// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "github.com/jeranaias/oneshot-tui/internal/model"

// AddCitations appends citations to a conversation, skipping any whose URL
// is already stored for that conversation or repeated earlier in the batch.
// Citations without a URL are always appended.
func (s *Store) AddCitations(conversationID string, list []model.Citation) {
	if len(list) == 0 {
		return
	}
	s.mutate(func() bool {
		existing := s.citations[conversationID]
		seen := make(map[string]struct{}, len(existing)+len(list))
		for _, c := range existing {
			if c.URL != "" {
				seen[c.URL] = struct{}{}
			}
		}

		next := make([]model.Citation, len(existing), len(existing)+len(list))
		copy(next, existing)
		for _, c := range list {
			if c.URL != "" {
				if _, dup := seen[c.URL]; dup {
					continue
				}
				seen[c.URL] = struct{}{}
			}
			next = append(next, c)
		}
		if len(next) == len(existing) {
			return false
		}
		s.citations[conversationID] = next
		return true
	})
}

// ClearCitations empties a conversation's citations.
func (s *Store) ClearCitations(conversationID string) {
	s.mutate(func() bool {
		s.citations[conversationID] = []model.Citation{}
		return true
	})
}

// Citations returns a copy of a conversation's citations. Never nil.
func (s *Store) Citations(conversationID string) []model.Citation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Citation{}, s.citations[conversationID]...)
}

// ActiveCitations returns the citations of the active conversation.
func (s *Store) ActiveCitations() []model.Citation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeID == "" {
		return []model.Citation{}
	}
	return append([]model.Citation{}, s.citations[s.activeID]...)
}
