// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/oneshot-tui/internal/model"
)

// =============================================================================
// STORE
// =============================================================================

// Store is the client-side source of truth for conversations, messages,
// agent activity, citations, documents and UI flags.
//
// Every exported mutation is atomic. Reads return copies, so callers can
// never change state except through the mutation methods.
type Store struct {
	mu sync.RWMutex

	// Conversations
	conversations []model.Conversation
	activeID      string

	// Messages keyed by conversation ID
	messages map[string][]model.Message

	// One entry per agent, always
	agents map[model.AgentName]model.AgentState

	documents []model.Document

	// Citations keyed by conversation ID
	citations map[string][]model.Citation

	// Last reconciled reply per conversation
	settled map[string]string

	// UI flags
	sidebarOpen        bool
	loading            bool
	streaming          bool
	streamingMessageID string
	errMsg             string

	now func() time.Time
	log logrus.FieldLogger

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for last-activity stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for ignored mutations.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates an empty store with every agent idle and the sidebar open.
func New(opts ...Option) *Store {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Store{
		messages:    make(map[string][]model.Message),
		agents:      initialAgentStates(),
		citations:   make(map[string][]model.Citation),
		settled:     make(map[string]string),
		sidebarOpen: true,
		now:         time.Now,
		log:         discard,
		subs:        make(map[int]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// mutate runs fn under the write lock and notifies subscribers when fn
// reports a change. Subscribers always run outside the lock.
func (s *Store) mutate(fn func() bool) {
	s.mu.Lock()
	changed := fn()
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers fn to be called after every state change.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// State is an immutable copy of the whole store.
type State struct {
	Conversations        []model.Conversation        `json:"conversations"`
	ActiveConversationID string                      `json:"active_conversation_id"`
	Messages             map[string][]model.Message  `json:"messages"`
	Agents               []model.AgentState          `json:"agents"`
	Documents            []model.Document            `json:"documents"`
	Citations            map[string][]model.Citation `json:"citations"`
	SidebarOpen          bool                        `json:"sidebar_open"`
	Loading              bool                        `json:"loading"`
	Streaming            bool                        `json:"streaming"`
	StreamingMessageID   string                      `json:"streaming_message_id,omitempty"`
	Error                string                      `json:"error,omitempty"`
}

// Snapshot copies the entire state under a single read lock.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := make(map[string][]model.Message, len(s.messages))
	for id, list := range s.messages {
		msgs[id] = model.CloneMessages(list)
	}
	cits := make(map[string][]model.Citation, len(s.citations))
	for id, list := range s.citations {
		cits[id] = append([]model.Citation(nil), list...)
	}

	return State{
		Conversations:        model.CloneConversations(s.conversations),
		ActiveConversationID: s.activeID,
		Messages:             msgs,
		Agents:               s.agentStatesLocked(),
		Documents:            append([]model.Document(nil), s.documents...),
		Citations:            cits,
		SidebarOpen:          s.sidebarOpen,
		Loading:              s.loading,
		Streaming:            s.streaming,
		StreamingMessageID:   s.streamingMessageID,
		Error:                s.errMsg,
	}
}
