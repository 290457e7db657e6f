// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/oneshot-tui/internal/api"
	"github.com/jeranaias/oneshot-tui/internal/model"
	"github.com/jeranaias/oneshot-tui/internal/realtime"
	"github.com/jeranaias/oneshot-tui/internal/store"
	"github.com/jeranaias/oneshot-tui/internal/util"
)

// RefreshDelay is how long after the orchestrator completes before the
// conversation's messages are refetched.
const RefreshDelay = 100 * time.Millisecond

var (
	// ErrEmptyInput is returned by Submit for blank input.
	ErrEmptyInput = errors.New("session: empty input")

	// ErrBusy is returned by Submit while another turn is in flight.
	ErrBusy = errors.New("session: a message is already being sent")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session: closed")

	// ErrNoLister is returned by refreshes when no lister was configured.
	ErrNoLister = errors.New("session: no lister configured")

	errEmptyReply = errors.New("session: backend returned no message")
)

// MessageSender posts a user message and returns the assistant's reply.
// *api.Client implements it.
type MessageSender interface {
	SendMessage(ctx context.Context, conversationID string, req api.SendMessageRequest) (*model.Message, error)
}

// MessageLister loads a conversation's messages.
type MessageLister interface {
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error)
}

// ConversationLister loads the conversation list.
type ConversationLister interface {
	ListConversations(ctx context.Context, limit, offset int) ([]model.Conversation, error)
}

// =============================================================================
// SESSION
// =============================================================================

// Session coordinates chat turns against a store. At most one turn is in
// flight at a time.
type Session struct {
	store         *store.Store
	sender        MessageSender
	messages      MessageLister
	conversations ConversationLister
	sched         realtime.Scheduler
	now           func() time.Time
	newID         func() string
	log           logrus.FieldLogger
	onSettled     func(*Turn)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	inflight     *Turn
	refreshTimer realtime.Timer
	refreshGen   uint64
	connErr      string
	closed       bool
}

// Option configures a Session.
type Option func(*Session)

// WithMessageLister enables Refresh and ScheduleRefresh.
func WithMessageLister(l MessageLister) Option {
	return func(s *Session) { s.messages = l }
}

// WithConversationLister enables RefreshConversations. When set, the list
// is refetched after every successful turn.
func WithConversationLister(l ConversationLister) Option {
	return func(s *Session) { s.conversations = l }
}

// WithScheduler replaces the timer source for delayed refreshes.
func WithScheduler(sched realtime.Scheduler) Option {
	return func(s *Session) { s.sched = sched }
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDGenerator replaces the uuid generator for client-side ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *Session) { s.newID = gen }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithOnSettled registers a hook run after each turn finishes, successful
// or not. It runs on the send goroutine.
func WithOnSettled(fn func(*Turn)) Option {
	return func(s *Session) { s.onSettled = fn }
}

// New creates a session that sends through sender and records into st.
// *api.Client satisfies every lister, so most callers pass it to all three.
func New(st *store.Store, sender MessageSender, opts ...Option) *Session {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		store:  st,
		sender: sender,
		sched:  realtime.SystemScheduler(),
		now:    time.Now,
		newID:  uuid.NewString,
		log:    discard,
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "session")
	return s
}

// Close cancels in-flight turns and pending refreshes and waits for the send
// goroutines to finish.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
		s.refreshTimer = nil
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// Busy reports whether a turn is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight != nil
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// NewConversation creates an empty local conversation titled
// "New Conversation" and makes it active. The backend creates its copy on
// the first message.
func (s *Session) NewConversation() model.Conversation {
	return s.addConversation(model.DefaultConversationTitle)
}

// StartConversation creates a local conversation titled from input the same
// way Submit does and makes it active. Use it when the realtime stream must
// be connected before the first message is sent.
func (s *Session) StartConversation(input string) model.Conversation {
	return s.addConversation(util.ConversationTitle(input))
}

func (s *Session) addConversation(title string) model.Conversation {
	conv := model.NewConversation(s.newID(), title, s.now())
	s.store.AddConversation(conv)
	s.store.SetActiveConversation(conv.ID)
	return conv
}

// RefreshConversations replaces the store's conversation list with the
// backend's.
func (s *Session) RefreshConversations(ctx context.Context) error {
	if s.conversations == nil {
		return ErrNoLister
	}
	list, err := s.conversations.ListConversations(ctx, 0, 0)
	if err != nil {
		return err
	}
	s.store.SetConversations(list)
	return nil
}

// =============================================================================
// MESSAGE SYNC
// =============================================================================

// SyncMessages replaces a conversation's messages with a backend list. It
// does nothing and returns false while a turn is in flight.
func (s *Session) SyncMessages(conversationID string, list []model.Message) bool {
	if conversationID == "" || s.store.Loading() {
		return false
	}
	s.store.SetMessages(conversationID, list)
	return true
}

// Refresh loads a conversation's messages and applies them with
// SyncMessages. It reports whether they were applied.
func (s *Session) Refresh(ctx context.Context, conversationID string) (bool, error) {
	if s.messages == nil {
		return false, ErrNoLister
	}
	list, err := s.messages.ListMessages(ctx, conversationID, 0, 0)
	if err != nil {
		return false, err
	}
	applied := s.SyncMessages(conversationID, list)
	if !applied {
		s.log.WithField("conversation_id", conversationID).Debug("skipping message sync while sending")
	}
	return applied, nil
}

// ScheduleRefresh refetches the conversation's messages after delay,
// replacing any refresh already pending. The refetch is skipped if the
// conversation is no longer active when the timer fires.
func (s *Session) ScheduleRefresh(conversationID string, delay time.Duration) {
	if conversationID == "" || s.messages == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
	}
	s.refreshGen++
	gen := s.refreshGen
	s.refreshTimer = s.sched.AfterFunc(delay, func() {
		s.mu.Lock()
		if gen != s.refreshGen || s.closed {
			s.mu.Unlock()
			return
		}
		s.refreshTimer = nil
		s.mu.Unlock()

		if s.store.ActiveConversationID() != conversationID {
			return
		}
		if _, err := s.Refresh(s.ctx, conversationID); err != nil {
			s.log.WithError(err).Warn("message refresh failed")
		}
	})
}

// =============================================================================
// TURNS
// =============================================================================

// Turn is one submitted message awaiting the backend's reply.
type Turn struct {
	ConversationID string
	UserMessageID  string
	PlaceholderID  string
	Content        string

	done  chan struct{}
	reply *model.Message
	err   error
}

// Done is closed when the turn settles.
func (t *Turn) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the turn settles and returns the reply or the error.
func (t *Turn) Wait() (*model.Message, error) {
	<-t.done
	return t.reply, t.err
}

// Err returns the send error once the turn has settled.
func (t *Turn) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Submit sends input as a new user message.
//
// The store is updated before Submit returns; the backend call runs in the
// background and the returned Turn reports its outcome. ctx bounds the
// backend call.
func (s *Session) Submit(ctx context.Context, input string) (*Turn, error) {
	content := strings.TrimSpace(input)
	if content == "" {
		return nil, ErrEmptyInput
	}

	turn := &Turn{Content: content, done: make(chan struct{})}

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return nil, ErrClosed
	case s.inflight != nil || s.store.Loading():
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.inflight = turn
	s.wg.Add(1)
	s.mu.Unlock()

	now := s.now()
	convID := s.store.ActiveConversationID()
	if convID == "" {
		convID = s.newID()
		s.store.AddConversation(model.NewConversation(convID, util.ConversationTitle(content), now))
		s.store.SetActiveConversation(convID)
	}

	user := model.NewMessage(s.newID(), convID, model.RoleUser, content, now)
	placeholder := model.NewMessage(s.newID(), convID, model.RoleAssistant, "", now)
	s.store.AddMessage(convID, user)
	s.store.AddMessage(convID, placeholder)
	s.store.SetLoading(true)
	s.store.SetStreaming(true, placeholder.ID)

	turn.ConversationID = convID
	turn.UserMessageID = user.ID
	turn.PlaceholderID = placeholder.ID

	sendCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)

	go func() {
		defer s.wg.Done()
		defer stop()
		defer cancel()
		s.send(sendCtx, turn)
	}()
	return turn, nil
}

func (s *Session) send(ctx context.Context, turn *Turn) {
	log := s.log.WithField("conversation_id", turn.ConversationID)

	reply, err := s.sender.SendMessage(ctx, turn.ConversationID, api.SendMessageRequest{Content: turn.Content})
	if err == nil && reply == nil {
		err = errEmptyReply
	}

	if err != nil {
		log.WithError(err).Warn("send failed")
		s.fail(turn, err)
	} else {
		log.WithField("message_id", reply.ID).Debug("reply received")
		s.settle(turn, reply)
	}

	s.mu.Lock()
	if s.inflight == turn {
		s.inflight = nil
	}
	s.mu.Unlock()
	close(turn.done)

	if s.onSettled != nil {
		s.onSettled(turn)
	}
	if err == nil && s.conversations != nil && ctx.Err() == nil {
		if rerr := s.RefreshConversations(s.ctx); rerr != nil {
			log.WithError(rerr).Debug("conversation refresh failed")
		}
	}
}

// settle swaps the placeholder for the server's reply. Only id, content and
// created_at are taken from the reply; the placeholder's role and
// conversation stay, and so does its timestamp when the reply has none.
func (s *Session) settle(turn *Turn, reply *model.Message) {
	convID := turn.ConversationID

	replaced := s.store.ReplaceMessage(convID, turn.PlaceholderID, func(m *model.Message) {
		m.ID = reply.ID
		m.Content = reply.Content
		if !reply.CreatedAt.IsZero() {
			m.CreatedAt = reply.CreatedAt
		}
	})
	if !replaced && !s.store.HasMessage(convID, reply.ID) {
		msg := *reply
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = model.NewTimestamp(s.now())
		}
		s.store.AddMessage(convID, msg)
	}
	// Marked before streaming stops so no late token can reach the reply.
	s.store.MarkSettled(convID, reply.ID)

	s.store.SetStreaming(false, "")
	s.store.SetLoading(false)

	count := len(s.store.Messages(convID))
	updated := reply.CreatedAt
	if updated.IsZero() {
		updated = model.NewTimestamp(s.now())
	}
	s.store.UpdateConversation(convID, func(c *model.Conversation) {
		c.UpdatedAt = updated
		c.MessageCount = count
	})

	turn.reply = reply
}

// fail clears the in-flight flags and records the error. The placeholder is
// kept so streamed text already shown is not lost.
func (s *Session) fail(turn *Turn, err error) {
	s.store.SetStreaming(false, "")
	s.store.SetLoading(false)
	s.store.SetError(errorMessage(err))
	turn.err = err
}

func errorMessage(err error) string {
	var apiErr *api.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, context.Canceled):
		return "Send cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "The backend did not respond in time"
	default:
		return err.Error()
	}
}
