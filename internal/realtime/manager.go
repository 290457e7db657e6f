// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/oneshot-tui/internal/events"
)

const (
	// DefaultHandshakeTimeout bounds a single dial.
	DefaultHandshakeTimeout = 10 * time.Second

	// writeTimeout bounds keepalive and close frames.
	writeTimeout = 5 * time.Second

	// createFailedMessage is reported when no connection can be attempted.
	createFailedMessage = "Failed to create WebSocket connection"
)

// ErrInvalidEndpoint is returned when the WebSocket base is not ws:// or wss://.
var ErrInvalidEndpoint = errors.New("realtime: invalid websocket endpoint")

// =============================================================================
// CONNECTION STATE
// =============================================================================

// State is the manager's connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// readyStateName maps a state to the WebSocket readyState vocabulary used
// in diagnostics.
func readyStateName(s State) string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	default:
		return "CLOSED"
	}
}

func connectionFailedMessage(s State) string {
	return fmt.Sprintf("WebSocket connection failed (state: %s). Ensure backend is running.", readyStateName(s))
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager owns the single live connection for the active conversation.
//
// Every connection carries a generation number. Connect and Disconnect bump
// it, so callbacks from a superseded socket or timer are ignored.
type Manager struct {
	store            StateSink
	wsBase           string
	dialer           Dialer
	sched            Scheduler
	backoff          Backoff
	keepalive        time.Duration
	handshakeTimeout time.Duration
	header           http.Header
	log              logrus.FieldLogger

	mu       sync.Mutex
	gen      uint64
	ctx      context.Context
	convID   string
	handler  Handler
	conn     Conn
	state    State
	attempts int
	timer    Timer

	// gorilla allows one concurrent writer per connection
	writeMu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithDialer replaces the gorilla dialer.
func WithDialer(d Dialer) Option {
	return func(m *Manager) { m.dialer = d }
}

// WithScheduler replaces the reconnect timer source.
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) { m.sched = s }
}

// WithBackoff replaces the reconnect policy.
func WithBackoff(b Backoff) Option {
	return func(m *Manager) { m.backoff = b }
}

// WithKeepalive sends a "ping" text frame at the given interval. Zero disables it.
func WithKeepalive(interval time.Duration) Option {
	return func(m *Manager) { m.keepalive = interval }
}

// WithHandshakeTimeout bounds each dial.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(m *Manager) { m.handshakeTimeout = d }
}

// WithHeader adds headers to the upgrade request.
func WithHeader(h http.Header) Option {
	return func(m *Manager) { m.header = h.Clone() }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates a disconnected manager that feeds st.
func NewManager(st StateSink, wsBase string, opts ...Option) *Manager {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	m := &Manager{
		store:            st,
		wsBase:           wsBase,
		sched:            SystemScheduler(),
		backoff:          DefaultBackoff(),
		handshakeTimeout: DefaultHandshakeTimeout,
		log:              discard,
		handler:          nopHandler{},
		ctx:              context.Background(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.dialer == nil {
		m.dialer = NewDialer(nil, m.handshakeTimeout)
	}
	m.log = m.log.WithField("component", "realtime")
	return m
}

// Endpoint returns the WebSocket URL for a conversation.
func Endpoint(wsBase, conversationID string) (string, error) {
	if conversationID == "" {
		return "", fmt.Errorf("%w: empty conversation id", ErrInvalidEndpoint)
	}
	u, err := url.Parse(strings.TrimRight(wsBase, "/"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("%w: scheme %q", ErrInvalidEndpoint, u.Scheme)
	}
	return u.String() + "/ws/agents/" + url.PathEscape(conversationID), nil
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Connect tears down any existing connection, including a pending reconnect,
// and starts connecting to conversationID. It returns immediately; progress
// is reported through h. ctx bounds every dial for this logical connection.
func (m *Manager) Connect(ctx context.Context, conversationID string, h Handler) {
	if h == nil {
		h = nopHandler{}
	}

	m.mu.Lock()
	old := m.teardownLocked()
	m.gen++
	gen := m.gen
	m.ctx = ctx
	m.convID = conversationID
	m.handler = h
	m.attempts = 0
	m.state = StateConnecting
	m.mu.Unlock()

	m.finishTeardown(old)
	m.log.WithField("conversation_id", conversationID).Debug("connecting")

	go m.open(gen)
}

// Disconnect cancels any pending reconnect, closes the live connection,
// forgets the conversation and resets every agent to idle. It is the only
// teardown path and is safe to call repeatedly.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	old := m.teardownLocked()
	m.mu.Unlock()

	m.finishTeardown(old)
}

// teardownLocked invalidates the current generation and returns the
// connection that still needs closing. Caller holds m.mu.
func (m *Manager) teardownLocked() Conn {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	conn := m.conn
	m.conn = nil
	m.gen++
	m.convID = ""
	m.handler = nopHandler{}
	m.attempts = 0
	m.state = StateDisconnected
	return conn
}

func (m *Manager) finishTeardown(conn Conn) {
	if conn != nil {
		m.writeMu.Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		m.writeMu.Unlock()
		_ = conn.Close()
	}
	m.store.ResetAgentStates()
}

// IsConnected reports whether the connection is open.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateOpen
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ConversationID returns the tracked conversation, or "" when disconnected.
func (m *Manager) ConversationID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.convID
}

// Attempts returns the reconnect attempts made since the last open.
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// current returns the tracked conversation and handler if gen is still live.
func (m *Manager) current(gen uint64) (string, Handler, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return "", nil, false
	}
	return m.convID, m.handler, true
}

// =============================================================================
// DIAL
// =============================================================================

func (m *Manager) open(gen uint64) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	convID, h, ctx := m.convID, m.handler, m.ctx
	m.state = StateConnecting
	m.mu.Unlock()

	log := m.log.WithField("conversation_id", convID)

	endpoint, err := Endpoint(m.wsBase, convID)
	if err != nil {
		log.WithError(err).Error("cannot build websocket endpoint")
		m.setState(gen, StateDisconnected)
		h.HandleEvent(&events.ConnectionError{Error: createFailedMessage})
		return
	}

	dialCtx, cancel := context.WithTimeout(ctx, m.handshakeTimeout)
	conn, err := m.dialer.DialContext(dialCtx, endpoint, m.header)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			log.WithError(err).Debug("dial abandoned")
			m.setState(gen, StateDisconnected)
			return
		}
		log.WithError(err).Warnf("connection error to %s", endpoint)
		if !m.setState(gen, StateClosed) {
			return
		}
		h.HandleEvent(&events.ConnectionError{Error: connectionFailedMessage(StateClosed)})
		h.HandleEvent(&Closed{Code: websocket.CloseAbnormalClosure, Reason: err.Error()})
		m.scheduleReconnect(gen)
		return
	}

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		_ = conn.Close()
		return
	}
	m.conn = conn
	m.state = StateOpen
	m.attempts = 0
	m.mu.Unlock()

	log.Infof("connected to %s", endpoint)
	h.HandleEvent(&events.ConnectionEstablished{})

	done := make(chan struct{})
	if m.keepalive > 0 {
		go m.keepaliveLoop(gen, conn, done)
	}
	go m.readLoop(gen, conn, done)
}

func (m *Manager) setState(gen uint64, s State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return false
	}
	m.state = s
	return true
}

// =============================================================================
// READ LOOP
// =============================================================================

func (m *Manager) readLoop(gen uint64, conn Conn, done chan struct{}) {
	defer close(done)
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			m.handleClose(gen, err)
			return
		}
		m.handleFrame(gen, frame)
	}
}

func (m *Manager) handleFrame(gen uint64, frame []byte) {
	convID, h, ok := m.current(gen)
	if !ok {
		return
	}

	evt, err := events.Decode(frame)
	if err != nil {
		var unknown *events.UnknownEventError
		switch {
		case errors.Is(err, events.ErrNotEnvelope):
			m.log.Debug("ignoring non-envelope frame")
		case errors.As(err, &unknown):
			m.log.WithField("event_type", unknown.Type).Warn("unknown event type")
		default:
			m.log.WithError(err).Warn("failed to parse message")
		}
		return
	}

	Apply(m.store, convID, evt, m.log)
	h.HandleEvent(evt)
}

func (m *Manager) handleClose(gen uint64, err error) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	prior := m.state
	h := m.handler
	conn := m.conn
	m.conn = nil
	m.state = StateClosed
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}

	closed := &Closed{Code: websocket.CloseAbnormalClosure, Reason: err.Error()}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		closed.Code = ce.Code
		closed.Reason = ce.Text
		closed.Clean = ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway
	}
	if !closed.Clean {
		m.log.WithError(err).Warn("connection error")
		h.HandleEvent(&events.ConnectionError{Error: connectionFailedMessage(prior)})
	}

	reason := closed.Reason
	if reason == "" {
		reason = "No reason provided"
	}
	m.log.WithFields(logrus.Fields{"code": closed.Code, "clean": closed.Clean}).Infof("connection closed: %s", reason)
	h.HandleEvent(closed)
	m.scheduleReconnect(gen)
}

// =============================================================================
// RECONNECT
// =============================================================================

func (m *Manager) scheduleReconnect(gen uint64) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	if m.attempts >= m.backoff.MaxAttempts {
		m.state = StateDisconnected
		m.mu.Unlock()
		m.log.Warn("max reconnect attempts reached")
		return
	}
	m.attempts++
	attempt := m.attempts
	delay := m.backoff.Delay(attempt)
	h := m.handler
	m.timer = m.sched.AfterFunc(delay, func() { m.reconnect(gen) })
	m.mu.Unlock()

	m.log.WithField("delay", delay).Infof("attempting reconnect %d", attempt)
	h.HandleEvent(&Reconnecting{Attempt: attempt, Delay: delay})
}

func (m *Manager) reconnect(gen uint64) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.mu.Unlock()
	m.open(gen)
}

// =============================================================================
// KEEPALIVE
// =============================================================================

func (m *Manager) keepaliveLoop(gen uint64, conn Conn, done <-chan struct{}) {
	ticker := time.NewTicker(m.keepalive)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if _, _, ok := m.current(gen); !ok {
				return
			}
			m.writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.TextMessage, []byte("ping"))
			m.writeMu.Unlock()
			if err != nil {
				m.log.WithError(err).Debug("keepalive write failed")
				return
			}
		}
	}
}
