// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/oneshot-tui/internal/events"
	"github.com/jeranaias/oneshot-tui/internal/model"
	"github.com/jeranaias/oneshot-tui/internal/store"
)

const waitTimeout = 2 * time.Second

// =============================================================================
// FAKES
// =============================================================================

type frame struct {
	data []byte
	err  error
}

type fakeConn struct {
	frames    chan frame
	closed    chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	writes [][]byte
	kinds  []int
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan frame, 16), closed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case f := <-c.frames:
		if f.err != nil {
			return 0, nil, f.err
		}
		return websocket.TextMessage, f.data, nil
	case <-c.closed:
		return 0, nil, errors.New("use of closed network connection")
	}
}

func (c *fakeConn) WriteMessage(kind int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kinds = append(c.kinds, kind)
	c.writes = append(c.writes, data)
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) sentClose() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range c.kinds {
		if k == websocket.CloseMessage {
			return true
		}
	}
	return false
}

func (c *fakeConn) send(t *testing.T, evt events.Event) {
	t.Helper()
	data, err := events.Encode(evt, testNow)
	require.NoError(t, err)
	c.frames <- frame{data: data}
}

// fakeDialer hands out queued results; an empty queue fails the dial.
type fakeDialer struct {
	mu      sync.Mutex
	results []func(ctx context.Context) (Conn, error)
	urls    chan string
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{urls: make(chan string, 16)}
}

func (d *fakeDialer) succeed(c *fakeConn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results = append(d.results, func(context.Context) (Conn, error) { return c, nil })
}

func (d *fakeDialer) DialContext(ctx context.Context, urlStr string, _ http.Header) (Conn, error) {
	d.urls <- urlStr
	d.mu.Lock()
	var next func(context.Context) (Conn, error)
	if len(d.results) > 0 {
		next = d.results[0]
		d.results = d.results[1:]
	}
	d.mu.Unlock()
	if next == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("dial tcp: connection refused")
	}
	return next(ctx)
}

type fakeTimer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *fakeTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// fire runs the callback on the caller's goroutine, even if stopped, to
// model a timer that fired just before Stop.
func (t *fakeTimer) fire() { t.fn() }

type fakeScheduler struct {
	timers chan *fakeTimer
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{timers: make(chan *fakeTimer, 16)}
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	t := &fakeTimer{delay: d, fn: fn}
	s.timers <- t
	return t
}

func (s *fakeScheduler) next(t *testing.T) *fakeTimer {
	t.Helper()
	select {
	case tm := <-s.timers:
		return tm
	case <-time.After(waitTimeout):
		t.Fatal("no reconnect scheduled")
		return nil
	}
}

func (s *fakeScheduler) expectNone(t *testing.T) {
	t.Helper()
	select {
	case tm := <-s.timers:
		t.Fatalf("unexpected reconnect scheduled after %v", tm.delay)
	case <-time.After(50 * time.Millisecond):
	}
}

type recorder struct {
	ch chan events.Event
}

func newRecorder() *recorder { return &recorder{ch: make(chan events.Event, 64)} }

func (r *recorder) HandleEvent(evt events.Event) { r.ch <- evt }

func (r *recorder) next(t *testing.T) events.Event {
	t.Helper()
	select {
	case evt := <-r.ch:
		return evt
	case <-time.After(waitTimeout):
		t.Fatal("no event received")
		return nil
	}
}

func (r *recorder) waitFor(t *testing.T, typ events.EventType) events.Event {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case evt := <-r.ch:
			if evt.Type() == typ {
				return evt
			}
		case <-deadline:
			t.Fatalf("no %s event received", typ)
			return nil
		}
	}
}

type harness struct {
	st     *store.Store
	mgr    *Manager
	dialer *fakeDialer
	sched  *fakeScheduler
	rec    *recorder
}

func newHarness(t *testing.T, wsBase string) *harness {
	t.Helper()
	h := &harness{
		st:     newStore(),
		dialer: newFakeDialer(),
		sched:  newFakeScheduler(),
		rec:    newRecorder(),
	}
	h.mgr = NewManager(h.st, wsBase,
		WithDialer(h.dialer),
		WithScheduler(h.sched),
		WithLogger(quietLogger()),
	)
	t.Cleanup(h.mgr.Disconnect)
	return h
}

func (h *harness) dialed(t *testing.T) string {
	t.Helper()
	select {
	case u := <-h.dialer.urls:
		return u
	case <-time.After(waitTimeout):
		t.Fatal("no dial attempted")
		return ""
	}
}

// =============================================================================
// ENDPOINT
// =============================================================================

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		id      string
		want    string
		wantErr bool
	}{
		{"ws", "ws://localhost:8000", "c1", "ws://localhost:8000/ws/agents/c1", false},
		{"wss trailing slash", "wss://api.example.com/", "c1", "wss://api.example.com/ws/agents/c1", false},
		{"escapes id", "ws://h", "a b/c", "ws://h/ws/agents/a%20b%2Fc", false},
		{"http rejected", "http://localhost:8000", "c1", "", true},
		{"empty id", "ws://h", "", "", true},
		{"garbage", "://", "c1", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Endpoint(tt.base, tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEndpoint)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// =============================================================================
// CONNECT / DISCONNECT
// =============================================================================

func TestManager_ConnectOpens(t *testing.T) {
	h := newHarness(t, "ws://localhost:8000")
	conn := newFakeConn()
	h.dialer.succeed(conn)

	h.mgr.Connect(context.Background(), "c1", h.rec)

	assert.Equal(t, "ws://localhost:8000/ws/agents/c1", h.dialed(t))
	_, ok := h.rec.next(t).(*events.ConnectionEstablished)
	require.True(t, ok)
	assert.True(t, h.mgr.IsConnected())
	assert.Equal(t, StateOpen, h.mgr.State())
	assert.Equal(t, "c1", h.mgr.ConversationID())
}

func TestManager_FramesUpdateStoreThenHandler(t *testing.T) {
	h := newHarness(t, "ws://h")
	conn := newFakeConn()
	h.dialer.succeed(conn)

	h.mgr.Connect(context.Background(), "c1", h.rec)
	h.rec.waitFor(t, events.TypeConnectionEstablished)

	conn.frames <- frame{data: []byte(`not json`)}
	conn.frames <- frame{data: []byte(`{"type":"pong"}`)}
	conn.frames <- frame{data: []byte(`{"event_type":"agent.dreaming","data":{}}`)}
	conn.send(t, &events.AgentStarted{AgentName: model.AgentResearcher, Task: "Search"})

	evt := h.rec.next(t)
	started, ok := evt.(*events.AgentStarted)
	require.True(t, ok, "got %T", evt)
	assert.Equal(t, model.AgentResearcher, started.AgentName)

	a := agent(t, h.st, model.AgentResearcher)
	assert.Equal(t, model.StatusExecuting, a.Status)
}

func TestManager_DisconnectIsSingleTeardown(t *testing.T) {
	h := newHarness(t, "ws://h")
	conn := newFakeConn()
	h.dialer.succeed(conn)

	h.mgr.Connect(context.Background(), "c1", h.rec)
	h.rec.waitFor(t, events.TypeConnectionEstablished)
	conn.send(t, &events.AgentStarted{AgentName: model.AgentScribe, Task: "Draft"})
	h.rec.waitFor(t, events.TypeAgentStarted)

	h.mgr.Disconnect()

	assert.True(t, conn.isClosed())
	assert.True(t, conn.sentClose())
	assert.False(t, h.mgr.IsConnected())
	assert.Equal(t, "", h.mgr.ConversationID())
	a := agent(t, h.st, model.AgentScribe)
	assert.Equal(t, model.StatusIdle, a.Status)

	// the read loop sees the closed socket but must not schedule a reconnect
	h.sched.expectNone(t)

	h.mgr.Disconnect()
}

func TestManager_ConnectReplacesPrevious(t *testing.T) {
	h := newHarness(t, "ws://h")
	first, second := newFakeConn(), newFakeConn()
	h.dialer.succeed(first)
	h.dialer.succeed(second)

	h.mgr.Connect(context.Background(), "c1", h.rec)
	h.rec.waitFor(t, events.TypeConnectionEstablished)

	h.mgr.Connect(context.Background(), "c2", h.rec)
	h.rec.waitFor(t, events.TypeConnectionEstablished)

	assert.True(t, first.isClosed())
	assert.Equal(t, "c2", h.mgr.ConversationID())

	// frames still buffered on the old socket are never delivered
	first.send(t, &events.AgentStarted{AgentName: model.AgentAdvisor})
	second.send(t, &events.AgentStarted{AgentName: model.AgentMemory})

	evt := h.rec.waitFor(t, events.TypeAgentStarted).(*events.AgentStarted)
	assert.Equal(t, model.AgentMemory, evt.AgentName)
	h.sched.expectNone(t)
}

// =============================================================================
// RECONNECT
// =============================================================================

func TestManager_ReconnectBackoffThenGiveUp(t *testing.T) {
	h := newHarness(t, "ws://h")

	h.mgr.Connect(context.Background(), "c1", h.rec)

	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 30 * time.Second}
	for i, delay := range want {
		h.dialed(t)

		cerr, ok := h.rec.next(t).(*events.ConnectionError)
		require.True(t, ok)
		assert.Equal(t, "WebSocket connection failed (state: CLOSED). Ensure backend is running.", cerr.Error)

		closed, ok := h.rec.next(t).(*Closed)
		require.True(t, ok)
		assert.False(t, closed.Clean)

		rc, ok := h.rec.next(t).(*Reconnecting)
		require.True(t, ok)
		assert.Equal(t, i+1, rc.Attempt)
		assert.Equal(t, delay, rc.Delay)

		tm := h.sched.next(t)
		assert.Equal(t, delay, tm.delay)
		tm.fire()
	}

	// the fifth reconnect fails too; no sixth is scheduled
	h.dialed(t)
	h.rec.waitFor(t, TypeClosed)
	h.sched.expectNone(t)
	assert.Equal(t, StateDisconnected, h.mgr.State())
	assert.Equal(t, 5, h.mgr.Attempts())
}

func TestManager_OpenResetsAttempts(t *testing.T) {
	h := newHarness(t, "ws://h")
	conn := newFakeConn()

	h.mgr.Connect(context.Background(), "c1", h.rec)
	h.dialed(t)
	tm := h.sched.next(t)
	assert.Equal(t, 2*time.Second, tm.delay)

	h.dialer.succeed(conn)
	tm.fire()
	h.rec.waitFor(t, events.TypeConnectionEstablished)
	assert.Equal(t, 0, h.mgr.Attempts())

	conn.frames <- frame{err: &websocket.CloseError{Code: websocket.CloseAbnormalClosure}}
	cerr := h.rec.waitFor(t, events.TypeConnectionError).(*events.ConnectionError)
	assert.Contains(t, cerr.Error, "state: OPEN")

	tm = h.sched.next(t)
	assert.Equal(t, 2*time.Second, tm.delay, "backoff restarts after a successful open")
}

func TestManager_CleanCloseStillReconnects(t *testing.T) {
	h := newHarness(t, "ws://h")
	conn := newFakeConn()
	h.dialer.succeed(conn)

	h.mgr.Connect(context.Background(), "c1", h.rec)
	h.rec.waitFor(t, events.TypeConnectionEstablished)

	conn.frames <- frame{err: &websocket.CloseError{Code: websocket.CloseNormalClosure, Text: "bye"}}

	closed := h.rec.next(t).(*Closed)
	assert.True(t, closed.Clean)
	assert.Equal(t, websocket.CloseNormalClosure, closed.Code)
	assert.Equal(t, "bye", closed.Reason)

	_, ok := h.rec.next(t).(*Reconnecting)
	assert.True(t, ok)
	h.sched.next(t)
}

func TestManager_DisconnectCancelsPendingReconnect(t *testing.T) {
	h := newHarness(t, "ws://h")

	h.mgr.Connect(context.Background(), "c1", h.rec)
	h.dialed(t)
	tm := h.sched.next(t)

	h.mgr.Disconnect()
	assert.True(t, tm.isStopped())

	// a callback that raced Stop is ignored
	tm.fire()
	select {
	case u := <-h.dialer.urls:
		t.Fatalf("unexpected dial to %s after disconnect", u)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_InvalidEndpointDoesNotRetry(t *testing.T) {
	h := newHarness(t, "http://localhost:8000")

	h.mgr.Connect(context.Background(), "c1", h.rec)

	cerr, ok := h.rec.next(t).(*events.ConnectionError)
	require.True(t, ok)
	assert.Equal(t, "Failed to create WebSocket connection", cerr.Error)
	h.sched.expectNone(t)
	assert.Empty(t, h.dialer.urls)
}

func TestManager_CancelledContextStopsRetrying(t *testing.T) {
	h := newHarness(t, "ws://h")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h.mgr.Connect(ctx, "c1", h.rec)
	h.dialed(t)

	h.sched.expectNone(t)
	assert.Equal(t, StateDisconnected, h.mgr.State())
}

func TestManager_Keepalive(t *testing.T) {
	conn := newFakeConn()
	dialer := newFakeDialer()
	dialer.succeed(conn)
	rec := newRecorder()
	mgr := NewManager(newStore(), "ws://h",
		WithDialer(dialer),
		WithScheduler(newFakeScheduler()),
		WithKeepalive(10*time.Millisecond),
		WithLogger(quietLogger()),
	)
	defer mgr.Disconnect()

	mgr.Connect(context.Background(), "c1", rec)
	rec.waitFor(t, events.TypeConnectionEstablished)

	assert.Eventually(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		for i, k := range conn.kinds {
			if k == websocket.TextMessage && string(conn.writes[i]) == "ping" {
				return true
			}
		}
		return false
	}, waitTimeout, 5*time.Millisecond)
}
