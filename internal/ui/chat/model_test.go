// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/oneshot-tui/internal/api"
	"github.com/jeranaias/oneshot-tui/internal/config"
	"github.com/jeranaias/oneshot-tui/internal/events"
	"github.com/jeranaias/oneshot-tui/internal/logging"
	"github.com/jeranaias/oneshot-tui/internal/model"
	"github.com/jeranaias/oneshot-tui/internal/realtime"
	"github.com/jeranaias/oneshot-tui/internal/session"
	"github.com/jeranaias/oneshot-tui/internal/store"
	"github.com/jeranaias/oneshot-tui/internal/ui/components"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeSender struct {
	reply string
	err   error
	// gate holds the reply back until closed, when set.
	gate chan struct{}
}

func (f *fakeSender) SendMessage(ctx context.Context, conversationID string, req api.SendMessageRequest) (*model.Message, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	msg := model.NewMessage("srv-reply", conversationID, model.RoleAssistant, f.reply, time.Now())
	return &msg, nil
}

type fakeConnector struct {
	mu          sync.Mutex
	connected   []string
	disconnects int
}

func (f *fakeConnector) Connect(ctx context.Context, conversationID string, h realtime.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = append(f.connected, conversationID)
}

func (f *fakeConnector) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
}

type fakeDocs struct{}

func (fakeDocs) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	return &model.Document{ID: id, Title: "Acme proposal", DocType: "proposal"}, nil
}

type harness struct {
	st      *store.Store
	conn    *fakeConnector
	sender  *fakeSender
	copied  []string
	copyErr error
}

func newHarness(t *testing.T) (*harness, Model) {
	t.Helper()
	h := &harness{
		st:     store.New(),
		conn:   &fakeConnector{},
		sender: &fakeSender{reply: "Here is the plan."},
	}
	sess := session.New(h.st, h.sender)
	t.Cleanup(sess.Close)

	cfg := config.Default()
	cfg.UI.Theme = "dark"
	cfg.UI.SidebarOpen = true

	m := New(Options{
		Store:     h.st,
		Session:   sess,
		Connector: h.conn,
		Documents: fakeDocs{},
		Config:    cfg,
		Logger:    logging.Discard(),
		Clipboard: func(s string) error {
			h.copied = append(h.copied, s)
			return h.copyErr
		},
		ExportDir: t.TempDir(),
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return h, m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func updateCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyMsg(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_CreatesConversationAndConnects(t *testing.T) {
	h, m := newHarness(t)
	h.sender.gate = make(chan struct{})
	m.input.SetValue("Draft a launch post")

	m, cmd := updateCmd(t, m, keyMsg(tea.KeyEnter))
	require.NotNil(t, cmd)

	convID := h.st.ActiveConversationID()
	require.NotEmpty(t, convID)
	assert.Equal(t, []string{convID}, h.conn.connected)
	assert.Equal(t, "", m.input.Value())

	convs := h.st.Conversations()
	require.Len(t, convs, 1)
	assert.Equal(t, convID, convs[0].ID)
	assert.Equal(t, "Draft a launch post", convs[0].DisplayTitle())
	assert.Equal(t, "Draft a launch post", m.activeTitle)

	msgs := h.st.Messages(convID)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "Draft a launch post", msgs[0].Content)
	assert.True(t, msgs[1].IsEmptyAssistant())
	assert.True(t, m.status.Loading)

	close(h.sender.gate)
	settled := cmd()
	require.IsType(t, turnSettledMsg{}, settled)
	m = update(t, m, settled)

	assert.Equal(t, "Here is the plan.", m.lastReply)
	assert.False(t, h.st.Loading())
	assert.Contains(t, m.View(), "Draft a launch post")
}

func TestSubmit_LongInputTitleTruncated(t *testing.T) {
	h, m := newHarness(t)
	m.input.SetValue(strings.Repeat("a", 60))

	m, cmd := updateCmd(t, m, keyMsg(tea.KeyEnter))
	update(t, m, cmd())

	conv, ok := h.st.ActiveConversation()
	require.True(t, ok)
	assert.Equal(t, strings.Repeat("a", 50)+"...", conv.DisplayTitle())
}

func TestSubmit_BlankInputIsIgnored(t *testing.T) {
	h, m := newHarness(t)
	m.input.SetValue("   ")

	_, cmd := updateCmd(t, m, keyMsg(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Empty(t, h.st.ActiveConversationID())
	assert.Empty(t, h.conn.connected)
}

func TestSubmit_FailureSurfacesInStatusBar(t *testing.T) {
	h, m := newHarness(t)
	h.sender.err = errors.New("backend down")
	m.input.SetValue("hello")

	m, cmd := updateCmd(t, m, keyMsg(tea.KeyEnter))
	m = update(t, m, cmd())

	assert.NotEmpty(t, h.st.LastError())
	assert.Equal(t, h.st.LastError(), m.status.Error)
	assert.Empty(t, m.lastReply)
}

func TestSubmit_ReusesLiveConnection(t *testing.T) {
	h, m := newHarness(t)
	m.input.SetValue("first")
	m, cmd := updateCmd(t, m, keyMsg(tea.KeyEnter))
	m = update(t, m, cmd())

	m.input.SetValue("second")
	m, cmd = updateCmd(t, m, keyMsg(tea.KeyEnter))
	update(t, m, cmd())

	assert.Len(t, h.conn.connected, 1)
	assert.Len(t, h.st.Messages(h.st.ActiveConversationID()), 4)
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func TestTabCyclesConversations(t *testing.T) {
	h, m := newHarness(t)
	now := time.Now()
	h.st.SetConversations([]model.Conversation{
		model.NewConversation("c1", "Launch", now),
		model.NewConversation("c2", "Pricing", now),
	})
	m = update(t, m, StoreChangedMsg{})

	m, cmd := updateCmd(t, m, keyMsg(tea.KeyTab))
	assert.NotNil(t, cmd)
	assert.Equal(t, "c1", h.st.ActiveConversationID())

	m = update(t, m, keyMsg(tea.KeyTab))
	assert.Equal(t, "c2", h.st.ActiveConversationID())

	m = update(t, m, keyMsg(tea.KeyTab))
	assert.Equal(t, "c1", h.st.ActiveConversationID())
	assert.Equal(t, []string{"c1", "c2", "c1"}, h.conn.connected)
	assert.Equal(t, "Launch", m.activeTitle)

	update(t, m, keyMsg(tea.KeyShiftTab))
	assert.Equal(t, "c2", h.st.ActiveConversationID())
}

func TestNewConversationDisconnects(t *testing.T) {
	h, m := newHarness(t)
	h.st.AddConversation(model.NewConversation("c1", "Launch", time.Now()))
	m = update(t, m, StoreChangedMsg{})
	m = update(t, m, keyMsg(tea.KeyTab))
	require.Equal(t, "c1", h.st.ActiveConversationID())

	m, cmd := updateCmd(t, m, keyMsg(tea.KeyCtrlN))
	assert.NotNil(t, cmd)
	assert.Empty(t, h.st.ActiveConversationID())
	assert.Equal(t, 1, h.conn.disconnects)
	assert.Equal(t, components.ConnOffline, m.status.Conn)
	assert.Equal(t, "New conversation", m.status.Notice)
}

// =============================================================================
// KEYS
// =============================================================================

func TestCopyLastReply(t *testing.T) {
	h, m := newHarness(t)

	m = update(t, m, keyMsg(tea.KeyCtrlY))
	assert.Empty(t, h.copied)
	assert.Equal(t, "No reply to copy", m.status.Notice)

	h.st.AddConversation(model.NewConversation("c1", "Launch", time.Now()))
	h.st.SetActiveConversation("c1")
	h.st.AddMessage("c1", model.NewMessage("m1", "c1", model.RoleAssistant, "Older", time.Now()))
	h.st.AddMessage("c1", model.NewMessage("m2", "c1", model.RoleUser, "Question", time.Now()))
	h.st.AddMessage("c1", model.NewMessage("m3", "c1", model.RoleAssistant, "Newest", time.Now()))
	h.st.AddMessage("c1", model.NewMessage("m4", "c1", model.RoleAssistant, "", time.Now()))
	m = update(t, m, StoreChangedMsg{})

	m = update(t, m, keyMsg(tea.KeyCtrlY))
	assert.Equal(t, []string{"Newest"}, h.copied)
	assert.Equal(t, "Copied last reply", m.status.Notice)
}

func TestCopyLastReply_ClipboardErrorIgnored(t *testing.T) {
	h, m := newHarness(t)
	h.copyErr = errors.New("no clipboard")
	h.st.AddConversation(model.NewConversation("c1", "Launch", time.Now()))
	h.st.SetActiveConversation("c1")
	h.st.AddMessage("c1", model.NewMessage("m1", "c1", model.RoleAssistant, "Reply", time.Now()))
	m = update(t, m, StoreChangedMsg{})

	m, cmd := updateCmd(t, m, keyMsg(tea.KeyCtrlY))
	assert.Nil(t, cmd)
	assert.Empty(t, m.status.Notice)
}

func TestToggleSidebar(t *testing.T) {
	h, m := newHarness(t)
	require.True(t, m.sidebarOpen)
	_, _, right := m.columns()
	assert.Equal(t, sidePanelWidth, right)

	m = update(t, m, keyMsg(tea.KeyCtrlB))
	assert.False(t, h.st.SidebarOpen())
	m = update(t, m, StoreChangedMsg{})
	assert.False(t, m.sidebarOpen)
	_, centre, right := m.columns()
	assert.Zero(t, right)
	assert.Equal(t, 120-conversationListWidth, centre)
	assert.NotContains(t, m.View(), "Agent Activity")
}

func TestQuitDisconnects(t *testing.T) {
	h, m := newHarness(t)
	_, cmd := updateCmd(t, m, keyMsg(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 1, h.conn.disconnects)
}

func TestHelpOverlay(t *testing.T) {
	_, m := newHarness(t)
	m = update(t, m, keyMsg(tea.KeyF1))
	assert.Contains(t, m.View(), "new conversation")
	m = update(t, m, keyMsg(tea.KeyEsc))
	assert.False(t, m.showHelp)
}

// =============================================================================
// EVENTS
// =============================================================================

func TestConnectionStateFromEvents(t *testing.T) {
	_, m := newHarness(t)

	m = update(t, m, EventMsg{Event: &events.ConnectionEstablished{}})
	assert.Equal(t, components.ConnOpen, m.status.Conn)

	m = update(t, m, EventMsg{Event: &realtime.Reconnecting{Attempt: 2, Delay: 4 * time.Second}})
	assert.Equal(t, components.ConnReconnecting, m.status.Conn)
	assert.Equal(t, 2, m.status.Attempt)
	assert.Contains(t, m.status.View(), "reconnecting 2/5")

	m = update(t, m, EventMsg{Event: &realtime.Closed{Code: 1006}})
	assert.Equal(t, components.ConnReconnecting, m.status.Conn)

	m = update(t, m, EventMsg{Event: &events.ConnectionError{Error: "gone"}})
	assert.Equal(t, components.ConnFailed, m.status.Conn)
}

func TestDocumentGeneratedFetchesDocument(t *testing.T) {
	h, m := newHarness(t)

	m, cmd := updateCmd(t, m, EventMsg{Event: &events.DocumentGenerated{DocumentID: "d1", DocType: "proposal", Title: "Acme"}})
	require.NotNil(t, cmd)
	m = update(t, m, cmd())

	docs := h.st.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "d1", docs[0].ID)
	assert.Equal(t, "Document ready: Acme proposal", m.status.Notice)
}

func TestStoreChangesRenderAgents(t *testing.T) {
	h, m := newHarness(t)
	h.st.UpdateAgentStatus(model.AgentResearcher, model.StatusExecuting, store.Task("Scanning competitors"))
	m = update(t, m, StoreChangedMsg{})

	assert.Equal(t, 1, m.status.ActiveAgents)
	view := m.View()
	assert.Contains(t, view, "Researcher")
	assert.Contains(t, view, "Scanning competitors")
}

// =============================================================================
// CONFIG / EXPORT / BRIDGE
// =============================================================================

func TestConfigChanged(t *testing.T) {
	h, m := newHarness(t)

	m = update(t, m, ConfigChangedMsg{Err: errors.New("bad toml")})
	assert.True(t, strings.HasPrefix(m.status.Notice, "Config not reloaded"))

	cfg := config.Default()
	cfg.UI.Theme = "light"
	cfg.UI.SidebarOpen = false
	cfg.UI.ShowThinking = false
	cfg.Realtime.MaxReconnectAttempts = 3
	m = update(t, m, ConfigChangedMsg{Config: cfg})

	assert.Equal(t, "Config reloaded", m.status.Notice)
	assert.False(t, m.theme.IsDark)
	assert.False(t, h.st.SidebarOpen())
	assert.False(t, m.messages.ShowThinking)
	assert.Equal(t, 3, m.status.MaxAttempts)
}

func TestExportActive(t *testing.T) {
	h, m := newHarness(t)

	m, cmd := updateCmd(t, m, keyMsg(tea.KeyCtrlE))
	m = update(t, m, cmd())
	assert.Contains(t, m.status.Notice, "no conversation to export")

	h.st.AddConversation(model.NewConversation("c1", "Launch plan", time.Now()))
	h.st.SetActiveConversation("c1")
	h.st.AddMessage("c1", model.NewMessage("m1", "c1", model.RoleUser, "Plan the launch", time.Now()))
	m = update(t, m, StoreChangedMsg{})

	m, cmd = updateCmd(t, m, keyMsg(tea.KeyCtrlE))
	m = update(t, m, cmd())
	assert.True(t, strings.HasPrefix(m.status.Notice, "Exported to "), m.status.Notice)
	assert.True(t, strings.HasSuffix(m.status.Notice, ".md"), m.status.Notice)
}

func TestBridgeCoalescesStoreChanges(t *testing.T) {
	var b Bridge
	var got []tea.Msg
	b.StoreChanged()
	assert.Empty(t, got)

	b.Attach(func(msg tea.Msg) { got = append(got, msg) })
	b.clearPending()
	b.StoreChanged()
	b.StoreChanged()
	assert.Len(t, got, 1)

	b.clearPending()
	b.StoreChanged()
	b.HandleEvent(&events.ConnectionEstablished{})
	require.Len(t, got, 3)
	assert.Equal(t, EventMsg{Event: &events.ConnectionEstablished{}}, got[2])

	b.Detach()
	b.clearPending()
	b.StoreChanged()
	assert.Len(t, got, 3)
}

func TestLastAssistant(t *testing.T) {
	assert.Nil(t, lastAssistant(nil))
	msgs := []model.Message{
		{ID: "a", Role: model.RoleAssistant, Content: "one"},
		{ID: "b", Role: model.RoleUser, Content: "two"},
	}
	require.NotNil(t, lastAssistant(msgs))
	assert.Equal(t, "a", lastAssistant(msgs).ID)
}
