// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/oneshot-tui/internal/config"
	"github.com/jeranaias/oneshot-tui/internal/events"
	"github.com/jeranaias/oneshot-tui/internal/logging"
	"github.com/jeranaias/oneshot-tui/internal/model"
	"github.com/jeranaias/oneshot-tui/internal/realtime"
	"github.com/jeranaias/oneshot-tui/internal/session"
	"github.com/jeranaias/oneshot-tui/internal/store"
	"github.com/jeranaias/oneshot-tui/internal/ui/components"
	"github.com/jeranaias/oneshot-tui/internal/ui/styles"
)

// TickInterval is the animation frame interval.
const TickInterval = 120 * time.Millisecond

// noticeTTL is how long a transient notice stays in the status bar.
const noticeTTL = 4 * time.Second

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Connector opens and closes the realtime stream. *realtime.Manager
// implements it.
type Connector interface {
	Connect(ctx context.Context, conversationID string, h realtime.Handler)
	Disconnect()
}

// DocumentFetcher loads a generated document. *api.Client implements it.
type DocumentFetcher interface {
	GetDocument(ctx context.Context, id string) (*model.Document, error)
}

// Options wires the model to the rest of the client.
type Options struct {
	// Context bounds realtime connections and backend calls.
	Context context.Context

	Store     *store.Store
	Session   *session.Session
	Connector Connector
	Documents DocumentFetcher
	Config    *config.Config

	// Logger is reconfigured when the config file changes. May be nil.
	Logger *logrus.Logger

	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error

	// ExportDir is where ctrl+e writes; "" uses the export default.
	ExportDir string
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen.
//
// The store is the source of truth; the model keeps only view state and
// re-reads a snapshot on every StoreChangedMsg.
type Model struct {
	ctx    context.Context
	store  *store.Store
	sess   *session.Session
	conn   Connector
	docs   DocumentFetcher
	cfg    *config.Config
	logger *logrus.Logger
	log    logrus.FieldLogger
	bridge *Bridge

	clipboard func(string) error
	exportDir string

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// UI Components
	input         textarea.Model
	viewport      *components.ChatViewport
	messages      *components.MessageList
	agents        *components.AgentPanel
	citations     *components.CitationPanel
	conversations *components.ConversationList
	status        *components.StatusBar
	help          help.Model

	// Key bindings
	keyMap KeyMap

	// View state mirrored from the store
	activeID    string
	activeTitle string
	sidebarOpen bool
	lastReply   string

	// Realtime
	connectedID string

	showHelp  bool
	noticeSeq int
}

// New creates the chat model. The returned model is not attached to a
// program yet; Run does that.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = copyToClipboard
	}
	var log logrus.FieldLogger = logrus.StandardLogger()
	if opts.Logger != nil {
		log = opts.Logger
	}

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	theme := styles.NewTheme(cfg.UI.Theme)

	ta := textarea.New()
	ta.Placeholder = "Ask the agents..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = 8000
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	messages := components.NewMessageList(theme)
	messages.ShowThinking = cfg.UI.ShowThinking

	status := components.NewStatusBar(theme)
	status.MaxAttempts = cfg.Realtime.MaxReconnectAttempts

	m := Model{
		ctx:           ctx,
		store:         opts.Store,
		sess:          opts.Session,
		conn:          opts.Connector,
		docs:          opts.Documents,
		cfg:           cfg,
		logger:        opts.Logger,
		log:           log.WithField("component", "tui"),
		bridge:        &Bridge{},
		clipboard:     clip,
		exportDir:     opts.ExportDir,
		theme:         theme,
		input:         ta,
		viewport:      components.NewChatViewport(),
		messages:      messages,
		agents:        components.NewAgentPanel(theme),
		citations:     components.NewCitationPanel(theme),
		conversations: components.NewConversationList(theme),
		status:        status,
		help:          help.New(),
		keyMap:        DefaultKeyMap(),
		width:         80,
		height:        24,
	}
	m.store.SetSidebarOpen(cfg.UI.SidebarOpen)
	m.sync()
	return m
}

// Handler returns the realtime handler that forwards events into the
// program. The session must see events first, so it is chained ahead.
func (m Model) Handler() realtime.Handler {
	return realtime.Chain(m.sess, m.bridge)
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init loads the conversation list and starts the animation tick.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, tick(), m.refreshConversations()}
	if id := m.store.ActiveConversationID(); id != "" {
		cmds = append(cmds, m.loadMessages(id))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.viewport.Update(msg)

	case StoreChangedMsg:
		m.bridge.clearPending()
		m.sync()
		return m, nil

	case EventMsg:
		return m.handleEvent(msg)

	case TickMsg:
		m.agents.Tick()
		if m.messages.Tick() || m.agents.ActiveCount() > 0 {
			m.render()
		}
		return m, tick()

	case turnSettledMsg:
		if err := msg.turn.Err(); err != nil {
			m.log.WithError(err).Debug("turn failed")
		}
		m.sync()
		return m, nil

	case refreshedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).WithField("conversation_id", msg.conversationID).Warn("refresh failed")
			return m.notice("Could not load from the backend")
		}
		return m, nil

	case documentLoadedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("document fetch failed")
			return m, nil
		}
		m.store.AddDocument(*msg.doc)
		return m.notice("Document ready: " + msg.doc.Title)

	case exportDoneMsg:
		if msg.err != nil {
			return m.notice("Export failed: " + msg.err.Error())
		}
		return m.notice("Exported to " + msg.path)

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.status.Notice = ""
		}
		return m, nil

	case ConfigChangedMsg:
		return m.handleConfigChanged(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keyMap.Quit) {
			return m.quit()
		}
		m.showHelp = false
		m.layout()
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m.quit()

	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.NewChat):
		return m.newConversation()

	case key.Matches(msg, m.keyMap.NextChat):
		return m.switchConversation(m.conversations.Next())

	case key.Matches(msg, m.keyMap.PrevChat):
		return m.switchConversation(m.conversations.Prev())

	case key.Matches(msg, m.keyMap.Copy):
		return m.copyLastReply()

	case key.Matches(msg, m.keyMap.Export):
		return m, m.exportActive()

	case key.Matches(msg, m.keyMap.ToggleSidebar):
		m.store.ToggleSidebar()
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp, m.keyMap.PageDown):
		return m, m.viewport.Update(msg)

	case key.Matches(msg, m.keyMap.Bottom):
		m.viewport.ScrollToBottom()
		return m, nil

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = true
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

// submit sends the input as a new message. A conversation titled from the
// input is created locally when none is active, and the stream is connected
// before the message is posted so no early agent events are missed.
func (m Model) submit() (tea.Model, tea.Cmd) {
	content := m.input.Value()
	if isBlank(content) {
		return m, nil
	}
	if m.sess.Busy() || m.store.Loading() {
		return m.notice("Wait for the agents to finish")
	}

	convID := m.store.ActiveConversationID()
	if convID == "" {
		convID = m.sess.StartConversation(content).ID
	}
	m.connect(convID)

	m.store.ClearError()
	turn, err := m.sess.Submit(m.ctx, content)
	if err != nil {
		return m.notice(err.Error())
	}
	m.input.Reset()
	m.viewport.ScrollToBottom()
	m.sync()
	return m, waitForTurn(turn)
}

// newConversation clears the active conversation. The backend creates the
// next one on the first message.
func (m Model) newConversation() (tea.Model, tea.Cmd) {
	if m.sess.Busy() {
		return m.notice("Wait for the agents to finish")
	}
	m.disconnect()
	m.store.SetActiveConversation("")
	m.store.ResetAgentStates()
	m.input.Reset()
	m.sync()
	return m.notice("New conversation")
}

func (m Model) switchConversation(id string) (tea.Model, tea.Cmd) {
	if id == "" || id == m.activeID {
		return m, nil
	}
	if m.sess.Busy() {
		return m.notice("Wait for the agents to finish")
	}
	m.store.SetActiveConversation(id)
	m.store.ResetAgentStates()
	m.connect(id)
	m.viewport.ScrollToBottom()
	m.sync()
	return m, m.loadMessages(id)
}

func (m Model) copyLastReply() (tea.Model, tea.Cmd) {
	if m.lastReply == "" {
		return m.notice("No reply to copy")
	}
	// Clipboard access is best effort; headless sessions have none.
	if err := m.clipboard(m.lastReply); err != nil {
		m.log.WithError(err).Debug("clipboard unavailable")
		return m, nil
	}
	return m.notice("Copied last reply")
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.disconnect()
	m.sess.Close()
	return m, tea.Quit
}

// connect opens the stream for id unless it is already the live one.
func (m *Model) connect(id string) {
	if m.conn == nil || id == "" || id == m.connectedID {
		return
	}
	m.connectedID = id
	m.status.Conn = components.ConnConnecting
	m.status.Attempt = 0
	m.conn.Connect(m.ctx, id, m.Handler())
}

func (m *Model) disconnect() {
	if m.conn != nil {
		m.conn.Disconnect()
	}
	m.connectedID = ""
	m.status.Conn = components.ConnOffline
	m.status.Attempt = 0
}

// notice shows a transient status message.
func (m Model) notice(text string) (tea.Model, tea.Cmd) {
	m.noticeSeq++
	m.status.Notice = text
	seq := m.noticeSeq
	return m, tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

// =============================================================================
// EVENTS
// =============================================================================

// handleEvent updates connection state from realtime signals. Everything
// else already reached the store, which triggers its own StoreChangedMsg.
func (m Model) handleEvent(msg EventMsg) (tea.Model, tea.Cmd) {
	switch e := msg.Event.(type) {
	case *events.ConnectionEstablished:
		m.status.Conn = components.ConnOpen
		m.status.Attempt = 0
	case *realtime.Reconnecting:
		m.status.Conn = components.ConnReconnecting
		m.status.Attempt = e.Attempt
	case *realtime.Closed:
		if m.status.Conn != components.ConnReconnecting {
			m.status.Conn = components.ConnOffline
		}
	case *events.ConnectionError:
		m.status.Conn = components.ConnFailed
	case *events.DocumentGenerated:
		if m.docs != nil && e.DocumentID != "" {
			return m, m.fetchDocument(e.DocumentID)
		}
	}
	return m, nil
}

func (m Model) handleConfigChanged(msg ConfigChangedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.log.WithError(msg.Err).Warn("config reload rejected")
		return m.notice("Config not reloaded: " + msg.Err.Error())
	}
	cfg := msg.Config
	if cfg.UI.Theme != m.cfg.UI.Theme {
		m.theme = styles.NewTheme(cfg.UI.Theme)
		m.messages.SetTheme(m.theme)
		m.agents = components.NewAgentPanel(m.theme)
		m.citations = components.NewCitationPanel(m.theme)
		m.conversations = components.NewConversationList(m.theme)
		status := components.NewStatusBar(m.theme)
		status.Conn, status.Attempt = m.status.Conn, m.status.Attempt
		m.status = status
	}
	m.messages.ShowThinking = cfg.UI.ShowThinking
	m.status.MaxAttempts = cfg.Realtime.MaxReconnectAttempts
	if cfg.UI.SidebarOpen != m.cfg.UI.SidebarOpen {
		m.store.SetSidebarOpen(cfg.UI.SidebarOpen)
	}
	if m.logger != nil {
		logging.Apply(m.logger, cfg.Logging)
	}
	m.cfg = cfg
	m.sync()
	return m.notice("Config reloaded")
}

// =============================================================================
// STORE SYNC
// =============================================================================

// sync copies the store into the components and re-renders.
func (m *Model) sync() {
	st := m.store.Snapshot()

	m.activeID = st.ActiveConversationID
	m.activeTitle = ""
	for _, c := range st.Conversations {
		if c.ID == st.ActiveConversationID {
			m.activeTitle = c.DisplayTitle()
			break
		}
	}
	m.conversations.SetConversations(st.Conversations)
	m.conversations.SetActive(st.ActiveConversationID)

	msgs := st.Messages[st.ActiveConversationID]
	m.messages.SetMessages(msgs, st.StreamingMessageID)
	m.lastReply = ""
	if last := lastAssistant(msgs); last != nil {
		m.lastReply = last.Content
	}

	m.agents.SetAgents(st.Agents)
	m.citations.SetCitations(st.Citations[st.ActiveConversationID])

	m.status.Loading = st.Loading
	m.status.Streaming = st.Streaming
	m.status.Error = st.Error
	m.status.ActiveAgents = m.agents.ActiveCount()

	if st.SidebarOpen != m.sidebarOpen {
		m.sidebarOpen = st.SidebarOpen
		m.layout()
		return
	}
	m.render()
}

// render refreshes the viewport content.
func (m *Model) render() {
	m.viewport.SetContent(m.messages.View())
}

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
