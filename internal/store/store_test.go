// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/oneshot-tui/internal/model"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore() *Store {
	return New(WithClock(func() time.Time { return fixedNow }))
}

func msg(id, conv string, role model.Role, content string) model.Message {
	return model.NewMessage(id, conv, role, content, fixedNow)
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func TestAddConversation_Prepends(t *testing.T) {
	s := newTestStore()
	s.AddConversation(model.NewConversation("a", "first", fixedNow))
	s.AddConversation(model.NewConversation("b", "second", fixedNow))

	convs := s.Conversations()
	require.Len(t, convs, 2)
	assert.Equal(t, "b", convs[0].ID)
	assert.Equal(t, "a", convs[1].ID)
}

func TestSetConversations_Replaces(t *testing.T) {
	s := newTestStore()
	s.AddConversation(model.NewConversation("old", "", fixedNow))
	s.SetConversations([]model.Conversation{model.NewConversation("new", "", fixedNow)})

	convs := s.Conversations()
	require.Len(t, convs, 1)
	assert.Equal(t, "new", convs[0].ID)
}

func TestActiveConversation(t *testing.T) {
	s := newTestStore()
	_, ok := s.ActiveConversation()
	assert.False(t, ok)

	s.AddConversation(model.NewConversation("a", "Alpha", fixedNow))
	s.SetActiveConversation("a")

	conv, ok := s.ActiveConversation()
	require.True(t, ok)
	assert.Equal(t, "Alpha", conv.DisplayTitle())

	s.SetActiveConversation("")
	assert.Equal(t, "", s.ActiveConversationID())
}

func TestUpdateConversation(t *testing.T) {
	s := newTestStore()
	s.AddConversation(model.NewConversation("a", "", fixedNow))

	ok := s.UpdateConversation("a", func(c *model.Conversation) { c.MessageCount = 4 })
	require.True(t, ok)
	assert.Equal(t, 4, s.Conversations()[0].MessageCount)

	assert.False(t, s.UpdateConversation("missing", func(c *model.Conversation) {}))
}

// =============================================================================
// MESSAGES
// =============================================================================

func TestAddMessage_PreservesOrder(t *testing.T) {
	s := newTestStore()
	for i := 0; i < 20; i++ {
		s.AddMessage("c", msg(fmt.Sprintf("m%d", i), "c", model.RoleUser, ""))
	}

	msgs := s.Messages("c")
	require.Len(t, msgs, 20)
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("m%d", i), m.ID)
	}
}

func TestAppendToLastMessage_EmptyIsNoop(t *testing.T) {
	s := newTestStore()
	before := s.Snapshot()

	notified := 0
	s.Subscribe(func() { notified++ })
	s.AppendToLastMessage("c", "token")

	assert.Equal(t, before, s.Snapshot())
	assert.Empty(t, s.Messages("c"))
	assert.Zero(t, notified, "no-op must not notify subscribers")
}

func TestAppendToLastMessage_Concatenates(t *testing.T) {
	s := newTestStore()
	s.AddMessage("c", msg("u", "c", model.RoleUser, "Hello"))
	s.AddMessage("c", msg("a", "c", model.RoleAssistant, ""))

	s.AppendToLastMessage("c", "Hi")
	s.AppendToLastMessage("c", " there")

	msgs := s.Messages("c")
	assert.Equal(t, "Hello", msgs[0].Content)
	assert.Equal(t, "Hi there", msgs[1].Content)
}

func TestAppendToLastUnsettled_SkipsSettledReply(t *testing.T) {
	s := newTestStore()
	s.AddMessage("c", msg("u", "c", model.RoleUser, "Hello"))
	s.AddMessage("c", msg("srv-1", "c", model.RoleAssistant, "Hi there!"))
	assert.True(t, s.AppendToLastUnsettled("c", "?"))

	s.MarkSettled("c", "srv-1")
	assert.Equal(t, "srv-1", s.SettledMessageID("c"))
	assert.Empty(t, s.SettledMessageID("other"))
	assert.False(t, s.AppendToLastUnsettled("c", " more"))
	assert.Equal(t, "Hi there!?", s.Messages("c")[1].Content)

	// the next turn's placeholder is appendable again
	s.AddMessage("c", msg("a2", "c", model.RoleAssistant, ""))
	assert.True(t, s.AppendToLastUnsettled("c", "ok"))
	assert.Equal(t, "ok", s.Messages("c")[2].Content)
	assert.False(t, s.AppendToLastUnsettled("empty", "x"))
}

func TestAppendToMessage_TargetsByID(t *testing.T) {
	s := newTestStore()
	s.AddMessage("c", msg("a", "c", model.RoleAssistant, ""))
	s.AddMessage("c", msg("u", "c", model.RoleUser, "follow-up"))

	require.True(t, s.AppendToMessage("c", "a", "tok"))
	assert.False(t, s.AppendToMessage("c", "missing", "tok"))
	assert.False(t, s.AppendToMessage("other", "a", "tok"))

	msgs := s.Messages("c")
	assert.Equal(t, "tok", msgs[0].Content)
	assert.Equal(t, "follow-up", msgs[1].Content)
}

func TestReplaceMessage(t *testing.T) {
	s := newTestStore()
	s.AddMessage("c", msg("tmp", "c", model.RoleAssistant, "partial"))

	ok := s.ReplaceMessage("c", "tmp", func(m *model.Message) {
		m.ID = "srv-1"
		m.Content = "final"
	})
	require.True(t, ok)

	msgs := s.Messages("c")
	require.Len(t, msgs, 1)
	assert.Equal(t, "srv-1", msgs[0].ID)
	assert.Equal(t, "final", msgs[0].Content)
	assert.True(t, s.HasMessage("c", "srv-1"))
	assert.False(t, s.HasMessage("c", "tmp"))
}

func TestMessages_ReturnsCopy(t *testing.T) {
	s := newTestStore()
	s.AddMessage("c", msg("a", "c", model.RoleAssistant, "x"))

	msgs := s.Messages("c")
	msgs[0].Content = "mutated"

	assert.Equal(t, "x", s.Messages("c")[0].Content)
}

func TestActiveMessages(t *testing.T) {
	s := newTestStore()
	assert.NotNil(t, s.ActiveMessages())
	assert.Empty(t, s.ActiveMessages())

	s.AddMessage("c", msg("a", "c", model.RoleUser, "x"))
	s.SetActiveConversation("c")
	assert.Len(t, s.ActiveMessages(), 1)
}

// =============================================================================
// AGENTS
// =============================================================================

func TestNew_EveryAgentIdle(t *testing.T) {
	s := newTestStore()
	states := s.AgentStates()
	require.Len(t, states, 7)
	for i, name := range model.AllAgents() {
		assert.Equal(t, name, states[i].Agent)
		assert.Equal(t, model.StatusIdle, states[i].Status)
		assert.Nil(t, states[i].CurrentTask)
		assert.Empty(t, states[i].ToolCalls)
	}
	assert.Empty(t, s.ActiveAgents())
}

func TestUpdateAgentStatus(t *testing.T) {
	s := newTestStore()
	s.UpdateAgentStatus(model.AgentResearcher, model.StatusExecuting, Task("Find sources"))

	st, ok := s.AgentState(model.AgentResearcher)
	require.True(t, ok)
	assert.Equal(t, model.StatusExecuting, st.Status)
	assert.Equal(t, "Find sources", st.Task())
	require.NotNil(t, st.LastActivity)
	assert.True(t, st.LastActivity.Equal(fixedNow))

	s.UpdateAgentStatus(model.AgentResearcher, model.StatusCompleted, nil)
	st, _ = s.AgentState(model.AgentResearcher)
	assert.Nil(t, st.CurrentTask, "nil task clears the previous one")
}

func TestUpdateAgentStatus_IdleClearsToolCalls(t *testing.T) {
	statuses := []model.AgentStatus{
		model.StatusThinking, model.StatusExecuting, model.StatusWaiting,
		model.StatusCompleted, model.StatusError,
	}
	for _, prior := range statuses {
		t.Run(string(prior), func(t *testing.T) {
			s := newTestStore()
			s.UpdateAgentStatus(model.AgentAnalyst, prior, nil)
			s.AddAgentToolCall(model.AgentAnalyst, "search", model.ToolKindTool)
			s.AddAgentToolCall(model.AgentAnalyst, "fs", model.ToolKindMCP)

			s.UpdateAgentStatus(model.AgentAnalyst, model.StatusIdle, nil)

			st, _ := s.AgentState(model.AgentAnalyst)
			assert.Empty(t, st.ToolCalls)
		})
	}
}

func TestUpdateAgentStatus_NonIdleKeepsToolCalls(t *testing.T) {
	s := newTestStore()
	s.AddAgentToolCall(model.AgentScribe, "outline", "")
	s.UpdateAgentStatus(model.AgentScribe, model.StatusThinking, Task("drafting"))

	st, _ := s.AgentState(model.AgentScribe)
	require.Len(t, st.ToolCalls, 1)
	assert.Equal(t, model.ToolKindTool, st.ToolCalls[0].Kind, "empty kind defaults to tool")
}

func TestUpdateAgentStatus_UnknownAgentIgnored(t *testing.T) {
	s := newTestStore()
	before := s.Snapshot()
	s.UpdateAgentStatus("janitor", model.StatusExecuting, Task("sweep"))
	s.AddAgentToolCall("janitor", "broom", model.ToolKindTool)
	assert.Equal(t, before, s.Snapshot())
}

func TestResetAgentStates(t *testing.T) {
	s := newTestStore()
	for _, name := range model.AllAgents() {
		s.UpdateAgentStatus(name, model.StatusExecuting, Task("work"))
		s.AddAgentToolCall(name, "t", model.ToolKindTool)
	}
	require.Len(t, s.ActiveAgents(), 7)

	s.ResetAgentStates()

	for _, st := range s.AgentStates() {
		assert.Equal(t, model.StatusIdle, st.Status)
		assert.Nil(t, st.CurrentTask)
		assert.Nil(t, st.LastActivity)
		assert.Empty(t, st.ToolCalls)
	}
}

func TestActiveAgents_DisplayOrder(t *testing.T) {
	s := newTestStore()
	s.UpdateAgentStatus(model.AgentMemory, model.StatusThinking, nil)
	s.UpdateAgentStatus(model.AgentOrchestrator, model.StatusWaiting, nil)

	active := s.ActiveAgents()
	require.Len(t, active, 2)
	assert.Equal(t, model.AgentOrchestrator, active[0].Agent)
	assert.Equal(t, model.AgentMemory, active[1].Agent)
}

// =============================================================================
// CITATIONS
// =============================================================================

func TestAddCitations_DeduplicatesURLs(t *testing.T) {
	s := newTestStore()
	a := model.Citation{Type: model.CitationURL, URL: "https://a"}
	b := model.Citation{Type: model.CitationURL, URL: "https://b"}

	s.AddCitations("c", []model.Citation{a, a, b})
	s.AddCitations("c", []model.Citation{a})

	cits := s.Citations("c")
	require.Len(t, cits, 2)
	assert.Equal(t, "https://a", cits[0].URL)
	assert.Equal(t, "https://b", cits[1].URL)
}

func TestAddCitations_KeepsURLlessCopies(t *testing.T) {
	s := newTestStore()
	kb := model.Citation{Type: model.CitationKnowledge, SourceTool: "brand_kb", Preview: "guide"}

	s.AddCitations("c", []model.Citation{kb, kb})
	s.AddCitations("c", []model.Citation{kb})

	assert.Len(t, s.Citations("c"), 3)
}

func TestAddCitations_ScopedPerConversation(t *testing.T) {
	s := newTestStore()
	a := model.Citation{Type: model.CitationURL, URL: "https://a"}

	s.AddCitations("c1", []model.Citation{a})
	s.AddCitations("c2", []model.Citation{a})

	assert.Len(t, s.Citations("c1"), 1)
	assert.Len(t, s.Citations("c2"), 1)
}

func TestClearCitations(t *testing.T) {
	s := newTestStore()
	s.AddCitations("c", []model.Citation{{Type: model.CitationURL, URL: "https://a"}})
	s.SetActiveConversation("c")
	require.Len(t, s.ActiveCitations(), 1)

	s.ClearCitations("c")
	assert.Empty(t, s.ActiveCitations())

	s.AddCitations("c", []model.Citation{{Type: model.CitationURL, URL: "https://a"}})
	assert.Len(t, s.Citations("c"), 1, "cleared URLs may be added again")
}

// =============================================================================
// UI FLAGS AND DOCUMENTS
// =============================================================================

func TestUIFlags(t *testing.T) {
	s := newTestStore()
	assert.True(t, s.SidebarOpen())
	s.ToggleSidebar()
	assert.False(t, s.SidebarOpen())

	s.SetLoading(true)
	assert.True(t, s.Loading())

	s.SetStreaming(true, "m1")
	assert.True(t, s.Streaming())
	assert.Equal(t, "m1", s.StreamingMessageID())

	s.SetStreaming(false, "m1")
	assert.False(t, s.Streaming())
	assert.Equal(t, "", s.StreamingMessageID(), "id is dropped when streaming stops")

	s.SetError("boom")
	assert.Equal(t, "boom", s.LastError())
	s.ClearError()
	assert.Equal(t, "", s.LastError())
}

func TestDocuments(t *testing.T) {
	s := newTestStore()
	s.SetDocuments([]model.Document{{ID: "d1"}})
	s.AddDocument(model.Document{ID: "d2"})

	docs := s.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, "d2", docs[0].ID)
}

// =============================================================================
// SUBSCRIPTIONS AND CONCURRENCY
// =============================================================================

func TestSubscribe_NotifiesAndUnsubscribes(t *testing.T) {
	s := newTestStore()
	count := 0
	unsub := s.Subscribe(func() { count++ })

	s.AddMessage("c", msg("m", "c", model.RoleUser, "x"))
	assert.Equal(t, 1, count)

	unsub()
	unsub()
	s.AddMessage("c", msg("m2", "c", model.RoleUser, "y"))
	assert.Equal(t, 1, count)
}

func TestSubscribe_CallbackMayReadStore(t *testing.T) {
	s := newTestStore()
	var seen int
	s.Subscribe(func() { seen = len(s.Messages("c")) })

	s.AddMessage("c", msg("m", "c", model.RoleUser, "x"))
	assert.Equal(t, 1, seen)
}

func TestStore_ConcurrentMutations(t *testing.T) {
	s := newTestStore()
	s.AddMessage("c", msg("a", "c", model.RoleAssistant, ""))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			s.AppendToMessage("c", "a", "x")
		}()
		go func() {
			defer wg.Done()
			s.UpdateAgentStatus(model.AgentScribe, model.StatusThinking, Task("t"))
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	assert.Len(t, s.Messages("c")[0].Content, 50)
}
