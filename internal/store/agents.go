// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/oneshot-tui/internal/model"
)

// Task returns a pointer to text, for use as the task argument of
// UpdateAgentStatus.
func Task(text string) *string {
	return &text
}

func initialAgentStates() map[model.AgentName]model.AgentState {
	states := make(map[model.AgentName]model.AgentState, len(model.AllAgents()))
	for _, name := range model.AllAgents() {
		states[name] = model.NewIdleAgentState(name)
	}
	return states
}

// =============================================================================
// AGENT MUTATIONS
// =============================================================================

// UpdateAgentStatus sets an agent's status and task and stamps its last
// activity. A nil task clears it. Moving to idle clears the tool calls.
// Unknown agent names are ignored.
func (s *Store) UpdateAgentStatus(name model.AgentName, status model.AgentStatus, task *string) {
	s.mutate(func() bool {
		st, ok := s.agents[name]
		if !ok {
			s.log.WithFields(logrus.Fields{"agent": name, "status": status}).Warn("ignoring status for unknown agent")
			return false
		}
		st.Status = status
		if task != nil {
			t := *task
			st.CurrentTask = &t
		} else {
			st.CurrentTask = nil
		}
		now := s.now().UTC()
		st.LastActivity = &now
		if status == model.StatusIdle {
			st.ToolCalls = []model.ToolCallRecord{}
		}
		s.agents[name] = st
		return true
	})
}

// AddAgentToolCall appends a tool call to the agent's list.
func (s *Store) AddAgentToolCall(name model.AgentName, toolName string, kind model.ToolKind) {
	s.mutate(func() bool {
		st, ok := s.agents[name]
		if !ok {
			s.log.WithFields(logrus.Fields{"agent": name, "tool": toolName}).Warn("ignoring tool call for unknown agent")
			return false
		}
		if kind == "" {
			kind = model.ToolKindTool
		}
		calls := make([]model.ToolCallRecord, len(st.ToolCalls), len(st.ToolCalls)+1)
		copy(calls, st.ToolCalls)
		st.ToolCalls = append(calls, model.ToolCallRecord{Name: toolName, Kind: kind})
		s.agents[name] = st
		return true
	})
}

// ResetAgentStates returns every agent to idle with no task, activity or tool calls.
func (s *Store) ResetAgentStates() {
	s.mutate(func() bool {
		s.agents = initialAgentStates()
		return true
	})
}

// =============================================================================
// AGENT SELECTORS
// =============================================================================

// AgentStates returns every agent's state in display order.
func (s *Store) AgentStates() []model.AgentState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agentStatesLocked()
}

func (s *Store) agentStatesLocked() []model.AgentState {
	names := model.AllAgents()
	out := make([]model.AgentState, 0, len(names))
	for _, name := range names {
		out = append(out, s.agents[name].Clone())
	}
	return out
}

// AgentState returns one agent's state.
func (s *Store) AgentState(name model.AgentName) (model.AgentState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.agents[name]
	if !ok {
		return model.AgentState{}, false
	}
	return st.Clone(), true
}

// ActiveAgents returns the agents whose status is not idle, in display order.
func (s *Store) ActiveAgents() []model.AgentState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.AgentState
	for _, name := range model.AllAgents() {
		if st := s.agents[name]; st.Status != model.StatusIdle {
			out = append(out, st.Clone())
		}
	}
	return out
}
