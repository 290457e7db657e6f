// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// AGENT NAMES
// =============================================================================

// AgentName identifies one of the fixed backend agent roles.
type AgentName string

const (
	AgentOrchestrator AgentName = "orchestrator"
	AgentStrategist   AgentName = "strategist"
	AgentResearcher   AgentName = "researcher"
	AgentAnalyst      AgentName = "analyst"
	AgentScribe       AgentName = "scribe"
	AgentAdvisor      AgentName = "advisor"
	AgentMemory       AgentName = "memory"
)

var agentNames = [...]AgentName{
	AgentOrchestrator,
	AgentStrategist,
	AgentResearcher,
	AgentAnalyst,
	AgentScribe,
	AgentAdvisor,
	AgentMemory,
}

// AllAgents returns every agent identity in display order.
func AllAgents() []AgentName {
	out := make([]AgentName, len(agentNames))
	copy(out, agentNames[:])
	return out
}

// Valid reports whether n is one of the known agents.
func (n AgentName) Valid() bool {
	for _, a := range agentNames {
		if a == n {
			return true
		}
	}
	return false
}

// DisplayName returns the capitalized agent name.
func (n AgentName) DisplayName() string {
	switch n {
	case AgentOrchestrator:
		return "Orchestrator"
	case AgentStrategist:
		return "Strategist"
	case AgentResearcher:
		return "Researcher"
	case AgentAnalyst:
		return "Analyst"
	case AgentScribe:
		return "Scribe"
	case AgentAdvisor:
		return "Advisor"
	case AgentMemory:
		return "Memory"
	default:
		return string(n)
	}
}

// =============================================================================
// AGENT STATUS
// =============================================================================

// AgentStatus is the lifecycle state of an agent as reported over the wire.
type AgentStatus string

const (
	StatusIdle      AgentStatus = "idle"
	StatusThinking  AgentStatus = "thinking"
	StatusExecuting AgentStatus = "executing"
	StatusWaiting   AgentStatus = "waiting"
	StatusCompleted AgentStatus = "completed"
	StatusError     AgentStatus = "error"
)

// Valid reports whether s is a known status.
func (s AgentStatus) Valid() bool {
	switch s {
	case StatusIdle, StatusThinking, StatusExecuting, StatusWaiting, StatusCompleted, StatusError:
		return true
	}
	return false
}

// IsActive reports whether the agent is doing or about to do work.
func (s AgentStatus) IsActive() bool {
	return s == StatusThinking || s == StatusExecuting || s == StatusWaiting
}

// =============================================================================
// TOOL CALLS
// =============================================================================

// ToolKind distinguishes direct tools from MCP-mediated tools.
type ToolKind string

const (
	ToolKindTool ToolKind = "tool"
	ToolKindMCP  ToolKind = "mcp"
)

// NormalizeToolKind maps unknown or empty kinds to ToolKindTool.
func NormalizeToolKind(k string) ToolKind {
	if ToolKind(k) == ToolKindMCP {
		return ToolKindMCP
	}
	return ToolKindTool
}

// ToolCallRecord is a single tool invocation reported by an agent.
type ToolCallRecord struct {
	Name string   `json:"name"`
	Kind ToolKind `json:"type"`
}

// =============================================================================
// AGENT STATE
// =============================================================================

// AgentState is the client's view of one agent.
type AgentState struct {
	Agent        AgentName        `json:"agent_type"`
	Status       AgentStatus      `json:"status"`
	CurrentTask  *string          `json:"current_task"`
	LastActivity *time.Time       `json:"last_activity"`
	ToolCalls    []ToolCallRecord `json:"tool_calls"`
}

// NewIdleAgentState returns the reset state for an agent.
func NewIdleAgentState(name AgentName) AgentState {
	return AgentState{
		Agent:     name,
		Status:    StatusIdle,
		ToolCalls: []ToolCallRecord{},
	}
}

// Task returns the current task text, or "" when unset.
func (a AgentState) Task() string {
	if a.CurrentTask == nil {
		return ""
	}
	return *a.CurrentTask
}

// Clone returns a copy that shares no pointers or slices with a.
func (a AgentState) Clone() AgentState {
	out := a
	if a.CurrentTask != nil {
		task := *a.CurrentTask
		out.CurrentTask = &task
	}
	if a.LastActivity != nil {
		ts := *a.LastActivity
		out.LastActivity = &ts
	}
	out.ToolCalls = make([]ToolCallRecord, len(a.ToolCalls))
	copy(out.ToolCalls, a.ToolCalls)
	return out
}
