// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package events

import (
	"encoding/json"

	"github.com/jeranaias/oneshot-tui/internal/model"
)

// EventType is the envelope tag of a realtime event.
type EventType string

const (
	TypeAgentStarted          EventType = "agent.started"
	TypeAgentThinking         EventType = "agent.thinking"
	TypeAgentCompleted        EventType = "agent.completed"
	TypeAgentHandoff          EventType = "agent.handoff"
	TypeAgentError            EventType = "agent.error"
	TypeAgentToolCall         EventType = "agent.tool_call"
	TypeAgentCitations        EventType = "agent.citations"
	TypeResponseCitations     EventType = "response.citations"
	TypeStreamToken           EventType = "stream.token"
	TypeDocumentGenerated     EventType = "document.generated"
	TypeConnectionEstablished EventType = "connection.established"
	TypeConnectionError       EventType = "connection.error"
)

var knownTypes = map[EventType]struct{}{
	TypeAgentStarted:          {},
	TypeAgentThinking:         {},
	TypeAgentCompleted:        {},
	TypeAgentHandoff:          {},
	TypeAgentError:            {},
	TypeAgentToolCall:         {},
	TypeAgentCitations:        {},
	TypeResponseCitations:     {},
	TypeStreamToken:           {},
	TypeDocumentGenerated:     {},
	TypeConnectionEstablished: {},
	TypeConnectionError:       {},
}

// Known reports whether t is part of the closed event set.
func (t EventType) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// Event is a decoded realtime event. The concrete types below form a closed
// union; switch on them to handle each kind.
type Event interface {
	Type() EventType
}

// =============================================================================
// AGENT LIFECYCLE
// =============================================================================

// AgentStarted is emitted when an agent begins a task.
type AgentStarted struct {
	AgentName model.AgentName `json:"agent_name"`
	Task      string          `json:"task"`
}

func (e *AgentStarted) Type() EventType { return TypeAgentStarted }

// AgentThinking carries an intermediate thought. Progress is 0..1 when present.
type AgentThinking struct {
	AgentName model.AgentName `json:"agent_name"`
	Thought   string          `json:"thought"`
	Progress  *float64        `json:"progress,omitempty"`
}

func (e *AgentThinking) Type() EventType { return TypeAgentThinking }

// AgentCompleted is emitted when an agent finishes.
type AgentCompleted struct {
	AgentName     model.AgentName `json:"agent_name"`
	Result        string          `json:"result,omitempty"`
	ResultSummary string          `json:"result_summary,omitempty"`
	TokensUsed    *int            `json:"tokens_used,omitempty"`
	DurationMS    *int64          `json:"duration_ms,omitempty"`
}

func (e *AgentCompleted) Type() EventType { return TypeAgentCompleted }

// Summary returns whichever result text the backend sent.
func (e *AgentCompleted) Summary() string {
	if e.Result != "" {
		return e.Result
	}
	return e.ResultSummary
}

// AgentHandoff moves work from one agent to another.
type AgentHandoff struct {
	FromAgent model.AgentName `json:"from_agent"`
	ToAgent   model.AgentName `json:"to_agent"`
	Context   string          `json:"context"`
}

func (e *AgentHandoff) Type() EventType { return TypeAgentHandoff }

// AgentError reports an agent failure.
type AgentError struct {
	AgentName model.AgentName `json:"agent_name"`
	Error     string          `json:"error"`
}

func (e *AgentError) Type() EventType { return TypeAgentError }

// AgentToolCall reports a tool invocation. ToolType is "tool" or "mcp".
type AgentToolCall struct {
	AgentName model.AgentName `json:"agent_name"`
	Tool      string          `json:"tool"`
	ToolType  string          `json:"tool_type,omitempty"`
}

func (e *AgentToolCall) Type() EventType { return TypeAgentToolCall }

// Kind returns the normalized tool kind.
func (e *AgentToolCall) Kind() model.ToolKind {
	return model.NormalizeToolKind(e.ToolType)
}

// =============================================================================
// CITATIONS
// =============================================================================

// AgentCitations carries sources gathered by a single agent.
type AgentCitations struct {
	AgentName model.AgentName  `json:"agent_name,omitempty"`
	Citations []model.Citation `json:"citations"`
}

func (e *AgentCitations) Type() EventType { return TypeAgentCitations }

// ResponseCitations carries the sources attached to the final response.
type ResponseCitations struct {
	Citations []model.Citation `json:"citations"`
}

func (e *ResponseCitations) Type() EventType { return TypeResponseCitations }

// =============================================================================
// STREAMING
// =============================================================================

// StreamToken is a chunk of assistant output. MessageID is set when the
// backend addresses the token to a specific message.
type StreamToken struct {
	Token     string          `json:"token"`
	AgentName model.AgentName `json:"agent_name,omitempty"`
	MessageID string          `json:"message_id,omitempty"`
}

func (e *StreamToken) Type() EventType { return TypeStreamToken }

// DocumentGenerated announces a new document. The backend has used both
// "type" and "doc_type" for the kind.
type DocumentGenerated struct {
	DocumentID string `json:"document_id"`
	DocType    string `json:"doc_type"`
	Title      string `json:"title"`
}

func (e *DocumentGenerated) Type() EventType { return TypeDocumentGenerated }

// UnmarshalJSON accepts either doc_type or type.
func (e *DocumentGenerated) UnmarshalJSON(data []byte) error {
	var aux struct {
		DocumentID string `json:"document_id"`
		DocType    string `json:"doc_type"`
		Kind       string `json:"type"`
		Title      string `json:"title"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.DocumentID = aux.DocumentID
	e.DocType = aux.DocType
	if e.DocType == "" {
		e.DocType = aux.Kind
	}
	e.Title = aux.Title
	return nil
}

// =============================================================================
// CONNECTION
// =============================================================================

// ConnectionEstablished signals that the live connection is open.
type ConnectionEstablished struct{}

func (e *ConnectionEstablished) Type() EventType { return TypeConnectionEstablished }

// ConnectionError carries a transport diagnostic.
type ConnectionError struct {
	Error string `json:"error"`
}

func (e *ConnectionError) Type() EventType { return TypeConnectionError }
