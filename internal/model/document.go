// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// DOCUMENTS
// =============================================================================

// Document is a generated artifact such as a proposal or briefing.
type Document struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	DocType   string         `json:"doc_type"`
	Content   string         `json:"content"`
	Format    string         `json:"format"`
	CreatedAt Timestamp      `json:"created_at"`
	Metadata  map[string]any `json:"metadata"`
}

// =============================================================================
// KNOWLEDGE
// =============================================================================

// KnowledgeItem is an entry in the backend knowledge base.
type KnowledgeItem struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Industry *string  `json:"industry"`
	Tags     []string `json:"tags"`
	Score    *float64 `json:"score,omitempty"`
}

// =============================================================================
// ANALYTICS
// =============================================================================

// AgentTrace records one agent execution.
type AgentTrace struct {
	ID          string     `json:"id"`
	AgentName   AgentName  `json:"agent_name"`
	TaskType    *string    `json:"task_type"`
	Status      string     `json:"status"`
	StartedAt   Timestamp  `json:"started_at"`
	CompletedAt *Timestamp `json:"completed_at"`
	TokensUsed  int        `json:"tokens_used"`
	Error       *string    `json:"error"`
}

// AgentStats aggregates executions for one agent.
type AgentStats struct {
	Agent      AgentName `json:"agent"`
	Executions int       `json:"executions"`
	AvgTokens  float64   `json:"avg_tokens"`
}

// Metrics is the aggregate analytics response.
type Metrics struct {
	Period          string       `json:"period"`
	Since           Timestamp    `json:"since"`
	AgentStats      []AgentStats `json:"agent_stats"`
	TotalExecutions int          `json:"total_executions"`
}
