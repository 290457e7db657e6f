// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"
	"time"
)

// =============================================================================
// TIMESTAMP TESTS
// =============================================================================

func TestTimestamp_UnmarshalLayouts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339", `"2025-03-01T10:20:30Z"`, time.Date(2025, 3, 1, 10, 20, 30, 0, time.UTC)},
		{"offset", `"2025-03-01T12:20:30+02:00"`, time.Date(2025, 3, 1, 10, 20, 30, 0, time.UTC)},
		{"naive with micros", `"2025-03-01T10:20:30.123456"`, time.Date(2025, 3, 1, 10, 20, 30, 123456000, time.UTC)},
		{"naive", `"2025-03-01T10:20:30"`, time.Date(2025, 3, 1, 10, 20, 30, 0, time.UTC)},
		{"space separated", `"2025-03-01 10:20:30"`, time.Date(2025, 3, 1, 10, 20, 30, 0, time.UTC)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tc.input), &ts); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tc.input, err)
			}
			if !ts.Equal(tc.want) {
				t.Errorf("Unmarshal(%s) = %v, want %v", tc.input, ts.Time, tc.want)
			}
		})
	}
}

func TestTimestamp_NullAndEmpty(t *testing.T) {
	for _, input := range []string{`null`, `""`} {
		var ts Timestamp
		if err := json.Unmarshal([]byte(input), &ts); err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", input, err)
		}
		if !ts.IsZero() {
			t.Errorf("Unmarshal(%s) = %v, want zero", input, ts.Time)
		}
	}
}

func TestTimestamp_RejectsGarbage(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessage_DecodesBackendShape(t *testing.T) {
	raw := `{"id":"m1","conversation_id":"c1","role":"assistant","content":"hi",
		"created_at":"2025-01-02T03:04:05.000001","metadata":{"agent":"scribe"}}`

	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if msg.ID != "m1" || msg.ConversationID != "c1" || msg.Role != RoleAssistant {
		t.Errorf("unexpected identity fields: %+v", msg)
	}
	if msg.Metadata["agent"] != "scribe" {
		t.Errorf("Metadata[agent] = %v, want scribe", msg.Metadata["agent"])
	}
}

func TestMessage_CloneDoesNotShareMetadata(t *testing.T) {
	orig := NewMessage("m1", "c1", RoleUser, "hello", time.Now())
	orig.Metadata["k"] = "v"

	clone := orig.Clone()
	clone.Metadata["k"] = "changed"

	if orig.Metadata["k"] != "v" {
		t.Error("Clone shares metadata map with original")
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := Message{Content: "line one\nline   two"}
	if got := msg.Preview(0); got != "line one line two" {
		t.Errorf("Preview(0) = %q", got)
	}
	if got := msg.Preview(8); got != "line ..." {
		t.Errorf("Preview(8) = %q, want %q", got, "line ...")
	}
}

func TestMessage_IsEmptyAssistant(t *testing.T) {
	if !(Message{Role: RoleAssistant}).IsEmptyAssistant() {
		t.Error("empty assistant message should report IsEmptyAssistant")
	}
	if (Message{Role: RoleUser}).IsEmptyAssistant() {
		t.Error("user message should not report IsEmptyAssistant")
	}
	if (Message{Role: RoleAssistant, Content: "x"}).IsEmptyAssistant() {
		t.Error("non-empty assistant message should not report IsEmptyAssistant")
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_DisplayTitle(t *testing.T) {
	c := NewConversation("c1", "", time.Now())
	if c.Title != nil {
		t.Fatalf("empty title should be stored as nil, got %q", *c.Title)
	}
	if got := c.DisplayTitle(); got != DefaultConversationTitle {
		t.Errorf("DisplayTitle() = %q, want %q", got, DefaultConversationTitle)
	}

	c = NewConversation("c2", "Plan", time.Now())
	if got := c.DisplayTitle(); got != "Plan" {
		t.Errorf("DisplayTitle() = %q, want Plan", got)
	}
}

func TestConversation_CloneCopiesTitle(t *testing.T) {
	c := NewConversation("c1", "Original", time.Now())
	clone := c.Clone()
	*clone.Title = "Mutated"
	if *c.Title != "Original" {
		t.Error("Clone shares title pointer with original")
	}
}

// =============================================================================
// AGENT TESTS
// =============================================================================

func TestAllAgents_FixedOrder(t *testing.T) {
	want := []AgentName{
		AgentOrchestrator, AgentStrategist, AgentResearcher,
		AgentAnalyst, AgentScribe, AgentAdvisor, AgentMemory,
	}
	got := AllAgents()
	if len(got) != len(want) {
		t.Fatalf("AllAgents() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AllAgents()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	got[0] = "mutated"
	if AllAgents()[0] != AgentOrchestrator {
		t.Error("AllAgents() exposes internal array")
	}
}

func TestAgentName_Valid(t *testing.T) {
	if !AgentScribe.Valid() {
		t.Error("scribe should be valid")
	}
	if AgentName("janitor").Valid() {
		t.Error("janitor should not be valid")
	}
}

func TestNormalizeToolKind(t *testing.T) {
	tests := map[string]ToolKind{
		"":      ToolKindTool,
		"tool":  ToolKindTool,
		"mcp":   ToolKindMCP,
		"other": ToolKindTool,
	}
	for in, want := range tests {
		if got := NormalizeToolKind(in); got != want {
			t.Errorf("NormalizeToolKind(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestAgentState_CloneIsDeep(t *testing.T) {
	task := "draft"
	now := time.Now()
	a := AgentState{
		Agent:        AgentScribe,
		Status:       StatusExecuting,
		CurrentTask:  &task,
		LastActivity: &now,
		ToolCalls:    []ToolCallRecord{{Name: "search", Kind: ToolKindTool}},
	}

	clone := a.Clone()
	*clone.CurrentTask = "other"
	clone.ToolCalls[0].Name = "changed"

	if a.Task() != "draft" {
		t.Error("Clone shares task pointer")
	}
	if a.ToolCalls[0].Name != "search" {
		t.Error("Clone shares tool call slice")
	}
}

func TestCitation_Label(t *testing.T) {
	tests := []struct {
		c    Citation
		want string
	}{
		{Citation{Type: CitationURL, URL: "https://a"}, "https://a"},
		{Citation{Type: CitationKnowledge, SourceTool: "brand_kb"}, "brand_kb"},
		{Citation{Type: CitationOther, Preview: "excerpt"}, "excerpt"},
		{Citation{Type: CitationOther}, "other"},
	}
	for _, tc := range tests {
		if got := tc.c.Label(); got != tc.want {
			t.Errorf("Label() = %q, want %q", got, tc.want)
		}
	}
}
