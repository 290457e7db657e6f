// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package events

import (
	"errors"
	"testing"
	"time"

	"github.com/jeranaias/oneshot-tui/internal/model"
)

func TestDecode_AllKnownTypes(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		check func(t *testing.T, evt Event)
	}{
		{
			name:  "agent started",
			frame: `{"event_type":"agent.started","timestamp":"2025-01-01T00:00:00","data":{"agent_name":"researcher","task":"Find sources"}}`,
			check: func(t *testing.T, evt Event) {
				e := evt.(*AgentStarted)
				if e.AgentName != model.AgentResearcher || e.Task != "Find sources" {
					t.Errorf("got %+v", e)
				}
			},
		},
		{
			name:  "agent thinking with progress",
			frame: `{"event_type":"agent.thinking","data":{"agent_name":"analyst","thought":"Comparing","progress":0.5}}`,
			check: func(t *testing.T, evt Event) {
				e := evt.(*AgentThinking)
				if e.Thought != "Comparing" || e.Progress == nil || *e.Progress != 0.5 {
					t.Errorf("got %+v", e)
				}
			},
		},
		{
			name:  "agent completed backend shape",
			frame: `{"event_type":"agent.completed","data":{"agent_name":"orchestrator","result_summary":"done","duration_ms":1200}}`,
			check: func(t *testing.T, evt Event) {
				e := evt.(*AgentCompleted)
				if e.Summary() != "done" || e.DurationMS == nil || *e.DurationMS != 1200 {
					t.Errorf("got %+v", e)
				}
			},
		},
		{
			name:  "handoff",
			frame: `{"event_type":"agent.handoff","data":{"from_agent":"orchestrator","to_agent":"scribe","context":"Write it"}}`,
			check: func(t *testing.T, evt Event) {
				e := evt.(*AgentHandoff)
				if e.FromAgent != model.AgentOrchestrator || e.ToAgent != model.AgentScribe || e.Context != "Write it" {
					t.Errorf("got %+v", e)
				}
			},
		},
		{
			name:  "tool call defaults kind",
			frame: `{"event_type":"agent.tool_call","data":{"agent_name":"researcher","tool":"web_search"}}`,
			check: func(t *testing.T, evt Event) {
				e := evt.(*AgentToolCall)
				if e.Tool != "web_search" || e.Kind() != model.ToolKindTool {
					t.Errorf("got %+v kind=%s", e, e.Kind())
				}
			},
		},
		{
			name:  "citations",
			frame: `{"event_type":"agent.citations","data":{"agent_name":"researcher","citations":[{"type":"url","url":"https://x"}]}}`,
			check: func(t *testing.T, evt Event) {
				e := evt.(*AgentCitations)
				if len(e.Citations) != 1 || e.Citations[0].URL != "https://x" {
					t.Errorf("got %+v", e)
				}
			},
		},
		{
			name:  "stream token",
			frame: `{"event_type":"stream.token","data":{"token":"Hi","agent_name":"scribe"}}`,
			check: func(t *testing.T, evt Event) {
				e := evt.(*StreamToken)
				if e.Token != "Hi" || e.MessageID != "" {
					t.Errorf("got %+v", e)
				}
			},
		},
		{
			name:  "document generated with type key",
			frame: `{"event_type":"document.generated","data":{"document_id":"d1","type":"proposal","title":"Plan"}}`,
			check: func(t *testing.T, evt Event) {
				e := evt.(*DocumentGenerated)
				if e.DocType != "proposal" || e.DocumentID != "d1" {
					t.Errorf("got %+v", e)
				}
			},
		},
		{
			name:  "connection established without data",
			frame: `{"event_type":"connection.established","timestamp":"2025-01-01T00:00:00"}`,
			check: func(t *testing.T, evt Event) {
				if _, ok := evt.(*ConnectionEstablished); !ok {
					t.Errorf("got %T", evt)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			evt, err := Decode([]byte(tc.frame))
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			tc.check(t, evt)
		})
	}
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"event_type":"agent.dreaming","data":{}}`))
	var unknown *UnknownEventError
	if !errors.As(err, &unknown) {
		t.Fatalf("Decode() error = %v, want *UnknownEventError", err)
	}
	if unknown.Type != "agent.dreaming" {
		t.Errorf("unknown.Type = %q", unknown.Type)
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, frame := range []string{
		`not json`,
		`{"event_type":"stream.token","data":{"token":42}}`,
	} {
		if _, err := Decode([]byte(frame)); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%q) error = %v, want ErrMalformed", frame, err)
		}
	}
}

func TestDecode_PongIsNotEnvelope(t *testing.T) {
	if _, err := Decode([]byte(`{"type":"pong"}`)); !errors.Is(err, ErrNotEnvelope) {
		t.Errorf("Decode(pong) error = %v, want ErrNotEnvelope", err)
	}
}

func TestEncode_RoundTripsThroughDecode(t *testing.T) {
	ts := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	frame, err := Encode(&AgentHandoff{FromAgent: "orchestrator", ToAgent: "researcher", Context: "Gathering sources"}, ts)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	env, err := DecodeEnvelope(frame)
	if err != nil {
		t.Fatalf("DecodeEnvelope() error: %v", err)
	}
	if got, ok := env.Time(); !ok || !got.Equal(ts) {
		t.Errorf("env.Time() = %v, %v; want %v", got, ok, ts)
	}

	evt, err := env.Event()
	if err != nil {
		t.Fatalf("env.Event() error: %v", err)
	}
	if h := evt.(*AgentHandoff); h.Context != "Gathering sources" {
		t.Errorf("Context = %q", h.Context)
	}
}

func TestEventType_Known(t *testing.T) {
	if !TypeResponseCitations.Known() {
		t.Error("response.citations should be known")
	}
	if EventType("agent.sleeping").Known() {
		t.Error("agent.sleeping should not be known")
	}
}
