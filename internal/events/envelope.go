// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jeranaias/oneshot-tui/internal/model"
)

var (
	// ErrMalformed is returned when a frame is not valid JSON or a payload
	// does not match its tag.
	ErrMalformed = errors.New("events: malformed frame")

	// ErrNotEnvelope is returned for valid JSON without an event_type, such as
	// the backend's {"type":"pong"} keepalive reply.
	ErrNotEnvelope = errors.New("events: frame is not an event envelope")
)

// UnknownEventError is returned for envelopes whose tag is outside the known set.
type UnknownEventError struct {
	Type EventType
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("events: unknown event type %q", e.Type)
}

// Envelope is the wire wrapper around every realtime event.
type Envelope struct {
	Type      EventType       `json:"event_type"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Time parses the envelope timestamp. ok is false when it is absent or unparseable.
func (e *Envelope) Time() (t time.Time, ok bool) {
	if e.Timestamp == "" {
		return time.Time{}, false
	}
	ts, err := model.ParseTimestamp(e.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return ts.Time, true
}

// Event decodes Data into the payload type selected by Type.
func (e *Envelope) Event() (Event, error) {
	var evt Event
	switch e.Type {
	case TypeAgentStarted:
		evt = &AgentStarted{}
	case TypeAgentThinking:
		evt = &AgentThinking{}
	case TypeAgentCompleted:
		evt = &AgentCompleted{}
	case TypeAgentHandoff:
		evt = &AgentHandoff{}
	case TypeAgentError:
		evt = &AgentError{}
	case TypeAgentToolCall:
		evt = &AgentToolCall{}
	case TypeAgentCitations:
		evt = &AgentCitations{}
	case TypeResponseCitations:
		evt = &ResponseCitations{}
	case TypeStreamToken:
		evt = &StreamToken{}
	case TypeDocumentGenerated:
		evt = &DocumentGenerated{}
	case TypeConnectionEstablished:
		evt = &ConnectionEstablished{}
	case TypeConnectionError:
		evt = &ConnectionError{}
	default:
		return nil, &UnknownEventError{Type: e.Type}
	}

	data := bytes.TrimSpace(e.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return evt, nil
	}
	if err := json.Unmarshal(data, evt); err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", ErrMalformed, e.Type, err)
	}
	return evt, nil
}

// DecodeEnvelope parses a frame into an envelope without decoding the payload.
func DecodeEnvelope(frame []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return nil, ErrNotEnvelope
	}
	return &env, nil
}

// Decode parses a frame and its payload.
//
// Errors are one of ErrMalformed, ErrNotEnvelope or *UnknownEventError.
// Callers log and drop the frame in every case.
func Decode(frame []byte) (Event, error) {
	env, err := DecodeEnvelope(frame)
	if err != nil {
		return nil, err
	}
	return env.Event()
}

// Encode wraps evt in an envelope stamped with ts.
func Encode(evt Event, ts time.Time) ([]byte, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("events: encode %s: %w", evt.Type(), err)
	}
	return json.Marshal(Envelope{
		Type:      evt.Type(),
		Timestamp: ts.UTC().Format(time.RFC3339Nano),
		Data:      data,
	})
}
