// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/oneshot-tui/internal/events"
	"github.com/jeranaias/oneshot-tui/internal/model"
)

// CoordinatingTask is the orchestrator's task while other agents work.
const CoordinatingTask = "Coordinating agents..."

// StateSink is the set of store operations driven by realtime events.
// *store.Store implements it.
type StateSink interface {
	UpdateAgentStatus(name model.AgentName, status model.AgentStatus, task *string)
	AddAgentToolCall(name model.AgentName, toolName string, kind model.ToolKind)
	ResetAgentStates()
	AddCitations(conversationID string, list []model.Citation)
	AppendToMessage(conversationID, messageID, token string) bool
	AppendToLastUnsettled(conversationID, token string) bool
	ActiveConversationID() string
	StreamingMessageID() string
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Apply performs the store mutation for one event received on the
// connection tracking conversationID. Events without a mutation are ignored.
func Apply(st StateSink, conversationID string, evt events.Event, log logrus.FieldLogger) {
	switch e := evt.(type) {
	case *events.AgentStarted:
		st.UpdateAgentStatus(e.AgentName, model.StatusExecuting, optional(e.Task))

	case *events.AgentThinking:
		st.UpdateAgentStatus(e.AgentName, model.StatusThinking, optional(e.Thought))

	case *events.AgentCompleted:
		st.UpdateAgentStatus(e.AgentName, model.StatusCompleted, nil)

	case *events.AgentHandoff:
		if e.FromAgent == model.AgentOrchestrator {
			st.UpdateAgentStatus(e.FromAgent, model.StatusWaiting, optional(CoordinatingTask))
		} else {
			st.UpdateAgentStatus(e.FromAgent, model.StatusIdle, nil)
		}
		st.UpdateAgentStatus(e.ToAgent, model.StatusWaiting, optional(e.Context))

	case *events.AgentToolCall:
		st.AddAgentToolCall(e.AgentName, e.Tool, e.Kind())

	case *events.AgentError:
		st.UpdateAgentStatus(e.AgentName, model.StatusError, nil)

	case *events.StreamToken:
		applyToken(st, conversationID, e, log)

	case *events.AgentCitations:
		if conversationID != "" {
			st.AddCitations(conversationID, e.Citations)
		}

	case *events.ResponseCitations:
		if conversationID != "" {
			st.AddCitations(conversationID, e.Citations)
		}

	case *events.DocumentGenerated, *events.ConnectionEstablished, *events.ConnectionError:
		// forwarded to the handler only
	}
}

// applyToken appends a streamed token to an explicitly identified message.
//
// The target is the payload's message_id, else the store's streaming
// message, looked up in the tracked conversation. Only when neither exists
// does the token fall back to the last message, and then only if the tracked
// conversation is still the active one and that message is not an already
// settled reply. Anything else is dropped so tokens never land in a
// different conversation or rewrite the server's final text.
func applyToken(st StateSink, conversationID string, e *events.StreamToken, log logrus.FieldLogger) {
	if conversationID == "" {
		return
	}

	target := e.MessageID
	if target == "" {
		target = st.StreamingMessageID()
	}
	if target != "" {
		if st.AppendToMessage(conversationID, target, e.Token) {
			return
		}
		log.WithFields(logrus.Fields{
			"conversation_id": conversationID,
			"message_id":      target,
		}).Debug("dropping token for message outside tracked conversation")
		return
	}

	if conversationID != st.ActiveConversationID() {
		log.WithField("conversation_id", conversationID).Debug("dropping token for inactive conversation")
		return
	}
	if !st.AppendToLastUnsettled(conversationID, e.Token) {
		log.WithField("conversation_id", conversationID).Debug("dropping token after reply settled")
	}
}
