// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jeranaias/oneshot-tui/internal/model"
)

// =============================================================================
// RESEARCH
// =============================================================================

// ResearchRequest is the body of ResearchQuery. ResearchType is
// "comprehensive", "quick" or "deep".
type ResearchRequest struct {
	Query        string   `json:"query"`
	ResearchType string   `json:"research_type,omitempty"`
	Sources      []string `json:"sources,omitempty"`
}

// BriefingRequest is the body of Briefing.
type BriefingRequest struct {
	CompanyName string   `json:"company_name"`
	Industry    string   `json:"industry,omitempty"`
	FocusAreas  []string `json:"focus_areas,omitempty"`
}

// ResearchAccepted acknowledges a queued research job.
type ResearchAccepted struct {
	Query   string `json:"query"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// BriefingAccepted acknowledges a queued briefing.
type BriefingAccepted struct {
	CompanyName string `json:"company_name"`
	Status      string `json:"status"`
	Message     string `json:"message"`
}

// ResearchQuery queues a research job.
func (c *Client) ResearchQuery(ctx context.Context, req ResearchRequest) (*ResearchAccepted, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidArgument)
	}
	var out ResearchAccepted
	if err := c.doJSON(ctx, http.MethodPost, "/api/research/query", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Briefing queues a company briefing.
func (c *Client) Briefing(ctx context.Context, req BriefingRequest) (*BriefingAccepted, error) {
	if strings.TrimSpace(req.CompanyName) == "" {
		return nil, fmt.Errorf("%w: company name is required", ErrInvalidArgument)
	}
	var out BriefingAccepted
	if err := c.doJSON(ctx, http.MethodPost, "/api/research/briefing", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// KNOWLEDGE
// =============================================================================

// KnowledgeSearchRequest is the body of SearchKnowledge.
type KnowledgeSearchRequest struct {
	Query    string `json:"query"`
	Category string `json:"category,omitempty"`
	Industry string `json:"industry,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// SearchKnowledge runs a knowledge base search.
func (c *Client) SearchKnowledge(ctx context.Context, req KnowledgeSearchRequest) ([]model.KnowledgeItem, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidArgument)
	}
	var out []model.KnowledgeItem
	if err := c.doJSON(ctx, http.MethodPost, "/api/knowledge/search", nil, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListKnowledge lists knowledge items, optionally by category.
func (c *Client) ListKnowledge(ctx context.Context, category string, limit, offset int) ([]model.KnowledgeItem, error) {
	q := pageQuery(limit, offset, DefaultPageSize)
	if category != "" {
		q.Set("category", category)
	}
	var out []model.KnowledgeItem
	if err := c.doJSON(ctx, http.MethodGet, "/api/knowledge", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetKnowledge fetches one knowledge item.
func (c *Client) GetKnowledge(ctx context.Context, id string) (*model.KnowledgeItem, error) {
	p, err := pathID(id)
	if err != nil {
		return nil, err
	}
	var out model.KnowledgeItem
	if err := c.doJSON(ctx, http.MethodGet, "/api/knowledge/"+p, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// ANALYTICS
// =============================================================================

// Period is a metrics aggregation window.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// TraceFilter narrows ListTraces. Zero values mean no filter.
type TraceFilter struct {
	AgentName model.AgentName
	Status    string
	Limit     int
	Offset    int
}

// ListTraces returns agent execution traces.
func (c *Client) ListTraces(ctx context.Context, f TraceFilter) ([]model.AgentTrace, error) {
	q := pageQuery(f.Limit, f.Offset, DefaultMessagePageSize)
	if f.AgentName != "" {
		q.Set("agent_name", string(f.AgentName))
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	var out []model.AgentTrace
	if err := c.doJSON(ctx, http.MethodGet, "/api/analytics/traces", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Metrics returns aggregate agent metrics. An empty period means a day.
func (c *Client) Metrics(ctx context.Context, period Period) (*model.Metrics, error) {
	switch period {
	case "":
		period = PeriodDay
	case PeriodDay, PeriodWeek, PeriodMonth:
	default:
		return nil, fmt.Errorf("%w: unknown period %q", ErrInvalidArgument, period)
	}
	q := url.Values{"period": {string(period)}}
	var out model.Metrics
	if err := c.doJSON(ctx, http.MethodGet, "/api/analytics/metrics", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
