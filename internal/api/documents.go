// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/jeranaias/oneshot-tui/internal/model"
)

// ExportFormat is a backend export format.
type ExportFormat string

const (
	FormatPDF      ExportFormat = "pdf"
	FormatDOCX     ExportFormat = "docx"
	FormatMarkdown ExportFormat = "markdown"
	FormatHTML     ExportFormat = "html"
)

// Valid reports whether f is one of the known formats.
func (f ExportFormat) Valid() bool {
	switch f {
	case FormatPDF, FormatDOCX, FormatMarkdown, FormatHTML:
		return true
	}
	return false
}

// Extension returns the file extension for f, without the dot.
func (f ExportFormat) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// ProposalRequest is the body of GenerateProposal.
type ProposalRequest struct {
	ClientName        string `json:"client_name"`
	ClientIndustry    string `json:"client_industry"`
	EngagementType    string `json:"engagement_type"`
	ScopeDescription  string `json:"scope_description"`
	BudgetRange       string `json:"budget_range,omitempty"`
	Timeline          string `json:"timeline,omitempty"`
	AdditionalContext string `json:"additional_context,omitempty"`
}

// ExportedFile is a downloaded document export.
type ExportedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// =============================================================================
// PROPOSALS
// =============================================================================

// ListProposals returns generated proposals.
func (c *Client) ListProposals(ctx context.Context, limit, offset int) ([]model.Document, error) {
	var out []model.Document
	err := c.doJSON(ctx, http.MethodGet, "/api/proposals",
		pageQuery(limit, offset, DefaultPageSize), nil, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetProposal fetches one proposal.
func (c *Client) GetProposal(ctx context.Context, id string) (*model.Document, error) {
	p, err := pathID(id)
	if err != nil {
		return nil, err
	}
	var out model.Document
	if err := c.doJSON(ctx, http.MethodGet, "/api/proposals/"+p, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateProposal asks the agents to write a proposal.
func (c *Client) GenerateProposal(ctx context.Context, req ProposalRequest) (*model.Document, error) {
	if strings.TrimSpace(req.ClientName) == "" {
		return nil, fmt.Errorf("%w: client name is required", ErrInvalidArgument)
	}
	var out model.Document
	if err := c.doJSON(ctx, http.MethodPost, "/api/proposals/generate", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// ListDocuments returns documents, optionally filtered by type.
func (c *Client) ListDocuments(ctx context.Context, docType string, limit, offset int) ([]model.Document, error) {
	q := pageQuery(limit, offset, DefaultPageSize)
	if docType != "" {
		q.Set("doc_type", docType)
	}
	var out []model.Document
	if err := c.doJSON(ctx, http.MethodGet, "/api/documents", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDocument fetches one document.
func (c *Client) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	p, err := pathID(id)
	if err != nil {
		return nil, err
	}
	var out model.Document
	if err := c.doJSON(ctx, http.MethodGet, "/api/documents/"+p, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportDocument downloads a document rendered by the backend. The filename
// comes from Content-Disposition, falling back to "<id>.<ext>".
func (c *Client) ExportDocument(ctx context.Context, id string, format ExportFormat) (*ExportedFile, error) {
	p, err := pathID(id)
	if err != nil {
		return nil, err
	}
	if !format.Valid() {
		return nil, fmt.Errorf("%w: unknown export format %q", ErrInvalidArgument, format)
	}

	body := struct {
		Format ExportFormat `json:"format"`
	}{format}
	resp, err := c.do(ctx, http.MethodPost, "/api/documents/"+p+"/export", nil, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := readLimited(resp.Body, MaxExportSize)
	if err != nil {
		return nil, err
	}

	name := attachmentFilename(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = id + "." + format.Extension()
	}
	return &ExportedFile{
		Filename:    name,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// attachmentFilename extracts the filename parameter. The backend does not
// quote names containing spaces, so a loose scan backs up mime parsing.
func attachmentFilename(disposition string) string {
	if disposition == "" {
		return ""
	}
	var name string
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		name = params["filename"]
	} else if i := strings.Index(strings.ToLower(disposition), "filename="); i >= 0 {
		name = disposition[i+len("filename="):]
		if j := strings.Index(name, ";"); j >= 0 {
			name = name[:j]
		}
		name = strings.Trim(strings.TrimSpace(name), `"`)
	}
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
