// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jeranaias/oneshot-tui/internal/api"
	"github.com/jeranaias/oneshot-tui/internal/model"
	"github.com/jeranaias/oneshot-tui/internal/util"
)

// =============================================================================
// TABLE OUTPUT
// =============================================================================

// table is a minimal column printer. Widths are in display cells; the last
// column takes whatever is left of the terminal.
type table struct {
	headers []string
	widths  []int
	rows    [][]string
}

func newTable(headers ...string) *table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = util.StringWidth(h)
	}
	return &table{headers: headers, widths: widths}
}

func (t *table) add(cells ...string) {
	for i, c := range cells {
		if i < len(t.widths) {
			t.widths[i] = max(t.widths[i], util.StringWidth(c))
		}
	}
	t.rows = append(t.rows, cells)
}

func (t *table) write(w io.Writer, termWidth int) {
	widths := append([]int(nil), t.widths...)
	used := 0
	for i := 0; i < len(widths)-1; i++ {
		widths[i] = min(widths[i], 40)
		used += widths[i] + 2
	}
	if last := len(widths) - 1; last >= 0 {
		widths[last] = max(min(widths[last], termWidth-used), 10)
	}

	render := func(cells []string, style func(string) string) {
		parts := make([]string, len(cells))
		for i, c := range cells {
			c = truncateCell(c, widths[i])
			if i < len(cells)-1 {
				c = util.PadRight(c, widths[i])
			}
			parts[i] = style(c)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}
	render(t.headers, func(s string) string { return LabelStyle.UnsetWidth().Bold(true).Render(s) })
	for _, r := range t.rows {
		render(r, func(s string) string { return s })
	}
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// HandleConversations lists conversations, newest first.
func HandleConversations(ctx context.Context, env *Env, args Args) error {
	p := args.Parser
	limit, err := p.FlagIntOrDefault("limit", api.DefaultPageSize)
	if err != nil {
		return err
	}
	offset, err := p.FlagIntOrDefault("offset", 0)
	if err != nil {
		return err
	}

	convs, err := env.Client.ListConversations(ctx, limit, offset)
	if err != nil {
		return NewCommandError("conversations", "list", err)
	}
	if args.JSON {
		return NewJSONResponse("conversations", nonNilSlice(convs)).Write(env.Out)
	}
	if len(convs) == 0 {
		fmt.Fprintln(env.Out, DimStyle.Render("No conversations yet."))
		return nil
	}

	t := newTable("ID", "UPDATED", "MSGS", "TITLE")
	for _, c := range convs {
		t.add(c.ID, c.UpdatedAt.Format("2006-01-02 15:04"), strconv.Itoa(c.MessageCount), c.DisplayTitle())
	}
	t.write(env.Out, GetTerminalWidth())
	return nil
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// HandleDocuments lists generated documents, optionally by type.
func HandleDocuments(ctx context.Context, env *Env, args Args) error {
	p := args.Parser
	limit, err := p.FlagIntOrDefault("limit", api.DefaultPageSize)
	if err != nil {
		return err
	}

	docs, err := env.Client.ListDocuments(ctx, p.Flag("type"), limit, 0)
	if err != nil {
		return NewCommandError("documents", "list", err)
	}
	if args.JSON {
		return NewJSONResponse("documents", nonNilSlice(docs)).Write(env.Out)
	}
	if len(docs) == 0 {
		fmt.Fprintln(env.Out, DimStyle.Render("No documents."))
		return nil
	}

	t := newTable("ID", "TYPE", "CREATED", "TITLE")
	for _, d := range docs {
		t.add(d.ID, d.DocType, d.CreatedAt.Format("2006-01-02"), d.Title)
	}
	t.write(env.Out, GetTerminalWidth())
	return nil
}

// =============================================================================
// KNOWLEDGE
// =============================================================================

// HandleKnowledge searches or lists the knowledge base.
//
//	oneshot knowledge search "pricing objections" [--category C] [--industry I]
//	oneshot knowledge list [--category C]
//	oneshot knowledge show <id>
func HandleKnowledge(ctx context.Context, env *Env, args Args) error {
	p := args.Parser
	limit, err := p.FlagIntOrDefault("limit", 10)
	if err != nil {
		return err
	}

	var items []model.KnowledgeItem
	switch sub := strings.ToLower(p.Subcommand()); sub {
	case "search", "":
		query := p.Joined(1)
		if sub == "" || query == "" {
			return ErrMissingArgument("query", `oneshot knowledge search "pricing objections"`)
		}
		items, err = env.Client.SearchKnowledge(ctx, api.KnowledgeSearchRequest{
			Query:    query,
			Category: p.Flag("category"),
			Industry: p.Flag("industry"),
			Limit:    limit,
		})
	case "list", "ls":
		items, err = env.Client.ListKnowledge(ctx, p.Flag("category"), limit, 0)
	case "show", "get":
		id := p.Positional(1)
		if id == "" {
			return ErrMissingArgument("id", "oneshot knowledge show <id>")
		}
		item, gerr := env.Client.GetKnowledge(ctx, id)
		if gerr != nil {
			return notFoundOr(gerr, "knowledge item", id)
		}
		if args.JSON {
			return NewJSONResponse("knowledge", item).Write(env.Out)
		}
		fmt.Fprintln(env.Out, TitleStyle.Render(item.Title))
		fmt.Fprintln(env.Out, RenderLabel("Category")+ValueStyle.Render(item.Category))
		if len(item.Tags) > 0 {
			fmt.Fprintln(env.Out, RenderLabel("Tags")+ValueStyle.Render(strings.Join(item.Tags, ", ")))
		}
		fmt.Fprintln(env.Out)
		fmt.Fprintln(env.Out, item.Content)
		return nil
	default:
		return NewValidationErrorWithExample("subcommand", sub, "must be search, list or show", `oneshot knowledge search "query"`)
	}
	if err != nil {
		return NewCommandError("knowledge", p.Subcommand(), err)
	}

	if args.JSON {
		return NewJSONResponse("knowledge", nonNilSlice(items)).Write(env.Out)
	}
	if len(items) == 0 {
		fmt.Fprintln(env.Out, DimStyle.Render("No matches."))
		return nil
	}
	t := newTable("ID", "CATEGORY", "SCORE", "TITLE")
	for _, it := range items {
		score := ""
		if it.Score != nil {
			score = strconv.FormatFloat(*it.Score, 'f', 2, 64)
		}
		t.add(it.ID, it.Category, score, it.Title)
	}
	t.write(env.Out, GetTerminalWidth())
	return nil
}

// =============================================================================
// METRICS
// =============================================================================

// HandleMetrics prints per-agent execution counts for a period.
func HandleMetrics(ctx context.Context, env *Env, args Args) error {
	period := api.Period(strings.ToLower(args.Parser.FlagOrDefault("day", "period")))
	switch period {
	case api.PeriodDay, api.PeriodWeek, api.PeriodMonth:
	default:
		return NewValidationErrorWithExample("period", string(period), "must be day, week or month", "oneshot metrics --period week")
	}

	m, err := env.Client.Metrics(ctx, period)
	if err != nil {
		return NewCommandError("metrics", "fetch", err)
	}
	if args.JSON {
		return NewJSONResponse("metrics", m).Write(env.Out)
	}

	fmt.Fprintln(env.Out, TitleStyle.Render("Agent metrics"))
	fmt.Fprintln(env.Out, RenderLabel("Period")+ValueStyle.Render(m.Period))
	if !m.Since.IsZero() {
		fmt.Fprintln(env.Out, RenderLabel("Since")+ValueStyle.Render(m.Since.Format("2006-01-02 15:04")))
	}
	fmt.Fprintln(env.Out, RenderLabel("Executions")+ValueStyle.Render(strconv.Itoa(m.TotalExecutions)))
	if len(m.AgentStats) == 0 {
		return nil
	}
	fmt.Fprintln(env.Out)
	t := newTable("AGENT", "RUNS", "AVG TOKENS")
	for _, s := range m.AgentStats {
		t.add(s.Agent.DisplayName(), strconv.Itoa(s.Executions), strconv.FormatFloat(s.AvgTokens, 'f', 0, 64))
	}
	t.write(env.Out, GetTerminalWidth())
	return nil
}

// =============================================================================
// RESEARCH
// =============================================================================

// HandleResearch queues a research job.
func HandleResearch(ctx context.Context, env *Env, args Args) error {
	p := args.Parser
	query := p.Joined(0)
	if query == "" {
		return ErrMissingArgument("query", `oneshot research "mid-market CRM vendors" --type quick`)
	}
	kind := p.FlagOrDefault("comprehensive", "type")
	switch kind {
	case "comprehensive", "quick", "deep":
	default:
		return NewValidationErrorWithExample("type", kind, "must be comprehensive, quick or deep", "--type quick")
	}

	var sources []string
	if s := p.Flag("sources"); s != "" {
		sources = splitList(s)
	}
	res, err := env.Client.ResearchQuery(ctx, api.ResearchRequest{Query: query, ResearchType: kind, Sources: sources})
	if err != nil {
		return NewCommandError("research", "queue", err)
	}
	if args.JSON {
		return NewJSONResponse("research", res).Write(env.Out)
	}
	fmt.Fprintf(env.Out, "%s %s\n", RenderStatus(res.Status), res.Message)
	return nil
}

// HandleBriefing queues a company briefing.
func HandleBriefing(ctx context.Context, env *Env, args Args) error {
	p := args.Parser
	company := p.Joined(0)
	if company == "" {
		return ErrMissingArgument("company", `oneshot briefing "Acme Corp" --industry retail`)
	}
	req := api.BriefingRequest{CompanyName: company, Industry: p.Flag("industry")}
	if f := p.Flag("focus"); f != "" {
		req.FocusAreas = splitList(f)
	}
	res, err := env.Client.Briefing(ctx, req)
	if err != nil {
		return NewCommandError("briefing", "queue", err)
	}
	if args.JSON {
		return NewJSONResponse("briefing", res).Write(env.Out)
	}
	fmt.Fprintf(env.Out, "%s %s\n", RenderStatus(res.Status), res.Message)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func nonNilSlice[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
