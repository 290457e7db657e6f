// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jeranaias/oneshot-tui/internal/api"
	"github.com/jeranaias/oneshot-tui/internal/export"
	"github.com/jeranaias/oneshot-tui/internal/util"
)

// ExportResult is the --json payload of both export commands.
type ExportResult struct {
	ID     string `json:"id"`
	Format string `json:"format"`
	Path   string `json:"path"`
	Bytes  int    `json:"bytes,omitempty"`
}

// documentFormat maps the user's spelling to the backend's format name.
func documentFormat(s string) (api.ExportFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "md", "markdown":
		return api.FormatMarkdown, nil
	case "html", "htm":
		return api.FormatHTML, nil
	case "pdf":
		return api.FormatPDF, nil
	case "docx", "word":
		return api.FormatDOCX, nil
	}
	return "", NewValidationErrorWithExample("format", s, "must be md, html, pdf or docx", "--format pdf")
}

// HandleExport downloads a server-rendered document and writes it
// atomically, under --out or the name the server suggests.
func HandleExport(ctx context.Context, env *Env, args Args) error {
	p := args.Parser
	id := p.Positional(0)
	if id == "" {
		return ErrMissingArgument("document id", "oneshot export <doc-id> --format pdf")
	}
	format, err := documentFormat(p.FlagOrDefault("md", "format", "f"))
	if err != nil {
		return err
	}

	file, err := env.Client.ExportDocument(ctx, id, format)
	if err != nil {
		return notFoundOr(err, "document", id)
	}

	path := p.FlagOrDefault("", "out", "o")
	if path == "" {
		// Never let a server-supplied name escape the working directory.
		path = filepath.Base(file.Filename)
	}
	if err := util.AtomicWriteFile(path, file.Data, 0644); err != nil {
		return NewCommandError("export", "write", err)
	}

	if args.JSON {
		return NewJSONResponse("export", ExportResult{ID: id, Format: string(format), Path: path, Bytes: len(file.Data)}).Write(env.Out)
	}
	if !args.Quiet {
		fmt.Fprintf(env.Out, "%s %s (%d bytes)\n", SuccessStyle.Render("Saved"), path, len(file.Data))
	}
	return nil
}

// HandleExportConversation renders a conversation locally as markdown,
// JSON or HTML.
func HandleExportConversation(ctx context.Context, env *Env, args Args) error {
	p := args.Parser
	id := p.Positional(0)
	if id == "" {
		return ErrMissingArgument("conversation id", "oneshot export-conversation <id> --format html")
	}
	format := p.FlagOrDefault("md", "format", "f")

	opts := export.DefaultOptions()
	opts.Path = p.FlagOrDefault("", "out", "o")
	if dir := p.Flag("dir"); dir != "" {
		opts.OutputDir = dir
	}
	opts.OpenAfterExport = p.BoolFlag("open")
	opts.IncludeMetadata = !p.BoolFlag("no-metadata")
	if env.Config != nil && env.Config.UI.Theme == "light" {
		opts.Theme = "light"
	}

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return NewValidationErrorWithExample("format", format, "must be md, json or html", "--format html")
	}

	conv, err := env.Client.GetConversation(ctx, id)
	if err != nil {
		return notFoundOr(err, "conversation", id)
	}
	msgs, err := env.Client.ListMessages(ctx, id, 0, 0)
	if err != nil {
		return NewCommandError("export-conversation", "messages", err)
	}

	path, err := export.ExportToFile(conv, msgs, nil, exporter, opts)
	if err != nil {
		return NewCommandError("export-conversation", "write", err)
	}

	if args.JSON {
		return NewJSONResponse("export-conversation", ExportResult{ID: id, Format: format, Path: path}).Write(env.Out)
	}
	if !args.Quiet {
		fmt.Fprintf(env.Out, "%s %s\n", SuccessStyle.Render("Saved"), path)
	}
	return nil
}
