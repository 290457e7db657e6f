// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversations to files.
//
// # Supported Formats
//
//   - Markdown: frontmatter, role-labelled sections, citations as footnotes
//   - JSON: the Transcript document, indented
//   - HTML: Markdown rendered with goldmark (GFM) and sanitized with
//     bluemonday's UGC policy, inside a themed standalone page
//
// Assistant placeholders that never received content are left out.
//
// # Usage
//
//	exp, err := export.ForFormat("html", nil)
//	if err != nil {
//	    return err
//	}
//	path, err := export.ExportToFile(&conv, msgs, cits, exp, nil)
package export
