// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the panels of the oneshot TUI: the
// conversation list, the message list and its viewport, the agent activity
// panel, the citation panel and the status bar.
//
// Components hold plain data copied out of the store and render it with a
// styles.Theme. They do not touch the store themselves; the chat model
// pushes fresh snapshots into them after every store change.
package components
