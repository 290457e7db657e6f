// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the OneShot backend.
//
// Every endpoint is a method on Client taking a context. Non-2xx responses
// come back as *APIError carrying the status and the raw body text:
//
//	client := api.NewClient(cfg.Backend.APIURL, api.WithTimeout(30*time.Second))
//	convs, err := client.ListConversations(ctx, 20, 0)
//	if api.IsNotFound(err) {
//		...
//	}
package api
