// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves the oneshot client configuration.
//
// # Configuration Precedence
//
// Values are resolved in this order, highest first:
//   - Environment variables (ONESHOT_*, plus NEXT_PUBLIC_API_URL and
//     NEXT_PUBLIC_WS_URL for the backend URLs)
//   - ~/.oneshot/config.toml
//   - Built-in defaults
//
// The realtime base URL falls back further: an explicit ws_url, then the API
// URL with http mapped to ws and https to wss, then ws://localhost:8000.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mgr := realtime.NewManager(st, cfg.WebSocketURL(),
//	    realtime.WithBackoff(cfg.Backoff()))
//
// # Hot Reload
//
// Watch reloads the file after a short debounce:
//
//	path, _ := config.ConfigPath()
//	config.Watch(ctx, path, func(cfg *config.Config, err error) {
//	    if err == nil {
//	        program.Send(configChangedMsg{cfg})
//	    }
//	})
//
// # Example File
//
//	[backend]
//	api_url = "https://agents.example.com"
//	timeout_seconds = 60
//
//	[realtime]
//	max_reconnect_attempts = 5
//	base_delay_ms = 1000
//	max_delay_ms = 30000
//
//	[ui]
//	theme = "dark"
//	sidebar_open = true
//
//	[logging]
//	level = "debug"
//	format = "json"
package config
