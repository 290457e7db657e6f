// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server is the local state bridge: a loopback JSON API over the
// client state store, built on echo.
//
// # Endpoints
//
//   - GET    /health                          - liveness and realtime state
//   - GET    /api/state                       - full store snapshot
//   - GET    /api/agents                      - agent states in canonical order
//   - GET    /api/documents                   - documents seen this session
//   - GET    /api/conversations               - conversation headers
//   - GET    /api/conversations/:id/messages  - messages of one conversation
//   - GET    /api/conversations/:id/citations - citations of one conversation
//   - POST   /api/connect/:id                 - open the realtime connection
//   - DELETE /api/connect                     - close it
//   - POST   /api/send {"content": "..."}     - optimistic send, 202 with ids
//
// # Middleware
//
//   - Panic recovery and request ids from echo
//   - One logrus line per request
//   - Security headers; responses are never cached
//   - Optional bearer token on /api with constant-time comparison
//
// # Usage
//
//	srv := server.New(st, mgr, sess,
//	    server.WithAddr("127.0.0.1:8765"),
//	    server.WithHandler(realtime.HandlerFunc(sess.HandleEvent)),
//	    server.WithLogger(log))
//	err := srv.Run(ctx) // returns after ctx is cancelled and shutdown completes
package server
