// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/jeranaias/oneshot-tui/internal/server"
)

// EnvBridgeToken supplies the bridge token when --token is not given.
const EnvBridgeToken = "ONESHOT_BRIDGE_TOKEN"

// HandleServe runs the local state bridge until ctx is cancelled.
//
// --conversation connects the realtime stream right away; otherwise clients
// connect through POST /api/connect/:id.
func HandleServe(ctx context.Context, env *Env, args Args) error {
	p := args.Parser
	addr := p.FlagOrDefault(server.DefaultAddr, "addr")
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return NewValidationErrorWithExample("addr", addr, "must be host:port", "--addr 127.0.0.1:8765")
	}
	token := p.FlagOrDefault(os.Getenv(EnvBridgeToken), "token")

	rt := env.NewRuntime()
	defer rt.Close()

	if err := rt.Session.RefreshConversations(ctx); err != nil {
		env.Log.WithError(err).Warn("initial conversation load failed")
	}

	srv := server.New(rt.Store, rt.Manager, rt.Session,
		server.WithAddr(addr),
		server.WithToken(token),
		server.WithHandler(rt.Session),
		server.WithVersion(Version),
		server.WithLogger(env.Log),
	)

	if id := p.Flag("conversation"); id != "" {
		if _, err := rt.StartConversation(ctx, env.Client, id, ""); err != nil {
			return err
		}
		rt.Manager.Connect(ctx, id, rt.Session)
	}

	if !args.Quiet && !args.JSON {
		fmt.Fprintf(env.ErrOut, "%s local bridge on http://%s\n", RenderStatus("ok"), addr)
		if token == "" && !isLoopback(addr) {
			fmt.Fprintln(env.ErrOut, WarningStyle.Render("warning: listening beyond loopback without a token"))
		}
	}
	return srv.Run(ctx)
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
