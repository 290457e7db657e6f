// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the oneshot command line: argument parsing, the
// one-shot commands and the line-mode chat REPL.
//
// # Key Types
//
//   - Command: enumeration of the available commands
//   - Args: parsed global flags plus the command's own ArgParser
//   - Env: config, logger, backend client and output writers
//   - Runtime: store, session and realtime manager for live commands
//
// # Usage
//
//	cmd, args := cli.Parse()
//	env, err := cli.NewEnv(args)
//	...
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(ctx, env, args)
//	case cli.CmdChat:
//	    err = cli.HandleChat(ctx, env, args)
//	}
//	cli.HandleErrorAndExit(err, args.JSON)
//
// # Output
//
// Every command that produces data accepts --json and writes a JSONResponse
// to stdout. Progress and agent activity go to stderr so stdout stays
// parseable. Exit codes are derived from the returned error by GetExitCode.
package cli
