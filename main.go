// oneshot - terminal client for the OneShot multi-agent content platform.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/oneshot-tui/internal/cli"
	"github.com/jeranaias/oneshot-tui/internal/logging"
	"github.com/jeranaias/oneshot-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	// Commands that need neither config nor backend.
	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage()
		return
	case cli.CmdVersion:
		cli.HandleErrorAndExit(cli.HandleVersion(os.Stdout, args), args.JSON)
		return
	case cli.CmdUnknown:
		cli.HandleErrorAndExit(cli.UnknownCommandError(args.Name), args.JSON)
		return
	}

	env, err := cli.NewEnv(args)
	if err != nil {
		cli.HandleErrorAndExit(err, args.JSON)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cmd, env, args)
	stop()
	_ = env.Close()
	cli.HandleErrorAndExit(err, args.JSON)
}

// run dispatches a parsed command.
func run(ctx context.Context, cmd cli.Command, env *cli.Env, args cli.Args) error {
	switch cmd {
	case cli.CmdTUI:
		return runTUI(ctx, env)
	case cli.CmdAsk:
		return cli.HandleAsk(ctx, env, args)
	case cli.CmdChat:
		return cli.HandleChat(ctx, env, args)
	case cli.CmdConversations:
		return cli.HandleConversations(ctx, env, args)
	case cli.CmdDocuments:
		return cli.HandleDocuments(ctx, env, args)
	case cli.CmdExport:
		return cli.HandleExport(ctx, env, args)
	case cli.CmdExportConversation:
		return cli.HandleExportConversation(ctx, env, args)
	case cli.CmdResearch:
		return cli.HandleResearch(ctx, env, args)
	case cli.CmdBriefing:
		return cli.HandleBriefing(ctx, env, args)
	case cli.CmdKnowledge:
		return cli.HandleKnowledge(ctx, env, args)
	case cli.CmdMetrics:
		return cli.HandleMetrics(ctx, env, args)
	case cli.CmdServe:
		return cli.HandleServe(ctx, env, args)
	case cli.CmdStatus:
		return cli.HandleStatus(ctx, env, args)
	case cli.CmdConfig:
		return cli.HandleConfig(env, args)
	}
	return fmt.Errorf("command %q has no handler", cmd)
}

// runTUI starts the full-screen client. Logs go to the log file while the
// terminal belongs to the UI.
func runTUI(ctx context.Context, env *cli.Env) error {
	if err := cli.RequiresTTY("run the TUI"); err != nil {
		return err
	}

	log, closer, err := logging.Init(env.Config.Logging, logging.ModeTUI)
	if err != nil {
		return err
	}
	defer closer.Close()

	client := cli.NewClient(env.Config, log)
	rt := cli.NewRuntime(env.Config, client, log)
	defer rt.Close()

	return chat.Run(ctx, chat.Options{
		Store:     rt.Store,
		Session:   rt.Session,
		Connector: rt.Manager,
		Documents: client,
		Config:    env.Config,
		Logger:    log,
	}, env.ConfigPath)
}
