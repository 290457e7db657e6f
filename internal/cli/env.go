// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/oneshot-tui/internal/api"
	"github.com/jeranaias/oneshot-tui/internal/config"
	"github.com/jeranaias/oneshot-tui/internal/logging"
	"github.com/jeranaias/oneshot-tui/internal/realtime"
	"github.com/jeranaias/oneshot-tui/internal/session"
	"github.com/jeranaias/oneshot-tui/internal/store"
)

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Env is what every command handler needs: configuration, a logger, the
// backend client and where to write.
type Env struct {
	Config     *config.Config
	ConfigPath string
	Log        *logrus.Logger
	Client     *api.Client
	Out        io.Writer
	ErrOut     io.Writer

	closer io.Closer
}

// NewEnv loads the config and builds the logger and client for a line-mode
// command. --verbose and --quiet override the configured log level.
func NewEnv(args Args) (*Env, error) {
	path, err := config.ConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	switch {
	case args.Verbose:
		logCfg.Level = "debug"
	case args.Quiet:
		logCfg.Level = "error"
	}
	log, closer, err := logging.Init(logCfg, logging.ModeLine)
	if err != nil {
		return nil, err
	}

	if args.NoColor {
		ForceColorsEnabled(false)
	}

	return &Env{
		Config:     cfg,
		ConfigPath: path,
		Log:        log,
		Client:     NewClient(cfg, log),
		Out:        os.Stdout,
		ErrOut:     os.Stderr,
		closer:     closer,
	}, nil
}

// NewClient builds the backend client from cfg.
func NewClient(cfg *config.Config, log logrus.FieldLogger) *api.Client {
	return api.NewClient(cfg.Backend.APIURL,
		api.WithTimeout(cfg.Timeout()),
		api.WithRateLimit(cfg.Backend.RateLimitPerSecond),
		api.WithLogger(log),
	)
}

// Close releases the log output.
func (e *Env) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

// =============================================================================
// RUNTIME
// =============================================================================

// Runtime is the live client: the store, the send flow and the realtime
// connection, wired to one backend.
type Runtime struct {
	Store   *store.Store
	Session *session.Session
	Manager *realtime.Manager
}

// NewRuntime wires a store, session and manager from cfg. Extra manager
// options are applied after the configured ones.
func NewRuntime(cfg *config.Config, client *api.Client, log logrus.FieldLogger, opts ...realtime.Option) *Runtime {
	st := store.New(store.WithLogger(log))
	sess := session.New(st, client,
		session.WithMessageLister(client),
		session.WithConversationLister(client),
		session.WithLogger(log),
	)
	mgrOpts := []realtime.Option{
		realtime.WithBackoff(cfg.Backoff()),
		realtime.WithKeepalive(cfg.Keepalive()),
		realtime.WithHandshakeTimeout(cfg.HandshakeTimeout()),
		realtime.WithLogger(log),
	}
	mgr := realtime.NewManager(st, cfg.WebSocketURL(), append(mgrOpts, opts...)...)
	return &Runtime{Store: st, Session: sess, Manager: mgr}
}

// NewRuntime wires a Runtime for this environment.
func (e *Env) NewRuntime(opts ...realtime.Option) *Runtime {
	return NewRuntime(e.Config, e.Client, e.Log, opts...)
}

// Close disconnects and waits for in-flight sends.
func (r *Runtime) Close() {
	r.Manager.Disconnect()
	r.Session.Close()
}

// StartConversation makes id the active conversation, or creates one on the
// backend when id is empty. The title seeds the new conversation's name.
func (r *Runtime) StartConversation(ctx context.Context, client *api.Client, id, title string) (string, error) {
	if id != "" {
		conv, err := client.GetConversation(ctx, id)
		if err != nil {
			return "", notFoundOr(err, "conversation", id)
		}
		r.Store.AddConversation(*conv)
		r.Store.SetActiveConversation(conv.ID)
		if _, err := r.Session.Refresh(ctx, conv.ID); err != nil {
			return "", err
		}
		return conv.ID, nil
	}

	conv, err := client.CreateConversation(ctx, api.CreateConversationRequest{Title: title})
	if err != nil {
		return "", NewCommandError("conversation", "create", err)
	}
	r.Store.AddConversation(*conv)
	r.Store.SetActiveConversation(conv.ID)
	return conv.ID, nil
}
