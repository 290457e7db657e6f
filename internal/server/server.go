// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/oneshot-tui/internal/events"
	"github.com/jeranaias/oneshot-tui/internal/realtime"
	"github.com/jeranaias/oneshot-tui/internal/session"
	"github.com/jeranaias/oneshot-tui/internal/store"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr binds the bridge to loopback only.
	DefaultAddr = "127.0.0.1:8765"

	// MaxRequestBodySize caps POST bodies.
	MaxRequestBodySize = "1M"

	// ShutdownTimeout bounds graceful shutdown after the run context ends.
	ShutdownTimeout = 5 * time.Second
)

// Connector is the part of realtime.Manager the bridge drives.
type Connector interface {
	Connect(ctx context.Context, conversationID string, h realtime.Handler)
	Disconnect()
	State() realtime.State
	ConversationID() string
}

// Submitter is the part of session.Session the bridge drives.
type Submitter interface {
	Submit(ctx context.Context, input string) (*session.Turn, error)
}

// ============================================================================
// SERVER
// ============================================================================

// Server exposes the client state store over a small local JSON API so other
// local tools can observe and drive the running client.
type Server struct {
	echo    *echo.Echo
	store   *store.Store
	conn    Connector
	submit  Submitter
	handler realtime.Handler
	addr    string
	token   string
	version string
	log     logrus.FieldLogger
	started time.Time

	mu      sync.RWMutex
	baseCtx context.Context
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithToken requires "Authorization: Bearer <token>" on /api routes.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithHandler receives realtime events for connections opened by the bridge.
func WithHandler(h realtime.Handler) Option {
	return func(s *Server) { s.handler = h }
}

// WithVersion is reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Server) { s.log = log }
}

// New builds a bridge over st. conn and submit may be nil, in which case the
// routes that need them answer 503.
func New(st *store.Store, conn Connector, submit Submitter, opts ...Option) *Server {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Server{
		store:   st,
		conn:    conn,
		submit:  submit,
		handler: realtime.HandlerFunc(func(events.Event) {}),
		addr:    DefaultAddr,
		version: "dev",
		log:     discard,
		started: time.Now(),
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "server")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(RequestLogger(s.log))
	e.Use(SecurityHeaders())
	e.Use(middleware.BodyLimit(MaxRequestBodySize))
	s.echo = e
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Addr returns the bound address once Run is listening, else the configured one.
func (s *Server) Addr() string {
	if a := s.echo.ListenerAddr(); a != nil {
		return a.String()
	}
	return s.addr
}

// Run serves until ctx is cancelled, then shuts down gracefully. Connections
// and sends started through the bridge live as long as ctx.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.addr).Info("local bridge listening")
		errCh <- s.echo.Start(s.addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down local bridge")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) context() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseCtx
}

// registerRoutes wires every endpoint.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	api := s.echo.Group("/api")
	if s.token != "" {
		api.Use(BearerAuth(s.token))
	}
	api.GET("/state", s.handleState)
	api.GET("/agents", s.handleAgents)
	api.GET("/documents", s.handleDocuments)
	api.GET("/conversations", s.handleConversations)
	api.GET("/conversations/:id/messages", s.handleMessages)
	api.GET("/conversations/:id/citations", s.handleCitations)
	api.POST("/connect/:id", s.handleConnect)
	api.DELETE("/connect", s.handleDisconnect)
	api.POST("/send", s.handleSend)
}

// ============================================================================
// HANDLERS
// ============================================================================

type errorResponse struct {
	Error string `json:"error"`
}

func jsonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, errorResponse{Error: msg})
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	Realtime       string `json:"realtime"`
	ConversationID string `json:"conversation_id,omitempty"`
}

func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{
		Status:        "ok",
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Realtime:      realtime.StateDisconnected.String(),
	}
	if s.conn != nil {
		resp.Realtime = s.conn.State().String()
		resp.ConversationID = s.conn.ConversationID()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleState(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleAgents(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.AgentStates())
}

func (s *Server) handleDocuments(c echo.Context) error {
	return c.JSON(http.StatusOK, nonNil(s.store.Documents()))
}

func (s *Server) handleConversations(c echo.Context) error {
	return c.JSON(http.StatusOK, nonNil(s.store.Conversations()))
}

func (s *Server) handleMessages(c echo.Context) error {
	id := c.Param("id")
	msgs := s.store.Messages(id)
	if len(msgs) == 0 && !s.knownConversation(id) {
		return jsonError(c, http.StatusNotFound, "conversation not found")
	}
	return c.JSON(http.StatusOK, nonNil(msgs))
}

func (s *Server) handleCitations(c echo.Context) error {
	id := c.Param("id")
	cits := s.store.Citations(id)
	if len(cits) == 0 && !s.knownConversation(id) {
		return jsonError(c, http.StatusNotFound, "conversation not found")
	}
	return c.JSON(http.StatusOK, nonNil(cits))
}

func (s *Server) knownConversation(id string) bool {
	for _, conv := range s.store.Conversations() {
		if conv.ID == id {
			return true
		}
	}
	return false
}

// ConnectResponse is returned by POST /api/connect/:id.
type ConnectResponse struct {
	ConversationID string `json:"conversation_id"`
	State          string `json:"state"`
}

func (s *Server) handleConnect(c echo.Context) error {
	if s.conn == nil {
		return jsonError(c, http.StatusServiceUnavailable, "realtime is not available")
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return jsonError(c, http.StatusBadRequest, "conversation id is required")
	}

	s.store.SetActiveConversation(id)
	s.conn.Connect(s.context(), id, s.handler)
	s.log.WithFields(logrus.Fields{
		"conversation_id": id,
		"request_id":      c.Response().Header().Get(echo.HeaderXRequestID),
	}).Info("realtime connect requested")

	return c.JSON(http.StatusAccepted, ConnectResponse{
		ConversationID: id,
		State:          s.conn.State().String(),
	})
}

func (s *Server) handleDisconnect(c echo.Context) error {
	if s.conn == nil {
		return jsonError(c, http.StatusServiceUnavailable, "realtime is not available")
	}
	s.conn.Disconnect()
	return c.NoContent(http.StatusNoContent)
}

// SendRequest is the body of POST /api/send.
type SendRequest struct {
	Content string `json:"content"`
}

// SendResponse identifies the optimistic messages created by a send.
type SendResponse struct {
	ConversationID string `json:"conversation_id"`
	UserMessageID  string `json:"user_message_id"`
	PlaceholderID  string `json:"placeholder_id"`
}

func (s *Server) handleSend(c echo.Context) error {
	if s.submit == nil {
		return jsonError(c, http.StatusServiceUnavailable, "sending is not available")
	}
	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}

	turn, err := s.submit.Submit(s.context(), req.Content)
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		return jsonError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrBusy):
		return jsonError(c, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrClosed):
		return jsonError(c, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		return jsonError(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusAccepted, SendResponse{
		ConversationID: turn.ConversationID,
		UserMessageID:  turn.UserMessageID,
		PlaceholderID:  turn.PlaceholderID,
	})
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
