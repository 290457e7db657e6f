// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the subset of *websocket.Conn the manager uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Dialer opens a realtime connection.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, header http.Header) (Conn, error)
}

// wsDialer wraps a gorilla dialer so it satisfies Dialer.
type wsDialer struct {
	d *websocket.Dialer
}

// NewDialer returns a Dialer backed by gorilla/websocket. A nil d uses a copy
// of websocket.DefaultDialer with the given handshake timeout.
func NewDialer(d *websocket.Dialer, handshakeTimeout time.Duration) Dialer {
	if d == nil {
		cp := *websocket.DefaultDialer
		if handshakeTimeout > 0 {
			cp.HandshakeTimeout = handshakeTimeout
		}
		d = &cp
	}
	return &wsDialer{d: d}
}

func (w *wsDialer) DialContext(ctx context.Context, urlStr string, header http.Header) (Conn, error) {
	conn, _, err := w.d.DialContext(ctx, urlStr, header)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
