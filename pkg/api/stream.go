/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	streamPingInterval = 30 * time.Second
	streamWriteTimeout = 10 * time.Second
	streamReadTimeout  = 60 * time.Second
)

// handleEventStream pushes every engine event to a websocket client until
// the client disconnects or the server shuts down.
func (s *APIServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("Failed to upgrade to WebSocket")

		return
	}
	defer func() { _ = conn.Close() }()

	events, unsubscribe := s.events.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.readClient(conn, cancel)

	s.logger.Info().Str("remote_addr", r.RemoteAddr).Msg("Event stream connected")

	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	for {
		var msg StreamMessage

		select {
		case <-ctx.Done():
			s.logger.Info().Str("remote_addr", r.RemoteAddr).Msg("Event stream disconnected")
			return
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(streamWriteTimeout))

			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
				return
			}

			continue
		case e, ok := <-events:
			if !ok {
				return
			}

			msg = StreamMessage{Type: "event", Kind: e.Kind(), Data: e, Timestamp: time.Now()}
		}

		if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
			return
		}

		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Failed to write to event stream")
			return
		}
	}
}

// readClient drains client frames so that close and pong frames are
// processed, and cancels the stream when the connection ends.
func (s *APIServer) readClient(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
	})

	for {
		if err := conn.SetReadDeadline(time.Now().Add(streamReadTimeout)); err != nil {
			return
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				s.logger.Debug().Err(err).Msg("Event stream read ended")
			}

			return
		}
	}
}
