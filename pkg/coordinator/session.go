/*
 * Copyright 2025 Teleolink Robotics.
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

package coordinator

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/teleolink/coordinator/pkg/models"
)

// ServeWS upgrades an HTTP request to a WebSocket session and runs the
// connection's lifecycle until the transport closes.
func (c *Coordinator) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.log.Error().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("Failed to upgrade to WebSocket")

		return
	}

	c.handleConnection(conn, r.RemoteAddr)
}

// handleConnection sequences one connection: identification, registration,
// frame dispatch, teardown. The first frame must declare the client kind;
// anything else closes the transport with no session created.
func (c *Coordinator) handleConnection(conn *websocket.Conn, remoteAddr string) {
	t := NewWebSocketTransport(conn)

	messageType, data, err := conn.ReadMessage()
	if err != nil {
		c.log.Debug().
			Err(err).
			Str("remote_addr", remoteAddr).
			Msg("Connection closed before identification")
		_ = t.Close()

		return
	}

	kind, err := identify(messageType, data)
	if err != nil {
		c.metrics.ProtocolViolations.Inc()
		c.log.Warn().
			Err(err).
			Str("remote_addr", remoteAddr).
			Msg("Client sent invalid identification")
		_ = t.CloseWithStatus(websocket.ClosePolicyViolation, "Invalid client type")

		return
	}

	s := c.Register(t, kind, remoteAddr)

	c.log.Info().
		Str("client_type", string(kind)).
		Str("remote_addr", remoteAddr).
		Str("client_id", s.ID).
		Msg("New connection identified")

	defer c.Disconnect(s)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Error().
					Err(err).
					Str("client_id", s.ID).
					Msg("WebSocket connection closed with error")
			}

			return
		}

		switch messageType {
		case websocket.TextMessage:
			c.DispatchText(s, data)
		case websocket.BinaryMessage:
			c.DispatchBinary(s, data)
		}
	}
}

// identify parses the mandatory first frame, {"type":"robot"|"spectacles"}.
func identify(messageType int, data []byte) (models.ClientType, error) {
	if messageType != websocket.TextMessage {
		return "", fmt.Errorf("%w: identification must be a text frame", models.ErrInvalidClientType)
	}

	var ident struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(data, &ident); err != nil {
		return "", fmt.Errorf("malformed identification frame: %w", err)
	}

	return models.ParseClientType(ident.Type)
}
