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
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const closeWriteTimeout = 5 * time.Second

// Transport is the write side of one peer connection. Implementations must
// be safe for concurrent use: the relay path and the latency prober write
// to the same peer from different goroutines.
type Transport interface {
	// WriteJSON sends v as one text frame.
	WriteJSON(v interface{}) error
	// WriteBinary sends data as one binary frame, byte for byte.
	WriteBinary(data []byte) error
	// CloseWithStatus sends a close frame carrying code and reason, then
	// closes the underlying connection.
	CloseWithStatus(code int, reason string) error
	// Close closes the underlying connection.
	Close() error
	// Closed reports whether the transport is no longer writable.
	Closed() bool
}

// wsTransport wraps a gorilla connection with a write mutex; gorilla
// permits only one concurrent writer.
type wsTransport struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  atomic.Bool
}

// NewWebSocketTransport wraps conn as a Transport.
func NewWebSocketTransport(conn *websocket.Conn) Transport {
	return &wsTransport{conn: conn}
}

func (t *wsTransport) WriteJSON(v interface{}) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.closed.Load() {
		return ErrTransportClosed
	}

	if err := t.conn.WriteJSON(v); err != nil {
		t.closed.Store(true)
		return err
	}

	return nil
}

func (t *wsTransport) WriteBinary(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.closed.Load() {
		return ErrTransportClosed
	}

	if err := t.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		t.closed.Store(true)
		return err
	}

	return nil
}

func (t *wsTransport) CloseWithStatus(code int, reason string) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if !t.closed.Swap(true) {
		deadline := time.Now().Add(closeWriteTimeout)
		msg := websocket.FormatCloseMessage(code, reason)
		_ = t.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	}

	return t.conn.Close()
}

func (t *wsTransport) Close() error {
	t.closed.Store(true)
	return t.conn.Close()
}

func (t *wsTransport) Closed() bool {
	return t.closed.Load()
}
