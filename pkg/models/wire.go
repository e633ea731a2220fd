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

package models

// Frame type strings used on the wire. Clients speak one JSON object per
// WebSocket text frame; binary frames carry opaque application data.
const (
	MessageTypeStatusUpdate = "status_update"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
	MessageTypeUnpair       = "unpair"
)

// Connection statuses pushed to clients in status updates.
const (
	StatusWaiting      = "waiting"
	StatusPaired       = "paired"
	StatusDisconnected = "disconnected"
)

// Keys merged into relayed payloads to mark provenance.
const (
	FieldRelayed      = "relayed"
	FieldSourceClient = "source_client"
)

// PeerInfo describes the other side of a pairing in a status update.
type PeerInfo struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// StatusUpdate is the server → client lifecycle notification.
type StatusUpdate struct {
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	ClientID   string    `json:"client_id,omitempty"`
	PairedWith *PeerInfo `json:"paired_with,omitempty"`
}

// PingMessage is the server → client latency probe. Timestamp is
// milliseconds since the Unix epoch.
type PingMessage struct {
	Type      string  `json:"type"`
	Timestamp float64 `json:"timestamp"`
}
