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

import "time"

// ConnectionSummary is the point-in-time admin view of one connection.
// AvgLatencyMs is nil when no latency samples exist yet.
type ConnectionSummary struct {
	ID               string     `json:"id"`
	Type             ClientType `json:"type"`
	RemoteAddr       string     `json:"remote_addr"`
	ConnectedAt      time.Time  `json:"connected_at"`
	IsPaired         bool       `json:"is_paired"`
	PairedWith       *PeerInfo  `json:"paired_with,omitempty"`
	MessagesReceived uint64     `json:"messages_received"`
	MessagesSent     uint64     `json:"messages_sent"`
	AvgLatencyMs     *float64   `json:"avg_latency_ms"`
}

// ConnectionDetail extends the summary with the recent message log and,
// for unpaired connections, the opposite-kind candidates eligible for a
// forced pairing.
type ConnectionDetail struct {
	ConnectionSummary
	MessageLog       []MessageRecord     `json:"message_log"`
	AvailableClients []ConnectionSummary `json:"available_clients,omitempty"`
}

// ErrorResponse is the JSON body for admin API errors.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}
