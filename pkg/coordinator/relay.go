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

	"github.com/teleolink/coordinator/pkg/models"
)

// DispatchText handles one inbound text frame from s. Pong and unpair
// frames are consumed here and never forwarded; everything else is relayed
// to the paired peer with provenance fields merged in. Relay is
// best-effort: an unpaired sender or an unwritable peer drops the payload
// silently.
func (c *Coordinator) DispatchText(s *Session, data []byte) {
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		c.metrics.MalformedPayloads.Inc()
		c.log.Warn().
			Str("client_id", s.ID).
			Msg("Received non-JSON message")

		return
	}

	c.registry.RecordInbound(s, models.PayloadJSON, payload)

	msgType, _ := payload["type"].(string)

	switch msgType {
	case models.MessageTypePong:
		c.handlePong(s, payload)
	case models.MessageTypeUnpair:
		c.handleUnpairRequest(s)
	default:
		c.relayText(s, payload)
	}
}

// DispatchBinary handles one inbound binary frame from s. Binary payloads
// carry no lifecycle semantics; they pass through to the peer byte for
// byte with no added metadata.
func (c *Coordinator) DispatchBinary(s *Session, data []byte) {
	c.registry.RecordInbound(s, models.PayloadBinary, data)

	peer, ok := c.registry.RelayTarget(s)
	if !ok {
		c.metrics.MessagesDropped.Inc()
		return
	}

	c.registry.RecordOutbound(peer, models.PayloadBinary, data)

	if err := peer.transport.WriteBinary(data); err != nil {
		c.log.Error().
			Err(err).
			Str("client_id", s.ID).
			Str("peer_id", peer.ID).
			Msg("Error relaying binary message")

		return
	}

	c.metrics.MessagesRelayed.WithLabelValues(string(models.PayloadBinary)).Inc()
}

func (c *Coordinator) relayText(s *Session, payload map[string]interface{}) {
	peer, ok := c.registry.RelayTarget(s)
	if !ok {
		c.metrics.MessagesDropped.Inc()
		return
	}

	relayData := make(map[string]interface{}, len(payload)+2)
	for k, v := range payload {
		relayData[k] = v
	}

	relayData[models.FieldRelayed] = true
	relayData[models.FieldSourceClient] = s.ID

	c.registry.RecordOutbound(peer, models.PayloadJSON, relayData)

	if err := peer.transport.WriteJSON(relayData); err != nil {
		// Best-effort: the peer's own read loop detects the dead
		// transport and drives its teardown.
		c.log.Error().
			Err(err).
			Str("client_id", s.ID).
			Str("peer_id", peer.ID).
			Msg("Error relaying message")

		return
	}

	c.metrics.MessagesRelayed.WithLabelValues(string(models.PayloadJSON)).Inc()
}

// handlePong reconciles a probe acknowledgement into the sender's latency
// window. The pong echoes the probe's timestamp; round-trip time is the
// difference from now.
func (c *Coordinator) handlePong(s *Session, payload map[string]interface{}) {
	pingTs, _ := payload["ping_timestamp"].(float64)
	if pingTs <= 0 {
		return
	}

	rtt := c.nowMs() - pingTs
	c.registry.AddLatencySample(s, rtt)
	c.metrics.PongsReceived.Inc()
}

// handleUnpairRequest dissolves the sender's pairing on request. A request
// from an unpaired client is a no-op: nothing is sent back.
func (c *Coordinator) handleUnpairRequest(s *Session) {
	peer, ok := c.registry.UnpairSession(s)
	if !ok {
		return
	}

	c.metrics.PairedSessions.Dec()
	c.metrics.Unpairings.Inc()

	const reason = "Client requested to unpair"

	c.notifyWaiting(s, reason)
	c.notifyWaiting(peer, reason)
}
