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

// Package coordinator brokers real-time sessions between robot and
// spectacles peers: it registers connections, pairs them opportunistically
// or on demand, relays payloads between paired peers, and measures
// per-connection latency.
package coordinator

import (
	"fmt"
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/teleolink/coordinator/pkg/logger"
	"github.com/teleolink/coordinator/pkg/metrics"
	"github.com/teleolink/coordinator/pkg/models"
)

// Coordinator drives session lifecycles on top of the Registry and pushes
// status notifications to peers. Notifications are always sent after the
// state mutation has committed, and never while holding the registry lock:
// a slow peer transport must not stall every other connection.
type Coordinator struct {
	registry *Registry
	metrics  *metrics.Metrics
	clock    clock.Clock
	log      logger.Logger
	cors     models.CORSConfig
	upgrader websocket.Upgrader
}

type Option func(*Coordinator)

// WithClock replaces the wall clock; tests use a mock to drive probe
// timing deterministically.
func WithClock(clk clock.Clock) Option {
	return func(c *Coordinator) {
		c.clock = clk
	}
}

// WithCORS sets the origins accepted by the WebSocket upgrade check.
func WithCORS(cors models.CORSConfig) Option {
	return func(c *Coordinator) {
		c.cors = cors
	}
}

func New(log logger.Logger, m *metrics.Metrics, opts ...Option) *Coordinator {
	c := &Coordinator{
		metrics: m,
		clock:   clock.New(),
		log:     log,
	}

	for _, o := range opts {
		o(c)
	}

	c.registry = NewRegistry(log)
	c.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     c.checkOrigin,
	}

	return c
}

// nowMs is the current time in milliseconds since the Unix epoch, with
// fractional precision, matching the wire protocol's timestamp unit.
func (c *Coordinator) nowMs() float64 {
	return float64(c.clock.Now().UnixNano()) / 1e6
}

func (c *Coordinator) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(c.cors.AllowedOrigins) == 0 {
		return true
	}

	for _, allowed := range c.cors.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// Register creates a session for an identified transport, tells the client
// it is waiting, and attempts an opportunistic pairing.
func (c *Coordinator) Register(t Transport, kind models.ClientType, remoteAddr string) *Session {
	s := c.registry.Register(t, kind, remoteAddr)
	c.metrics.ActiveConnections.WithLabelValues(string(kind)).Inc()

	c.notifyWaiting(s, fmt.Sprintf("Connected as %s. Waiting for a peer to connect...", kind))
	c.tryPair()

	return s
}

// Disconnect unwinds a session whose transport has closed. Idempotent: a
// disconnect racing an explicit unpair or admin close acts once. If the
// session was paired, the peer returns to waiting and is notified.
func (c *Coordinator) Disconnect(s *Session) {
	_, peer, removed := c.registry.Remove(s.ID)
	if !removed {
		return
	}

	c.metrics.ActiveConnections.WithLabelValues(string(s.Kind)).Dec()

	if peer != nil {
		c.metrics.PairedSessions.Dec()
		c.metrics.Unpairings.Inc()
		c.notifyWaiting(peer, "The paired client has disconnected")
	}

	_ = s.transport.Close()

	c.log.Info().
		Str("client_id", s.ID).
		Msg("Removed client")
}

// ForcePair pairs two specific connections on behalf of an administrator.
func (c *Coordinator) ForcePair(idA, idB string) error {
	a, b, err := c.registry.ForcePair(idA, idB)
	if err != nil {
		return err
	}

	c.metrics.Pairings.Inc()
	c.metrics.PairedSessions.Inc()

	c.notifyPaired(a, b)
	c.notifyPaired(b, a)

	return nil
}

// CloseConnection administratively closes a connection: the peer (if any)
// returns to waiting, the target is told it was closed, and its transport
// is shut down. The target's own read loop then finishes the teardown.
func (c *Coordinator) CloseConnection(id string) error {
	s, peer, removed := c.registry.Remove(id)
	if !removed {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	c.metrics.ActiveConnections.WithLabelValues(string(s.Kind)).Dec()

	if peer != nil {
		c.metrics.PairedSessions.Dec()
		c.metrics.Unpairings.Inc()
		c.notifyWaiting(peer, "The paired client was closed by the server")
	}

	c.notifyDisconnected(s, "Connection closed by server")
	_ = s.transport.CloseWithStatus(websocket.CloseNormalClosure, "closed by server")

	c.log.Info().
		Str("client_id", id).
		Msg("Connection closed by administrator")

	return nil
}

// Connections returns a point-in-time admin view of all sessions.
func (c *Coordinator) Connections() []models.ConnectionSummary {
	return c.registry.Summaries()
}

// Connection returns the full admin view of one session.
func (c *Coordinator) Connection(id string) (*models.ConnectionDetail, error) {
	return c.registry.Detail(id)
}

// tryPair forms one opportunistic pairing when both pools are non-empty
// and notifies both sides.
func (c *Coordinator) tryPair() {
	robot, spectacles, ok := c.registry.TryOpportunisticPair()
	if !ok {
		return
	}

	c.metrics.Pairings.Inc()
	c.metrics.PairedSessions.Inc()

	c.notifyPaired(robot, spectacles)
	c.notifyPaired(spectacles, robot)
}

func (c *Coordinator) notifyPaired(s, peer *Session) {
	update := models.StatusUpdate{
		Type:    models.MessageTypeStatusUpdate,
		Status:  models.StatusPaired,
		Message: fmt.Sprintf("You are now paired with a %s client", peer.Kind),
		PairedWith: &models.PeerInfo{
			ID:   peer.ID,
			Type: string(peer.Kind),
		},
	}

	if err := s.transport.WriteJSON(update); err != nil {
		c.log.Error().
			Err(err).
			Str("client_id", s.ID).
			Msg("Error sending pairing notification")
	}
}

func (c *Coordinator) notifyWaiting(s *Session, reason string) {
	update := models.StatusUpdate{
		Type:     models.MessageTypeStatusUpdate,
		Status:   models.StatusWaiting,
		Message:  reason,
		ClientID: s.ID,
	}

	if err := s.transport.WriteJSON(update); err != nil {
		c.log.Error().
			Err(err).
			Str("client_id", s.ID).
			Msg("Error sending waiting notification")
	}
}

func (c *Coordinator) notifyDisconnected(s *Session, reason string) {
	update := models.StatusUpdate{
		Type:    models.MessageTypeStatusUpdate,
		Status:  models.StatusDisconnected,
		Message: reason,
	}

	if err := s.transport.WriteJSON(update); err != nil {
		c.log.Error().
			Err(err).
			Str("client_id", s.ID).
			Msg("Error sending disconnect notification")
	}
}
