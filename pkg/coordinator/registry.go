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
	"time"

	"github.com/google/uuid"
	"github.com/teleolink/coordinator/pkg/logger"
	"github.com/teleolink/coordinator/pkg/models"
)

// Session is one live peer connection. The exported fields are fixed at
// registration; everything else is guarded by the owning Registry's mutex
// and only touched through Registry operations.
type Session struct {
	ID          string
	Kind        models.ClientType
	RemoteAddr  string
	ConnectedAt time.Time

	transport Transport

	peer             *Session
	removed          bool
	messagesReceived uint64
	messagesSent     uint64
	lastPingSentAt   float64
	latency          *models.LatencyWindow
	msgLog           *models.MessageLog
}

// Transport returns the write side of the connection. Transports are
// internally synchronized, so callers may write without holding any
// registry lock.
func (s *Session) Transport() Transport {
	return s.transport
}

// Registry owns every live session plus the two unpaired pools. All state
// lives behind one mutex: registration, pairing, unpairing, and removal
// race from per-connection goroutines, the prober, and the admin API, and
// none of them may ever observe a half-paired state.
//
// Pools are kept in insertion order so opportunistic pairing picks the
// oldest waiting peer first.
type Registry struct {
	mu                 sync.Mutex
	sessions           map[string]*Session
	unpairedRobots     []string
	unpairedSpectacles []string
	log                logger.Logger
}

func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		log:      log,
	}
}

// Register creates a session with a fresh id and adds it to the unpaired
// pool for its kind.
func (r *Registry) Register(t Transport, kind models.ClientType, remoteAddr string) *Session {
	s := &Session{
		ID:          uuid.NewString(),
		Kind:        kind,
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
		transport:   t,
		latency:     models.NewLatencyWindow(models.DefaultLatencyWindowSize),
		msgLog:      models.NewMessageLog(models.DefaultMessageLogSize),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.poolAddLocked(s)
	r.mu.Unlock()

	r.log.Info().
		Str("client_id", s.ID).
		Str("client_type", string(kind)).
		Str("remote_addr", remoteAddr).
		Msg("Registered new connection")

	return s
}

// Get looks up a session by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]

	return s, ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

// Remove deletes the session from the registry and its unpaired pool. If
// it was paired, the pairing is cleared and only the surviving peer goes
// back to its pool; the removed id must never re-enter a pool. The session
// and its former peer are returned so the caller can notify them outside
// the lock. Removal is idempotent: a second call for the same id reports
// false.
func (r *Registry) Remove(id string) (s, peer *Session, removed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.removed {
		return nil, nil, false
	}

	r.poolRemoveLocked(s)

	if s.peer != nil {
		peer = s.peer
		s.peer = nil
		peer.peer = nil
		r.poolAddLocked(peer)
	}

	s.removed = true
	delete(r.sessions, id)

	return s, peer, true
}

// poolAddLocked appends the session id to the pool for its kind.
func (r *Registry) poolAddLocked(s *Session) {
	if s.Kind == models.ClientTypeRobot {
		r.unpairedRobots = append(r.unpairedRobots, s.ID)
	} else {
		r.unpairedSpectacles = append(r.unpairedSpectacles, s.ID)
	}
}

// poolRemoveLocked drops the session id from its pool, if present.
func (r *Registry) poolRemoveLocked(s *Session) {
	pool := &r.unpairedRobots
	if s.Kind == models.ClientTypeSpectacles {
		pool = &r.unpairedSpectacles
	}

	for i, id := range *pool {
		if id == s.ID {
			*pool = append((*pool)[:i], (*pool)[i+1:]...)
			return
		}
	}
}

// pairLocked forms the symmetric pairing and removes both sessions from
// their pools. Callers must hold r.mu and have verified both are unpaired.
func (r *Registry) pairLocked(a, b *Session) {
	r.poolRemoveLocked(a)
	r.poolRemoveLocked(b)
	a.peer = b
	b.peer = a
}

// unpairLocked clears the symmetric pairing and returns both sessions to
// their pools. Callers must hold r.mu.
func (r *Registry) unpairLocked(a, b *Session) {
	a.peer = nil
	b.peer = nil
	r.poolAddLocked(a)
	r.poolAddLocked(b)
}

// UnpairedIDs returns the current unpaired pool for a kind, oldest first.
func (r *Registry) UnpairedIDs(kind models.ClientType) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	pool := r.unpairedRobots
	if kind == models.ClientTypeSpectacles {
		pool = r.unpairedSpectacles
	}

	out := make([]string, len(pool))
	copy(out, pool)

	return out
}

// RecordInbound counts a received payload and appends it to the session's
// message log.
func (r *Registry) RecordInbound(s *Session, kind models.PayloadKind, content interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.messagesReceived++
	s.msgLog.Append(models.MessageRecord{
		Timestamp: time.Now(),
		Direction: models.DirectionIn,
		Kind:      kind,
		Content:   content,
	})
}

// RecordOutbound counts a payload about to be forwarded to s and appends
// it to s's message log. Recorded before the send: the relay is
// best-effort and a failed send still consumed the slot.
func (r *Registry) RecordOutbound(s *Session, kind models.PayloadKind, content interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.messagesSent++
	s.msgLog.Append(models.MessageRecord{
		Timestamp: time.Now(),
		Direction: models.DirectionOut,
		Kind:      kind,
		Content:   content,
	})
}

// RelayTarget returns the writable paired peer of s, if any.
func (r *Registry) RelayTarget(s *Session) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	peer := s.peer
	if peer == nil || peer.removed || peer.transport.Closed() {
		return nil, false
	}

	return peer, true
}

// AddLatencySample appends a round-trip measurement to the session's
// bounded window.
func (r *Registry) AddLatencySample(s *Session, ms float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.latency.Add(ms)
}

// LatencySamples returns a copy of the session's latency window.
func (r *Registry) LatencySamples(s *Session) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return s.latency.Samples()
}

// ProbeTargets returns every paired session with a writable transport.
func (r *Registry) ProbeTargets() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	var targets []*Session

	for _, s := range r.sessions {
		if s.peer != nil && !s.transport.Closed() {
			targets = append(targets, s)
		}
	}

	return targets
}

// MarkProbeSent stamps the probe timestamp on s, in milliseconds since
// epoch. Called only after the ping was written, so a failed send never
// looks like an outstanding probe.
func (r *Registry) MarkProbeSent(s *Session, nowMs float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.lastPingSentAt = nowMs
}

// summaryLocked builds the admin view of one session. Callers hold r.mu.
func summaryLocked(s *Session) models.ConnectionSummary {
	summary := models.ConnectionSummary{
		ID:               s.ID,
		Type:             s.Kind,
		RemoteAddr:       s.RemoteAddr,
		ConnectedAt:      s.ConnectedAt,
		IsPaired:         s.peer != nil,
		MessagesReceived: s.messagesReceived,
		MessagesSent:     s.messagesSent,
	}

	if s.peer != nil {
		summary.PairedWith = &models.PeerInfo{ID: s.peer.ID, Type: string(s.peer.Kind)}
	}

	if avg, ok := s.latency.Average(); ok {
		summary.AvgLatencyMs = &avg
	}

	return summary
}

// Summaries returns a point-in-time copy of every session's admin view.
func (r *Registry) Summaries() []models.ConnectionSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.ConnectionSummary, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, summaryLocked(s))
	}

	return out
}

// Detail returns the full admin view of one session, including its recent
// message log and, when unpaired, the opposite-kind candidates eligible
// for forced pairing.
func (r *Registry) Detail(id string) (*models.ConnectionDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	detail := &models.ConnectionDetail{
		ConnectionSummary: summaryLocked(s),
		MessageLog:        s.msgLog.Snapshot(),
	}

	if s.peer == nil {
		for _, other := range r.sessions {
			if other.ID != s.ID && other.peer == nil && other.Kind != s.Kind {
				detail.AvailableClients = append(detail.AvailableClients, summaryLocked(other))
			}
		}
	}

	return detail, nil
}
