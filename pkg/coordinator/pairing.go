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
	"fmt"
)

// TryOpportunisticPair matches the oldest unpaired robot with the oldest
// unpaired spectacles, when both pools are non-empty. The pairing is
// committed in one critical section; no observer can see one side paired
// and the other not. Returns the robot and spectacles sessions.
func (r *Registry) TryOpportunisticPair() (robot, spectacles *Session, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.unpairedRobots) == 0 || len(r.unpairedSpectacles) == 0 {
		return nil, nil, false
	}

	robot = r.sessions[r.unpairedRobots[0]]
	spectacles = r.sessions[r.unpairedSpectacles[0]]

	r.pairLocked(robot, spectacles)

	r.log.Info().
		Str("robot_id", robot.ID).
		Str("spectacles_id", spectacles.ID).
		Msg("Paired robot with spectacles")

	return robot, spectacles, true
}

// ForcePair pairs two specific connections on behalf of an administrator.
// Both must exist and both must be unpaired; on failure no state changes.
func (r *Registry) ForcePair(idA, idB string) (a, b *Session, err error) {
	if idA == idB {
		return nil, nil, ErrSelfPair
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, okA := r.sessions[idA]
	if !okA {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, idA)
	}

	b, okB := r.sessions[idB]
	if !okB {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, idB)
	}

	if a.peer != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrAlreadyPaired, idA)
	}

	if b.peer != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrAlreadyPaired, idB)
	}

	r.pairLocked(a, b)

	r.log.Info().
		Str("client_id", idA).
		Str("pair_with", idB).
		Msg("Manually paired connections")

	return a, b, nil
}

// UnpairSession dissolves the session's pairing and returns both peers to
// their pools. Reports false when the session is unpaired, which callers
// treat as a no-op.
func (r *Registry) UnpairSession(s *Session) (peer *Session, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.removed || s.peer == nil {
		return nil, false
	}

	peer = s.peer
	r.unpairLocked(s, peer)

	r.log.Info().
		Str("client_id", s.ID).
		Str("peer_id", peer.ID).
		Msg("Unpaired connections")

	return peer, true
}
