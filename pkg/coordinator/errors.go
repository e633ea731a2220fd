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

import "errors"

var (
	// ErrNotFound is returned when an operation references an unknown
	// connection id.
	ErrNotFound = errors.New("connection not found")

	// ErrAlreadyPaired is returned by forced pairing when either target
	// already has a peer.
	ErrAlreadyPaired = errors.New("connection already paired")

	// ErrSelfPair is returned by forced pairing when both ids name the
	// same connection.
	ErrSelfPair = errors.New("cannot pair a connection with itself")

	// ErrTransportClosed is returned by writes on a closed transport.
	ErrTransportClosed = errors.New("transport closed")
)
