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

// Package models defines the data model shared by the coordinator core and
// the admin API: client kinds, wire messages, and bounded per-connection
// history windows.
package models

import (
	"errors"
	"fmt"
)

// ClientType identifies which side of a teleoperation session a peer is.
// It is declared by the client in its first frame and immutable afterwards.
type ClientType string

const (
	ClientTypeRobot      ClientType = "robot"
	ClientTypeSpectacles ClientType = "spectacles"
)

var ErrInvalidClientType = errors.New("invalid client type")

// ParseClientType validates the identification string sent by a client.
func ParseClientType(s string) (ClientType, error) {
	switch ClientType(s) {
	case ClientTypeRobot:
		return ClientTypeRobot, nil
	case ClientTypeSpectacles:
		return ClientTypeSpectacles, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidClientType, s)
	}
}

// Opposite returns the kind a peer of this type pairs with.
func (c ClientType) Opposite() ClientType {
	if c == ClientTypeRobot {
		return ClientTypeSpectacles
	}

	return ClientTypeRobot
}

func (c ClientType) String() string {
	return string(c)
}
