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

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/teleolink/coordinator/pkg/logger"
)

var ErrInvalidDuration = errors.New("invalid duration")

// Duration is a wrapper around time.Duration for JSON unmarshaling. It
// accepts either a duration string ("5s") or a number of nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}

		*d = Duration(tmp)
	default:
		return ErrInvalidDuration
	}

	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// CORSConfig controls cross-origin access to the admin API and the
// WebSocket upgrade check.
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// CoordinatorConfig is the top-level service configuration, loaded from a
// JSON file with environment fallbacks.
type CoordinatorConfig struct {
	ListenAddr   string         `json:"listen_addr"`
	PingInterval Duration       `json:"ping_interval"`
	APIKey       string         `json:"api_key"`
	CORS         CORSConfig     `json:"cors"`
	Logging      *logger.Config `json:"logging,omitempty"`
}

const (
	defaultListenAddr   = ":8080"
	defaultPingInterval = 5 * time.Second
)

// Validate fills defaults for unset fields. Implements the config
// package's Validator so loading applies it automatically.
func (c *CoordinatorConfig) Validate() error {
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}

	if c.PingInterval <= 0 {
		c.PingInterval = Duration(defaultPingInterval)
	}

	return nil
}
