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
	"context"
	"time"

	"github.com/teleolink/coordinator/pkg/logger"
	"github.com/teleolink/coordinator/pkg/models"
)

// DefaultProbeInterval matches the reference probe period.
const DefaultProbeInterval = 5 * time.Second

// Prober periodically pings every paired connection to measure round-trip
// latency. Probes whose pong never arrives simply age out; liveness is the
// transport keep-alive's job, not ours.
type Prober struct {
	coordinator *Coordinator
	interval    time.Duration
	log         logger.Logger
}

func NewProber(c *Coordinator, interval time.Duration, log logger.Logger) *Prober {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}

	return &Prober{
		coordinator: c,
		interval:    interval,
		log:         log,
	}
}

// Run probes on a fixed period until ctx is cancelled.
func (p *Prober) Run(ctx context.Context) {
	ticker := p.coordinator.clock.Ticker(p.interval)
	defer ticker.Stop()

	p.log.Info().
		Dur("interval", p.interval).
		Msg("Latency prober started")

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("Latency prober stopped")
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick sends one probe to every paired, writable connection. The sends
// happen outside the registry lock; each successful send stamps the
// session's probe timestamp.
func (p *Prober) tick() {
	now := p.coordinator.nowMs()
	targets := p.coordinator.registry.ProbeTargets()

	for _, s := range targets {
		ping := models.PingMessage{
			Type:      models.MessageTypePing,
			Timestamp: now,
		}

		if err := s.Transport().WriteJSON(ping); err != nil {
			p.log.Error().
				Err(err).
				Str("client_id", s.ID).
				Msg("Error sending ping to client")

			continue
		}

		p.coordinator.registry.MarkProbeSent(s, now)
		p.coordinator.metrics.ProbesSent.Inc()
	}
}
