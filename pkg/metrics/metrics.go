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

// Package metrics exposes prometheus instrumentation for the coordinator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "coordinator"

// Metrics holds the coordinator's prometheus collectors.
type Metrics struct {
	ActiveConnections  *prometheus.GaugeVec
	PairedSessions     prometheus.Gauge
	MessagesRelayed    *prometheus.CounterVec
	MessagesDropped    prometheus.Counter
	MalformedPayloads  prometheus.Counter
	ProtocolViolations prometheus.Counter
	Pairings           prometheus.Counter
	Unpairings         prometheus.Counter
	ProbesSent         prometheus.Counter
	PongsReceived      prometheus.Counter
}

// New registers the coordinator collectors with reg. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh
// prometheus.NewRegistry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ActiveConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Live connections by client type.",
		}, []string{"type"}),
		PairedSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "paired_sessions",
			Help:      "Currently paired robot/spectacles sessions.",
		}),
		MessagesRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_relayed_total",
			Help:      "Payloads forwarded between paired peers.",
		}, []string{"kind"}),
		MessagesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Payloads dropped because the sender was unpaired or the peer unwritable.",
		}),
		MalformedPayloads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_payloads_total",
			Help:      "Text frames that were not valid JSON.",
		}),
		ProtocolViolations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_violations_total",
			Help:      "Connections closed for failing identification.",
		}),
		Pairings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairings_total",
			Help:      "Pairs formed, opportunistic and forced.",
		}),
		Unpairings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unpairings_total",
			Help:      "Pairs dissolved by request, disconnect, or admin close.",
		}),
		ProbesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_sent_total",
			Help:      "Latency probe pings sent to paired connections.",
		}),
		PongsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pongs_received_total",
			Help:      "Latency probe acknowledgements received.",
		}),
	}
}
