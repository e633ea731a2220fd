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

// Default capacities for the per-connection history windows.
const (
	DefaultLatencyWindowSize = 50
	DefaultMessageLogSize    = 100
)

// LatencyWindow is a bounded FIFO of round-trip measurements in
// milliseconds. Not safe for concurrent use; callers serialize access.
type LatencyWindow struct {
	samples  []float64
	capacity int
}

func NewLatencyWindow(capacity int) *LatencyWindow {
	if capacity <= 0 {
		capacity = DefaultLatencyWindowSize
	}

	return &LatencyWindow{capacity: capacity}
}

// Add appends a sample, evicting the oldest once the window is full.
func (w *LatencyWindow) Add(ms float64) {
	if len(w.samples) >= w.capacity {
		w.samples = w.samples[1:]
	}

	w.samples = append(w.samples, ms)
}

// Average returns the arithmetic mean over the current window. The second
// return is false when no samples exist, so observers can distinguish
// "no data" from a genuine zero.
func (w *LatencyWindow) Average() (float64, bool) {
	if len(w.samples) == 0 {
		return 0, false
	}

	var sum float64
	for _, s := range w.samples {
		sum += s
	}

	return sum / float64(len(w.samples)), true
}

func (w *LatencyWindow) Len() int {
	return len(w.samples)
}

// Samples returns a copy of the window, oldest first.
func (w *LatencyWindow) Samples() []float64 {
	out := make([]float64, len(w.samples))
	copy(out, w.samples)

	return out
}

// MessageDirection marks whether a logged payload was inbound or outbound.
type MessageDirection string

const (
	DirectionIn  MessageDirection = "in"
	DirectionOut MessageDirection = "out"
)

// PayloadKind distinguishes structured from opaque payloads in the log.
type PayloadKind string

const (
	PayloadJSON   PayloadKind = "json"
	PayloadBinary PayloadKind = "bytes"
)

// MessageRecord is one entry in a connection's recent message log.
type MessageRecord struct {
	Timestamp time.Time        `json:"timestamp"`
	Direction MessageDirection `json:"direction"`
	Kind      PayloadKind      `json:"kind"`
	Content   interface{}      `json:"content"`
}

// MessageLog is a bounded FIFO of the most recent payload records for one
// connection, kept for dashboard inspection only. Not safe for concurrent
// use; callers serialize access.
type MessageLog struct {
	records  []MessageRecord
	capacity int
}

func NewMessageLog(capacity int) *MessageLog {
	if capacity <= 0 {
		capacity = DefaultMessageLogSize
	}

	return &MessageLog{capacity: capacity}
}

// Append records a payload, evicting the oldest entry past capacity.
func (l *MessageLog) Append(rec MessageRecord) {
	if len(l.records) >= l.capacity {
		l.records = l.records[1:]
	}

	l.records = append(l.records, rec)
}

func (l *MessageLog) Len() int {
	return len(l.records)
}

// Snapshot returns a copy of the log, oldest first.
func (l *MessageLog) Snapshot() []MessageRecord {
	out := make([]MessageRecord, len(l.records))
	copy(out, l.records)

	return out
}
