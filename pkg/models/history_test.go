package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencyWindowEvictsOldestFirst(t *testing.T) {
	w := NewLatencyWindow(50)

	for i := 1; i <= 51; i++ {
		w.Add(float64(i))
	}

	samples := w.Samples()
	require.Len(t, samples, 50)
	assert.Equal(t, float64(2), samples[0], "oldest sample should have been evicted")
	assert.Equal(t, float64(51), samples[49])
}

func TestLatencyWindowAverage(t *testing.T) {
	w := NewLatencyWindow(50)

	_, ok := w.Average()
	assert.False(t, ok, "empty window must report no data, not zero")

	w.Add(10)
	w.Add(20)
	w.Add(30)

	avg, ok := w.Average()
	require.True(t, ok)
	assert.InDelta(t, 20.0, avg, 0.0001)
}

func TestLatencyWindowSamplesIsACopy(t *testing.T) {
	w := NewLatencyWindow(10)
	w.Add(1)

	samples := w.Samples()
	samples[0] = 99

	got := w.Samples()
	assert.Equal(t, float64(1), got[0])
}

func TestMessageLogCapacity(t *testing.T) {
	l := NewMessageLog(100)

	for i := 0; i < 150; i++ {
		l.Append(MessageRecord{
			Timestamp: time.Now(),
			Direction: DirectionIn,
			Kind:      PayloadJSON,
			Content:   i,
		})
	}

	records := l.Snapshot()
	require.Len(t, records, 100)
	assert.Equal(t, 50, records[0].Content, "oldest entries evicted first")
	assert.Equal(t, 149, records[99].Content)
}

func TestParseClientType(t *testing.T) {
	kind, err := ParseClientType("robot")
	require.NoError(t, err)
	assert.Equal(t, ClientTypeRobot, kind)

	kind, err = ParseClientType("spectacles")
	require.NoError(t, err)
	assert.Equal(t, ClientTypeSpectacles, kind)

	_, err = ParseClientType("drone")
	assert.ErrorIs(t, err, ErrInvalidClientType)

	_, err = ParseClientType("")
	assert.ErrorIs(t, err, ErrInvalidClientType)
}

func TestClientTypeOpposite(t *testing.T) {
	assert.Equal(t, ClientTypeSpectacles, ClientTypeRobot.Opposite())
	assert.Equal(t, ClientTypeRobot, ClientTypeSpectacles.Opposite())
}
