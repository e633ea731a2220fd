package coordinator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teleolink/coordinator/pkg/logger"
	"github.com/teleolink/coordinator/pkg/models"
)

func TestProbeOnlyPairedConnections(t *testing.T) {
	c, _ := newTestCoordinator(t)
	p := NewProber(c, 5*time.Second, logger.NewTestLogger())

	_, rt := registerPeer(t, c, models.ClientTypeRobot)
	_, st := registerPeer(t, c, models.ClientTypeSpectacles)
	_, extraRT := registerPeer(t, c, models.ClientTypeRobot)

	framesBefore := extraRT.frameCount()

	p.tick()

	// Both paired sides get a ping carrying the probe timestamp.
	want := c.nowMs()

	robotPing := rt.lastFrame()
	require.Equal(t, "ping", robotPing["type"])
	assert.InDelta(t, want, robotPing["timestamp"].(float64), 0.001)

	spectaclesPing := st.lastFrame()
	assert.Equal(t, "ping", spectaclesPing["type"])

	// The unpaired robot is not probed.
	assert.Equal(t, framesBefore, extraRT.frameCount())
}

func TestProbeSkipsClosedTransports(t *testing.T) {
	c, _ := newTestCoordinator(t)
	p := NewProber(c, 5*time.Second, logger.NewTestLogger())

	_, rt := registerPeer(t, c, models.ClientTypeRobot)
	_, st := registerPeer(t, c, models.ClientTypeSpectacles)

	rt.Close()
	framesBefore := rt.frameCount()

	p.tick()

	assert.Equal(t, framesBefore, rt.frameCount(), "closed transport must not be probed")
	assert.Equal(t, "ping", st.lastFrame()["type"])
}

func TestProbeStampsLastPingSentAt(t *testing.T) {
	c, _ := newTestCoordinator(t)
	p := NewProber(c, 5*time.Second, logger.NewTestLogger())

	r1, _ := registerPeer(t, c, models.ClientTypeRobot)
	registerPeer(t, c, models.ClientTypeSpectacles)

	p.tick()

	c.registry.mu.Lock()
	stamped := r1.lastPingSentAt
	c.registry.mu.Unlock()

	assert.InDelta(t, c.nowMs(), stamped, 0.001)
}

func TestFailedProbeDoesNotStampLastPingSentAt(t *testing.T) {
	c, _ := newTestCoordinator(t)
	p := NewProber(c, 5*time.Second, logger.NewTestLogger())

	r1, rt := registerPeer(t, c, models.ClientTypeRobot)
	registerPeer(t, c, models.ClientTypeSpectacles)

	rt.failWrites = true

	p.tick()

	c.registry.mu.Lock()
	stamped := r1.lastPingSentAt
	c.registry.mu.Unlock()

	assert.Zero(t, stamped, "a ping that never went out must not look outstanding")
}

func TestProbePongRoundTrip(t *testing.T) {
	c, clk := newTestCoordinator(t)
	p := NewProber(c, 5*time.Second, logger.NewTestLogger())

	r1, rt := registerPeer(t, c, models.ClientTypeRobot)
	registerPeer(t, c, models.ClientTypeSpectacles)

	p.tick()

	ping := rt.lastFrame()
	require.Equal(t, "ping", ping["type"])
	sentAt := ping["timestamp"].(float64)

	// The pong arrives 250ms later, echoing the probe timestamp.
	clk.Add(250 * time.Millisecond)

	pong := fmt.Sprintf(`{"type":"pong","ping_timestamp":%f}`, sentAt)
	c.DispatchText(r1, []byte(pong))

	samples := c.registry.LatencySamples(r1)
	require.Len(t, samples, 1)
	assert.InDelta(t, 250, samples[0], 0.001)

	detail, err := c.Connection(r1.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.AvgLatencyMs)
	assert.InDelta(t, 250, *detail.AvgLatencyMs, 0.001)
}

func TestProberRunStopsOnCancel(t *testing.T) {
	c, _ := newTestCoordinator(t)
	p := NewProber(c, time.Second, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("prober did not stop on context cancellation")
	}
}

func TestProberDefaultInterval(t *testing.T) {
	c, _ := newTestCoordinator(t)

	p := NewProber(c, 0, logger.NewTestLogger())
	assert.Equal(t, DefaultProbeInterval, p.interval)
}
