package coordinator

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/teleolink/coordinator/pkg/logger"
	"github.com/teleolink/coordinator/pkg/metrics"
	"github.com/teleolink/coordinator/pkg/models"
)

// fakeTransport records everything written to it. JSON frames are stored
// as generic maps so assertions see exactly what would hit the wire.
type fakeTransport struct {
	mu         sync.Mutex
	frames     []map[string]interface{}
	binary     [][]byte
	closed     bool
	closeCode  int
	failWrites bool
}

func (f *fakeTransport) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || f.failWrites {
		return ErrTransportClosed
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}

	f.frames = append(f.frames, m)

	return nil
}

func (f *fakeTransport) WriteBinary(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || f.failWrites {
		return ErrTransportClosed
	}

	f.binary = append(f.binary, append([]byte(nil), data...))

	return nil
}

func (f *fakeTransport) CloseWithStatus(code int, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.closeCode = code

	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	return nil
}

func (f *fakeTransport) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}

func (f *fakeTransport) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.frames)
}

func (f *fakeTransport) lastFrame() map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.frames) == 0 {
		return nil
	}

	return f.frames[len(f.frames)-1]
}

// statusFrames returns the status values of every status_update written.
func (f *fakeTransport) statusFrames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string

	for _, frame := range f.frames {
		if frame["type"] == models.MessageTypeStatusUpdate {
			status, _ := frame["status"].(string)
			out = append(out, status)
		}
	}

	return out
}

func newTestCoordinator(t *testing.T) (*Coordinator, *clock.Mock) {
	t.Helper()

	clk := clock.NewMock()
	clk.Set(time.Unix(1700000000, 0))

	m := metrics.New(prometheus.NewRegistry())

	return New(logger.NewTestLogger(), m, WithClock(clk)), clk
}

func registerPeer(t *testing.T, c *Coordinator, kind models.ClientType) (*Session, *fakeTransport) {
	t.Helper()

	ft := &fakeTransport{}
	s := c.Register(ft, kind, "127.0.0.1:1234")
	require.NotNil(t, s)

	return s, ft
}

// requirePairingInvariant asserts the chief registry invariant: pairing is
// always symmetric, and an id is pooled iff it is live and unpaired.
func requirePairingInvariant(t *testing.T, r *Registry) {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	pooled := make(map[string]bool)

	for _, id := range r.unpairedRobots {
		require.False(t, pooled[id], "id %s pooled twice", id)
		pooled[id] = true
	}

	for _, id := range r.unpairedSpectacles {
		require.False(t, pooled[id], "id %s in both pools", id)
		pooled[id] = true
	}

	for id, s := range r.sessions {
		if s.peer != nil {
			require.Same(t, s, s.peer.peer, "pairing must be symmetric for %s", id)
			require.False(t, pooled[id], "paired id %s must not be pooled", id)
		} else {
			require.True(t, pooled[id], "unpaired id %s must be pooled", id)
		}
	}

	for id := range pooled {
		_, ok := r.sessions[id]
		require.True(t, ok, "pooled id %s must refer to a live session", id)
	}
}
