package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teleolink/coordinator/pkg/coordinator"
	"github.com/teleolink/coordinator/pkg/logger"
	"github.com/teleolink/coordinator/pkg/models"
)

// fakeCoordinator implements CoordinatorService for handler tests.
type fakeCoordinator struct {
	connections  []models.ConnectionSummary
	details      map[string]*models.ConnectionDetail
	forcePairErr error
	closeErr     error

	forcePairCalls [][2]string
	closeCalls     []string
}

func (f *fakeCoordinator) Connections() []models.ConnectionSummary {
	return f.connections
}

func (f *fakeCoordinator) Connection(id string) (*models.ConnectionDetail, error) {
	d, ok := f.details[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", coordinator.ErrNotFound, id)
	}

	return d, nil
}

func (f *fakeCoordinator) ForcePair(idA, idB string) error {
	f.forcePairCalls = append(f.forcePairCalls, [2]string{idA, idB})
	return f.forcePairErr
}

func (f *fakeCoordinator) CloseConnection(id string) error {
	f.closeCalls = append(f.closeCalls, id)
	return f.closeErr
}

func newTestServer(t *testing.T, fake *fakeCoordinator, apiKey string) *APIServer {
	t.Helper()

	return NewAPIServer(
		WithCoordinator(fake),
		WithAPIKey(apiKey),
		WithLogger(logger.NewTestLogger()),
	)
}

func doRequest(t *testing.T, s *APIServer, method, path, apiKey, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	return rec
}

func TestListConnections(t *testing.T) {
	avg := 12.5
	fake := &fakeCoordinator{
		connections: []models.ConnectionSummary{
			{
				ID:           "abc",
				Type:         models.ClientTypeRobot,
				RemoteAddr:   "10.0.0.1:5000",
				ConnectedAt:  time.Now(),
				IsPaired:     true,
				PairedWith:   &models.PeerInfo{ID: "def", Type: "spectacles"},
				AvgLatencyMs: &avg,
			},
		},
	}

	s := newTestServer(t, fake, "secret")

	rec := doRequest(t, s, http.MethodGet, "/api/connections", "secret", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.ConnectionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "abc", got[0].ID)
	require.NotNil(t, got[0].AvgLatencyMs)
	assert.InDelta(t, 12.5, *got[0].AvgLatencyMs, 0.001)
}

func TestListConnectionsRequiresAPIKey(t *testing.T) {
	s := newTestServer(t, &fakeCoordinator{}, "secret")

	rec := doRequest(t, s, http.MethodGet, "/api/connections", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/connections", "wrong", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIKeyViaQueryParameter(t *testing.T) {
	s := newTestServer(t, &fakeCoordinator{}, "secret")

	rec := doRequest(t, s, http.MethodGet, "/api/connections?api_key=secret", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetConnectionNotFound(t *testing.T) {
	s := newTestServer(t, &fakeCoordinator{details: map[string]*models.ConnectionDetail{}}, "secret")

	rec := doRequest(t, s, http.MethodGet, "/api/connections/missing", "secret", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, http.StatusNotFound, errResp.Status)
}

func TestGetConnectionDetail(t *testing.T) {
	fake := &fakeCoordinator{
		details: map[string]*models.ConnectionDetail{
			"abc": {
				ConnectionSummary: models.ConnectionSummary{
					ID:   "abc",
					Type: models.ClientTypeSpectacles,
				},
				MessageLog: []models.MessageRecord{
					{Direction: models.DirectionIn, Kind: models.PayloadJSON},
				},
			},
		},
	}

	s := newTestServer(t, fake, "secret")

	rec := doRequest(t, s, http.MethodGet, "/api/connections/abc", "secret", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.ConnectionDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "abc", got.ID)
	assert.Len(t, got.MessageLog, 1)
}

func TestForcePair(t *testing.T) {
	fake := &fakeCoordinator{}
	s := newTestServer(t, fake, "secret")

	rec := doRequest(t, s, http.MethodPost, "/api/connections/abc/force-pair", "secret", `{"pair_with":"def"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, fake.forcePairCalls, 1)
	assert.Equal(t, [2]string{"abc", "def"}, fake.forcePairCalls[0])
}

func TestForcePairMissingBody(t *testing.T) {
	fake := &fakeCoordinator{}
	s := newTestServer(t, fake, "secret")

	rec := doRequest(t, s, http.MethodPost, "/api/connections/abc/force-pair", "secret", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, fake.forcePairCalls)
}

func TestForcePairAlreadyPaired(t *testing.T) {
	fake := &fakeCoordinator{forcePairErr: coordinator.ErrAlreadyPaired}
	s := newTestServer(t, fake, "secret")

	rec := doRequest(t, s, http.MethodPost, "/api/connections/abc/force-pair", "secret", `{"pair_with":"def"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestForcePairNotFound(t *testing.T) {
	fake := &fakeCoordinator{forcePairErr: coordinator.ErrNotFound}
	s := newTestServer(t, fake, "secret")

	rec := doRequest(t, s, http.MethodPost, "/api/connections/abc/force-pair", "secret", `{"pair_with":"def"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCloseConnection(t *testing.T) {
	fake := &fakeCoordinator{}
	s := newTestServer(t, fake, "secret")

	rec := doRequest(t, s, http.MethodPost, "/api/connections/abc/close", "secret", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"abc"}, fake.closeCalls)
}

func TestCloseConnectionNotFound(t *testing.T) {
	fake := &fakeCoordinator{closeErr: coordinator.ErrNotFound}
	s := newTestServer(t, fake, "secret")

	rec := doRequest(t, s, http.MethodPost, "/api/connections/abc/close", "secret", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthzBypassesAPIKey(t *testing.T) {
	s := newTestServer(t, &fakeCoordinator{}, "secret")

	rec := doRequest(t, s, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
