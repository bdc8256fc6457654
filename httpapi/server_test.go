package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hsato/toki/astronomy"
	"github.com/hsato/toki/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *Server {
	provider := astronomy.NewAnalyticProvider()
	assembler := record.NewAssembler(provider, "de440s.bsp", 35.681236, 139.767125)
	return NewServer(":0", assembler, nil, nil, "de440s.bsp")
}

func TestHandleDayReturnsExpectedLunisolarDate(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/v1/days/2020-01-25", nil)
	w := httptest.NewRecorder()
	s.handleDay(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var day record.DayRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &day))
	assert.Equal(t, 1, day.Lunisolar.Month)
	assert.Equal(t, 1, day.Lunisolar.Day)
	assert.Equal(t, "先勝", day.Rokuyo)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
}

func TestHandleDayRejectsMalformedDate(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/v1/days/not-a-date", nil)
	w := httptest.NewRecorder()
	s.handleDay(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, "INVALID_INPUT", apiErr.Error.Code)
}

func TestHandleDayRejectsNonGet(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/v1/days/2020-01-25", nil)
	w := httptest.NewRecorder()
	s.handleDay(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleRangeReturnsOrderedDays(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/v1/ranges/2017-06-01/2017-06-05", nil)
	w := httptest.NewRecorder()
	s.handleRange(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var rng record.RangeRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rng))
	require.Len(t, rng.Days, 5)
	assert.Equal(t, "2017-06-01", rng.Days[0].Date)
	assert.Equal(t, "2017-06-05", rng.Days[4].Date)
}

func TestHandleRangeRejectsMalformedPath(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/v1/ranges/2017-06-01", nil)
	w := httptest.NewRecorder()
	s.handleRange(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleHealthWithoutCollaborators(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Contains(t, w.Body.String(), `"service":"toki"`)
}

func TestHandleCacheWithoutResponseCache(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/cache", nil)
	w := httptest.NewRecorder()
	s.handleCache(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
