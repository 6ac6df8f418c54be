package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsforge/obsforge/internal/config"
	"github.com/obsforge/obsforge/internal/ingest"
	"github.com/obsforge/obsforge/internal/repository/memrepo"
)

const s1Document = `{
  "name": "s1",
  "observer_location": {"latitude": 28.7624, "longitude": -17.8892},
  "schedule_period": {"start": 62115.0, "stop": 62120.0},
  "dark_periods": [],
  "scheduling_blocks": [
    {
      "target": {"name": "t1", "ra_deg": 180.0, "dec_deg": -30.0},
      "priority": 7.5,
      "min_observation_sec": 1200,
      "requested_duration_sec": 3600,
      "constraints": {"min_alt": 30, "max_alt": 90}
    }
  ]
}`

func newTestRouter(t *testing.T) (http.Handler, *memrepo.Repository) {
	t.Helper()
	repo := memrepo.New()
	router := NewRouter(repo, config.Default())
	return router, repo
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
}

func TestIngestAndListSchedules(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/schedules/", strings.NewReader(s1Document))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	require.True(t, env.Success)

	req = httptest.NewRequest(http.MethodGet, "/schedules/", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	env = decode(t, rec)
	require.True(t, env.Success)

	data := env.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])
}

func TestIngestThenQuerySkyMapAndUnknownSchedule(t *testing.T) {
	router, repo := newTestRouter(t)

	out, err := ingest.Ingest(t.Context(), repo, []byte(s1Document), config.Default().Scheduler)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/schedules/1/sky-map", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/schedules/999/sky-map", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.NotZero(t, out.ScheduleID)
}

func TestVisibilityHistogramAmbiguousViaHTTP(t *testing.T) {
	router, repo := newTestRouter(t)
	_, err := ingest.Ingest(t.Context(), repo, []byte(s1Document), config.Default().Scheduler)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/schedules/1/visibility-histogram?num_bins=5&bin_duration_minutes=30", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
