package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/hoopsight/internal/service"
	"github.com/fortuna/hoopsight/internal/store"
	"github.com/fortuna/hoopsight/internal/teams"
)

const history = `[
	{"display_date": "Jan 1", "home_team": "Boston", "away_team": "Miami",
	 "predicted_winner": "Boston", "actual_winner": "Boston", "margin_error": 2.0,
	 "espn_favorite_full": "Boston Celtics"},
	{"display_date": "Jan 2", "home_team": "LA Lakers", "away_team": "Boston",
	 "predicted_winner": "LA Lakers", "actual_winner": "Boston", "margin_error": 9.0}
]`

type fakeArchive struct {
	snapshots []*store.Snapshot
	err       error
	limit     int
}

func (f *fakeArchive) ListRecent(_ context.Context, limit int) ([]*store.Snapshot, error) {
	f.limit = limit
	return f.snapshots, f.err
}

func newTestRouter(t *testing.T, archive SnapshotLister) (http.Handler, *Handler) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prediction_history.json")
	require.NoError(t, os.WriteFile(path, []byte(history), 0o644))

	svc := service.NewDashboardService(service.Sources{
		PredictionHistory: path,
		Injuries:          filepath.Join(dir, "injuries.csv"),
		PlayerScores:      filepath.Join(dir, "scores.csv"),
	}, teams.NewDirectory(), zerolog.Nop())

	handler := NewHandler(svc, archive)
	return NewRouter(handler, zerolog.Nop()), handler
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	router, handler := newTestRouter(t, nil)

	rec := get(t, router, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	handler.AddHealthCheck("redis", func(context.Context) error { return errors.New("connection refused") })
	rec = get(t, router, "/api/v1/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "degraded", body["status"])
}

func TestGetDashboard(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := get(t, router, "/api/v1/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		HasData bool                `json:"has_data"`
		Overall service.OverallCard `json:"overall"`
		Teams   []service.TeamRow   `json:"teams"`
	}
	decode(t, rec, &body)
	assert.True(t, body.HasData)
	assert.Equal(t, "1 of 2 games correct", body.Overall.HoopsightSummary)
	assert.Equal(t, "5.5 pts", body.Overall.AvgMarginText)
	require.Len(t, body.Teams, 3)
}

func TestGetOverallAndTeamStats(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	var overall service.OverallStats
	rec := get(t, router, "/api/v1/stats/overall")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &overall)
	assert.Equal(t, 2, overall.CompletedGames)
	assert.Equal(t, 50.0, overall.HoopsightAccuracy)
	assert.Equal(t, 50.0, overall.ESPNAccuracy)
	assert.Equal(t, 0.0, overall.Advantage)

	var teamStats []service.TeamAccuracyStats
	rec = get(t, router, "/api/v1/stats/teams")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &teamStats)
	require.Len(t, teamStats, 3)
	assert.Equal(t, "Miami", teamStats[0].Team)
}

func TestGetTeams(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	var all []teams.Identity
	rec := get(t, router, "/api/v1/teams")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &all)
	assert.Len(t, all, 30)
}

func TestGetTeamGames(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	var log service.TeamGameLog
	rec := get(t, router, "/api/v1/teams/LA%20Lakers/games")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &log)
	assert.Equal(t, "Los Angeles Lakers", log.FullName)
	require.Len(t, log.Games, 1)
	assert.Equal(t, "vs. Boston Celtics", log.Games[0].Opponent)

	rec = get(t, router, "/api/v1/teams/Denver/games")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "Team not found", body["error"])
	assert.EqualValues(t, 404, body["status"])
}

func TestGetTeamInjuriesWithoutFiles(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	var body map[string]interface{}
	rec := get(t, router, "/api/v1/teams/BOS/injuries")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, "Boston Celtics", body["team"])
	assert.Equal(t, true, body["healthy"])
}

func TestGetHistory(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	rec := get(t, router, "/api/v1/history")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	archive := &fakeArchive{snapshots: []*store.Snapshot{{ID: 7, Fingerprint: "abc"}}}
	router, _ = newTestRouter(t, archive)

	rec = get(t, router, "/api/v1/history?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, archive.limit)

	var snapshots []store.Snapshot
	decode(t, rec, &snapshots)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "abc", snapshots[0].Fingerprint)

	rec = get(t, router, "/api/v1/history?limit=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	archive.err = errors.New("db down")
	rec = get(t, router, "/api/v1/history")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 20, archive.limit)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(zerolog.Nop())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/dashboard", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "X-Request-ID")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodGet, rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "X-Request-ID", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSOnSimpleRequest(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/teams", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Request-ID", rec.Header().Get("Access-Control-Expose-Headers"))
}

func TestErrorResponseCarriesRequestID(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	req.Header.Set("X-Request-ID", "req-456")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "req-456", body["request_id"])
}

type fakeScheduler struct{}

func (fakeScheduler) GetStatus() map[string]interface{} {
	return map[string]interface{}{"refresh_count": 3}
}

func TestHealthReportsScheduler(t *testing.T) {
	router, handler := newTestRouter(t, nil)
	handler.SetScheduler(fakeScheduler{})

	rec := get(t, router, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Scheduler map[string]interface{} `json:"scheduler"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 3.0, body.Scheduler["refresh_count"])
}

func TestGetHistoryMarginIsPlainNumber(t *testing.T) {
	margin := 2.8
	archive := &fakeArchive{snapshots: []*store.Snapshot{
		{ID: 2, Fingerprint: "with", AvgMarginError: &margin},
		{ID: 1, Fingerprint: "without"},
	}}
	router, _ := newTestRouter(t, archive)

	rec := get(t, router, "/api/v1/history")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]interface{}
	decode(t, rec, &body)
	require.Len(t, body, 2)
	assert.Equal(t, 2.8, body[0]["avg_margin_error"])
	assert.Nil(t, body[1]["avg_margin_error"])
}
