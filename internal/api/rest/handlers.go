package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/fortuna/hoopsight/internal/injury"
	"github.com/fortuna/hoopsight/internal/service"
	"github.com/fortuna/hoopsight/internal/store"
	"github.com/fortuna/hoopsight/internal/teams"
)

const (
	serviceName    = "hoopsight"
	serviceVersion = "1.0.0"
)

// Dashboards produces the accuracy reports served by the API
type Dashboards interface {
	Build(ctx context.Context) (*service.Dashboard, error)
	TeamGames(ctx context.Context, team string) (*service.TeamGameLog, error)
	TeamInjuries(ctx context.Context, team string) (*injury.Report, error)
	Teams() *teams.Directory
}

// SnapshotLister reads archived snapshots
type SnapshotLister interface {
	ListRecent(ctx context.Context, limit int) ([]*store.Snapshot, error)
}

// HealthCheck reports whether an optional dependency is reachable
type HealthCheck func(ctx context.Context) error

// StatusReporter describes background work for the health endpoint
type StatusReporter interface {
	GetStatus() map[string]interface{}
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	dashboards Dashboards
	archive    SnapshotLister
	checks     map[string]HealthCheck
	scheduler  StatusReporter
}

// NewHandler creates a new handler. archive may be nil when no database is configured.
func NewHandler(dashboards Dashboards, archive SnapshotLister) *Handler {
	return &Handler{
		dashboards: dashboards,
		archive:    archive,
		checks:     make(map[string]HealthCheck),
	}
}

// AddHealthCheck registers a dependency reported by /health
func (h *Handler) AddHealthCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

// SetScheduler reports the scheduler's status on /health
func (h *Handler) SetScheduler(s StatusReporter) {
	h.scheduler = s
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	deps := make(map[string]string, len(h.checks))

	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			deps[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	response := map[string]interface{}{
		"status":       status,
		"service":      serviceName,
		"version":      serviceVersion,
		"dependencies": deps,
	}
	if h.scheduler != nil {
		response["scheduler"] = h.scheduler.GetStatus()
	}

	respondJSON(w, code, response)
}

// GetDashboard returns the overall card and the team analysis rows
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboards.Build(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to build dashboard", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"fingerprint":  d.Fingerprint,
		"generated_at": d.GeneratedAt,
		"has_data":     d.HasData,
		"overall":      d.Overall,
		"teams":        d.Teams,
	})
}

// GetOverallStats returns the raw league-wide statistics
func (h *Handler) GetOverallStats(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboards.Build(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to compute statistics", err)
		return
	}

	respondJSON(w, http.StatusOK, d.Overall.Stats)
}

// GetTeamStats returns the raw per-team statistics, highest accuracy first
func (h *Handler) GetTeamStats(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboards.Build(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to compute statistics", err)
		return
	}

	respondJSON(w, http.StatusOK, d.TeamStats)
}

// GetTeams returns the team directory
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.dashboards.Teams().All())
}

// GetTeamGames returns a team's game log
func (h *Handler) GetTeamGames(w http.ResponseWriter, r *http.Request) {
	team := mux.Vars(r)["team"]

	log, err := h.dashboards.TeamGames(r.Context(), team)
	if errors.Is(err, service.ErrTeamNotFound) {
		respondError(w, r, http.StatusNotFound, "Team not found", err)
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to build game log", err)
		return
	}

	respondJSON(w, http.StatusOK, log)
}

// GetTeamInjuries returns a team's injury report
func (h *Handler) GetTeamInjuries(w http.ResponseWriter, r *http.Request) {
	team := mux.Vars(r)["team"]

	report, err := h.dashboards.TeamInjuries(r.Context(), team)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to load injuries", err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetHistory returns archived snapshots, newest first
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		respondError(w, r, http.StatusServiceUnavailable, "Snapshot archive is not configured", nil)
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 || l > 500 {
			respondError(w, r, http.StatusBadRequest, "Invalid limit (1-500)", err)
			return
		}
		limit = l
	}

	snapshots, err := h.archive.ListRecent(r.Context(), limit)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to list snapshots")
		respondError(w, r, http.StatusInternalServerError, "Failed to fetch history", err)
		return
	}

	respondJSON(w, http.StatusOK, snapshots)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response tagged with the request id
func respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if id := GetRequestID(r.Context()); id != "" {
		response["request_id"] = id
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
