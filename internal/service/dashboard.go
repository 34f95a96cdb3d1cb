package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/fortuna/hoopsight/internal/injury"
	"github.com/fortuna/hoopsight/internal/store"
	"github.com/fortuna/hoopsight/internal/teams"
)

// ErrTeamNotFound is returned when a team has no games in the prediction history
var ErrTeamNotFound = errors.New("team not found in prediction history")

// Sources names the files every report is computed from
type Sources struct {
	PredictionHistory string
	Injuries          string
	PlayerScores      string
}

// DashboardCache stores computed dashboards keyed by source fingerprint
type DashboardCache interface {
	GetDashboard(ctx context.Context, fingerprint string) (*Dashboard, error)
	SetDashboard(ctx context.Context, fingerprint string, d *Dashboard, ttl time.Duration) error
}

// Dashboard is the complete accuracy report
type Dashboard struct {
	Fingerprint string               `json:"fingerprint"`
	GeneratedAt time.Time            `json:"generated_at"`
	HasData     bool                 `json:"has_data"`
	Overall     OverallCard          `json:"overall"`
	Teams       []TeamRow            `json:"teams"`
	TeamStats   []*TeamAccuracyStats `json:"team_stats"`
}

// DashboardService loads the sources and produces reports. Every call reads
// the files again; nothing computed is kept between calls except through the
// optional cache.
type DashboardService struct {
	sources  Sources
	teams    *teams.Directory
	renderer *ReportRenderer
	cache    DashboardCache
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewDashboardService creates a dashboard service
func NewDashboardService(sources Sources, dir *teams.Directory, logger zerolog.Logger) *DashboardService {
	return &DashboardService{
		sources:  sources,
		teams:    dir,
		renderer: NewReportRenderer(dir),
		logger:   logger.With().Str("component", "dashboard").Logger(),
	}
}

// WithCache enables the dashboard cache
func (s *DashboardService) WithCache(cache DashboardCache, ttl time.Duration) *DashboardService {
	s.cache = cache
	s.cacheTTL = ttl
	return s
}

// Teams returns the team directory the service uses
func (s *DashboardService) Teams() *teams.Directory {
	return s.teams
}

// report is one pass over the sources
type report struct {
	records   []*store.PredictionRecord
	ledger    *injury.Ledger
	accuracy  *AccuracyService
	teamStats []*TeamAccuracyStats
	overall   *OverallStats
}

func (s *DashboardService) compute() *report {
	records, err := store.LoadPredictions(s.sources.PredictionHistory)
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.sources.PredictionHistory).Msg("failed to load prediction history")
		records = []*store.PredictionRecord{}
	}

	ledger, err := injury.Load(s.sources.Injuries, s.sources.PlayerScores)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load injury data, continuing without penalties")
		ledger = injury.Empty()
	}

	accuracy := NewAccuracyService(s.teams, ledger)
	teamStats := accuracy.GroupByTeam(records)

	return &report{
		records:   records,
		ledger:    ledger,
		accuracy:  accuracy,
		teamStats: teamStats,
		overall:   accuracy.CalculateOverallStats(records, teamStats),
	}
}

// Build returns the full dashboard, from cache when the sources are unchanged
func (s *DashboardService) Build(ctx context.Context) (*Dashboard, error) {
	fingerprint, err := s.Fingerprint()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.GetDashboard(ctx, fingerprint)
		if err != nil {
			s.logger.Warn().Err(err).Msg("dashboard cache read failed")
		} else if cached != nil {
			s.logger.Debug().Str("fingerprint", fingerprint).Msg("dashboard cache hit")
			return cached, nil
		}
	}

	start := time.Now()
	rep := s.compute()
	dashboard := &Dashboard{
		Fingerprint: fingerprint,
		GeneratedAt: time.Now().UTC(),
		HasData:     len(rep.records) > 0,
		Overall:     s.renderer.OverallCard(rep.overall),
		Teams:       s.renderer.TeamRows(rep.teamStats, rep.ledger),
		TeamStats:   rep.teamStats,
	}

	s.logger.Info().
		Int("records", len(rep.records)).
		Int("teams", len(rep.teamStats)).
		Int("completed", rep.overall.CompletedGames).
		Dur("elapsed", time.Since(start)).
		Msg("dashboard computed")

	if s.cache != nil {
		if err := s.cache.SetDashboard(ctx, fingerprint, dashboard, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Msg("dashboard cache write failed")
		}
	}

	return dashboard, nil
}

// TeamGames returns the game log for one team. The team may be given by any
// identifier the directory knows.
func (s *DashboardService) TeamGames(ctx context.Context, team string) (*TeamGameLog, error) {
	rep := s.compute()
	stats := rep.accuracy.FindTeam(rep.teamStats, team)
	if stats == nil {
		return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, team)
	}
	log := s.renderer.TeamGameLog(stats.Team, stats.Games)
	return &log, nil
}

// TeamInjuries returns the injury report for one team
func (s *DashboardService) TeamInjuries(ctx context.Context, team string) (*injury.Report, error) {
	ledger, err := injury.Load(s.sources.Injuries, s.sources.PlayerScores)
	if err != nil {
		return nil, fmt.Errorf("loading injury data: %w", err)
	}
	report := ledger.Report(s.teams.FullName(team))
	return &report, nil
}

// Fingerprint identifies the current contents of all sources by path, size
// and modification time. Missing files contribute a fixed marker.
func (s *DashboardService) Fingerprint() (string, error) {
	h := sha256.New()
	for _, path := range []string{s.sources.PredictionHistory, s.sources.Injuries, s.sources.PlayerScores} {
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			fmt.Fprintf(h, "%s|missing\n", path)
		case err != nil:
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		default:
			fmt.Fprintf(h, "%s|%d|%d\n", path, info.Size(), info.ModTime().UnixNano())
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SnapshotFromDashboard converts a dashboard into its archive row
func SnapshotFromDashboard(d *Dashboard) (*store.Snapshot, error) {
	stats := d.Overall.Stats
	if stats == nil {
		return nil, fmt.Errorf("dashboard has no overall stats")
	}

	payload, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot payload: %w", err)
	}

	snap := &store.Snapshot{
		Fingerprint:       d.Fingerprint,
		TotalPredictions:  stats.TotalPredictions,
		CompletedGames:    stats.CompletedGames,
		HoopsightAccuracy: stats.HoopsightAccuracy,
		ESPNAccuracy:      stats.ESPNAccuracy,
		Advantage:         stats.Advantage,
		TeamAdvantage:     stats.TeamAdvantage,
		AvgMarginError:    stats.AvgMarginError,
		Payload:           payload,
	}
	return snap, nil
}
