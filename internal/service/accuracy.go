package service

import (
	"math"
	"sort"

	"github.com/fortuna/hoopsight/internal/store"
	"github.com/fortuna/hoopsight/internal/teams"
)

// MarginThreshold is the absolute margin error, in points, that still counts as a close call
const MarginThreshold = 5.0

// InjuryImpacter reports the HSS penalty of a team's current injuries
type InjuryImpacter interface {
	TeamInjuryImpact(teamFullName string) float64
}

// TeamAccuracyStats is the per-team accuracy summary
type TeamAccuracyStats struct {
	Team            string   `json:"team"`
	FullName        string   `json:"full_name"`
	Total           int      `json:"total"`
	Correct         int      `json:"correct"`
	ESPNCorrect     int      `json:"espn_correct"`
	Accuracy        float64  `json:"accuracy"`
	ESPNAccuracy    float64  `json:"espn_accuracy"`
	AvgMarginError  *float64 `json:"avg_margin_error"`
	MarginWithinPct *float64 `json:"margin_within_pct"`
	MarginSamples   int      `json:"margin_samples"`
	WithinThreshold int      `json:"within_margin_threshold"`
	InjuryImpact    float64  `json:"injury_impact"`

	// Games holds every record the team took part in, in source order
	Games []*store.PredictionRecord `json:"-"`

	totalMarginError float64
}

// OverallStats is the league-wide summary. Game-weighted and team-weighted
// figures are computed independently.
type OverallStats struct {
	TotalPredictions  int      `json:"total_predictions"`
	CompletedGames    int      `json:"completed_games"`
	HoopsightCorrect  int      `json:"hoopsight_correct"`
	HoopsightAccuracy float64  `json:"hoopsight_accuracy"`
	ESPNCorrect       int      `json:"espn_correct"`
	ESPNAccuracy      float64  `json:"espn_accuracy"`
	BothCorrect       int      `json:"both_correct"`
	AvgMarginError    *float64 `json:"avg_margin_error"`
	Advantage         float64  `json:"advantage"`

	TeamAvgAccuracy     float64 `json:"team_avg_accuracy"`
	TeamAvgESPNAccuracy float64 `json:"team_avg_espn_accuracy"`
	TeamAdvantage       float64 `json:"team_avg_advantage"`
}

// AccuracyService computes prediction accuracy statistics
type AccuracyService struct {
	teams    *teams.Directory
	injuries InjuryImpacter
}

// NewAccuracyService creates an accuracy service. A nil injuries source means no penalties.
func NewAccuracyService(dir *teams.Directory, injuries InjuryImpacter) *AccuracyService {
	return &AccuracyService{teams: dir, injuries: injuries}
}

// GroupByTeam folds every record into both its home and away team buckets
// and returns the buckets sorted by accuracy, highest first. Ties keep the
// order in which teams were first seen.
func (s *AccuracyService) GroupByTeam(records []*store.PredictionRecord) []*TeamAccuracyStats {
	index := make(map[string]*TeamAccuracyStats)
	ordered := []*TeamAccuracyStats{}

	bucket := func(team string) *TeamAccuracyStats {
		stats, ok := index[team]
		if !ok {
			stats = &TeamAccuracyStats{Team: team, Games: []*store.PredictionRecord{}}
			index[team] = stats
			ordered = append(ordered, stats)
		}
		return stats
	}

	for _, rec := range records {
		for _, team := range []string{rec.HomeTeam, rec.AwayTeam} {
			if team == "" {
				continue
			}
			s.accumulate(bucket(team), rec)
		}
	}

	for _, stats := range ordered {
		s.finalize(stats)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Accuracy > ordered[j].Accuracy
	})

	return ordered
}

func (s *AccuracyService) accumulate(stats *TeamAccuracyStats, rec *store.PredictionRecord) {
	stats.Games = append(stats.Games, rec)

	if !rec.Completed() {
		return
	}

	stats.Total++
	if s.modelCorrect(rec) {
		stats.Correct++
	}
	if s.espnCorrect(rec) {
		stats.ESPNCorrect++
	}
	if rec.MarginError.Valid {
		err := math.Abs(rec.MarginError.Float64)
		stats.totalMarginError += err
		stats.MarginSamples++
		if err <= MarginThreshold {
			stats.WithinThreshold++
		}
	}
}

func (s *AccuracyService) finalize(stats *TeamAccuracyStats) {
	stats.FullName = s.teams.FullName(stats.Team)
	stats.Accuracy = safeDiv(float64(stats.Correct), float64(stats.Total)) * 100
	stats.ESPNAccuracy = safeDiv(float64(stats.ESPNCorrect), float64(stats.Total)) * 100

	if stats.MarginSamples > 0 {
		avg := stats.totalMarginError / float64(stats.MarginSamples)
		within := float64(stats.WithinThreshold) / float64(stats.MarginSamples) * 100
		stats.AvgMarginError = &avg
		stats.MarginWithinPct = &within
	}

	if s.injuries != nil {
		stats.InjuryImpact = s.injuries.TeamInjuryImpact(stats.FullName)
	}
}

// CalculateOverallStats walks the records again for game-weighted totals and
// averages the per-team buckets that have completed games for team-weighted ones.
func (s *AccuracyService) CalculateOverallStats(records []*store.PredictionRecord, teamStats []*TeamAccuracyStats) *OverallStats {
	overall := &OverallStats{TotalPredictions: len(records)}

	var marginSum float64
	var marginSamples int

	for _, rec := range records {
		if !rec.Completed() {
			continue
		}
		overall.CompletedGames++

		modelRight := s.modelCorrect(rec)
		espnRight := s.espnCorrect(rec)
		if modelRight {
			overall.HoopsightCorrect++
		}
		if espnRight {
			overall.ESPNCorrect++
		}
		if modelRight && espnRight {
			overall.BothCorrect++
		}
		if rec.MarginError.Valid {
			marginSum += math.Abs(rec.MarginError.Float64)
			marginSamples++
		}
	}

	completed := float64(overall.CompletedGames)
	overall.HoopsightAccuracy = safeDiv(float64(overall.HoopsightCorrect), completed) * 100
	overall.ESPNAccuracy = safeDiv(float64(overall.ESPNCorrect), completed) * 100
	overall.Advantage = overall.HoopsightAccuracy - overall.ESPNAccuracy
	if marginSamples > 0 {
		avg := marginSum / float64(marginSamples)
		overall.AvgMarginError = &avg
	}

	var teamCount int
	var accuracySum, espnSum float64
	for _, stats := range teamStats {
		if stats.Total == 0 {
			continue
		}
		teamCount++
		accuracySum += stats.Accuracy
		espnSum += stats.ESPNAccuracy
	}
	overall.TeamAvgAccuracy = safeDiv(accuracySum, float64(teamCount))
	overall.TeamAvgESPNAccuracy = safeDiv(espnSum, float64(teamCount))
	overall.TeamAdvantage = overall.TeamAvgAccuracy - overall.TeamAvgESPNAccuracy

	return overall
}

// FindTeam returns the bucket for a team identifier, matching aliases
func (s *AccuracyService) FindTeam(teamStats []*TeamAccuracyStats, team string) *TeamAccuracyStats {
	for _, stats := range teamStats {
		if stats.Team == team {
			return stats
		}
	}
	for _, stats := range teamStats {
		if s.teams.SameTeam(stats.Team, team) {
			return stats
		}
	}
	return nil
}

func (s *AccuracyService) modelCorrect(rec *store.PredictionRecord) bool {
	return rec.Completed() && s.teams.SameTeam(rec.PredictedWinner, rec.ActualWinner.String)
}

func (s *AccuracyService) espnCorrect(rec *store.PredictionRecord) bool {
	return rec.Completed() && rec.HasESPNFavorite() && s.teams.SameTeam(rec.ESPNFavorite.String, rec.ActualWinner.String)
}

// safeDiv returns 0 instead of dividing by zero
func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
