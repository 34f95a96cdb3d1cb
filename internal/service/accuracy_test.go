package service

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/hoopsight/internal/store"
	"github.com/fortuna/hoopsight/internal/teams"
)

type fixedImpact map[string]float64

func (f fixedImpact) TeamInjuryImpact(team string) float64 { return f[team] }

func game(home, away, predicted, actual, espn string) *store.PredictionRecord {
	rec := &store.PredictionRecord{
		HomeTeam:        home,
		AwayTeam:        away,
		PredictedWinner: predicted,
	}
	if actual != "" {
		rec.ActualWinner = sql.NullString{String: actual, Valid: true}
	}
	if espn != "" {
		rec.ESPNFavorite = sql.NullString{String: espn, Valid: true}
	}
	return rec
}

func withMargin(rec *store.PredictionRecord, marginError float64) *store.PredictionRecord {
	rec.MarginError = sql.NullFloat64{Float64: marginError, Valid: true}
	return rec
}

func bucketFor(t *testing.T, stats []*TeamAccuracyStats, team string) *TeamAccuracyStats {
	t.Helper()
	for _, s := range stats {
		if s.Team == team {
			return s
		}
	}
	t.Fatalf("no bucket for %s", team)
	return nil
}

func TestSingleCompletedGame(t *testing.T) {
	svc := NewAccuracyService(teams.NewDirectory(), nil)
	records := []*store.PredictionRecord{
		withMargin(game("BOS", "MIA", "BOS", "BOS", "MIA"), 3.0),
	}

	stats := svc.GroupByTeam(records)
	require.Len(t, stats, 2)

	bos := bucketFor(t, stats, "BOS")
	assert.Equal(t, 1, bos.Total)
	assert.Equal(t, 1, bos.Correct)
	assert.Equal(t, 0, bos.ESPNCorrect)
	assert.Equal(t, 100.0, bos.Accuracy)
	assert.Equal(t, 0.0, bos.ESPNAccuracy)
	require.NotNil(t, bos.AvgMarginError)
	assert.Equal(t, 3.0, *bos.AvgMarginError)
	require.NotNil(t, bos.MarginWithinPct)
	assert.Equal(t, 100.0, *bos.MarginWithinPct)
	assert.Equal(t, "Boston Celtics", bos.FullName)

	mia := bucketFor(t, stats, "MIA")
	assert.Equal(t, 1, mia.Total)
	assert.Equal(t, 1, mia.Correct, "correct reflects the model's pick, not the bucket's team")
	assert.Equal(t, 0, mia.ESPNCorrect)

	overall := svc.CalculateOverallStats(records, stats)
	assert.Equal(t, 1, overall.TotalPredictions)
	assert.Equal(t, 1, overall.CompletedGames)
	assert.Equal(t, 1, overall.HoopsightCorrect)
	assert.Equal(t, 0, overall.ESPNCorrect)
	assert.Equal(t, 0, overall.BothCorrect)
	assert.Equal(t, 100.0, overall.Advantage)
	assert.Equal(t, 100.0, overall.TeamAdvantage)
	require.NotNil(t, overall.AvgMarginError)
	assert.Equal(t, 3.0, *overall.AvgMarginError)
}

func TestNoCompletedGames(t *testing.T) {
	svc := NewAccuracyService(teams.NewDirectory(), nil)
	records := []*store.PredictionRecord{
		game("Boston", "Miami", "Boston", "", "Boston Celtics"),
		game("Denver", "Utah", "Utah", "", ""),
	}

	stats := svc.GroupByTeam(records)
	require.Len(t, stats, 4)
	for _, s := range stats {
		assert.Zero(t, s.Total)
		assert.Zero(t, s.Accuracy)
		assert.Zero(t, s.ESPNAccuracy)
		assert.Nil(t, s.AvgMarginError)
		assert.Nil(t, s.MarginWithinPct)
		assert.Len(t, s.Games, 1, "pending games still appear in the team's log")
	}

	overall := svc.CalculateOverallStats(records, stats)
	assert.Equal(t, 2, overall.TotalPredictions)
	assert.Zero(t, overall.CompletedGames)
	assert.Zero(t, overall.HoopsightAccuracy)
	assert.Zero(t, overall.ESPNAccuracy)
	assert.Zero(t, overall.TeamAvgAccuracy)
	assert.Zero(t, overall.TeamAdvantage)
	assert.Nil(t, overall.AvgMarginError)
}

func TestNonNumericMarginErrorExcludedFromSamples(t *testing.T) {
	records, err := store.ParsePredictions([]byte(`[
		{"home_team": "Boston", "away_team": "Miami", "predicted_winner": "Boston",
		 "actual_winner": "Boston", "margin_error": ""},
		{"home_team": "Boston", "away_team": "Denver", "predicted_winner": "Denver",
		 "actual_winner": "Boston", "margin_error": "8"}
	]`))
	require.NoError(t, err)

	svc := NewAccuracyService(teams.NewDirectory(), nil)
	stats := svc.GroupByTeam(records)

	bos := bucketFor(t, stats, "Boston")
	assert.Equal(t, 2, bos.Total)
	assert.Equal(t, 1, bos.Correct)
	assert.Equal(t, 1, bos.MarginSamples)
	assert.Equal(t, 0, bos.WithinThreshold)
	require.NotNil(t, bos.AvgMarginError)
	assert.Equal(t, 8.0, *bos.AvgMarginError)
	assert.Equal(t, 0.0, *bos.MarginWithinPct)

	mia := bucketFor(t, stats, "Miami")
	assert.Equal(t, 1, mia.Total)
	assert.Nil(t, mia.AvgMarginError)
}

func TestESPNFullNameMatchesShortWinner(t *testing.T) {
	svc := NewAccuracyService(teams.NewDirectory(), nil)
	records := []*store.PredictionRecord{
		game("Boston", "Miami", "Boston", "Boston", "Boston Celtics"),
		game("Okla City", "LA Lakers", "LA Lakers", "Okla City", "Oklahoma City Thunder"),
	}

	stats := svc.GroupByTeam(records)
	overall := svc.CalculateOverallStats(records, stats)

	assert.Equal(t, 2, overall.CompletedGames)
	assert.Equal(t, 1, overall.HoopsightCorrect)
	assert.Equal(t, 2, overall.ESPNCorrect)
	assert.Equal(t, 1, overall.BothCorrect)
	assert.Equal(t, 50.0, overall.HoopsightAccuracy)
	assert.Equal(t, 100.0, overall.ESPNAccuracy)
	assert.Equal(t, -50.0, overall.Advantage)
}

func TestSortByAccuracyIsStable(t *testing.T) {
	svc := NewAccuracyService(teams.NewDirectory(), nil)
	records := []*store.PredictionRecord{
		game("Utah", "Denver", "Denver", "Utah", ""),
		game("Boston", "Miami", "Boston", "Boston", ""),
		game("Phoenix", "Dallas", "", "", ""),
	}

	stats := svc.GroupByTeam(records)
	var order []string
	for _, s := range stats {
		order = append(order, s.Team)
	}
	assert.Equal(t, []string{"Boston", "Miami", "Utah", "Denver", "Phoenix", "Dallas"}, order)
}

func TestEmptyTeamCodeCreatesNoBucket(t *testing.T) {
	svc := NewAccuracyService(teams.NewDirectory(), nil)
	stats := svc.GroupByTeam([]*store.PredictionRecord{game("Boston", "", "Boston", "Boston", "")})
	require.Len(t, stats, 1)
	assert.Equal(t, "Boston", stats[0].Team)
}

func TestInjuryImpactUsesFullName(t *testing.T) {
	svc := NewAccuracyService(teams.NewDirectory(), fixedImpact{"Boston Celtics": 4.5})
	stats := svc.GroupByTeam([]*store.PredictionRecord{game("Boston", "Miami", "Boston", "", "")})

	assert.Equal(t, 4.5, bucketFor(t, stats, "Boston").InjuryImpact)
	assert.Zero(t, bucketFor(t, stats, "Miami").InjuryImpact)
}

func TestAdvantageAndTeamAdvantageAreIndependent(t *testing.T) {
	svc := NewAccuracyService(teams.NewDirectory(), nil)
	records := []*store.PredictionRecord{
		game("Boston", "Miami", "Boston", "Boston", "Boston"),
		game("Boston", "Denver", "Boston", "Boston", "Denver"),
		game("Boston", "Utah", "Utah", "Boston", "Boston"),
		game("Phoenix", "Dallas", "Phoenix", "Dallas", "Dallas"),
	}

	stats := svc.GroupByTeam(records)
	overall := svc.CalculateOverallStats(records, stats)

	for _, s := range stats {
		assert.GreaterOrEqual(t, s.Accuracy, 0.0)
		assert.LessOrEqual(t, s.Accuracy, 100.0)
		assert.GreaterOrEqual(t, s.ESPNAccuracy, 0.0)
		assert.LessOrEqual(t, s.ESPNAccuracy, 100.0)
	}

	assert.Equal(t, overall.HoopsightAccuracy-overall.ESPNAccuracy, overall.Advantage)
	assert.Equal(t, -25.0, overall.Advantage)
	assert.InDelta(t, 400.0/9, overall.TeamAvgAccuracy, 1e-9)
	assert.InDelta(t, 700.0/9, overall.TeamAvgESPNAccuracy, 1e-9)
	assert.Equal(t, overall.TeamAvgAccuracy-overall.TeamAvgESPNAccuracy, overall.TeamAdvantage)
	assert.NotEqual(t, overall.Advantage, overall.TeamAdvantage)
}

func TestGroupByTeamIsIdempotent(t *testing.T) {
	svc := NewAccuracyService(teams.NewDirectory(), fixedImpact{"Boston Celtics": 1.25})
	records := []*store.PredictionRecord{
		withMargin(game("Boston", "Miami", "Boston", "Miami", "Miami"), -7),
		withMargin(game("Miami", "Denver", "Denver", "Denver", ""), 2),
		game("Denver", "Boston", "Boston", "", ""),
	}

	first := svc.GroupByTeam(records)
	second := svc.GroupByTeam(records)
	assert.Equal(t, first, second)
	assert.Equal(t, svc.CalculateOverallStats(records, first), svc.CalculateOverallStats(records, second))
}

func TestFindTeam(t *testing.T) {
	svc := NewAccuracyService(teams.NewDirectory(), nil)
	stats := svc.GroupByTeam([]*store.PredictionRecord{game("Boston", "Miami", "Boston", "", "")})

	require.NotNil(t, svc.FindTeam(stats, "Boston"))
	require.NotNil(t, svc.FindTeam(stats, "BOS"))
	assert.Equal(t, "Miami", svc.FindTeam(stats, "Miami Heat").Team)
	assert.Nil(t, svc.FindTeam(stats, "Denver"))
}
