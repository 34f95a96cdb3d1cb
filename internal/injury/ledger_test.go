package injury

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const injuriesCSV = `team,player,position,estimated_return_date,status,comment
Boston Celtics,Jayson Tatum,F,"Oct 1",Out,"Achilles"
Boston Celtics,Jrue Holiday,G,"Nov 3",Day-To-Day,"Hamstring"
Boston Celtics,Al Horford,C,"Nov 5",Questionable,"Rest"
Miami Heat,Tyler Herro,G,"Nov 9",Out,"Ankle"

Celtics,Sam Hauser,F,"Nov 2",out,"Lowercase status"
`

const scoresCSV = `team,player,minutes,score
Boston Celtics,Jayson Tatum,36,120
Boston Celtics,Jrue Holiday,32,80
Boston Celtics,Jrue Holiday,32,90
Boston Celtics,Al Horford,25,40
Miami Heat,Tyler Herro,34,not-a-number
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadFixture(t *testing.T) *Ledger {
	t.Helper()
	ledger, err := Load(writeFile(t, "injuries.csv", injuriesCSV), writeFile(t, "scores.csv", scoresCSV))
	require.NoError(t, err)
	return ledger
}

func TestImpact(t *testing.T) {
	assert.InDelta(t, 6.0, Impact(StatusOut, 120), 1e-9)
	assert.InDelta(t, 2.25, Impact(StatusDayToDay, 90), 1e-9)
	assert.Zero(t, Impact("Questionable", 40))
	assert.Zero(t, Impact("out", 40), "status match is case sensitive")
	assert.Zero(t, Impact("", 100))
}

func TestLoadMissingFilesIsEmpty(t *testing.T) {
	dir := t.TempDir()
	ledger, err := Load(filepath.Join(dir, "nope.csv"), filepath.Join(dir, "nope2.csv"))
	require.NoError(t, err)
	assert.Zero(t, ledger.InjuryCount())
	assert.Zero(t, ledger.ScoreCount())
	assert.Zero(t, ledger.TeamInjuryImpact("Boston Celtics"))
	assert.Equal(t, SeverityHealthy, ledger.Badge("Boston Celtics").Severity)
}

func TestLoadSkipsHeaderAndBlankRows(t *testing.T) {
	ledger := loadFixture(t)
	assert.Equal(t, 5, ledger.InjuryCount())
	assert.Equal(t, 4, ledger.ScoreCount())
}

func TestPlayerScoresLastWriteWins(t *testing.T) {
	scores, err := LoadPlayerScores(writeFile(t, "scores.csv", scoresCSV))
	require.NoError(t, err)

	score, ok := scores.Get("Boston Celtics", "Jrue Holiday")
	require.True(t, ok)
	assert.Equal(t, 90.0, score)

	score, ok = scores.Get("Miami Heat", "Tyler Herro")
	require.True(t, ok)
	assert.Zero(t, score, "unparsable score falls back to 0")
}

func TestTeamInjuries(t *testing.T) {
	ledger := loadFixture(t)

	injuries := ledger.TeamInjuries("Boston Celtics")
	require.Len(t, injuries, 4, "substring match pulls in the short 'Celtics' row")

	byPlayer := make(map[string]TeamInjury)
	for _, inj := range injuries {
		byPlayer[inj.Player] = inj
	}

	assert.InDelta(t, 6.0, byPlayer["Jayson Tatum"].Impact, 1e-9)
	assert.InDelta(t, 2.25, byPlayer["Jrue Holiday"].Impact, 1e-9)
	assert.Zero(t, byPlayer["Al Horford"].Impact)
	assert.Equal(t, 40.0, byPlayer["Al Horford"].PlayerScore)
	assert.Zero(t, byPlayer["Sam Hauser"].PlayerScore, "no score row for player")

	assert.InDelta(t, 8.25, ledger.TeamInjuryImpact("Boston Celtics"), 1e-9)
	assert.Empty(t, ledger.TeamInjuries(""))
	assert.Empty(t, ledger.TeamInjuries("Denver Nuggets"))
}

func TestBadge(t *testing.T) {
	scores := NewPlayerScores()
	scores.Set("Denver Nuggets", "A", 150)
	scores.Set("Denver Nuggets", "B", 250)
	scores.Set("Utah Jazz", "C", 20)

	ledger := NewLedger([]Record{
		{Team: "Denver Nuggets", Player: "A", Status: StatusOut},
		{Team: "Denver Nuggets", Player: "B", Status: StatusOut},
		{Team: "Utah Jazz", Player: "C", Status: StatusDayToDay},
		{Team: "Phoenix Suns", Player: "D", Status: StatusOut},
	}, scores)

	denver := ledger.Badge("Denver Nuggets")
	assert.Equal(t, SeveritySevere, denver.Severity)
	assert.Equal(t, 2, denver.Count)
	assert.InDelta(t, 20.0, denver.Impact, 1e-9)
	assert.Equal(t, SeverityMinor, ledger.Badge("Utah Jazz").Severity)
	assert.Equal(t, SeverityMinor, ledger.Badge("Phoenix Suns").Severity, "injured but unscored")
	assert.Equal(t, SeverityHealthy, ledger.Badge("Miami Heat").Severity)

	scores.Set("Utah Jazz", "C", 240)
	assert.Equal(t, SeverityModerate, ledger.Badge("Utah Jazz").Severity)
}

func TestReport(t *testing.T) {
	ledger := loadFixture(t)

	report := ledger.Report("Boston Celtics")
	assert.False(t, report.Healthy)
	assert.InDelta(t, 8.25, report.TotalImpact, 1e-9)
	require.Len(t, report.Injuries, 4)
	assert.Equal(t, "out", report.Injuries[0].StatusClass)
	assert.Equal(t, "daytoday", report.Injuries[1].StatusClass)

	healthy := ledger.Report("Denver Nuggets")
	assert.True(t, healthy.Healthy)
	assert.Empty(t, healthy.Injuries)
}

func TestParseScoreReadsLeadingNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"42.5", 42.5},
		{" 18 ", 18},
		{"12abc", 12},
		{"-3.5pts", -3.5},
		{".5", 0.5},
		{"1e2x", 100},
		{"abc", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseScore(tt.in), tt.in)
	}
}
