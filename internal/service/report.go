package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/fortuna/hoopsight/internal/injury"
	"github.com/fortuna/hoopsight/internal/store"
	"github.com/fortuna/hoopsight/internal/teams"
)

// MaxChartPoints caps the win-edge chart to the most recent games
const MaxChartPoints = 30

// Placeholder shown for values that have no samples
const Placeholder = "—"

// Result classifications for a single game
const (
	ResultBothCorrect      = "both-correct"
	ResultHoopsightCorrect = "hoopsight-correct"
	ResultESPNCorrect      = "espn-correct"
	ResultBothWrong        = "both-wrong"
	ResultPending          = "pending"
)

var resultLabels = map[string]string{
	ResultBothCorrect:      "✓ Both",
	ResultHoopsightCorrect: "✓ HoopSight",
	ResultESPNCorrect:      "✓ ESPN",
	ResultBothWrong:        "✗ Both",
	ResultPending:          "-",
}

// OverallCard is the display form of OverallStats
type OverallCard struct {
	HoopsightPercent   string        `json:"hoopsight_percent"`
	HoopsightSummary   string        `json:"hoopsight_summary"`
	ESPNPercent        string        `json:"espn_percent"`
	ESPNSummary        string        `json:"espn_summary"`
	AdvantageText      string        `json:"advantage_text"`
	AdvantageClass     string        `json:"advantage_class"`
	AdvantageLabel     string        `json:"advantage_label"`
	TotalPredictions   int           `json:"total_predictions"`
	CompletedGames     int           `json:"completed_games"`
	AvgMarginText      string        `json:"avg_margin_text"`
	TeamAvgHoopsight   string        `json:"team_avg_hoopsight"`
	TeamAvgESPN        string        `json:"team_avg_espn"`
	TeamAdvantageText  string        `json:"team_advantage_text"`
	TeamAdvantageClass string        `json:"team_advantage_class"`
	Stats              *OverallStats `json:"stats"`
}

// TeamRow is one line of the team-by-team analysis table
type TeamRow struct {
	Team           string       `json:"team"`
	FullName       string       `json:"full_name"`
	Abbreviation   string       `json:"abbreviation"`
	Games          int          `json:"games"`
	Correct        int          `json:"correct"`
	AccuracyText   string       `json:"accuracy_text"`
	ESPNText       string       `json:"espn_accuracy_text"`
	Advantage      float64      `json:"advantage"`
	AdvantageText  string       `json:"advantage_text"`
	AdvantageClass string       `json:"advantage_class"`
	AvgMarginText  string       `json:"avg_margin_text"`
	WithinText     string       `json:"within_text"`
	InjuryImpact   float64      `json:"injury_impact"`
	InjuryBadge    injury.Badge `json:"injury_badge"`
}

// PickCell describes one source's win probabilities for both sides of a game
type PickCell struct {
	Source       string   `json:"source"`
	HasData      bool     `json:"has_data"`
	HomeName     string   `json:"home_name"`
	AwayName     string   `json:"away_name"`
	HomePct      *float64 `json:"home_pct"`
	AwayPct      *float64 `json:"away_pct"`
	HomeFavorite bool     `json:"home_favorite"`
	AwayFavorite bool     `json:"away_favorite"`
	Alignment    string   `json:"alignment,omitempty"`
	Confidence   string   `json:"confidence_gap,omitempty"`
	Delta        string   `json:"delta,omitempty"`
}

// GameRow is one game as seen from the displayed team
type GameRow struct {
	Date              string   `json:"date"`
	Opponent          string   `json:"opponent"`
	Location          string   `json:"location"`
	IsHome            bool     `json:"is_home"`
	Hoopsight         PickCell `json:"hoopsight"`
	ESPN              PickCell `json:"espn"`
	ConfidenceText    string   `json:"confidence_text"`
	ConfidenceBucket  string   `json:"confidence_bucket,omitempty"`
	PredictedWinner   string   `json:"predicted_winner"`
	ESPNPick          string   `json:"espn_pick"`
	ActualWinner      string   `json:"actual_winner"`
	ProjectedMargin   *float64 `json:"projected_margin"`
	ProjectedText     string   `json:"projected_text"`
	ProjectedClass    string   `json:"projected_class"`
	ActualMargin      *float64 `json:"actual_margin"`
	ActualMarginText  string   `json:"actual_margin_text"`
	ActualMarginClass string   `json:"actual_margin_class"`
	Result            string   `json:"result"`
	ResultText        string   `json:"result_text"`
}

// ChartSeries is the win-edge chart data; nil entries are gaps
type ChartSeries struct {
	Labels        []string   `json:"labels"`
	HoopsightEdge []*float64 `json:"hoopsightEdge"`
	ESPNEdge      []*float64 `json:"espnEdge"`
	ActualMargin  []*float64 `json:"actualMargin"`
}

// TeamGameLog is the per-team game table with its chart
type TeamGameLog struct {
	Team     string       `json:"team"`
	FullName string       `json:"full_name"`
	Games    []GameRow    `json:"games"`
	Chart    *ChartSeries `json:"chart,omitempty"`
}

// ReportRenderer turns statistics into display structures. It holds no state
// beyond its reference data.
type ReportRenderer struct {
	teams *teams.Directory
}

// NewReportRenderer creates a renderer
func NewReportRenderer(dir *teams.Directory) *ReportRenderer {
	return &ReportRenderer{teams: dir}
}

// OverallCard formats the league-wide summary
func (r *ReportRenderer) OverallCard(stats *OverallStats) OverallCard {
	return OverallCard{
		HoopsightPercent:   FormatPercent(stats.HoopsightAccuracy),
		HoopsightSummary:   correctSummary(stats.HoopsightCorrect, stats.CompletedGames),
		ESPNPercent:        FormatPercent(stats.ESPNAccuracy),
		ESPNSummary:        correctSummary(stats.ESPNCorrect, stats.CompletedGames),
		AdvantageText:      SignedText(stats.Advantage) + "%",
		AdvantageClass:     edgeClass(stats.Advantage),
		AdvantageLabel:     AdvantageLabel(stats.Advantage),
		TotalPredictions:   stats.TotalPredictions,
		CompletedGames:     stats.CompletedGames,
		AvgMarginText:      FormatMargin(stats.AvgMarginError),
		TeamAvgHoopsight:   FormatPercent(stats.TeamAvgAccuracy),
		TeamAvgESPN:        FormatPercent(stats.TeamAvgESPNAccuracy),
		TeamAdvantageText:  SignedText(stats.TeamAdvantage) + "%",
		TeamAdvantageClass: edgeClass(stats.TeamAdvantage),
		Stats:              stats,
	}
}

// TeamRows formats the per-team table, keeping the aggregator's order
func (r *ReportRenderer) TeamRows(teamStats []*TeamAccuracyStats, ledger *injury.Ledger) []TeamRow {
	rows := make([]TeamRow, 0, len(teamStats))
	for _, stats := range teamStats {
		advantage := stats.Accuracy - stats.ESPNAccuracy
		row := TeamRow{
			Team:           stats.Team,
			FullName:       stats.FullName,
			Abbreviation:   r.teams.Abbreviation(stats.Team),
			Games:          stats.Total,
			Correct:        stats.Correct,
			AccuracyText:   FormatPercent(stats.Accuracy),
			ESPNText:       FormatPercent(stats.ESPNAccuracy),
			Advantage:      advantage,
			AdvantageText:  SignedText(advantage) + "%",
			AdvantageClass: AdvantageClass(advantage),
			AvgMarginText:  FormatMargin(stats.AvgMarginError),
			WithinText:     Placeholder,
			InjuryImpact:   stats.InjuryImpact,
			InjuryBadge:    injury.Badge{Severity: injury.SeverityHealthy},
		}
		if stats.MarginWithinPct != nil {
			row.WithinText = FormatPercent(*stats.MarginWithinPct)
		}
		if ledger != nil {
			row.InjuryBadge = ledger.Badge(stats.FullName)
		}
		rows = append(rows, row)
	}
	return rows
}

// TeamGameLog formats a team's games from that team's point of view
func (r *ReportRenderer) TeamGameLog(team string, games []*store.PredictionRecord) TeamGameLog {
	log := TeamGameLog{
		Team:     team,
		FullName: r.teams.FullName(team),
		Games:    make([]GameRow, 0, len(games)),
	}
	chart := &ChartSeries{
		Labels:        []string{},
		HoopsightEdge: []*float64{},
		ESPNEdge:      []*float64{},
		ActualMargin:  []*float64{},
	}

	for _, rec := range games {
		row := r.GameRow(team, rec)
		log.Games = append(log.Games, row)

		chart.Labels = append(chart.Labels, row.Date)
		chart.HoopsightEdge = append(chart.HoopsightEdge, winEdge(pickSide(row.IsHome, rec.ModelHomePct.Valid, rec.ModelHomePct.Float64, rec.ModelAwayPct.Valid, rec.ModelAwayPct.Float64)))
		chart.ESPNEdge = append(chart.ESPNEdge, winEdge(pickSide(row.IsHome, rec.ESPNHomePct.Valid, rec.ESPNHomePct.Float64, rec.ESPNAwayPct.Valid, rec.ESPNAwayPct.Float64)))
		chart.ActualMargin = append(chart.ActualMargin, row.ActualMargin)
	}

	if n := len(chart.Labels); n > MaxChartPoints {
		offset := n - MaxChartPoints
		chart.Labels = chart.Labels[offset:]
		chart.HoopsightEdge = chart.HoopsightEdge[offset:]
		chart.ESPNEdge = chart.ESPNEdge[offset:]
		chart.ActualMargin = chart.ActualMargin[offset:]
	}

	if hasData(chart.HoopsightEdge) || hasData(chart.ESPNEdge) || hasData(chart.ActualMargin) {
		log.Chart = chart
	}
	return log
}

// GameRow derives every display field for one game as seen by team
func (r *ReportRenderer) GameRow(team string, rec *store.PredictionRecord) GameRow {
	isHome := rec.HomeTeam == team

	opponent := rec.HomeTeam
	if isHome {
		opponent = rec.AwayTeam
	}
	if opponent == "" {
		opponent = "TBD"
	}
	opponentLabel := "@ " + r.teams.FullName(opponent)
	if isHome {
		opponentLabel = "vs. " + r.teams.FullName(opponent)
	}

	date := rec.DisplayDate
	if date == "" {
		date = rec.GameDate
	}

	row := GameRow{
		Date:              date,
		Opponent:          opponentLabel,
		Location:          TeamLocation(rec.Location, isHome),
		IsHome:            isHome,
		Hoopsight:         r.hoopsightCell(rec),
		ESPN:              r.espnCell(rec),
		ConfidenceText:    Placeholder,
		PredictedWinner:   rec.PredictedWinner,
		ESPNPick:          "N/A",
		ActualWinner:      "Pending",
		ProjectedText:     Placeholder,
		ActualMarginText:  Placeholder,
		Result:            ClassifyResult(r.teams, rec),
	}
	row.ResultText = resultLabels[row.Result]

	if rec.ConfidenceGapPct.Valid {
		row.ConfidenceBucket = ConfidenceBucket(rec.ConfidenceGapPct.Float64)
		row.ConfidenceText = fmt.Sprintf("%s%% (%s)", formatOne(rec.ConfidenceGapPct.Float64), row.ConfidenceBucket)
	}
	if rec.HasESPNFavorite() {
		row.ESPNPick = rec.ESPNFavorite.String
	}
	if rec.Completed() {
		row.ActualWinner = rec.ActualWinner.String
	}

	if rec.ExpectedMargin.Valid {
		m := SignedMargin(rec.ExpectedMargin.Float64, r.teams.SameTeam(rec.PredictedWinner, team))
		row.ProjectedMargin = &m
		row.ProjectedText = formatOne(m) + " pts"
		row.ProjectedClass = MarginClass(m)
	}
	if rec.Completed() && rec.ActualMargin.Valid {
		m := SignedMargin(rec.ActualMargin.Float64, r.teams.SameTeam(rec.ActualWinner.String, team))
		row.ActualMargin = &m
		row.ActualMarginText = formatOne(m) + " pts"
		row.ActualMarginClass = MarginClass(m)
	}

	return row
}

func (r *ReportRenderer) hoopsightCell(rec *store.PredictionRecord) PickCell {
	cell := r.baseCell("HoopSight", rec)
	cell.HomePct = optional(rec.ModelHomePct.Valid, rec.ModelHomePct.Float64)
	cell.AwayPct = optional(rec.ModelAwayPct.Valid, rec.ModelAwayPct.Float64)
	cell.HasData = cell.HomePct != nil || cell.AwayPct != nil
	cell.HomeFavorite = rec.PredictedWinner != "" && rec.PredictedWinner == rec.HomeTeam
	cell.AwayFavorite = rec.PredictedWinner != "" && rec.PredictedWinner == rec.AwayTeam
	return cell
}

func (r *ReportRenderer) espnCell(rec *store.PredictionRecord) PickCell {
	cell := r.baseCell("ESPN", rec)
	cell.HomePct = optional(rec.ESPNHomePct.Valid, rec.ESPNHomePct.Float64)
	cell.AwayPct = optional(rec.ESPNAwayPct.Valid, rec.ESPNAwayPct.Float64)
	cell.HasData = cell.HomePct != nil || cell.AwayPct != nil

	fav := rec.ESPNFavoriteAbbr.String
	if fav != "" {
		cell.HomeFavorite = fav == r.abbr(rec.HomeTeamAbbr, rec.HomeTeam)
		cell.AwayFavorite = fav == r.abbr(rec.AwayTeamAbbr, rec.AwayTeam)
	}
	if rec.ESPNAlignment.Valid {
		cell.Alignment = rec.ESPNAlignment.String
	}
	if rec.ESPNConfidenceGap.Valid {
		cell.Confidence = formatOne(rec.ESPNConfidenceGap.Float64) + "%"
	}
	if rec.ESPNModelDeltaPct.Valid {
		cell.Delta = formatOne(rec.ESPNModelDeltaPct.Float64) + "%"
	}
	return cell
}

func (r *ReportRenderer) baseCell(source string, rec *store.PredictionRecord) PickCell {
	cell := PickCell{
		Source:   source,
		HomeName: rec.HomeTeamFull,
		AwayName: rec.AwayTeamFull,
	}
	if cell.HomeName == "" {
		cell.HomeName = r.teams.FullName(rec.HomeTeam)
	}
	if cell.AwayName == "" {
		cell.AwayName = r.teams.FullName(rec.AwayTeam)
	}
	return cell
}

func (r *ReportRenderer) abbr(explicit, team string) string {
	if explicit != "" {
		return explicit
	}
	return r.teams.Abbreviation(team)
}

// SignedMargin makes a margin positive when it favors the displayed team
func SignedMargin(margin float64, favorsTeam bool) float64 {
	m := math.Abs(margin)
	if favorsTeam {
		return m
	}
	return -m
}

// MarginClass styles a signed margin
func MarginClass(margin float64) string {
	switch {
	case margin > 0:
		return "margin-positive"
	case margin < 0:
		return "margin-negative"
	default:
		return "margin-neutral"
	}
}

// ConfidenceBucket buckets a model confidence gap in percentage points
func ConfidenceBucket(gap float64) string {
	if gap < 0 {
		gap = 0
	}
	switch {
	case gap >= 20:
		return "High"
	case gap >= 10:
		return "Medium"
	default:
		return "Low"
	}
}

// LocationLabel translates a venue code. Unknown codes are returned unchanged.
func LocationLabel(code string) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "H":
		return "Home"
	case "A":
		return "Away"
	case "N":
		return "Neutral"
	default:
		return code
	}
}

// TeamLocation translates a venue code recorded from the home side into the
// displayed team's perspective
func TeamLocation(code string, isHome bool) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "N":
		return LocationLabel("N")
	case "", "H":
		if isHome {
			return LocationLabel("H")
		}
		return LocationLabel("A")
	case "A":
		if isHome {
			return LocationLabel("A")
		}
		return LocationLabel("H")
	default:
		return code
	}
}

// ClassifyResult compares both picks against the actual winner
func ClassifyResult(dir *teams.Directory, rec *store.PredictionRecord) string {
	if !rec.Completed() {
		return ResultPending
	}
	actual := rec.ActualWinner.String
	modelRight := dir.SameTeam(rec.PredictedWinner, actual)
	espnRight := rec.HasESPNFavorite() && dir.SameTeam(rec.ESPNFavorite.String, actual)

	switch {
	case modelRight && espnRight:
		return ResultBothCorrect
	case modelRight:
		return ResultHoopsightCorrect
	case espnRight:
		return ResultESPNCorrect
	default:
		return ResultBothWrong
	}
}

// ResultLabel returns the display text for a result classification
func ResultLabel(result string) string {
	return resultLabels[result]
}

// AdvantageLabel describes how far the model is ahead of ESPN
func AdvantageLabel(advantage float64) string {
	switch {
	case advantage > 5:
		return "Significantly Better"
	case advantage > 0:
		return "Better"
	case advantage < -5:
		return "Significantly Worse"
	case advantage < 0:
		return "Worse"
	default:
		return "Equal"
	}
}

// AdvantageClass styles a per-team advantage
func AdvantageClass(advantage float64) string {
	switch {
	case advantage > 0:
		return "positive"
	case advantage < 0:
		return "negative"
	default:
		return "neutral"
	}
}

// FormatPercent renders 66.666 as "66.7%"
func FormatPercent(v float64) string {
	return formatOne(v) + "%"
}

// FormatMargin renders a nullable margin as "3.2 pts" or the placeholder
func FormatMargin(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return formatOne(*v) + " pts"
}

// SignedText prefixes positive values with "+"
func SignedText(v float64) string {
	if roundOne(v) > 0 {
		return "+" + formatOne(v)
	}
	return formatOne(v)
}

func correctSummary(correct, completed int) string {
	if completed == 0 {
		return "No completed games yet"
	}
	return fmt.Sprintf("%d of %d games correct", correct, completed)
}

func edgeClass(v float64) string {
	if v > 0 {
		return "winning"
	}
	return "losing"
}

// roundOne rounds half away from zero to one decimal
func roundOne(v float64) float64 {
	r := math.Round(v*10) / 10
	if r == 0 {
		return 0
	}
	return r
}

func formatOne(v float64) string {
	return fmt.Sprintf("%.1f", roundOne(v))
}

func winEdge(pct *float64) *float64 {
	if pct == nil {
		return nil
	}
	edge := roundOne(*pct - 50)
	return &edge
}

func pickSide(isHome, homeValid bool, home float64, awayValid bool, away float64) *float64 {
	if isHome {
		return optional(homeValid, home)
	}
	return optional(awayValid, away)
}

func optional(valid bool, v float64) *float64 {
	if !valid {
		return nil
	}
	return &v
}

func hasData(series []*float64) bool {
	for _, v := range series {
		if v != nil {
			return true
		}
	}
	return false
}
