package store

import (
	"database/sql"
	"encoding/json"
	"time"
)

// PredictionRecord is one game from the prediction history file
type PredictionRecord struct {
	Season      string `json:"season"`
	GameDate    string `json:"game_date"`
	DisplayDate string `json:"display_date"`
	HomeTeam    string `json:"home_team"`
	AwayTeam    string `json:"away_team"`
	Location    string `json:"location"`

	PredictedWinner  string          `json:"predicted_winner"`
	ActualWinner     sql.NullString  `json:"actual_winner"`
	ExpectedMargin   sql.NullFloat64 `json:"expected_margin"`
	ActualMargin     sql.NullFloat64 `json:"actual_margin"`
	MarginError      sql.NullFloat64 `json:"margin_error"`
	ModelHomePct     sql.NullFloat64 `json:"model_home_pct"`
	ModelAwayPct     sql.NullFloat64 `json:"model_away_pct"`
	ConfidenceGapPct sql.NullFloat64 `json:"confidence_gap_pct"`

	ESPNFavorite      sql.NullString  `json:"espn_favorite_full"`
	ESPNFavoriteAbbr  sql.NullString  `json:"espn_favorite_abbr"`
	ESPNHomePct       sql.NullFloat64 `json:"espn_home_pct"`
	ESPNAwayPct       sql.NullFloat64 `json:"espn_away_pct"`
	ESPNConfidenceGap sql.NullFloat64 `json:"espn_confidence_gap"`
	ESPNModelDeltaPct sql.NullFloat64 `json:"espn_model_delta_pct"`
	ESPNAlignment     sql.NullString  `json:"espn_alignment"`
	AlignmentBucket   sql.NullString  `json:"alignment_bucket"`

	HomeTeamFull string `json:"home_team_full"`
	AwayTeamFull string `json:"away_team_full"`
	HomeTeamAbbr string `json:"home_team_abbr"`
	AwayTeamAbbr string `json:"away_team_abbr"`
}

// Completed reports whether the game has a recorded winner
func (r *PredictionRecord) Completed() bool {
	return r.ActualWinner.Valid && r.ActualWinner.String != ""
}

// HasESPNFavorite reports whether ESPN picked a side for this game
func (r *PredictionRecord) HasESPNFavorite() bool {
	return r.ESPNFavorite.Valid && r.ESPNFavorite.String != ""
}

// Snapshot is an archived copy of the league-wide numbers for one source fingerprint
type Snapshot struct {
	ID                int             `json:"id" db:"id"`
	Fingerprint       string          `json:"fingerprint" db:"fingerprint"`
	TotalPredictions  int             `json:"total_predictions" db:"total_predictions"`
	CompletedGames    int             `json:"completed_games" db:"completed_games"`
	HoopsightAccuracy float64         `json:"hoopsight_accuracy" db:"hoopsight_accuracy"`
	ESPNAccuracy      float64         `json:"espn_accuracy" db:"espn_accuracy"`
	Advantage         float64         `json:"advantage" db:"advantage"`
	TeamAdvantage     float64         `json:"team_advantage" db:"team_advantage"`
	AvgMarginError    *float64        `json:"avg_margin_error" db:"avg_margin_error"`
	Payload           json.RawMessage `json:"payload,omitempty" db:"payload"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}
