package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedSource means the prediction history is not a JSON array
var ErrMalformedSource = errors.New("malformed prediction history")

// numericPattern is plain decimal or exponent notation. ParseFloat also
// accepts hex floats and underscores, which the history format does not.
var numericPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// LoadPredictions reads the prediction history file. A missing file returns
// no records and no error. A file that is not a JSON array returns no records
// and an error wrapping ErrMalformedSource.
func LoadPredictions(path string) ([]*PredictionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*PredictionRecord{}, nil
		}
		return []*PredictionRecord{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParsePredictions(data)
}

// ParsePredictions decodes a prediction history document
func ParsePredictions(data []byte) ([]*PredictionRecord, error) {
	var raw []json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return []*PredictionRecord{}, fmt.Errorf("%w: %v", ErrMalformedSource, err)
	}
	if raw == nil {
		// top-level null
		return []*PredictionRecord{}, fmt.Errorf("%w: top-level value is not an array", ErrMalformedSource)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return []*PredictionRecord{}, fmt.Errorf("%w: trailing data after array", ErrMalformedSource)
	}

	records := make([]*PredictionRecord, 0, len(raw))
	for _, item := range raw {
		var obj map[string]interface{}
		d := json.NewDecoder(bytes.NewReader(item))
		d.UseNumber()
		if err := d.Decode(&obj); err != nil || obj == nil {
			continue
		}
		records = append(records, parseRecord(obj))
	}
	return records, nil
}

func parseRecord(m map[string]interface{}) *PredictionRecord {
	return &PredictionRecord{
		Season:      extractString(m, "season"),
		GameDate:    extractString(m, "game_date"),
		DisplayDate: extractString(m, "display_date"),
		HomeTeam:    strings.TrimSpace(extractString(m, "home_team")),
		AwayTeam:    strings.TrimSpace(extractString(m, "away_team")),
		Location:    extractString(m, "location"),

		PredictedWinner:  strings.TrimSpace(extractString(m, "predicted_winner")),
		ActualWinner:     extractOptionalString(m, "actual_winner"),
		ExpectedMargin:   extractOptionalFloat(m, "expected_margin"),
		ActualMargin:     extractOptionalFloat(m, "actual_margin"),
		MarginError:      extractOptionalFloat(m, "margin_error"),
		ModelHomePct:     extractOptionalFloat(m, "model_home_pct"),
		ModelAwayPct:     extractOptionalFloat(m, "model_away_pct"),
		ConfidenceGapPct: extractOptionalFloat(m, "confidence_gap_pct"),

		ESPNFavorite:      extractOptionalString(m, "espn_favorite_full"),
		ESPNFavoriteAbbr:  extractOptionalString(m, "espn_favorite_abbr"),
		ESPNHomePct:       extractOptionalFloat(m, "espn_home_pct"),
		ESPNAwayPct:       extractOptionalFloat(m, "espn_away_pct"),
		ESPNConfidenceGap: extractOptionalFloat(m, "espn_confidence_gap"),
		ESPNModelDeltaPct: extractOptionalFloat(m, "espn_model_delta_pct"),
		ESPNAlignment:     extractOptionalString(m, "espn_alignment"),
		AlignmentBucket:   extractOptionalString(m, "alignment_bucket"),

		HomeTeamFull: extractString(m, "home_team_full"),
		AwayTeamFull: extractString(m, "away_team_full"),
		HomeTeamAbbr: extractString(m, "home_team_abbr"),
		AwayTeamAbbr: extractString(m, "away_team_abbr"),
	}
}

// extractString returns strings as-is and numbers in their source form
func extractString(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// extractOptionalString is valid only for non-empty strings
func extractOptionalString(m map[string]interface{}, key string) sql.NullString {
	s := strings.TrimSpace(extractString(m, key))
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// extractOptionalFloat accepts JSON numbers and numeric strings. Anything
// else, including booleans, empty strings, hex and non-finite values, is absent.
func extractOptionalFloat(m map[string]interface{}, key string) sql.NullFloat64 {
	var s string
	switch v := m[key].(type) {
	case json.Number:
		s = v.String()
	case string:
		s = strings.TrimSpace(v)
	default:
		return sql.NullFloat64{}
	}
	if !numericPattern.MatchString(s) {
		return sql.NullFloat64{}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}
