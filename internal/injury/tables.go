package injury

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

const (
	StatusOut      = "Out"
	StatusDayToDay = "Day-To-Day"

	// ImpactScale converts a player score into an HSS penalty
	ImpactScale    = 0.05
	DayToDayDerate = 0.5
)

// Record is one row of the injuries table
type Record struct {
	Team       string `json:"team"`
	Player     string `json:"player"`
	Position   string `json:"position"`
	ReturnDate string `json:"return_date"`
	Status     string `json:"status"`
	Comment    string `json:"comment"`
}

// TeamInjury is an injury row joined with the player's score and HSS penalty
type TeamInjury struct {
	Record
	PlayerScore float64 `json:"player_score"`
	Impact      float64 `json:"impact"`
}

// PlayerScores maps team key -> player -> score, remembering the order team keys first appeared
type PlayerScores struct {
	teams  []string
	scores map[string]map[string]float64
}

// NewPlayerScores returns an empty score table
func NewPlayerScores() *PlayerScores {
	return &PlayerScores{scores: make(map[string]map[string]float64)}
}

// Set stores a score, replacing any earlier value for the same (team, player)
func (p *PlayerScores) Set(team, player string, score float64) {
	players, ok := p.scores[team]
	if !ok {
		players = make(map[string]float64)
		p.scores[team] = players
		p.teams = append(p.teams, team)
	}
	players[player] = score
}

// Get returns the score stored under an exact team key
func (p *PlayerScores) Get(team, player string) (float64, bool) {
	score, ok := p.scores[team][player]
	return score, ok
}

// Len returns the number of (team, player) entries
func (p *PlayerScores) Len() int {
	n := 0
	for _, players := range p.scores {
		n += len(players)
	}
	return n
}

// Lookup scans team keys in load order for one containing teamName that knows the player
func (p *PlayerScores) Lookup(teamName, player string) float64 {
	for _, team := range p.teams {
		if !containsFold(team, teamName) {
			continue
		}
		if score, ok := p.scores[team][player]; ok {
			return score
		}
	}
	return 0
}

// LoadInjuries reads the injuries CSV. A missing file yields no rows.
func LoadInjuries(path string) ([]Record, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			Team:       column(row, 0),
			Player:     column(row, 1),
			Position:   column(row, 2),
			ReturnDate: column(row, 3),
			Status:     column(row, 4),
			Comment:    column(row, 5),
		})
	}
	return records, nil
}

// LoadPlayerScores reads the player-score CSV. Column 3 holds the score;
// unparsable values count as 0.
func LoadPlayerScores(path string) (*PlayerScores, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	scores := NewPlayerScores()
	for _, row := range rows {
		scores.Set(column(row, 0), column(row, 1), parseScore(column(row, 3)))
	}
	return scores, nil
}

// Impact returns the HSS penalty for a player with the given status
func Impact(status string, playerScore float64) float64 {
	var base float64
	switch status {
	case StatusOut:
		base = playerScore
	case StatusDayToDay:
		base = playerScore * DayToDayDerate
	default:
		return 0
	}
	return base * ImpactScale
}

// StatusClass turns "Day-To-Day" into "daytoday" for badge styling
func StatusClass(status string) string {
	return strings.ReplaceAll(strings.ToLower(status), "-", "")
}

// readRows returns the data rows of a CSV file without its header
func readRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows [][]string
	header := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if header {
			header = false
			continue
		}
		if isBlank(row) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func column(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// leadingNumber is the numeric prefix of a score cell
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// parseScore reads the leading number of a cell, so "12abc" is 12 and a
// cell without one is 0
func parseScore(s string) float64 {
	v, err := strconv.ParseFloat(leadingNumber.FindString(strings.TrimSpace(s)), 64)
	if err != nil {
		return 0
	}
	return v
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// containsFold reports whether needle occurs in haystack ignoring case
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
