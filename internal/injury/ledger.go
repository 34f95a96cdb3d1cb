// Package injury loads the injury and player-score tables and derives
// per-team HSS penalties from them.
package injury

import (
	"fmt"
)

// Badge severities
const (
	SeverityHealthy  = "healthy"
	SeverityMinor    = "minor"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"

	severeImpact   = 10.0
	moderateImpact = 5.0
)

// Ledger answers injury questions for a team. It is read-only once loaded.
type Ledger struct {
	injuries []Record
	scores   *PlayerScores
}

// Badge is the compact injury summary shown next to a team row
type Badge struct {
	Severity string  `json:"severity"`
	Count    int     `json:"count"`
	Impact   float64 `json:"impact"`
}

// ReportEntry is one injured player in a team report
type ReportEntry struct {
	TeamInjury
	StatusClass string `json:"status_class"`
}

// Report is the full injury view for a team
type Report struct {
	Team        string        `json:"team"`
	Healthy     bool          `json:"healthy"`
	TotalImpact float64       `json:"total_impact"`
	Injuries    []ReportEntry `json:"injuries"`
}

// NewLedger wraps already loaded tables
func NewLedger(injuries []Record, scores *PlayerScores) *Ledger {
	if scores == nil {
		scores = NewPlayerScores()
	}
	return &Ledger{injuries: injuries, scores: scores}
}

// Load reads both tables. Missing files produce an empty ledger.
func Load(injuriesPath, scoresPath string) (*Ledger, error) {
	injuries, err := LoadInjuries(injuriesPath)
	if err != nil {
		return nil, fmt.Errorf("loading injuries: %w", err)
	}
	scores, err := LoadPlayerScores(scoresPath)
	if err != nil {
		return nil, fmt.Errorf("loading player scores: %w", err)
	}
	return NewLedger(injuries, scores), nil
}

// Empty returns a ledger with no injuries
func Empty() *Ledger {
	return NewLedger(nil, nil)
}

// InjuryCount returns the number of loaded injury rows
func (l *Ledger) InjuryCount() int {
	return len(l.injuries)
}

// ScoreCount returns the number of loaded player scores
func (l *Ledger) ScoreCount() int {
	return l.scores.Len()
}

// TeamInjuries returns the injuries whose team matches teamFullName in
// either direction, ignoring case, each with score and impact resolved.
func (l *Ledger) TeamInjuries(teamFullName string) []TeamInjury {
	if teamFullName == "" {
		return []TeamInjury{}
	}

	out := []TeamInjury{}
	for _, rec := range l.injuries {
		if !containsFold(rec.Team, teamFullName) && !containsFold(teamFullName, rec.Team) {
			continue
		}
		score := l.scores.Lookup(teamFullName, rec.Player)
		out = append(out, TeamInjury{
			Record:      rec,
			PlayerScore: score,
			Impact:      Impact(rec.Status, score),
		})
	}
	return out
}

// TeamInjuryImpact sums the impact of every injury for the team
func (l *Ledger) TeamInjuryImpact(teamFullName string) float64 {
	var total float64
	for _, inj := range l.TeamInjuries(teamFullName) {
		total += inj.Impact
	}
	return total
}

// Badge buckets the team's total impact
func (l *Ledger) Badge(teamFullName string) Badge {
	injuries := l.TeamInjuries(teamFullName)
	if len(injuries) == 0 {
		return Badge{Severity: SeverityHealthy}
	}

	var impact float64
	for _, inj := range injuries {
		impact += inj.Impact
	}

	severity := SeverityMinor
	switch {
	case impact > severeImpact:
		severity = SeveritySevere
	case impact > moderateImpact:
		severity = SeverityModerate
	}
	return Badge{Severity: severity, Count: len(injuries), Impact: impact}
}

// Report builds the detailed injury view for the team
func (l *Ledger) Report(teamFullName string) Report {
	injuries := l.TeamInjuries(teamFullName)
	report := Report{
		Team:     teamFullName,
		Healthy:  len(injuries) == 0,
		Injuries: make([]ReportEntry, 0, len(injuries)),
	}
	for _, inj := range injuries {
		report.TotalImpact += inj.Impact
		report.Injuries = append(report.Injuries, ReportEntry{
			TeamInjury:  inj,
			StatusClass: StatusClass(inj.Status),
		})
	}
	return report
}
