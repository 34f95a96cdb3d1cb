package espn

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/hoopsight/internal/injury"
	"github.com/fortuna/hoopsight/internal/teams"
)

// UnknownTeam labels a table whose team header could not be read
const UnknownTeam = "Unknown Team"

// CSVHeader is the header row of the injuries table
var CSVHeader = []string{"team", "player", "position", "estimated_return_date", "status", "comment"}

// ParseInjuries extracts every injured player from the ESPN injuries page.
// Each team is a div.ResponsiveTable; rows with fewer than five cells are
// headers or spacers and are skipped. Team headers are normalized to full
// franchise names through dir; unrecognized headers are kept as scraped.
func ParseInjuries(html string, dir *teams.Directory) ([]injury.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	records := []injury.Record{}
	doc.Find("div.ResponsiveTable").Each(func(_ int, section *goquery.Selection) {
		team := cleanText(section.Find(".injuries__teamName").First().Text())
		if team == "" {
			team = UnknownTeam
		} else if id, ok := dir.Match(team); ok {
			team = id.FullName
		}

		section.Find("tr.Table__TR").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() < 5 {
				return
			}
			cell := func(i int) string {
				return cleanText(cells.Eq(i).Text())
			}
			records = append(records, injury.Record{
				Team:       team,
				Player:     cell(0),
				Position:   cell(1),
				ReturnDate: cell(2),
				Status:     cell(3),
				Comment:    cell(4),
			})
		})
	})

	return records, nil
}

// WriteCSV replaces the injuries table at path. The file is written to a
// temporary sibling and renamed so readers never see a partial table.
func WriteCSV(path string, records []injury.Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".injuries-*.csv")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(CSVHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("writing header: %w", err)
	}
	for _, rec := range records {
		row := []string{rec.Team, rec.Player, rec.Position, rec.ReturnDate, rec.Status, rec.Comment}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("writing row for %s: %w", rec.Player, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
