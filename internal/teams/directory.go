// Package teams holds the static NBA team reference table shared by every component.
package teams

import (
	"sort"
	"strings"
)

// Identity describes one franchise
type Identity struct {
	ShortCode    string `json:"short_code"`
	FullName     string `json:"full_name"`
	Abbreviation string `json:"abbreviation"`
}

// franchises uses the short codes emitted by the prediction model as the primary key
var franchises = []Identity{
	{"Atlanta", "Atlanta Hawks", "ATL"},
	{"Boston", "Boston Celtics", "BOS"},
	{"Brooklyn", "Brooklyn Nets", "BKN"},
	{"Charlotte", "Charlotte Hornets", "CHA"},
	{"Chicago", "Chicago Bulls", "CHI"},
	{"Cleveland", "Cleveland Cavaliers", "CLE"},
	{"Dallas", "Dallas Mavericks", "DAL"},
	{"Denver", "Denver Nuggets", "DEN"},
	{"Detroit", "Detroit Pistons", "DET"},
	{"Golden State", "Golden State Warriors", "GSW"},
	{"Houston", "Houston Rockets", "HOU"},
	{"Indiana", "Indiana Pacers", "IND"},
	{"LA Clippers", "Los Angeles Clippers", "LAC"},
	{"LA Lakers", "Los Angeles Lakers", "LAL"},
	{"Memphis", "Memphis Grizzlies", "MEM"},
	{"Miami", "Miami Heat", "MIA"},
	{"Milwaukee", "Milwaukee Bucks", "MIL"},
	{"Minnesota", "Minnesota Timberwolves", "MIN"},
	{"New Orleans", "New Orleans Pelicans", "NOP"},
	{"New York", "New York Knicks", "NYK"},
	{"Oklahoma City", "Oklahoma City Thunder", "OKC"},
	{"Orlando", "Orlando Magic", "ORL"},
	{"Philadelphia", "Philadelphia 76ers", "PHI"},
	{"Phoenix", "Phoenix Suns", "PHX"},
	{"Portland", "Portland Trail Blazers", "POR"},
	{"Sacramento", "Sacramento Kings", "SAC"},
	{"San Antonio", "San Antonio Spurs", "SAS"},
	{"Toronto", "Toronto Raptors", "TOR"},
	{"Utah", "Utah Jazz", "UTA"},
	{"Washington", "Washington Wizards", "WAS"},
}

// aliases seen in CSV exports and scraped pages, keyed to a short code
var aliases = map[string]string{
	"Okla City": "Oklahoma City",
	"GS":        "Golden State",
	"NY":        "New York",
	"SA":        "San Antonio",
	"NO":        "New Orleans",
	"BRK":       "Brooklyn",
	"PHO":       "Phoenix",
	"CHO":       "Charlotte",
	"UTAH":      "Utah",
	"WSH":       "Washington",
}

// Directory resolves team codes, abbreviations and aliases to identities.
// It is immutable after construction and safe for concurrent use.
type Directory struct {
	byKey   map[string]*Identity
	ordered []Identity
}

// NewDirectory builds the directory from the embedded franchise table
func NewDirectory() *Directory {
	d := &Directory{
		byKey:   make(map[string]*Identity, len(franchises)*3+len(aliases)),
		ordered: make([]Identity, len(franchises)),
	}
	copy(d.ordered, franchises)

	for i := range d.ordered {
		id := &d.ordered[i]
		d.byKey[id.ShortCode] = id
		d.byKey[id.FullName] = id
		d.byKey[id.Abbreviation] = id
	}
	for alias, code := range aliases {
		d.byKey[alias] = d.byKey[code]
	}

	return d
}

// Lookup returns the identity for a code, abbreviation, alias or full name
func (d *Directory) Lookup(code string) (Identity, bool) {
	id, ok := d.byKey[strings.TrimSpace(code)]
	if !ok {
		return Identity{}, false
	}
	return *id, true
}

// FullName returns the franchise name, or the input unchanged if unknown
func (d *Directory) FullName(code string) string {
	if id, ok := d.Lookup(code); ok {
		return id.FullName
	}
	return code
}

// Abbreviation returns the three-letter code, or the input unchanged if unknown
func (d *Directory) Abbreviation(code string) string {
	if id, ok := d.Lookup(code); ok {
		return id.Abbreviation
	}
	return code
}

// Canonical is the key used for identity comparison across sources
func (d *Directory) Canonical(code string) string {
	return d.FullName(strings.TrimSpace(code))
}

// SameTeam reports whether two identifiers name the same franchise.
// Identical strings always match, including unknown ones.
func (d *Directory) SameTeam(a, b string) bool {
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	return d.Canonical(a) == d.Canonical(b)
}

// All returns the franchises sorted by full name
func (d *Directory) All() []Identity {
	out := make([]Identity, len(d.ordered))
	copy(out, d.ordered)
	sort.Slice(out, func(i, j int) bool {
		return out[i].FullName < out[j].FullName
	})
	return out
}

// nicknames maps lower-case nicknames to abbreviations for free-text matching
var nicknames = map[string]string{
	"hawks":        "ATL",
	"celtics":      "BOS",
	"nets":         "BKN",
	"hornets":      "CHA",
	"bulls":        "CHI",
	"cavaliers":    "CLE",
	"mavericks":    "DAL",
	"nuggets":      "DEN",
	"pistons":      "DET",
	"warriors":     "GSW",
	"rockets":      "HOU",
	"pacers":       "IND",
	"clippers":     "LAC",
	"lakers":       "LAL",
	"grizzlies":    "MEM",
	"heat":         "MIA",
	"bucks":        "MIL",
	"timberwolves": "MIN",
	"pelicans":     "NOP",
	"knicks":       "NYK",
	"thunder":      "OKC",
	"magic":        "ORL",
	"76ers":        "PHI",
	"suns":         "PHX",
	"blazers":      "POR",
	"kings":        "SAC",
	"spurs":        "SAS",
	"raptors":      "TOR",
	"jazz":         "UTA",
	"wizards":      "WAS",
}

// Match resolves free text such as a scraped header ("Boston Celtics",
// "LA Clippers Injuries") to an identity. Exact keys win over nickname search.
func (d *Directory) Match(text string) (Identity, bool) {
	if id, ok := d.Lookup(text); ok {
		return id, true
	}

	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return Identity{}, false
	}
	for _, word := range strings.Fields(lower) {
		if abbr, ok := nicknames[word]; ok {
			return d.Lookup(abbr)
		}
	}
	// "trail blazers" and similar multi-word names
	for nick, abbr := range nicknames {
		if strings.Contains(lower, nick) {
			return d.Lookup(abbr)
		}
	}
	return Identity{}, false
}
