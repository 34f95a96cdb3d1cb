package espn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fortuna/hoopsight/internal/injury"
	"github.com/fortuna/hoopsight/internal/teams"
)

// ErrNoInjuries is returned when a fetched page contained no injury rows
var ErrNoInjuries = errors.New("no injury rows found")

// Ingester refreshes the injuries CSV from ESPN. Fetchers are tried in order;
// the first page that yields rows wins.
type Ingester struct {
	url      string
	outPath  string
	fetchers []namedFetcher
	teams    *teams.Directory
	logger   zerolog.Logger
}

type namedFetcher struct {
	name string
	Fetcher
}

// NewIngester creates an ingester writing to outPath. An empty url uses InjuriesURL.
func NewIngester(url, outPath string, logger zerolog.Logger) *Ingester {
	if url == "" {
		url = InjuriesURL
	}
	return &Ingester{
		url:     url,
		outPath: outPath,
		teams:   teams.NewDirectory(),
		logger:  logger.With().Str("component", "injury-ingester").Logger(),
	}
}

// AddFetcher appends a fetcher to the fallback chain
func (i *Ingester) AddFetcher(name string, f Fetcher) *Ingester {
	i.fetchers = append(i.fetchers, namedFetcher{name: name, Fetcher: f})
	return i
}

// Fetch downloads and parses the injury report without writing it
func (i *Ingester) Fetch(ctx context.Context) ([]injury.Record, error) {
	if len(i.fetchers) == 0 {
		return nil, fmt.Errorf("no fetchers configured")
	}

	var errs []error
	for _, f := range i.fetchers {
		start := time.Now()

		html, err := f.Fetch(ctx, i.url)
		if err != nil {
			i.logger.Warn().Err(err).Str("fetcher", f.name).Msg("fetch failed, trying next")
			errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
			continue
		}

		records, err := ParseInjuries(html, i.teams)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
			continue
		}
		if len(records) == 0 {
			i.logger.Warn().Str("fetcher", f.name).Msg("page had no injury rows, trying next")
			errs = append(errs, fmt.Errorf("%s: %w", f.name, ErrNoInjuries))
			continue
		}

		i.logger.Info().
			Str("fetcher", f.name).
			Int("injuries", len(records)).
			Dur("elapsed", time.Since(start)).
			Msg("injury report fetched")
		return records, nil
	}

	return nil, fmt.Errorf("fetching %s: %w", i.url, errors.Join(errs...))
}

// Refresh fetches the report and replaces the injuries CSV. It returns the
// number of rows written.
func (i *Ingester) Refresh(ctx context.Context) (int, error) {
	records, err := i.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	if err := WriteCSV(i.outPath, records); err != nil {
		return 0, err
	}
	i.logger.Info().Str("path", i.outPath).Int("injuries", len(records)).Msg("injuries written")
	return len(records), nil
}
