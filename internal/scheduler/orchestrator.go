package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fortuna/hoopsight/internal/publisher"
	"github.com/fortuna/hoopsight/internal/service"
	"github.com/fortuna/hoopsight/internal/store"
)

// Dashboards recomputes the dashboard and fingerprints its sources
type Dashboards interface {
	Build(ctx context.Context) (*service.Dashboard, error)
	Fingerprint() (string, error)
}

// RefreshPublisher announces recomputed dashboards
type RefreshPublisher interface {
	PublishDashboardRefresh(ctx context.Context, event publisher.RefreshEvent) error
}

// Broadcaster pushes recomputed dashboards to live subscribers
type Broadcaster interface {
	BroadcastDashboard(d *service.Dashboard) error
}

// Archive persists dashboard snapshots
type Archive interface {
	Save(ctx context.Context, s *store.Snapshot) (bool, error)
}

// InjuryRefresher rewrites the injury table from its upstream source
type InjuryRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// Config holds scheduler configuration
type Config struct {
	SourcePollInterval  time.Duration // Default: 30s
	InjuryRefreshHour   int           // Default: 9 (9 AM)
	EnableSourceWatch   bool          // Default: true
	EnableInjuryRefresh bool          // Default: false
	MaxRetries          int           // Default: 3
	RetryDelay          time.Duration // Default: 5s
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		SourcePollInterval:  30 * time.Second,
		InjuryRefreshHour:   9,
		EnableSourceWatch:   true,
		EnableInjuryRefresh: false,
		MaxRetries:          3,
		RetryDelay:          5 * time.Second,
	}
}

// Deps are the collaborators the orchestrator drives. Everything except
// Dashboards is optional.
type Deps struct {
	Dashboards  Dashboards
	Publisher   RefreshPublisher
	Broadcaster Broadcaster
	Archive     Archive
	Injuries    InjuryRefresher
}

// Orchestrator watches the source files and runs the daily injury refresh
type Orchestrator struct {
	deps   Deps
	config *Config
	logger zerolog.Logger

	mu              sync.Mutex
	lastFingerprint string
	lastRefresh     time.Time
	refreshCount    int
}

// NewOrchestrator creates a new scheduler orchestrator
func NewOrchestrator(deps Deps, config *Config, logger zerolog.Logger) (*Orchestrator, error) {
	if deps.Dashboards == nil {
		return nil, fmt.Errorf("scheduler requires a dashboard source")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 1
	}

	return &Orchestrator{
		deps:   deps,
		config: config,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Start runs every enabled task and blocks until ctx is cancelled
func (o *Orchestrator) Start(ctx context.Context) {
	o.logger.Info().
		Bool("source_watch", o.config.EnableSourceWatch).
		Dur("poll_interval", o.config.SourcePollInterval).
		Bool("injury_refresh", o.config.EnableInjuryRefresh && o.deps.Injuries != nil).
		Int("injury_refresh_hour", o.config.InjuryRefreshHour).
		Msg("scheduler starting")

	var wg sync.WaitGroup

	if o.config.EnableSourceWatch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.runSourceWatch(ctx)
		}()
	}

	if o.config.EnableInjuryRefresh && o.deps.Injuries != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.runInjuryRefresh(ctx)
		}()
	}

	<-ctx.Done()
	wg.Wait()
	o.logger.Info().Msg("scheduler stopped")
}

// runSourceWatch polls the source fingerprint and refreshes on change
func (o *Orchestrator) runSourceWatch(ctx context.Context) {
	ticker := time.NewTicker(o.config.SourcePollInterval)
	defer ticker.Stop()

	o.CheckSources(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.CheckSources(ctx)
		}
	}
}

// CheckSources refreshes the dashboard when the source fingerprint differs
// from the last one seen. It reports whether a refresh happened.
func (o *Orchestrator) CheckSources(ctx context.Context) bool {
	fingerprint, err := o.deps.Dashboards.Fingerprint()
	if err != nil {
		o.logger.Warn().Err(err).Msg("failed to fingerprint sources")
		return false
	}

	o.mu.Lock()
	unchanged := fingerprint == o.lastFingerprint
	o.mu.Unlock()
	if unchanged {
		return false
	}

	if err := o.Refresh(ctx); err != nil {
		o.logger.Error().Err(err).Msg("dashboard refresh failed")
		return false
	}
	return true
}

// Refresh rebuilds the dashboard and fans it out to every configured sink.
// Sink failures are logged and do not fail the refresh.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	d, err := o.deps.Dashboards.Build(ctx)
	if err != nil {
		return fmt.Errorf("building dashboard: %w", err)
	}

	o.mu.Lock()
	o.lastFingerprint = d.Fingerprint
	o.lastRefresh = time.Now()
	o.refreshCount++
	o.mu.Unlock()

	stats := d.Overall.Stats
	log := o.logger.Info().Str("fingerprint", d.Fingerprint)
	if stats != nil {
		log = log.Int("completed", stats.CompletedGames).Float64("advantage", stats.Advantage)
	}
	log.Msg("dashboard refreshed")

	if o.deps.Broadcaster != nil {
		if err := o.deps.Broadcaster.BroadcastDashboard(d); err != nil {
			o.logger.Warn().Err(err).Msg("failed to broadcast dashboard")
		}
	}

	if o.deps.Publisher != nil && stats != nil {
		event := publisher.RefreshEvent{
			Fingerprint:       d.Fingerprint,
			TotalPredictions:  stats.TotalPredictions,
			CompletedGames:    stats.CompletedGames,
			HoopsightAccuracy: stats.HoopsightAccuracy,
			ESPNAccuracy:      stats.ESPNAccuracy,
			Advantage:         stats.Advantage,
			TeamAdvantage:     stats.TeamAdvantage,
			GeneratedAt:       d.GeneratedAt,
		}
		if err := o.deps.Publisher.PublishDashboardRefresh(ctx, event); err != nil {
			o.logger.Warn().Err(err).Msg("failed to publish refresh event")
		}
	}

	if o.deps.Archive != nil && d.HasData {
		snap, err := service.SnapshotFromDashboard(d)
		if err != nil {
			o.logger.Warn().Err(err).Msg("failed to build snapshot")
			return nil
		}
		created, err := o.deps.Archive.Save(ctx, snap)
		if err != nil {
			o.logger.Warn().Err(err).Msg("failed to archive snapshot")
			return nil
		}
		if created {
			o.logger.Info().Int("id", snap.ID).Msg("snapshot archived")
		}
	}

	return nil
}

// runInjuryRefresh runs the injury refresh once a day at the configured hour
func (o *Orchestrator) runInjuryRefresh(ctx context.Context) {
	for {
		nextRun := NextRun(time.Now(), o.config.InjuryRefreshHour)
		o.logger.Info().
			Time("next_run", nextRun).
			Dur("wait", time.Until(nextRun).Round(time.Second)).
			Msg("next injury refresh scheduled")

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(nextRun)):
			if err := o.RefreshInjuries(ctx); err != nil {
				o.logger.Error().Err(err).Msg("injury refresh failed")
			}
		}
	}
}

// RefreshInjuries fetches the injury table with retries, then checks the
// sources so the new table is reflected immediately
func (o *Orchestrator) RefreshInjuries(ctx context.Context) error {
	if o.deps.Injuries == nil {
		return fmt.Errorf("no injury source configured")
	}

	var (
		count int
		err   error
	)
	for attempt := 1; attempt <= o.config.MaxRetries; attempt++ {
		count, err = o.deps.Injuries.Refresh(ctx)
		if err == nil {
			break
		}

		o.logger.Warn().Err(err).Int("attempt", attempt).Int("max", o.config.MaxRetries).Msg("injury refresh attempt failed")
		if attempt < o.config.MaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(o.config.RetryDelay):
			}
		}
	}
	if err != nil {
		return fmt.Errorf("all %d attempts failed: %w", o.config.MaxRetries, err)
	}

	o.logger.Info().Int("injuries", count).Msg("injury table refreshed")
	o.CheckSources(ctx)
	return nil
}

// NextRun returns the next time at hour:00 strictly after now
func NextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	return map[string]interface{}{
		"source_watch_enabled":   o.config.EnableSourceWatch,
		"source_poll_interval":   o.config.SourcePollInterval.String(),
		"injury_refresh_enabled": o.config.EnableInjuryRefresh && o.deps.Injuries != nil,
		"injury_refresh_hour":    o.config.InjuryRefreshHour,
		"last_fingerprint":       o.lastFingerprint,
		"last_refresh":           o.lastRefresh,
		"refresh_count":          o.refreshCount,
	}
}
