package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/hoopsight/internal/store"
)

// SnapshotRepository handles accuracy snapshot persistence
type SnapshotRepository struct {
	db *store.Database
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *store.Database) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save archives a snapshot. A fingerprint that was already archived is a no-op
// and returns false.
func (r *SnapshotRepository) Save(ctx context.Context, s *store.Snapshot) (bool, error) {
	query := `
		INSERT INTO accuracy_snapshots (
			fingerprint, total_predictions, completed_games, hoopsight_accuracy,
			espn_accuracy, advantage, team_advantage, avg_margin_error, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (fingerprint) DO NOTHING
		RETURNING id, created_at
	`

	var payload interface{}
	if len(s.Payload) > 0 {
		payload = string(s.Payload)
	}

	err := r.db.DB().QueryRowContext(ctx, query,
		s.Fingerprint, s.TotalPredictions, s.CompletedGames, s.HoopsightAccuracy,
		s.ESPNAccuracy, s.Advantage, s.TeamAdvantage, s.AvgMarginError, payload,
	).Scan(&s.ID, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("inserting snapshot: %w", err)
	}
	return true, nil
}

// ListRecent returns the newest snapshots first, without payloads
func (r *SnapshotRepository) ListRecent(ctx context.Context, limit int) ([]*store.Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, fingerprint, total_predictions, completed_games, hoopsight_accuracy,
			espn_accuracy, advantage, team_advantage, avg_margin_error, created_at
		FROM accuracy_snapshots
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []*store.Snapshot{}
	for rows.Next() {
		s := &store.Snapshot{}
		err := rows.Scan(
			&s.ID, &s.Fingerprint, &s.TotalPredictions, &s.CompletedGames,
			&s.HoopsightAccuracy, &s.ESPNAccuracy, &s.Advantage, &s.TeamAdvantage,
			&s.AvgMarginError, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}
