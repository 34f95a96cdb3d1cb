package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DashboardRefreshedStream receives an entry every time the source files change
const DashboardRefreshedStream = "predictions.dashboard.refreshed"

// streamMaxLen keeps the stream bounded
const streamMaxLen = 1000

// RefreshEvent is published when a recomputed dashboard differs from the last one
type RefreshEvent struct {
	Fingerprint       string    `json:"fingerprint"`
	TotalPredictions  int       `json:"total_predictions"`
	CompletedGames    int       `json:"completed_games"`
	HoopsightAccuracy float64   `json:"hoopsight_accuracy"`
	ESPNAccuracy      float64   `json:"espn_accuracy"`
	Advantage         float64   `json:"advantage"`
	TeamAdvantage     float64   `json:"team_advantage"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// RedisStreamPublisher publishes events to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
	}
}

// PublishDashboardRefresh appends a refresh event to the dashboard stream
func (rsp *RedisStreamPublisher) PublishDashboardRefresh(ctx context.Context, event RefreshEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding refresh event: %w", err)
	}

	err = rsp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: DashboardRefreshedStream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":        string(data),
			"fingerprint": event.Fingerprint,
			"timestamp":   time.Now().Unix(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", DashboardRefreshedStream, err)
	}
	return nil
}
