package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds every runtime setting for the service and CLI
type Config struct {
	// Source files produced by the prediction model and the injury scraper
	PredictionHistoryPath string
	InjuriesPath          string
	PlayerScoresPath      string

	// Optional infrastructure. Empty values disable the component.
	AtlasDSN string
	RedisURL string

	RESTPort string
	WSPort   string
	LogLevel string

	ESPNInjuriesURL string
	CacheTTL        time.Duration

	SourcePollInterval  time.Duration
	InjuryRefreshHour   int
	EnableSourceWatch   bool
	EnableInjuryRefresh bool
}

// FileConfig is the optional TOML overlay. Unset keys leave the env value alone.
type FileConfig struct {
	Sources  SourcesConfig  `toml:"sources"`
	Server   ServerConfig   `toml:"server"`
	Schedule ScheduleConfig `toml:"schedule"`
}

// SourcesConfig maps the [sources] table
type SourcesConfig struct {
	PredictionHistory *string `toml:"prediction_history"`
	Injuries          *string `toml:"injuries"`
	PlayerScores      *string `toml:"player_scores"`
	ESPNInjuriesURL   *string `toml:"espn_injuries_url"`
}

// ServerConfig maps the [server] table
type ServerConfig struct {
	RESTPort *string `toml:"rest_port"`
	WSPort   *string `toml:"ws_port"`
	AtlasDSN *string `toml:"atlas_dsn"`
	RedisURL *string `toml:"redis_url"`
	LogLevel *string `toml:"log_level"`
	CacheTTL *string `toml:"cache_ttl"`
}

// ScheduleConfig maps the [schedule] table
type ScheduleConfig struct {
	SourcePollInterval  *string `toml:"source_poll_interval"`
	InjuryRefreshHour   *int    `toml:"injury_refresh_hour"`
	EnableSourceWatch   *bool   `toml:"enable_source_watch"`
	EnableInjuryRefresh *bool   `toml:"enable_injury_refresh"`
}

// Load reads .env, the environment and the optional TOML file named by HOOPSIGHT_CONFIG
func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := FromEnv()

	if path := os.Getenv("HOOPSIGHT_CONFIG"); path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.Apply(fileCfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("prediction_history", cfg.PredictionHistoryPath).
		Str("injuries", cfg.InjuriesPath).
		Str("player_scores", cfg.PlayerScoresPath).
		Str("rest_port", cfg.RESTPort).
		Str("ws_port", cfg.WSPort).
		Bool("redis", cfg.RedisURL != "").
		Bool("archive", cfg.AtlasDSN != "").
		Dur("source_poll_interval", cfg.SourcePollInterval).
		Msg("configuration loaded")

	return cfg, nil
}

// FromEnv builds a Config from environment variables and defaults only
func FromEnv() *Config {
	return &Config{
		PredictionHistoryPath: getEnv("PREDICTION_HISTORY_PATH", "CSVFiles/prediction_history.json"),
		InjuriesPath:          getEnv("INJURIES_PATH", "data/injuries.csv"),
		PlayerScoresPath:      getEnv("PLAYER_SCORES_PATH", "data/individual_player_scores.csv"),
		AtlasDSN:              getEnv("ATLAS_DSN", ""),
		RedisURL:              getEnv("REDIS_URL", ""),
		RESTPort:              getEnv("REST_PORT", "8080"),
		WSPort:                getEnv("WS_PORT", "8081"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		ESPNInjuriesURL:       getEnv("ESPN_INJURIES_URL", "https://www.espn.com/nba/injuries"),
		CacheTTL:              getEnvDuration("CACHE_TTL", 10*time.Minute),
		SourcePollInterval:    getEnvDuration("SOURCE_POLL_INTERVAL", 30*time.Second),
		InjuryRefreshHour:     getEnvInt("INJURY_REFRESH_HOUR", 9),
		EnableSourceWatch:     getEnv("ENABLE_SOURCE_WATCH", "true") == "true",
		EnableInjuryRefresh:   getEnv("ENABLE_INJURY_REFRESH", "false") == "true",
	}
}

// LoadFile reads a TOML config from path. A missing file is not an error.
func LoadFile(path string) (FileConfig, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var fileCfg FileConfig
	if _, err := toml.DecodeFile(path, &fileCfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return fileCfg, nil
}

// Apply overlays the keys set in the TOML file
func (c *Config) Apply(f FileConfig) error {
	setString(&c.PredictionHistoryPath, f.Sources.PredictionHistory)
	setString(&c.InjuriesPath, f.Sources.Injuries)
	setString(&c.PlayerScoresPath, f.Sources.PlayerScores)
	setString(&c.ESPNInjuriesURL, f.Sources.ESPNInjuriesURL)

	setString(&c.RESTPort, f.Server.RESTPort)
	setString(&c.WSPort, f.Server.WSPort)
	setString(&c.AtlasDSN, f.Server.AtlasDSN)
	setString(&c.RedisURL, f.Server.RedisURL)
	setString(&c.LogLevel, f.Server.LogLevel)
	if f.Server.CacheTTL != nil {
		d, err := time.ParseDuration(*f.Server.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cache_ttl %q: %w", *f.Server.CacheTTL, err)
		}
		c.CacheTTL = d
	}

	if f.Schedule.SourcePollInterval != nil {
		d, err := time.ParseDuration(*f.Schedule.SourcePollInterval)
		if err != nil {
			return fmt.Errorf("invalid source_poll_interval %q: %w", *f.Schedule.SourcePollInterval, err)
		}
		c.SourcePollInterval = d
	}
	if f.Schedule.InjuryRefreshHour != nil {
		c.InjuryRefreshHour = *f.Schedule.InjuryRefreshHour
	}
	if f.Schedule.EnableSourceWatch != nil {
		c.EnableSourceWatch = *f.Schedule.EnableSourceWatch
	}
	if f.Schedule.EnableInjuryRefresh != nil {
		c.EnableInjuryRefresh = *f.Schedule.EnableInjuryRefresh
	}
	return nil
}

// Validate rejects settings the scheduler cannot run with
func (c *Config) Validate() error {
	if c.PredictionHistoryPath == "" {
		return fmt.Errorf("PREDICTION_HISTORY_PATH is required")
	}
	if c.SourcePollInterval <= 0 {
		return fmt.Errorf("source poll interval must be positive, got %v", c.SourcePollInterval)
	}
	if c.InjuryRefreshHour < 0 || c.InjuryRefreshHour > 23 {
		return fmt.Errorf("injury refresh hour must be between 0 and 23, got %d", c.InjuryRefreshHour)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
