// Package main provides the CLI entrypoint for hoopsight.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fortuna/hoopsight/internal/config"
	"github.com/fortuna/hoopsight/internal/logger"
	"github.com/fortuna/hoopsight/internal/service"
	"github.com/fortuna/hoopsight/internal/teams"
)

const (
	serviceName    = "hoopsight"
	serviceVersion = "1.0.0"
)

var logLevel string

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "NBA prediction accuracy reports",
		Version:       serviceVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newInjuriesCmd())

	return rootCmd
}

// setup loads configuration and builds the logger every command shares.
// CLI output goes to stdout, so command logs go to stderr.
func setup(toStderr bool) (*config.Config, zerolog.Logger, error) {
	bootstrap := logger.NewWithWriter(os.Stderr, logLevel)

	cfg, err := config.Load(bootstrap)
	if err != nil {
		return nil, bootstrap, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}

	log := logger.New(level)
	if toStderr {
		log = logger.NewWithWriter(os.Stderr, level)
	}
	return cfg, log.With().Str("service", serviceName).Logger(), nil
}

func newDashboardService(cfg *config.Config, log zerolog.Logger) *service.DashboardService {
	return service.NewDashboardService(service.Sources{
		PredictionHistory: cfg.PredictionHistoryPath,
		Injuries:          cfg.InjuriesPath,
		PlayerScores:      cfg.PlayerScoresPath,
	}, teams.NewDirectory(), log)
}
