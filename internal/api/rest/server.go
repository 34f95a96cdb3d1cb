package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
	logger  zerolog.Logger
}

// NewServer creates a new REST API server
func NewServer(port string, handler *Handler, logger zerolog.Logger) *Server {
	return &Server{
		port:    port,
		handler: handler,
		logger:  logger,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           NewRouter(handler, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter wires every route and middleware
func NewRouter(handler *Handler, logger zerolog.Logger) http.Handler {
	router := mux.NewRouter()

	router.Use(RequestIDMiddleware(logger))
	router.Use(RecoveryMiddleware)

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	api.HandleFunc("/dashboard", handler.GetDashboard).Methods("GET")
	api.HandleFunc("/stats/overall", handler.GetOverallStats).Methods("GET")
	api.HandleFunc("/stats/teams", handler.GetTeamStats).Methods("GET")
	api.HandleFunc("/history", handler.GetHistory).Methods("GET")

	api.HandleFunc("/teams", handler.GetTeams).Methods("GET")
	api.HandleFunc("/teams/{team}/games", handler.GetTeamGames).Methods("GET")
	api.HandleFunc("/teams/{team}/injuries", handler.GetTeamInjuries).Methods("GET")

	return CORSMiddleware()(router)
}

// Start starts the REST API server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("REST API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
