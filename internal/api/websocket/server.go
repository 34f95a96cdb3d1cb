package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/fortuna/hoopsight/internal/service"
)

// Message types pushed to dashboard subscribers
const (
	MessageDashboard = "dashboard"
	MessageRefreshed = "dashboard.refreshed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// DashboardSource builds the dashboard sent to new subscribers
type DashboardSource interface {
	Build(ctx context.Context) (*service.Dashboard, error)
}

// Message is the envelope for every frame the server sends
type Message struct {
	Type        string              `json:"type"`
	Fingerprint string              `json:"fingerprint"`
	GeneratedAt time.Time           `json:"generated_at"`
	Overall     service.OverallCard `json:"overall"`
	Teams       []service.TeamRow   `json:"teams"`
}

// Server pushes dashboard updates to websocket subscribers
type Server struct {
	port       string
	server     *http.Server
	hub        *Hub
	dashboards DashboardSource
	logger     zerolog.Logger
}

// NewServer creates a new WebSocket server
func NewServer(port string, dashboards DashboardSource, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "websocket").Logger()
	s := &Server{
		port:       port,
		hub:        NewHub(logger),
		dashboards: dashboards,
		logger:     logger,
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes returns the websocket server's HTTP handler
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/dashboard", s.handleDashboard)
	mux.HandleFunc("/ws/health", s.handleHealth)
	return mux
}

// Start runs the hub and serves until Shutdown
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)

	s.logger.Info().Str("addr", s.server.Addr).Msg("WebSocket server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Hub exposes the client hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// handleDashboard upgrades the connection, sends the current dashboard and
// then streams refreshes
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	if d, err := s.dashboards.Build(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("failed to build initial dashboard")
	} else if msg, err := EncodeDashboard(MessageDashboard, d); err == nil {
		client.send <- msg
	}

	if !s.hub.add(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// handleHealth returns WebSocket server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"clients": s.hub.ClientCount(),
	})
}

// BroadcastDashboard pushes a refreshed dashboard to every subscriber
func (s *Server) BroadcastDashboard(d *service.Dashboard) error {
	msg, err := EncodeDashboard(MessageRefreshed, d)
	if err != nil {
		return err
	}
	s.hub.Broadcast(msg)
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// EncodeDashboard wraps a dashboard in a typed message
func EncodeDashboard(msgType string, d *service.Dashboard) ([]byte, error) {
	data, err := json.Marshal(Message{
		Type:        msgType,
		Fingerprint: d.Fingerprint,
		GeneratedAt: d.GeneratedAt,
		Overall:     d.Overall,
		Teams:       d.Teams,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding %s message: %w", msgType, err)
	}
	return data, nil
}
