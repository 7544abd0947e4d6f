// Package api serves the published space model over HTTP and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bryanchriswhite/SpaceBar/internal/config"
	"github.com/bryanchriswhite/SpaceBar/internal/icon"
	"github.com/bryanchriswhite/SpaceBar/internal/logger"
	"github.com/bryanchriswhite/SpaceBar/internal/model"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Version is reported by /api/health.
var Version = "0.1.0"

// Tracker is the subset of the tracking engine the API uses.
type Tracker interface {
	Spaces() []model.Space
	Subscribe() chan []model.Space
	Unsubscribe(ch chan []model.Space)
	Refresh()
	SwitchToSpace(spaceID string, needWindowFocus bool)
	SwitchToWindow(windowID int)
	FocusWindowInSpace(spaceID string, windowID int)
	ProviderName() string
}

// IconSource renders application icons as PNG.
type IconSource interface {
	PNG(app string) ([]byte, error)
}

// Server represents the HTTP API server
type Server struct {
	router    *mux.Router
	tracker   Tracker
	icons     IconSource
	configMgr *config.Manager
	upgrader  websocket.Upgrader
	log       *zerolog.Logger
	http      *http.Server
}

// NewServer creates a new API server. icons and configMgr may be nil.
func NewServer(tracker Tracker, icons IconSource, configMgr *config.Manager) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		tracker:   tracker,
		icons:     icons,
		configMgr: configMgr,
		log:       logger.WithComponent("api"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local consumers only
			},
		},
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes. Routes sit on the root router with
// full paths so a method mismatch answers 405 rather than 404.
func (s *Server) setupRoutes() {
	r := s.router

	// Model
	r.HandleFunc("/api/spaces", s.handleGetSpaces).Methods("GET")
	r.HandleFunc("/api/spaces/stream", s.handleSpaceStream)
	r.HandleFunc("/api/refresh", s.handleRefresh).Methods("POST")

	// Actions
	r.HandleFunc("/api/spaces/{id}/focus", s.handleFocusSpace).Methods("POST")
	r.HandleFunc("/api/windows/{id}/focus", s.handleFocusWindow).Methods("POST")
	r.HandleFunc("/api/spaces/{space}/windows/{id}/focus", s.handleFocusWindowInSpace).Methods("POST")

	r.HandleFunc("/api/icons/{app}", s.handleIcon).Methods("GET")
	r.HandleFunc("/api/config", s.handleGetConfig).Methods("GET")
	r.HandleFunc("/api/health", s.handleHealth).Methods("GET")
}

// Handler returns the router wrapped with CORS headers.
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start serves on localhost:port until Shutdown.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Str("addr", "http://"+addr).Msg("Starting server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", addr, err)
	}
	return nil
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func accepted(w http.ResponseWriter) {
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// HTTP Handlers

func (s *Server) handleGetSpaces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Spaces())
}

func (s *Server) handleSpaceStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	updates := s.tracker.Subscribe()
	defer s.tracker.Unsubscribe(updates)

	// Reads only serve to notice the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(s.tracker.Spaces()); err != nil {
		s.log.Debug().Err(err).Msg("WebSocket write error")
		return
	}

	for {
		select {
		case <-closed:
			return
		case spaces, ok := <-updates:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "tracker stopped"))
				return
			}
			if err := conn.WriteJSON(spaces); err != nil {
				s.log.Debug().Err(err).Msg("WebSocket write error")
				return
			}
		}
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.tracker.Refresh()
	accepted(w)
}

func (s *Server) handleFocusSpace(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	needWindowFocus, _ := strconv.ParseBool(r.URL.Query().Get("window"))
	s.tracker.SwitchToSpace(id, needWindowFocus)
	accepted(w)
}

func (s *Server) handleFocusWindow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "window id must be an integer", http.StatusBadRequest)
		return
	}
	s.tracker.SwitchToWindow(id)
	accepted(w)
}

func (s *Server) handleFocusWindowInSpace(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "window id must be an integer", http.StatusBadRequest)
		return
	}
	space, ok := model.FindSpace(s.tracker.Spaces(), vars["space"])
	if !ok {
		http.Error(w, "no space "+vars["space"], http.StatusNotFound)
		return
	}
	if _, ok := space.Window(id); !ok {
		http.Error(w, fmt.Sprintf("no window %d in space %s", id, space.ID), http.StatusNotFound)
		return
	}
	s.tracker.FocusWindowInSpace(space.ID, id)
	accepted(w)
}

func (s *Server) handleIcon(w http.ResponseWriter, r *http.Request) {
	if s.icons == nil {
		http.Error(w, "icons disabled", http.StatusNotFound)
		return
	}
	app := mux.Vars(r)["app"]
	data, err := s.icons.PNG(app)
	if errors.Is(err, icon.ErrNotFound) {
		http.Error(w, "no icon for "+app, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "max-age=3600")
	w.Write(data)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.configMgr == nil {
		http.Error(w, "no config loaded", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.configMgr.Get())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"version":  Version,
		"provider": s.tracker.ProviderName(),
	})
}
