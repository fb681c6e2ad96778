// Package server is the local development server: it exposes the latest
// composed scene and its analysis over HTTP and streams orchestrator
// events over a websocket for the dev UI.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/bug39/scenesmith/pkg/analysis"
	"github.com/bug39/scenesmith/pkg/compose"
	"github.com/bug39/scenesmith/pkg/config"
	"github.com/bug39/scenesmith/pkg/placement"
)

// Server serves the dev API for one orchestrator.
type Server struct {
	cfg  config.Engine
	orch *compose.Orchestrator
	port int

	mu     sync.RWMutex
	latest *compose.Result
	busy   bool
}

// New creates a server around an orchestrator.
func New(cfg config.Engine, orch *compose.Orchestrator, port int) *Server {
	return &Server{cfg: cfg, orch: orch, port: port}
}

// Start launches the HTTP server and blocks.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/scene", s.handleScene)
	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.HandleFunc("POST /api/compose", s.handleCompose)
	mux.HandleFunc("GET /ws/events", s.handleEvents)
	mux.HandleFunc("GET /", s.handleIndex)

	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("scenesmith dev server on http://localhost%s", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>scenesmith</title></head>
<body style="margin:0;background:#111;color:#fff;font-family:system-ui;display:flex;align-items:center;justify-content:center;height:100vh">
<div style="text-align:center">
<h1>scenesmith</h1>
<p>POST /api/compose to start a request; watch /ws/events for progress.</p>
</div>
</body></html>`)
}

func (s *Server) handleScene(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if latest == nil {
		json.NewEncoder(w).Encode(map[string]any{"placements": []any{}})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"success":    latest.Success,
		"iterations": latest.Iterations,
		"score":      latest.Score,
		"placements": latest.Placements,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	var placements []placement.Placement
	if s.latest != nil {
		placements = s.latest.Placements
	}
	s.mu.RUnlock()

	report, score := analysis.Analyze(placements, nil, s.cfg)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"collisions":  report,
		"composition": score,
		"summary":     analysis.Summary(report, score),
	})
}

func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Request string `json:"request"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Request == "" {
		http.Error(w, "body must be {\"request\": \"...\"}", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		http.Error(w, "a composition is already running", http.StatusConflict)
		return
	}
	s.busy = true
	s.mu.Unlock()

	go func() {
		res := s.orch.Compose(context.Background(), body.Request)
		s.mu.Lock()
		s.latest = &res
		s.busy = false
		s.mu.Unlock()
		if res.Err != nil {
			log.Printf("composition failed: %v", res.Err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "started"})
}

var upgrader = websocket.Upgrader{
	// Dev server only; same-origin enforcement would block the Vite proxy.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleEvents forwards orchestrator events to the websocket client until
// either side goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		select {
		case ev, ok := <-s.orch.Events():
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
