// Package control exposes the bot's state and manual commands over a small
// HTTP JSON surface. It is the presentation boundary: reads are snapshots
// taken between cycles, commands apply before the next cycle starts.
package control

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rayhankar/whale-hunt/internal/engine"
)

// Bot is the engine surface the control server needs.
type Bot interface {
	Snapshot() engine.State
	ManualClose(symbol string) bool
	SetParam(name, value string) error
	SetActive(on bool)
}

// Server wires HTTP handlers around a Bot.
type Server struct {
	bot Bot
	log zerolog.Logger
}

// NewServer constructs the control surface.
func NewServer(bot Bot, log zerolog.Logger) *Server {
	return &Server{bot: bot, log: log}
}

// Handler returns the routed mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/close", s.handleClose)
	mux.HandleFunc("/param", s.handleParam)
	mux.HandleFunc("/active", s.handleActive)
	return mux
}

// Serve starts the control server on addr in the background.
func (s *Server) Serve(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.bot.Snapshot()); err != nil {
		s.log.Warn().Err(err).Msg("encode state failed")
	}
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "missing symbol", http.StatusBadRequest)
		return
	}
	if !s.bot.ManualClose(symbol) {
		http.Error(w, "symbol not held", http.StatusNotFound)
		return
	}
	s.log.Info().Str("sym", symbol).Msg("manual close")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleParam(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := r.URL.Query().Get("name")
	value := r.URL.Query().Get("value")
	if name == "" || value == "" {
		http.Error(w, "missing name or value", http.StatusBadRequest)
		return
	}
	if err := s.bot.SetParam(name, value); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	on := r.URL.Query().Get("on") == "true"
	s.bot.SetActive(on)
	w.WriteHeader(http.StatusNoContent)
}
