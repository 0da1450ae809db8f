package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ogulcanaydogan/pool-watch/pkg/model"
	"github.com/ogulcanaydogan/pool-watch/pkg/storage"
)

// StateReader exposes the notified-pool state.
type StateReader interface {
	Snapshot() map[string]model.NotifyRecord
}

// RunStatus reports whether a cycle is in progress.
type RunStatus interface {
	Running() bool
}

// Server provides health, metrics and inspection endpoints.
type Server struct {
	state   StateReader
	status  RunStatus
	history storage.Storage
	gather  prometheus.Gatherer
	mux     *http.ServeMux
	logger  *slog.Logger
}

// NewServer creates an API server. history may be nil when disabled.
func NewServer(state StateReader, status RunStatus, history storage.Storage, gather prometheus.Gatherer, logger *slog.Logger) *Server {
	s := &Server{
		state:   state,
		status:  status,
		history: history,
		gather:  gather,
		mux:     http.NewServeMux(),
		logger:  logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("GET /api/v1/state", s.handleState)
	s.mux.HandleFunc("GET /api/v1/cycles", s.handleCycles)
	s.mux.HandleFunc("GET /api/v1/notifications", s.handleNotifications)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

type stateEntry struct {
	Address    string    `json:"address"`
	NotifiedAt time.Time `json:"notified_at"`
	Volume     float64   `json:"volume"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"running": s.status.Running(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	snap := s.state.Snapshot()
	entries := make([]stateEntry, 0, len(snap))
	for addr, rec := range snap {
		entries = append(entries, stateEntry{Address: addr, NotifiedAt: rec.NotifiedAt.UTC(), Volume: rec.Volume})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].NotifiedAt.After(entries[j].NotifiedAt)
	})
	writeJSON(w, entries)
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	cycles, err := s.history.ListCycles(ctx, limit)
	if err != nil {
		s.logger.Error("list cycles", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if cycles == nil {
		cycles = []storage.Cycle{}
	}
	writeJSON(w, cycles)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	filter := storage.NotificationFilter{
		Address: q.Get("address"),
		ChainID: q.Get("chain"),
		Limit:   limit,
	}

	items, err := s.history.QueryNotifications(ctx, filter)
	if err != nil {
		s.logger.Error("query notifications", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []storage.Notification{}
	}
	writeJSON(w, items)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
