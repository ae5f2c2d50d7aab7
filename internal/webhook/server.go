// internal/webhook/server.go
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/nikki/internal/pipeline"
	"github.com/user/nikki/internal/types"
	"github.com/user/nikki/internal/window"
)

// Server is the daemon's HTTP surface: health, manual trigger, run history
// and metrics.
type Server struct {
	runner pipeline.Runner
	runs   types.RunStore
	mux    *http.ServeMux
}

// NewServer creates a Server triggering runs through runner. runs may be nil,
// in which case the history endpoint is unavailable.
func NewServer(runner pipeline.Runner, runs types.RunStore) *Server {
	s := &Server{
		runner: runner,
		runs:   runs,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /run", s.handleRun)
	s.mux.HandleFunc("GET /api/runs", s.handleRuns)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// runRequest is the optional JSON body for POST /run.
type runRequest struct {
	Date string `json:"date"`
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	opts := []pipeline.RunOption{pipeline.WithTrigger("http")}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON"})
		return
	}
	if req.Date != "" {
		target, err := window.ParseDate(req.Date, window.JST)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "date must be YYYY-MM-DD"})
			return
		}
		opts = append(opts, pipeline.ForDate(target))
	}

	// A client disconnect must not abort a run that may already have posted.
	outcome, err := s.runner.Run(context.WithoutCancel(r.Context()), opts...)
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case err != nil:
		slog.Error("triggered run failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error(), Kind: string(pipeline.KindOf(err))})
	default:
		writeJSON(w, http.StatusOK, outcome)
	}
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "run history not configured"})
		return
	}

	limit := 30
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.runs.Tail(r.Context(), limit)
	if err != nil {
		slog.Error("list runs failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		return
	}
	if records == nil {
		records = []*types.RunRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
