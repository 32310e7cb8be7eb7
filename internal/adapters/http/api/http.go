// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/barrace/internal/adapters/render"
	"github.com/okian/barrace/internal/adapters/repository"
	"github.com/okian/barrace/internal/animator"
	"github.com/okian/barrace/internal/domain/model"
)

// Dependencies required by HTTP handlers. Methods return an error wrapping
// ErrUnavailable while no race is loaded.
type Dependencies interface {
	StatsProvider

	// Frames returns every frame in time key order.
	Frames(ctx context.Context) ([]model.Frame, error)
	// Frame returns the frame at index.
	Frame(ctx context.Context, index int) (model.Frame, error)
	// RenderFrame writes a still image of the frame at index.
	RenderFrame(ctx context.Context, w io.Writer, index int, format render.Format) error

	// Playback control.
	Playback(ctx context.Context) (animator.Status, error)
	StartPlayback(ctx context.Context) (animator.Status, error)
	StopPlayback(ctx context.Context) (animator.Status, error)

	// Viewers serves the websocket stream of render batches.
	Viewers() http.Handler
}

// Server wires HTTP routes for the race API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	framesHandler   *FramesHandler
	playbackHandler *PlaybackHandler
	schemaHandler   *SchemaHandler
	viewers         http.Handler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		framesHandler:   NewFramesHandler(deps),
		playbackHandler: NewPlaybackHandler(deps),
		schemaHandler:   NewSchemaHandler(),
		viewers:         deps.Viewers(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /schema", MetricsMiddleware(s.schemaHandler.HandleSchema, "schema"))

	mux.HandleFunc("GET /frames", MetricsMiddleware(s.framesHandler.HandleListFrames, "frames"))
	mux.HandleFunc("GET /frames/{index}", MetricsMiddleware(s.framesHandler.HandleGetFrame, "frame"))
	mux.HandleFunc("GET /frames/{index}/chart", MetricsMiddleware(s.framesHandler.HandleGetChart, "chart"))

	mux.HandleFunc("GET /playback", MetricsMiddleware(s.playbackHandler.HandleGetPlayback, "playback"))
	mux.HandleFunc("POST /playback/start", MetricsMiddleware(s.playbackHandler.HandleStart, "playback_start"))
	mux.HandleFunc("POST /playback/stop", MetricsMiddleware(s.playbackHandler.HandleStop, "playback_stop"))

	// Websocket upgrades hijack the connection, so the stream is not wrapped.
	mux.Handle("GET /ws", s.viewers)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeUpstreamError translates errors from the dependencies to a status.
func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrInvalidIndex), errors.Is(err, render.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, render.ErrEmptyFrame):
		writeError(w, http.StatusUnprocessableEntity, "empty_frame", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func encodeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
