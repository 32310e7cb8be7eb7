package api

import (
	"context"
	"net/http"

	"github.com/okian/barrace/internal/animator"
)

// PlaybackDependencies defines the interface for playback control.
type PlaybackDependencies interface {
	Playback(ctx context.Context) (animator.Status, error)
	StartPlayback(ctx context.Context) (animator.Status, error)
	StopPlayback(ctx context.Context) (animator.Status, error)
}

// PlaybackHandler handles playback status and control requests.
type PlaybackHandler struct {
	deps PlaybackDependencies
}

// NewPlaybackHandler creates a new playback handler.
func NewPlaybackHandler(deps PlaybackDependencies) *PlaybackHandler {
	return &PlaybackHandler{deps: deps}
}

// HandleGetPlayback handles GET /playback requests.
func (h *PlaybackHandler) HandleGetPlayback(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.deps.Playback)
}

// HandleStart handles POST /playback/start requests.
func (h *PlaybackHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.deps.StartPlayback)
}

// HandleStop handles POST /playback/stop requests.
func (h *PlaybackHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.deps.StopPlayback)
}

func (h *PlaybackHandler) respond(w http.ResponseWriter, r *http.Request, call func(context.Context) (animator.Status, error)) {
	status, err := call(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
