package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/barrace/internal/adapters/render"
	"github.com/okian/barrace/internal/domain/model"
)

// FramesDependencies defines the interface for frame reads.
type FramesDependencies interface {
	Frames(ctx context.Context) ([]model.Frame, error)
	Frame(ctx context.Context, index int) (model.Frame, error)
	RenderFrame(ctx context.Context, w io.Writer, index int, format render.Format) error
}

// FramesHandler handles frame and chart requests.
type FramesHandler struct {
	deps FramesDependencies
}

// NewFramesHandler creates a new frames handler.
func NewFramesHandler(deps FramesDependencies) *FramesHandler {
	return &FramesHandler{deps: deps}
}

type framesResponse struct {
	Count  int           `json:"count"`
	Frames []model.Frame `json:"frames"`
}

// HandleListFrames handles GET /frames requests.
func (h *FramesHandler) HandleListFrames(w http.ResponseWriter, r *http.Request) {
	frames, err := h.deps.Frames(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	if frames == nil {
		frames = []model.Frame{}
	}
	writeJSON(w, http.StatusOK, framesResponse{Count: len(frames), Frames: frames})
}

// HandleGetFrame handles GET /frames/{index} requests.
func (h *FramesHandler) HandleGetFrame(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	frame, err := h.deps.Frame(r.Context(), index)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

// HandleGetChart handles GET /frames/{index}/chart?format=png|svg requests.
func (h *FramesHandler) HandleGetChart(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	format, err := render.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	// Buffer so a failed render can still answer with a JSON error.
	var buf bytes.Buffer
	if err := h.deps.RenderFrame(r.Context(), &buf, index, format); err != nil {
		writeUpstreamError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func pathIndex(r *http.Request) (int, error) {
	raw := r.PathValue("index")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("%w: frame index %q", ErrBadRequest, raw)
	}
	return index, nil
}
