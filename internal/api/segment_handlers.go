package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/minicrm/internal/domain"
	"github.com/ignite/minicrm/internal/pkg/httputil"
	"github.com/ignite/minicrm/internal/service/segment"
)

// SegmentInput is the payload for creating a segment.
type SegmentInput struct {
	Name  string        `json:"name"`
	Rules []domain.Rule `json:"rules"`
}

// CreateSegment stores a new audience segment.
//
//	POST /api/segments
func (h *Handlers) CreateSegment(w http.ResponseWriter, r *http.Request) {
	var input SegmentInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	seg, err := h.segments.Create(r.Context(), input.Name, input.Rules)
	switch {
	case errors.Is(err, segment.ErrMissingName),
		errors.Is(err, segment.ErrMissingRules),
		errors.Is(err, segment.ErrInvalidRules):
		httputil.BadRequest(w, err.Error())
		return
	case err != nil:
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, seg)
}

// ListSegments returns all segments.
//
//	GET /api/segments
func (h *Handlers) ListSegments(w http.ResponseWriter, r *http.Request) {
	segments, err := h.segments.List(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, segments)
}

// CountSegments returns the segment count.
//
//	GET /api/segments/count
func (h *Handlers) CountSegments(w http.ResponseWriter, r *http.Request) {
	n, err := h.segments.Count(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]int{"count": n})
}

// GetSegment returns a single segment.
//
//	GET /api/segments/{id}
func (h *Handlers) GetSegment(w http.ResponseWriter, r *http.Request) {
	seg, err := h.segments.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, segment.ErrNotFound) {
		httputil.NotFound(w, "segment not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, seg)
}

// PreviewRules returns the audience size for an ad-hoc rule list
// without storing anything.
//
//	POST /api/segments/preview
func (h *Handlers) PreviewRules(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Rules []domain.Rule `json:"rules"`
	}
	if !httputil.Decode(w, r, &input) {
		return
	}

	n, err := h.segments.PreviewRules(r.Context(), input.Rules)
	if errors.Is(err, segment.ErrInvalidRules) {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]int{"count": n})
}

// PreviewSegment returns the audience size for a stored segment.
//
//	GET /api/segments/{id}/preview
func (h *Handlers) PreviewSegment(w http.ResponseWriter, r *http.Request) {
	n, err := h.segments.PreviewSegment(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, segment.ErrNotFound) {
		httputil.NotFound(w, "segment not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]int{"count": n})
}
