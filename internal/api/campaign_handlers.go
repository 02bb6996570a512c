package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/minicrm/internal/pkg/httputil"
	"github.com/ignite/minicrm/internal/service/campaign"
)

// LaunchCampaign creates a campaign and delivers it to the segment's
// audience synchronously.
//
//	POST /api/campaigns
func (h *Handlers) LaunchCampaign(w http.ResponseWriter, r *http.Request) {
	var input campaign.LaunchInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	c, err := h.campaigns.Launch(r.Context(), input)
	switch {
	case errors.Is(err, campaign.ErrMissingName),
		errors.Is(err, campaign.ErrMissingSegment),
		errors.Is(err, campaign.ErrMissingMessage):
		httputil.BadRequest(w, err.Error())
		return
	case errors.Is(err, campaign.ErrSegmentNotFound):
		httputil.NotFound(w, err.Error())
		return
	case err != nil:
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, c)
}

// ListCampaigns returns all campaigns.
//
//	GET /api/campaigns
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.campaigns.List(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, campaigns)
}

// CountCampaigns returns the campaign count.
//
//	GET /api/campaigns/count
func (h *Handlers) CountCampaigns(w http.ResponseWriter, r *http.Request) {
	n, err := h.campaigns.Count(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]int{"count": n})
}

// GetCampaign returns a single campaign.
//
//	GET /api/campaigns/{id}
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, campaign.ErrNotFound) {
		httputil.NotFound(w, "campaign not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, c)
}

// CampaignLogs returns the delivery log for a campaign.
//
//	GET /api/campaigns/{id}/logs
func (h *Handlers) CampaignLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.campaigns.Logs(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, campaign.ErrNotFound) {
		httputil.NotFound(w, "campaign not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, logs)
}
