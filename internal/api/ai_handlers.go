package api

import (
	"errors"
	"net/http"

	"github.com/ignite/minicrm/internal/ai"
	"github.com/ignite/minicrm/internal/pkg/httputil"
)

// GenerateRules turns a plain-English audience description into
// segment rules.
//
//	POST /api/ai/generate-rules
func (h *Handlers) GenerateRules(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Prompt string `json:"prompt"`
	}
	if !httputil.Decode(w, r, &input) {
		return
	}
	if input.Prompt == "" {
		httputil.BadRequest(w, "prompt is required")
		return
	}

	rules, err := h.ai.GenerateRules(r.Context(), input.Prompt)
	if errors.Is(err, ai.ErrDisabled) {
		httputil.Error(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"rules": rules})
}

// GenerateMessages suggests campaign message variants.
//
//	POST /api/ai/generate-messages
func (h *Handlers) GenerateMessages(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Objective string `json:"objective"`
	}
	if !httputil.Decode(w, r, &input) {
		return
	}
	if input.Objective == "" {
		httputil.BadRequest(w, "objective is required")
		return
	}

	messages, err := h.ai.GenerateMessages(r.Context(), input.Objective)
	if errors.Is(err, ai.ErrDisabled) {
		httputil.Error(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"messages": messages})
}
