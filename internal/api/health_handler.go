package api

import (
	"net/http"

	"github.com/ignite/minicrm/internal/pkg/httputil"
)

// HealthCheck is the liveness probe.
//
//	GET /api/health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}
