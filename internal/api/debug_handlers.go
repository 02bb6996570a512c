package api

import (
	"net/http"

	"github.com/ignite/minicrm/internal/ingest"
	"github.com/ignite/minicrm/internal/pkg/httputil"
	"github.com/ignite/minicrm/internal/queue"
)

// streamSnapshot is the per-stream view returned by the debug API.
type streamSnapshot struct {
	Length int64           `json:"length"`
	Latest []queue.Message `json:"latest"`
}

var ingestStreams = []string{queue.CustomerStream, queue.OrderStream}

// DebugStreams reports the length and newest entries of each ingestion
// stream and its dead-letter side stream.
//
//	GET /api/debug/streams
func (h *Handlers) DebugStreams(w http.ResponseWriter, r *http.Request) {
	out := map[string]streamSnapshot{}
	for _, stream := range ingestStreams {
		for _, name := range []string{stream, queue.DeadLetterStream(stream)} {
			length, err := h.queue.Len(r.Context(), name)
			if err != nil {
				httputil.InternalError(w, err)
				return
			}
			latest, err := h.queue.RevRange(r.Context(), name, 5)
			if err != nil {
				httputil.InternalError(w, err)
				return
			}
			out[name] = streamSnapshot{Length: length, Latest: latest}
		}
	}
	httputil.OK(w, out)
}

// DebugProcessAllQueued synchronously drains both ingestion streams
// through the consumer's processing path. Meant for development and
// recovery, not routine operation.
//
//	POST /api/debug/process-all-queued
func (h *Handlers) DebugProcessAllQueued(w http.ResponseWriter, r *http.Request) {
	results := make([]ingest.DrainResult, 0, len(ingestStreams))
	for _, stream := range ingestStreams {
		res, err := ingest.Drain(r.Context(), h.queue, h.processor, stream)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		results = append(results, res)
	}
	httputil.OK(w, map[string]any{"results": results})
}

// DebugConsumerHealth checks the pipeline's dependencies and reports
// stream depths.
//
//	GET /api/debug/consumer-health
func (h *Handlers) DebugConsumerHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}

	if err := h.queue.Ping(r.Context()); err != nil {
		checks["redis"] = "down: " + err.Error()
	} else {
		checks["redis"] = "up"
	}

	if err := h.db.PingContext(r.Context()); err != nil {
		checks["database"] = "down: " + err.Error()
	} else {
		checks["database"] = "up"
	}

	depths := map[string]int64{}
	for _, stream := range ingestStreams {
		for _, name := range []string{stream, queue.DeadLetterStream(stream)} {
			length, err := h.queue.Len(r.Context(), name)
			if err != nil {
				continue
			}
			depths[name] = length
		}
	}

	status := "ok"
	for _, v := range checks {
		if v != "up" {
			status = "degraded"
		}
	}

	httputil.OK(w, map[string]any{
		"status":  status,
		"checks":  checks,
		"streams": depths,
	})
}
