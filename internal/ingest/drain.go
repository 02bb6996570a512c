package ingest

import (
	"context"

	"github.com/ignite/minicrm/internal/pkg/logger"
	"github.com/ignite/minicrm/internal/queue"
)

// DrainResult summarizes a synchronous full-stream drain.
type DrainResult struct {
	Stream    string   `json:"stream"`
	Scanned   int      `json:"scanned"`
	Persisted int      `json:"persisted"`
	Errors    []string `json:"errors"`
}

// Drain reads the entire history of a stream and pushes every message
// through the same Processor the consumer loop uses. It is an
// operational escape hatch exposed by the debug API; failures are
// collected, not retried.
func Drain(ctx context.Context, q *queue.Store, p *Processor, stream string) (DrainResult, error) {
	res := DrainResult{Stream: stream, Errors: []string{}}

	msgs, err := q.Range(ctx, stream)
	if err != nil {
		return res, err
	}

	for _, msg := range msgs {
		res.Scanned++
		if err := p.Process(ctx, stream, msg.Fields); err != nil {
			res.Errors = append(res.Errors, msg.ID+": "+err.Error())
			continue
		}
		res.Persisted++
	}

	logger.Info("stream drained", "stream", stream,
		"scanned", res.Scanned, "persisted", res.Persisted, "errors", len(res.Errors))
	return res, nil
}
