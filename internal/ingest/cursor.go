package ingest

import (
	"fmt"
	"sync"
)

// Start positions for a fresh cursor. "latest" delivers only messages
// appended after the consumer starts; "earliest" replays the full
// stream history.
const (
	StartLatest   = "latest"
	StartEarliest = "earliest"
)

// CursorStore tracks the last successfully processed message ID per
// stream. It is injected into the consumer so tests can drive the
// loop with fake cursors.
type CursorStore interface {
	Get(stream string) string
	Advance(stream, id string)
}

// MemoryCursors is the process-local CursorStore. State lives only in
// memory; a restart re-reads per the configured start position.
type MemoryCursors struct {
	mu  sync.Mutex
	ids map[string]string
}

// NewMemoryCursors initializes cursors for the given streams from an
// explicit start position.
func NewMemoryCursors(startFrom string, streams ...string) (*MemoryCursors, error) {
	var initial string
	switch startFrom {
	case StartLatest:
		initial = "$"
	case StartEarliest:
		initial = "0-0"
	default:
		return nil, fmt.Errorf("unknown start position %q (want %q or %q)", startFrom, StartLatest, StartEarliest)
	}

	ids := make(map[string]string, len(streams))
	for _, s := range streams {
		ids[s] = initial
	}
	return &MemoryCursors{ids: ids}, nil
}

func (m *MemoryCursors) Get(stream string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids[stream]
}

func (m *MemoryCursors) Advance(stream, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[stream] = id
}
