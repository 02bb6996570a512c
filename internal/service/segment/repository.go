package segment

import (
	"context"

	"github.com/ignite/minicrm/internal/domain"
)

// Repository defines the data access contract for segments.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Create inserts a new segment and returns its ID.
	Create(ctx context.Context, s *domain.Segment) (string, error)

	// List returns all segments, newest first.
	List(ctx context.Context) ([]domain.Segment, error)

	// Count returns the number of segments.
	Count(ctx context.Context) (int, error)

	// Get returns a single segment. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Segment, error)
}

// Audience counts customers matching a rule list.
type Audience interface {
	CountMatching(ctx context.Context, rules []domain.Rule) (int, error)
}
