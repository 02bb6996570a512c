package campaign

import (
	"context"

	"github.com/ignite/minicrm/internal/domain"
)

// Repository defines the data access contract for campaigns and their
// communication logs.
type Repository interface {
	// Create inserts a new campaign and returns its ID.
	Create(ctx context.Context, c *domain.Campaign) (string, error)

	// List returns all campaigns, newest first.
	List(ctx context.Context) ([]domain.Campaign, error)

	// Count returns the number of campaigns.
	Count(ctx context.Context) (int, error)

	// Get returns a single campaign. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Campaign, error)

	// UpdateStats overwrites a campaign's delivery stats.
	UpdateStats(ctx context.Context, id string, stats domain.CampaignStats) error

	// InsertLog records one delivery attempt.
	InsertLog(ctx context.Context, log *domain.CommunicationLog) error

	// ListLogs returns the delivery log for a campaign, newest first.
	ListLogs(ctx context.Context, campaignID string) ([]domain.CommunicationLog, error)
}

// SegmentSource resolves a segment ID to its stored definition.
type SegmentSource interface {
	Get(ctx context.Context, id string) (*domain.Segment, error)
}

// AudienceSource materializes the customers matching a rule list.
type AudienceSource interface {
	FindMatching(ctx context.Context, rules []domain.Rule) ([]domain.Customer, error)
}
