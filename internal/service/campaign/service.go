// Package campaign implements marketing campaigns: launching a
// campaign against a segment's audience, simulating delivery, and
// recording a per-customer communication log.
package campaign

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/minicrm/internal/domain"
	"github.com/ignite/minicrm/internal/pkg/logger"
	"github.com/ignite/minicrm/internal/service/segment"
)

// Service implements campaign business logic. It coordinates the
// segment and audience sources with the campaign repository.
type Service struct {
	repo     Repository
	segments SegmentSource
	audience AudienceSource

	// outcome decides whether a single delivery succeeds. Delivery is
	// simulated, no real provider is called. Overridable in tests.
	outcome func() string
}

// NewService creates a campaign service.
func NewService(repo Repository, segments SegmentSource, audience AudienceSource) *Service {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Service{
		repo:     repo,
		segments: segments,
		audience: audience,
		outcome: func() string {
			// ~90% of deliveries succeed.
			if rng.Float64() < 0.9 {
				return domain.DeliverySent
			}
			return domain.DeliveryFailed
		},
	}
}

// LaunchInput is the request to create and immediately send a campaign.
type LaunchInput struct {
	Name      string `json:"name"`
	SegmentID string `json:"segmentId"`
	Message   string `json:"message"`
}

// Launch creates a campaign, resolves its audience, and simulates
// delivery to every matching customer. The literal token "{name}" in
// the message is replaced with each customer's name.
func (s *Service) Launch(ctx context.Context, input LaunchInput) (*domain.Campaign, error) {
	if input.Name == "" {
		return nil, ErrMissingName
	}
	if input.SegmentID == "" {
		return nil, ErrMissingSegment
	}
	if input.Message == "" {
		return nil, ErrMissingMessage
	}

	seg, err := s.segments.Get(ctx, input.SegmentID)
	if err != nil {
		if errors.Is(err, segment.ErrNotFound) {
			return nil, ErrSegmentNotFound
		}
		return nil, err
	}

	customers, err := s.audience.FindMatching(ctx, seg.Rules)
	if err != nil {
		return nil, err
	}

	c := &domain.Campaign{
		ID:        uuid.New().String(),
		Name:      input.Name,
		SegmentID: seg.ID,
		Message:   input.Message,
		Stats:     domain.CampaignStats{AudienceSize: len(customers)},
	}
	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id

	for _, cust := range customers {
		status := s.outcome()
		log := &domain.CommunicationLog{
			ID:            uuid.New().String(),
			CampaignID:    c.ID,
			CustomerID:    cust.ID,
			CustomerName:  cust.Name,
			CustomerEmail: cust.Email,
			Status:        status,
			Message:       strings.ReplaceAll(input.Message, "{name}", cust.Name),
			SentAt:        time.Now().UTC(),
		}
		if err := s.repo.InsertLog(ctx, log); err != nil {
			logger.Error("failed to record delivery",
				"campaign_id", c.ID,
				"customer", logger.RedactEmail(cust.Email),
				"error", err)
			continue
		}
		if status == domain.DeliverySent {
			c.Stats.Sent++
		} else {
			c.Stats.Failed++
		}
	}

	if err := s.repo.UpdateStats(ctx, c.ID, c.Stats); err != nil {
		return nil, err
	}

	logger.Info("campaign launched",
		"campaign_id", c.ID,
		"segment_id", seg.ID,
		"audience", c.Stats.AudienceSize,
		"sent", c.Stats.Sent,
		"failed", c.Stats.Failed)
	return c, nil
}

// List returns all campaigns.
func (s *Service) List(ctx context.Context) ([]domain.Campaign, error) {
	return s.repo.List(ctx)
}

// Count returns the number of campaigns.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.repo.Get(ctx, id)
}

// Logs returns the delivery log for a campaign.
func (s *Service) Logs(ctx context.Context, campaignID string) ([]domain.CommunicationLog, error) {
	if _, err := s.repo.Get(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.repo.ListLogs(ctx, campaignID)
}
