package segment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/minicrm/internal/domain"
)

// Service implements segment business logic: CRUD plus audience-size
// previews for stored and ad-hoc rule lists.
type Service struct {
	repo     Repository
	audience Audience
}

// NewService creates a segment service.
func NewService(repo Repository, audience Audience) *Service {
	return &Service{repo: repo, audience: audience}
}

// Create validates and persists a new segment.
func (s *Service) Create(ctx context.Context, name string, rules []domain.Rule) (*domain.Segment, error) {
	if name == "" {
		return nil, ErrMissingName
	}
	if len(rules) == 0 {
		return nil, ErrMissingRules
	}
	// Reject rules the translator cannot express before storing them.
	if _, _, err := BuildWhere(rules); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}

	seg := &domain.Segment{
		ID:    uuid.New().String(),
		Name:  name,
		Rules: rules,
	}
	id, err := s.repo.Create(ctx, seg)
	if err != nil {
		return nil, err
	}
	seg.ID = id
	return seg, nil
}

// List returns all segments.
func (s *Service) List(ctx context.Context) ([]domain.Segment, error) {
	return s.repo.List(ctx)
}

// Count returns the number of segments.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Get returns a single segment.
func (s *Service) Get(ctx context.Context, id string) (*domain.Segment, error) {
	return s.repo.Get(ctx, id)
}

// PreviewRules returns the audience size for an ad-hoc rule list.
func (s *Service) PreviewRules(ctx context.Context, rules []domain.Rule) (int, error) {
	if _, _, err := BuildWhere(rules); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	return s.audience.CountMatching(ctx, rules)
}

// PreviewSegment returns the audience size for a stored segment.
func (s *Service) PreviewSegment(ctx context.Context, id string) (int, error) {
	seg, err := s.repo.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.audience.CountMatching(ctx, seg.Rules)
}
