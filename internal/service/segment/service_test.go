package segment_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ignite/minicrm/internal/domain"
	"github.com/ignite/minicrm/internal/service/segment"
)

// memRepo is an in-memory segment repository for unit testing.
type memRepo struct {
	mu       sync.Mutex
	segments map[string]*domain.Segment
}

func newMemRepo() *memRepo {
	return &memRepo{segments: make(map[string]*domain.Segment)}
}

func (m *memRepo) Create(_ context.Context, s *domain.Segment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.segments[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRepo) List(_ context.Context) ([]domain.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Segment{}
	for _, s := range m.segments {
		out = append(out, *s)
	}
	return out, nil
}

func (m *memRepo) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.segments), nil
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.segments[id]
	if !ok {
		return nil, segment.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

type fixedAudience struct{ n int }

func (f fixedAudience) CountMatching(context.Context, []domain.Rule) (int, error) {
	return f.n, nil
}

func TestCreateValidatesInput(t *testing.T) {
	svc := segment.NewService(newMemRepo(), fixedAudience{})

	rules := []domain.Rule{{Field: "totalSpend", Operator: ">", Value: "100"}}

	if _, err := svc.Create(context.Background(), "", rules); !errors.Is(err, segment.ErrMissingName) {
		t.Errorf("missing name: got %v", err)
	}
	if _, err := svc.Create(context.Background(), "VIPs", nil); !errors.Is(err, segment.ErrMissingRules) {
		t.Errorf("missing rules: got %v", err)
	}

	bad := []domain.Rule{{Field: "ssn", Operator: "=", Value: "x"}}
	if _, err := svc.Create(context.Background(), "VIPs", bad); !errors.Is(err, segment.ErrInvalidRules) {
		t.Errorf("invalid rules: got %v", err)
	}

	seg, err := svc.Create(context.Background(), "VIPs", rules)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if seg.ID == "" {
		t.Error("created segment has no ID")
	}
}

func TestPreviewSegment(t *testing.T) {
	repo := newMemRepo()
	svc := segment.NewService(repo, fixedAudience{n: 42})

	seg, err := svc.Create(context.Background(), "Big spenders",
		[]domain.Rule{{Field: "totalSpend", Operator: ">", Value: "5000"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := svc.PreviewSegment(context.Background(), seg.ID)
	if err != nil {
		t.Fatalf("PreviewSegment: %v", err)
	}
	if n != 42 {
		t.Errorf("audience = %d, want 42", n)
	}

	if _, err := svc.PreviewSegment(context.Background(), "missing"); !errors.Is(err, segment.ErrNotFound) {
		t.Errorf("missing segment: got %v", err)
	}
}

func TestPreviewRulesValidatesFirst(t *testing.T) {
	svc := segment.NewService(newMemRepo(), fixedAudience{n: 7})

	n, err := svc.PreviewRules(context.Background(),
		[]domain.Rule{{Field: "visits", Operator: ">", Value: "2"}})
	if err != nil {
		t.Fatalf("PreviewRules: %v", err)
	}
	if n != 7 {
		t.Errorf("audience = %d, want 7", n)
	}

	_, err = svc.PreviewRules(context.Background(),
		[]domain.Rule{{Field: "visits", Operator: "~", Value: "2"}})
	if !errors.Is(err, segment.ErrInvalidRules) {
		t.Errorf("invalid rules: got %v", err)
	}
}
