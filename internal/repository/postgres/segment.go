package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/minicrm/internal/domain"
	"github.com/ignite/minicrm/internal/service/segment"
)

// SegmentRepo provides segment persistence. Rules are stored as a
// JSONB document so the rule DSL can grow without schema changes.
type SegmentRepo struct{ db *sql.DB }

// NewSegmentRepo creates a Postgres-backed segment repository.
func NewSegmentRepo(db *sql.DB) *SegmentRepo { return &SegmentRepo{db: db} }

// Create inserts a new segment and returns its ID.
func (r *SegmentRepo) Create(ctx context.Context, s *domain.Segment) (string, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	rules, err := json.Marshal(s.Rules)
	if err != nil {
		return "", fmt.Errorf("marshal rules: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO segments (id, name, rules)
		VALUES ($1, $2, $3)
	`, s.ID, s.Name, rules)
	if err != nil {
		return "", fmt.Errorf("insert segment: %w", err)
	}
	return s.ID, nil
}

const segmentColumns = `id, name, rules, created_at`

// List returns all segments, newest first.
func (r *SegmentRepo) List(ctx context.Context) ([]domain.Segment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+segmentColumns+` FROM segments ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	out := []domain.Segment{}
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Count returns the number of segments.
func (r *SegmentRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM segments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count segments: %w", err)
	}
	return n, nil
}

// Get returns a single segment, or segment.ErrNotFound.
func (r *SegmentRepo) Get(ctx context.Context, id string) (*domain.Segment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+segmentColumns+` FROM segments WHERE id = $1`, id)
	s, err := scanSegment(row)
	if err == sql.ErrNoRows {
		return nil, segment.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get segment: %w", err)
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSegment(row rowScanner) (*domain.Segment, error) {
	s := &domain.Segment{}
	var rules []byte
	if err := row.Scan(&s.ID, &s.Name, &rules, &s.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan segment: %w", err)
	}
	if err := json.Unmarshal(rules, &s.Rules); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return s, nil
}
