// Package postgres implements the persistence layer against
// PostgreSQL using database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/minicrm/internal/domain"
	"github.com/ignite/minicrm/internal/service/segment"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// CustomerRepo provides customer reads and the idempotent write used
// by the ingestion consumer.
type CustomerRepo struct{ db *sql.DB }

// NewCustomerRepo creates a Postgres-backed customer repository.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

// CreateIfAbsent inserts the customer unless one with the same email
// already exists. A unique-constraint violation racing the existence
// check is treated the same as a pre-existing row.
func (r *CustomerRepo) CreateIfAbsent(ctx context.Context, c domain.Customer) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM customers WHERE email = $1)`, c.Email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check customer exists: %w", err)
	}
	if exists {
		return false, nil
	}

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, email, total_spend, last_active, visits)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.Name, c.Email, c.TotalSpend, c.LastActive, c.Visits)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			// Lost the race to a concurrent insert; same outcome as exists.
			return false, nil
		}
		return false, fmt.Errorf("insert customer: %w", err)
	}
	return true, nil
}

const customerColumns = `id, name, email, total_spend, last_active, visits`

// List returns all customers, newest first.
func (r *CustomerRepo) List(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	return scanCustomers(rows)
}

// Count returns the number of customers.
func (r *CustomerRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

// GetByEmail returns the customer with the given email, or ErrNotFound.
func (r *CustomerRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE email = $1`, email)
}

// GetByID returns the customer with the given ID, or ErrNotFound.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
}

func (r *CustomerRepo) getOne(ctx context.Context, q string, arg interface{}) (*domain.Customer, error) {
	c := &domain.Customer{}
	err := r.db.QueryRowContext(ctx, q, arg).
		Scan(&c.ID, &c.Name, &c.Email, &c.TotalSpend, &c.LastActive, &c.Visits)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// CountMatching returns the audience size for a set of segment rules.
func (r *CustomerRepo) CountMatching(ctx context.Context, rules []domain.Rule) (int, error) {
	where, args, err := segment.BuildWhere(rules)
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM customers WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audience: %w", err)
	}
	return n, nil
}

// FindMatching returns the customers matching a set of segment rules.
func (r *CustomerRepo) FindMatching(ctx context.Context, rules []domain.Rule) ([]domain.Customer, error) {
	where, args, err := segment.BuildWhere(rules)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("find audience: %w", err)
	}
	defer rows.Close()
	return scanCustomers(rows)
}

func scanCustomers(rows *sql.Rows) ([]domain.Customer, error) {
	out := []domain.Customer{}
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.TotalSpend, &c.LastActive, &c.Visits); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
