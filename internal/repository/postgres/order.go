package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/minicrm/internal/domain"
)

// OrderRepo provides order persistence. Inserts are unconditional:
// orders have no dedup key, so reprocessing a batch can duplicate
// them (a documented pipeline limitation).
type OrderRepo struct{ db *sql.DB }

// NewOrderRepo creates a Postgres-backed order repository.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// Insert persists a new order.
func (r *OrderRepo) Insert(ctx context.Context, o domain.Order) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (id, customer_email, amount, date, items)
		VALUES ($1, $2, $3, $4, $5)
	`, o.ID, o.CustomerEmail, o.Amount, o.Date, pq.Array(o.Items))
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

const orderColumns = `id, customer_email, amount, date, items`

// List returns all orders, newest first.
func (r *OrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

// Count returns the number of orders.
func (r *OrderRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

// ListByEmail returns all orders for a customer email, newest first.
func (r *OrderRepo) ListByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_email = $1 ORDER BY date DESC`, email)
	if err != nil {
		return nil, fmt.Errorf("list orders by email: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

// GetByID returns a single order, or ErrNotFound.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o := &domain.Order{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.CustomerEmail, &o.Amount, &o.Date, pq.Array(&o.Items))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func scanOrders(rows *sql.Rows) ([]domain.Order, error) {
	out := []domain.Order{}
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.CustomerEmail, &o.Amount, &o.Date, pq.Array(&o.Items)); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if o.Items == nil {
			o.Items = []string{}
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
