package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/minicrm/internal/domain"
	"github.com/ignite/minicrm/internal/queue"
)

// fakeCustomerStore dedupes by email like the real repository and can
// be told to fail a given email a number of times.
type fakeCustomerStore struct {
	mu       sync.Mutex
	seen     map[string]bool
	failures map[string]int
}

func newFakeCustomerStore() *fakeCustomerStore {
	return &fakeCustomerStore{seen: make(map[string]bool), failures: make(map[string]int)}
}

func (f *fakeCustomerStore) CreateIfAbsent(_ context.Context, c domain.Customer) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures[c.Email] > 0 {
		f.failures[c.Email]--
		return false, errors.New("store unavailable")
	}
	if f.seen[c.Email] {
		return false, nil
	}
	f.seen[c.Email] = true
	return true, nil
}

type fakeOrderStore struct {
	mu     sync.Mutex
	orders []domain.Order
}

func (f *fakeOrderStore) Insert(_ context.Context, o domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, o)
	return nil
}

func setupQueue(t *testing.T) (*queue.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return queue.New(rdb), mr
}

func newTestConsumer(t *testing.T, q *queue.Store, customers CustomerStore, orders OrderStore, opts Options) (*Consumer, *MemoryCursors) {
	t.Helper()
	cursors, err := NewMemoryCursors(StartEarliest, queue.CustomerStream, queue.OrderStream)
	if err != nil {
		t.Fatalf("NewMemoryCursors: %v", err)
	}
	if opts.Block == 0 {
		opts.Block = 100 * time.Millisecond
	}
	p := NewProcessor(customers, orders, time.Second)
	return NewConsumer(q, p, cursors, opts), cursors
}

func appendCustomer(t *testing.T, q *queue.Store, email string) string {
	t.Helper()
	id, err := q.Append(context.Background(), queue.CustomerStream, map[string]string{
		FieldName:  "Test User",
		FieldEmail: email,
	})
	if err != nil {
		t.Fatalf("append customer: %v", err)
	}
	return id
}

func TestConsumerPersistsAndDedupesCustomers(t *testing.T) {
	q, _ := setupQueue(t)
	customers := newFakeCustomerStore()
	orders := &fakeOrderStore{}
	c, _ := newTestConsumer(t, q, customers, orders, Options{})

	appendCustomer(t, q, "ada@example.com")
	appendCustomer(t, q, "ada@example.com") // duplicate submission
	appendCustomer(t, q, "bob@example.com")

	if err := c.PollOnce(context.Background()); err != nil {
		t.Fatalf("PollOnce: %v", err)
	}

	if len(customers.seen) != 2 {
		t.Errorf("persisted %d distinct customers, want 2", len(customers.seen))
	}
}

func TestConsumerCursorStallsOnFailure(t *testing.T) {
	q, _ := setupQueue(t)
	customers := newFakeCustomerStore()
	customers.failures["bob@example.com"] = 1
	c, cursors := newTestConsumer(t, q, customers, &fakeOrderStore{}, Options{})

	id1 := appendCustomer(t, q, "ada@example.com")
	appendCustomer(t, q, "bob@example.com")
	id3 := appendCustomer(t, q, "eve@example.com")

	if err := c.PollOnce(context.Background()); err != nil {
		t.Fatalf("PollOnce: %v", err)
	}

	// The failure pins the cursor at the last handled prefix message.
	if got := cursors.Get(queue.CustomerStream); got != id1 {
		t.Errorf("cursor = %s, want %s (pinned before failed message)", got, id1)
	}

	// Retry succeeds; cursor catches up and no customer is lost.
	if err := c.PollOnce(context.Background()); err != nil {
		t.Fatalf("PollOnce retry: %v", err)
	}
	if got := cursors.Get(queue.CustomerStream); got != id3 {
		t.Errorf("cursor = %s, want %s after retry", got, id3)
	}
	if len(customers.seen) != 3 {
		t.Errorf("persisted %d customers, want 3", len(customers.seen))
	}
}

func TestConsumerDeadLettersPoisonMessages(t *testing.T) {
	q, _ := setupQueue(t)
	orders := &fakeOrderStore{}
	c, cursors := newTestConsumer(t, q, newFakeCustomerStore(), orders, Options{MaxAttempts: 2})

	// Invalid on every delivery: amount fails validation.
	badID, err := q.Append(context.Background(), queue.OrderStream, map[string]string{
		FieldCustomerEmail: "ada@example.com",
		FieldAmount:        "0",
	})
	if err != nil {
		t.Fatalf("append order: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := c.PollOnce(context.Background()); err != nil {
			t.Fatalf("PollOnce %d: %v", i, err)
		}
	}

	if len(orders.orders) != 0 {
		t.Errorf("invalid order was persisted: %v", orders.orders)
	}

	dead, err := q.Range(context.Background(), queue.DeadLetterStream(queue.OrderStream))
	if err != nil {
		t.Fatalf("read dead letters: %v", err)
	}
	if len(dead) != 1 {
		t.Fatalf("dead letters = %d, want 1", len(dead))
	}
	if dead[0].Fields["origin_id"] != badID {
		t.Errorf("origin_id = %s, want %s", dead[0].Fields["origin_id"], badID)
	}
	if dead[0].Fields["error"] == "" {
		t.Error("dead letter missing error annotation")
	}

	// The cursor moves past the poison message.
	if got := cursors.Get(queue.OrderStream); got != badID {
		t.Errorf("cursor = %s, want %s", got, badID)
	}
}

func TestConsumerValidOrderPersists(t *testing.T) {
	q, _ := setupQueue(t)
	orders := &fakeOrderStore{}
	c, _ := newTestConsumer(t, q, newFakeCustomerStore(), orders, Options{})

	_, err := q.Append(context.Background(), queue.OrderStream, map[string]string{
		FieldCustomerEmail: "ada@example.com",
		FieldAmount:        "250",
		FieldItems:         `["widget"]`,
	})
	if err != nil {
		t.Fatalf("append order: %v", err)
	}

	if err := c.PollOnce(context.Background()); err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	if len(orders.orders) != 1 {
		t.Fatalf("orders persisted = %d, want 1", len(orders.orders))
	}
	if orders.orders[0].Amount != 250 {
		t.Errorf("amount = %v, want 250", orders.orders[0].Amount)
	}
}

func TestStartPositions(t *testing.T) {
	cursors, err := NewMemoryCursors(StartEarliest, queue.CustomerStream)
	if err != nil {
		t.Fatalf("earliest: %v", err)
	}
	if got := cursors.Get(queue.CustomerStream); got != "0-0" {
		t.Errorf("earliest cursor = %s, want 0-0", got)
	}

	cursors, err = NewMemoryCursors(StartLatest, queue.CustomerStream)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got := cursors.Get(queue.CustomerStream); got != "$" {
		t.Errorf("latest cursor = %s, want $", got)
	}

	if _, err := NewMemoryCursors("sometime", queue.CustomerStream); err == nil {
		t.Error("unknown start position should be rejected")
	}
}

func TestDrainSharesProcessorPath(t *testing.T) {
	q, _ := setupQueue(t)
	customers := newFakeCustomerStore()
	p := NewProcessor(customers, &fakeOrderStore{}, time.Second)

	appendCustomer(t, q, "ada@example.com")
	appendCustomer(t, q, "bob@example.com")

	res, err := Drain(context.Background(), q, p, queue.CustomerStream)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if res.Scanned != 2 || res.Persisted != 2 {
		t.Errorf("drain = %+v, want 2 scanned, 2 persisted", res)
	}
	if len(customers.seen) != 2 {
		t.Errorf("persisted %d customers, want 2", len(customers.seen))
	}
}
