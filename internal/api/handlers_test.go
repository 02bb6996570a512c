package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/minicrm/internal/config"
	"github.com/ignite/minicrm/internal/domain"
	"github.com/ignite/minicrm/internal/ingest"
	"github.com/ignite/minicrm/internal/queue"
	"github.com/ignite/minicrm/internal/repository/postgres"
)

type fakeCustomerReader struct{ customers []domain.Customer }

func (f fakeCustomerReader) List(context.Context) ([]domain.Customer, error) {
	return f.customers, nil
}
func (f fakeCustomerReader) Count(context.Context) (int, error) { return len(f.customers), nil }
func (f fakeCustomerReader) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	for _, c := range f.customers {
		if c.Email == email {
			return &c, nil
		}
	}
	return nil, postgres.ErrNotFound
}
func (f fakeCustomerReader) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	for _, c := range f.customers {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, postgres.ErrNotFound
}

type fakeOrderReader struct{}

func (fakeOrderReader) List(context.Context) ([]domain.Order, error)  { return nil, nil }
func (fakeOrderReader) Count(context.Context) (int, error)            { return 0, nil }
func (fakeOrderReader) ListByEmail(context.Context, string) ([]domain.Order, error) {
	return nil, nil
}
func (fakeOrderReader) GetByID(context.Context, string) (*domain.Order, error) {
	return nil, postgres.ErrNotFound
}

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

type fakeWriteStore struct{}

func (fakeWriteStore) CreateIfAbsent(context.Context, domain.Customer) (bool, error) {
	return true, nil
}
func (fakeWriteStore) Insert(context.Context, domain.Order) error { return nil }

func newTestServer(t *testing.T) (*Server, *queue.Store) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	q := queue.New(rdb)

	ws := fakeWriteStore{}
	srv := NewServer(config.ServerConfig{AllowedOrigins: []string{"http://localhost:5173"}}, Deps{
		Queue:     q,
		Processor: ingest.NewProcessor(ws, ws, time.Second),
		Customers: fakeCustomerReader{customers: []domain.Customer{
			{ID: "c1", Name: "Ada", Email: "ada@example.com"},
		}},
		Orders: fakeOrderReader{},
		DB:     okPinger{},
	})
	return srv, q
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestEnqueueCustomerAccepted(t *testing.T) {
	srv, q := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/customers",
		`{"name":"Ada","email":"ada@example.com","totalSpend":1000,"visits":3}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body %s)", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "queued" || resp["id"] == "" {
		t.Errorf("response = %v", resp)
	}

	n, err := q.Len(context.Background(), queue.CustomerStream)
	if err != nil {
		t.Fatalf("stream length: %v", err)
	}
	if n != 1 {
		t.Errorf("stream length = %d, want 1", n)
	}
}

func TestEnqueueCustomerRejectsMissingFields(t *testing.T) {
	srv, q := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/customers", `{"name":"Ada"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	n, _ := q.Len(context.Background(), queue.CustomerStream)
	if n != 0 {
		t.Errorf("rejected submission reached the stream")
	}
}

func TestEnqueueOrderRejectsNonPositiveAmount(t *testing.T) {
	srv, q := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/orders",
		`{"customerEmail":"ada@example.com","amount":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	n, _ := q.Len(context.Background(), queue.OrderStream)
	if n != 0 {
		t.Errorf("rejected order reached the stream")
	}
}

func TestEnqueueOrderAccepted(t *testing.T) {
	srv, q := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/orders",
		`{"customerEmail":"ada@example.com","amount":49.5,"items":["book"]}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body %s)", rec.Code, rec.Body.String())
	}

	msgs, err := q.Range(context.Background(), queue.OrderStream)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("stream msgs = %v err = %v", msgs, err)
	}
	if msgs[0].Fields[ingest.FieldItems] != `["book"]` {
		t.Errorf("items field = %q", msgs[0].Fields[ingest.FieldItems])
	}
}

func TestListCustomers(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/customers", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var customers []domain.Customer
	if err := json.Unmarshal(rec.Body.Bytes(), &customers); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(customers) != 1 || customers[0].Email != "ada@example.com" {
		t.Errorf("customers = %v", customers)
	}
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestDebugProcessAllQueued(t *testing.T) {
	srv, q := newTestServer(t)

	_, err := q.Append(context.Background(), queue.CustomerStream, map[string]string{
		ingest.FieldName:  "Ada",
		ingest.FieldEmail: "ada@example.com",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/debug/process-all-queued", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var resp struct {
		Results []ingest.DrainResult `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d, want 2 streams", len(resp.Results))
	}
	if resp.Results[0].Persisted != 1 {
		t.Errorf("customer drain = %+v, want 1 persisted", resp.Results[0])
	}
}

func TestDebugConsumerHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/debug/consumer-health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"redis":"up"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
