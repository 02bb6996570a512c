package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/minicrm/internal/ingest"
	"github.com/ignite/minicrm/internal/pkg/httputil"
	"github.com/ignite/minicrm/internal/queue"
	"github.com/ignite/minicrm/internal/repository/postgres"
)

// CustomerInput is the ingestion payload for a customer record.
type CustomerInput struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	TotalSpend float64 `json:"totalSpend"`
	LastActive string  `json:"lastActive"`
	Visits     int     `json:"visits"`
}

// EnqueueCustomer validates the submission and appends it to the
// customer stream. Persistence happens asynchronously in the consumer.
//
//	POST /api/customers
func (h *Handlers) EnqueueCustomer(w http.ResponseWriter, r *http.Request) {
	var input CustomerInput
	if !httputil.Decode(w, r, &input) {
		return
	}
	if err := ingest.ValidateCustomer(input.Name, input.Email); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	fields := map[string]string{
		ingest.FieldName:       input.Name,
		ingest.FieldEmail:      input.Email,
		ingest.FieldTotalSpend: strconv.FormatFloat(input.TotalSpend, 'f', -1, 64),
		ingest.FieldLastActive: input.LastActive,
		ingest.FieldVisits:     strconv.Itoa(input.Visits),
	}

	id, err := h.queue.Append(r.Context(), queue.CustomerStream, fields)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Accepted(w, map[string]string{
		"status":  "queued",
		"id":      id,
		"message": "customer queued for processing",
	})
}

// ListCustomers returns all persisted customers.
//
//	GET /api/customers
func (h *Handlers) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.List(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, customers)
}

// CountCustomers returns the persisted customer count.
//
//	GET /api/customers/count
func (h *Handlers) CountCustomers(w http.ResponseWriter, r *http.Request) {
	n, err := h.customers.Count(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]int{"count": n})
}

// GetCustomerByEmail returns a single customer by email.
//
//	GET /api/customers/by-email/{email}
func (h *Handlers) GetCustomerByEmail(w http.ResponseWriter, r *http.Request) {
	c, err := h.customers.GetByEmail(r.Context(), chi.URLParam(r, "email"))
	if errors.Is(err, postgres.ErrNotFound) {
		httputil.NotFound(w, "customer not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, c)
}

// GetCustomer returns a single customer by ID.
//
//	GET /api/customers/{id}
func (h *Handlers) GetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.customers.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, postgres.ErrNotFound) {
		httputil.NotFound(w, "customer not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, c)
}
