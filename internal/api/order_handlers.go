package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/minicrm/internal/ingest"
	"github.com/ignite/minicrm/internal/pkg/httputil"
	"github.com/ignite/minicrm/internal/queue"
	"github.com/ignite/minicrm/internal/repository/postgres"
)

// OrderInput is the ingestion payload for an order record.
type OrderInput struct {
	CustomerEmail string   `json:"customerEmail"`
	Amount        float64  `json:"amount"`
	Date          string   `json:"date"`
	Items         []string `json:"items"`
}

// EnqueueOrder validates the submission and appends it to the order
// stream. The same acceptance check runs again in the consumer.
//
//	POST /api/orders
func (h *Handlers) EnqueueOrder(w http.ResponseWriter, r *http.Request) {
	var input OrderInput
	if !httputil.Decode(w, r, &input) {
		return
	}
	if err := ingest.ValidateOrder(input.CustomerEmail, input.Amount); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	items, err := json.Marshal(input.Items)
	if err != nil {
		httputil.BadRequest(w, "invalid items")
		return
	}

	fields := map[string]string{
		ingest.FieldCustomerEmail: input.CustomerEmail,
		ingest.FieldAmount:        strconv.FormatFloat(input.Amount, 'f', -1, 64),
		ingest.FieldDate:          input.Date,
		ingest.FieldItems:         string(items),
	}

	id, err := h.queue.Append(r.Context(), queue.OrderStream, fields)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Accepted(w, map[string]string{
		"status":  "queued",
		"id":      id,
		"message": "order queued for processing",
	})
}

// ListOrders returns all persisted orders.
//
//	GET /api/orders
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, orders)
}

// CountOrders returns the persisted order count.
//
//	GET /api/orders/count
func (h *Handlers) CountOrders(w http.ResponseWriter, r *http.Request) {
	n, err := h.orders.Count(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]int{"count": n})
}

// ListOrdersByEmail returns a customer's orders.
//
//	GET /api/orders/by-email/{email}
func (h *Handlers) ListOrdersByEmail(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, orders)
}

// GetOrder returns a single order by ID.
//
//	GET /api/orders/{id}
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, postgres.ErrNotFound) {
		httputil.NotFound(w, "order not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, o)
}
