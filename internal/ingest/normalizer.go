// Package ingest implements the stream ingestion pipeline: pure
// normalizers that turn flat wire records into typed domain records,
// and the long-running consumer that drains the Redis streams into
// the persistent store.
package ingest

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/minicrm/internal/domain"
)

// Wire field names for the customer stream.
const (
	FieldName       = "name"
	FieldEmail      = "email"
	FieldTotalSpend = "totalSpend"
	FieldLastActive = "lastActive"
	FieldVisits     = "visits"
)

// Wire field names for the order stream.
const (
	FieldCustomerEmail = "customerEmail"
	FieldAmount        = "amount"
	FieldDate          = "date"
	FieldItems         = "items"
)

// NormalizeCustomer converts a customer wire record into a typed
// Customer. Malformed numeric and date fields fall back to defaults
// rather than rejecting the message; the HTTP boundary is responsible
// for requiring name and email before the record is enqueued.
func NormalizeCustomer(fields map[string]string) domain.Customer {
	c := domain.Customer{
		Name:  fields[FieldName],
		Email: strings.ToLower(strings.TrimSpace(fields[FieldEmail])),
	}

	if v, err := strconv.ParseFloat(fields[FieldTotalSpend], 64); err == nil {
		c.TotalSpend = v
	}
	if v, err := strconv.Atoi(fields[FieldVisits]); err == nil {
		c.Visits = v
	}

	c.LastActive = parseTime(fields[FieldLastActive], time.Now().UTC())
	return c
}

// NormalizeOrder converts an order wire record into a typed Order.
// Amount and date coerce with defaults like the customer path, but
// orders are additionally validated: a missing customerEmail or a
// non-positive amount rejects the message with a ValidationError.
func NormalizeOrder(fields map[string]string) (domain.Order, error) {
	o := domain.Order{
		CustomerEmail: fields[FieldCustomerEmail],
		Items:         parseItems(fields[FieldItems]),
	}

	if v, err := strconv.ParseFloat(fields[FieldAmount], 64); err == nil {
		o.Amount = v
	}
	o.Date = parseTime(fields[FieldDate], time.Now().UTC())

	if err := ValidateOrder(o.CustomerEmail, o.Amount); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

// parseTime accepts RFC 3339 timestamps and plain dates; anything
// else yields the fallback.
func parseTime(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}

// parseItems decodes the JSON-encoded item list, defaulting to an
// empty sequence when absent or malformed.
func parseItems(s string) []string {
	if s == "" {
		return []string{}
	}
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return []string{}
	}
	return items
}
