// Package domain holds the core CRM entities shared by the API,
// the ingestion consumer, and the persistence layer.
package domain

import "time"

// Customer is a persisted CRM customer. Email is the natural key:
// at most one customer exists per lower-cased, trimmed email.
type Customer struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	TotalSpend float64   `json:"totalSpend"`
	LastActive time.Time `json:"lastActive"`
	Visits     int       `json:"visits"`
}
