package domain

import "time"

// Order references its customer by email value; the reference is not
// enforced, and duplicate orders are allowed (no dedup key).
type Order struct {
	ID            string    `json:"id"`
	CustomerEmail string    `json:"customerEmail"`
	Amount        float64   `json:"amount"`
	Date          time.Time `json:"date"`
	Items         []string  `json:"items"`
}
