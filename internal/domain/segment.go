package domain

import "time"

// Rule is one clause of a segment definition: a field, a comparison
// operator (>, <, =, !=) and a string value. For lastActive the value
// is a number of days before now.
type Rule struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// Segment is a named audience defined by a list of rules, combined
// with AND semantics.
type Segment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Rules     []Rule    `json:"rules"`
	CreatedAt time.Time `json:"createdAt"`
}
