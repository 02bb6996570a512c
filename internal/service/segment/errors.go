package segment

import "errors"

// Sentinel errors for the segment service layer.
var (
	ErrNotFound     = errors.New("segment not found")
	ErrMissingName  = errors.New("name is required")
	ErrMissingRules = errors.New("rules are required")
	ErrInvalidRules = errors.New("invalid rules")
)
