package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound        = errors.New("campaign not found")
	ErrSegmentNotFound = errors.New("segment not found")
	ErrMissingName     = errors.New("name is required")
	ErrMissingSegment  = errors.New("segmentId is required")
	ErrMissingMessage  = errors.New("message is required")
)
