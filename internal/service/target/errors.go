package target

import "errors"

// Sentinel errors for the target service layer.
var (
	ErrNotFound      = errors.New("target not found")
	ErrInvalidMetric = errors.New("metric name is required")
	ErrInvalidFloor  = errors.New("amber_floor must be a fraction in (0, 1]")
)
