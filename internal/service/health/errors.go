package health

import "errors"

// Sentinel errors for the health service layer.
var (
	ErrNotFound     = errors.New("health flag not found")
	ErrInvalidRange = errors.New("start date must not be after end date")
)
