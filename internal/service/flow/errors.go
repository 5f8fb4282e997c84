package flow

import "errors"

// Sentinel errors for the flow service layer.
var (
	ErrNotFound        = errors.New("flow not found")
	ErrMissingName     = errors.New("flow name is required")
	ErrMissingChannels = errors.New("flow needs at least one channel")
	ErrInvalidPriority = errors.New("priority must be between 1 and 100")
)
