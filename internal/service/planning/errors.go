package planning

import "errors"

// Sentinel errors for the planning service layer.
var (
	ErrNotFound          = errors.New("record not found")
	ErrMissingTitle      = errors.New("title is required")
	ErrInvalidTransition = errors.New("invalid status transition")
)
