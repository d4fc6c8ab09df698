package repository

import "errors"

// Sentinel kinds for dataset store errors.
var (
	ErrNotFound  = errors.New("dataset not found")
	ErrMissingID = errors.New("dataset id is required")
	ErrClosed    = errors.New("store closed")
)
