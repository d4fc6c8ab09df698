package service

import (
	"errors"

	"github.com/okian/combatlog/internal/adapters/repository"
)

// Sentinel kinds returned by the service.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBackpressure = errors.New("smoothing queue full")
	ErrEmptyUpload  = errors.New("upload contains no streams")
	ErrInvalidView  = errors.New("invalid view")
	ErrInvalidEvent = errors.New("invalid damage events")
	ErrNotFound     = repository.ErrNotFound
)
