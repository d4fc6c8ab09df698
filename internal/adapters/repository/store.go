// Package repository stores uploaded combat log datasets.
package repository

import (
	"context"

	"github.com/okian/combatlog/internal/domain/model"
)

// Dataset is the stored shape of an uploaded log.
type Dataset = model.Dataset

// Store provides read/write access to datasets.
type Store interface {
	// Put stores ds under ds.ID, replacing any previous value.
	Put(ctx context.Context, ds Dataset) error

	// Get returns the dataset with id or ErrNotFound.
	Get(ctx context.Context, id string) (Dataset, error)

	// Delete removes the dataset with id or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored datasets.
	Count(ctx context.Context) int

	Close() error
}
