package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/combatlog/pkg/metrics"
)

// MemoryStore keeps datasets in a map guarded by a RW mutex.
type MemoryStore struct {
	mu       sync.RWMutex
	datasets map[string]Dataset
	closed   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{datasets: make(map[string]Dataset)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Put(_ context.Context, ds Dataset) error {
	start := time.Now()
	defer observe("put", start)

	if ds.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.datasets[ds.ID] = ds
	metrics.UpdateDatasetsStored(len(s.datasets))
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Dataset, error) {
	start := time.Now()
	defer observe("get", start)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Dataset{}, ErrClosed
	}
	ds, ok := s.datasets[id]
	if !ok {
		return Dataset{}, ErrNotFound
	}
	return ds, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	start := time.Now()
	defer observe("delete", start)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.datasets[id]; !ok {
		return ErrNotFound
	}
	delete(s.datasets, id)
	metrics.UpdateDatasetsStored(len(s.datasets))
	return nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}

// Close drops all datasets; later calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.datasets = make(map[string]Dataset)
	return nil
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000)
}
