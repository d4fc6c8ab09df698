package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithDatasets seeds the store, mainly for tests.
func WithDatasets(ds ...Dataset) Option {
	return func(s *MemoryStore) {
		for _, d := range ds {
			if d.ID != "" {
				s.datasets[d.ID] = d
			}
		}
	}
}
