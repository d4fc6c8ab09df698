package worker

import (
	"github.com/okian/combatlog/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithSmoother replaces the smoothing function, mostly for tests.
func WithSmoother(s Smoother) Option {
	return func(w *InMemoryWorker) {
		if s != nil {
			w.smoother = s
		}
	}
}
