package service

import (
	"github.com/okian/combatlog/internal/adapters/repository"
	"github.com/okian/combatlog/internal/domain/smoothing"
	"github.com/okian/combatlog/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of smoothing workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the smoothing job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the number of remembered upload digests.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the dataset store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWindow sets the default smoothing window. Invalid windows are ignored.
func WithWindow(w smoothing.Window) Option {
	return func(s *Service) {
		if w.Validate() == nil {
			s.window = w
		}
	}
}

// WithYou sets the listener identity used when an upload names none.
func WithYou(you string) Option {
	return func(s *Service) {
		if you != "" {
			s.you = you
		}
	}
}

// WithLabelTotalDamage appends total damage to series labels.
func WithLabelTotalDamage(enabled bool) Option {
	return func(s *Service) {
		s.labelTotal = enabled
	}
}
