// Package service provides the core business service behind the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/combatlog/internal/adapters/mq/queue"
	"github.com/okian/combatlog/internal/adapters/mq/worker"
	"github.com/okian/combatlog/internal/adapters/repository"
	"github.com/okian/combatlog/internal/domain/dedupe"
	"github.com/okian/combatlog/internal/domain/merge"
	"github.com/okian/combatlog/internal/domain/model"
	"github.com/okian/combatlog/internal/domain/selection"
	"github.com/okian/combatlog/internal/domain/smoothing"
	"github.com/okian/combatlog/pkg/logger"
	"github.com/okian/combatlog/pkg/metrics"
)

// Column header prefixes of the merged table.
const (
	attackerPrefix = "attacker: "
	targetPrefix   = "target: "
)

// Service owns the dataset store and the smoothing worker pool.
type Service struct {
	mu sync.RWMutex
	// uploadMu makes the digest lookup and the store write one step, so
	// concurrent uploads of the same content end up as a single dataset.
	uploadMu sync.Mutex

	store   repository.Store
	deduper dedupe.Deduper
	jobs    *queue.InMemoryQueue
	pool    *worker.Pool

	workerCount int
	queueSize   int
	dedupeSize  int
	you         string

	// Guarded by mu; changed at runtime by config reloads.
	window     smoothing.Window
	labelTotal bool

	started bool
	logger  logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   4_096,
		dedupeSize:  10_000,
		you:         selection.DefaultYou,
		window:      smoothing.DefaultWindow(),
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the queue and worker pool. It is a no-op when running.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.jobs, worker.WithLogger(s.logger))
	// Workers stop when the queue closes, not when the start context ends.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "combat log service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("window", s.window.String()),
	)
	return nil
}

// Stop drains the worker pool and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false

	var firstErr error
	if err := s.pool.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	s.logger.Info(ctx, "combat log service stopped")
	return firstErr
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Upload stores a new dataset, or returns the existing one when the same
// content digest was uploaded before.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	if !s.running() {
		return UploadResult{}, ErrNotStarted
	}
	if len(req.Streams) == 0 {
		return UploadResult{}, ErrEmptyUpload
	}
	for i := range req.Streams {
		if err := checkEvents(i, req.Streams[i].Events); err != nil {
			return UploadResult{}, err
		}
	}

	you := req.You
	if you == "" {
		you = s.you
	}
	id := uuid.NewString()

	if req.Digest != "" {
		s.uploadMu.Lock()
		defer s.uploadMu.Unlock()
		if existing, seen := s.deduper.SeenAndRecord(ctx, req.Digest, id); seen {
			if _, err := s.store.Get(ctx, existing); err == nil {
				metrics.RecordDatasetDuplicate()
				s.logger.Debug(ctx, "duplicate upload", logger.String("id", existing))
				return UploadResult{ID: existing, Duplicate: true}, nil
			}
			// The remembered dataset is gone; record the new one instead.
			s.deduper.Unrecord(ctx, req.Digest)
			s.deduper.SeenAndRecord(ctx, req.Digest, id)
		}
	}

	ds := repository.Dataset{
		ID:        id,
		You:       you,
		Digest:    req.Digest,
		CreatedAt: time.Now().UTC(),
		Streams:   req.Streams,
	}
	if err := s.store.Put(ctx, ds); err != nil {
		if req.Digest != "" {
			s.deduper.Unrecord(ctx, req.Digest)
		}
		metrics.RecordErrorByComponent("service", "store_put")
		return UploadResult{}, fmt.Errorf("store dataset: %w", err)
	}

	metrics.RecordDatasetUploaded()
	s.logger.Info(ctx, "dataset stored",
		logger.String("id", id),
		logger.String("you", you),
		logger.Int("streams", len(req.Streams)),
	)
	return UploadResult{ID: id}, nil
}

// Dataset returns the stored dataset or ErrNotFound.
func (s *Service) Dataset(ctx context.Context, id string) (model.Dataset, error) {
	if !s.running() {
		return model.Dataset{}, ErrNotStarted
	}
	return s.store.Get(ctx, id)
}

// Delete removes a dataset and forgets its digest.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !s.running() {
		return ErrNotStarted
	}
	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()
	ds, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if ds.Digest != "" {
		s.deduper.Unrecord(ctx, ds.Digest)
	}
	metrics.RecordDatasetDeleted()
	s.logger.Info(ctx, "dataset deleted", logger.String("id", id))
	return nil
}

// Plots selects the streams of one view and smooths each of them on the
// worker pool. Series keep the order of the dataset's streams.
func (s *Service) Plots(ctx context.Context, id string, req PlotRequest) (PlotResult, error) {
	if !s.running() {
		return PlotResult{}, ErrNotStarted
	}
	view := req.View
	if view == "" {
		view = ViewAttack
	}
	if view != ViewAttack && view != ViewDefense {
		return PlotResult{}, fmt.Errorf("%w: %q", ErrInvalidView, view)
	}

	s.mu.RLock()
	w, labelTotal := s.window, s.labelTotal
	s.mu.RUnlock()
	if req.Window != nil {
		w = *req.Window
	}
	if err := w.Validate(); err != nil {
		return PlotResult{}, err
	}

	ds, err := s.store.Get(ctx, id)
	if err != nil {
		return PlotResult{}, err
	}

	selected := selection.Select(ds.Streams, selection.Criteria{
		You:   ds.You,
		Role:  view.Role(),
		Range: req.Range,
		Label: selection.LabelOptions{TotalDamage: labelTotal},
	})

	curves, err := s.smoothAll(ctx, selected, w)
	if err != nil {
		return PlotResult{}, err
	}

	res := PlotResult{DatasetID: id, View: view, Window: w, Series: make([]Series, len(selected))}
	streams := make([]model.DamageStream, len(selected))
	for i, sel := range selected {
		streams[i] = sel.Stream
		res.Series[i] = Series{
			Label:     sel.Label,
			Attacker:  sel.Stream.Attacker,
			Target:    sel.Stream.Target,
			Weapon:    sel.Stream.Weapon,
			StartTime: sel.Stream.StartTime,
			EndTime:   sel.Stream.EndTime,
			Total:     sel.Stream.TotalDamage,
			Curve:     curves[i],
		}
	}
	res.Bounds, res.HasBounds = selection.Bounds(streams)
	return res, nil
}

// smoothAll fans the selected streams out to the worker pool and gathers
// the curves back by index.
func (s *Service) smoothAll(ctx context.Context, selected []selection.Selected, w smoothing.Window) ([]model.RateCurve, error) {
	curves := make([]model.RateCurve, len(selected))
	if len(selected) == 0 {
		return curves, nil
	}

	reply := make(chan queue.Result, len(selected))
	for i := range selected {
		err := s.jobs.Enqueue(ctx, queue.Job{Index: i, Stream: selected[i].Stream, Window: w, Reply: reply})
		switch {
		case err == nil:
		case errors.Is(err, queue.ErrFull):
			return nil, ErrBackpressure
		default:
			return nil, fmt.Errorf("enqueue smoothing job: %w", err)
		}
	}

	var firstErr error
	for range selected {
		select {
		case r := <-reply:
			if r.Err != nil && firstErr == nil {
				firstErr = fmt.Errorf("smooth stream %d: %w", r.Index, r.Err)
			}
			curves[r.Index] = r.Curve
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return curves, firstErr
}

// Table merges every stream of the dataset into one chronological table.
// Columns are headed "attacker: <label>" for damage you received and
// "target: <label>" for everything else.
func (s *Service) Table(ctx context.Context, id string) (TableResult, error) {
	if !s.running() {
		return TableResult{}, ErrNotStarted
	}
	ds, err := s.store.Get(ctx, id)
	if err != nil {
		return TableResult{}, err
	}

	s.mu.RLock()
	opts := selection.LabelOptions{TotalDamage: s.labelTotal}
	s.mu.RUnlock()

	var (
		streams []model.DamageStream
		headers []string
	)
	for i := range ds.Streams {
		st := &ds.Streams[i]
		if st.Target == ds.You {
			headers = append(headers, attackerPrefix+selection.Label(st, st.Attacker, opts))
		} else {
			headers = append(headers, targetPrefix+selection.Label(st, st.Target, opts))
		}
		streams = append(streams, *st)
	}

	start := time.Now()
	table, err := merge.Merge(streams)
	if err != nil {
		return TableResult{}, err
	}
	metrics.RecordMergeLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordMergedRows(len(table.Rows))

	return TableResult{DatasetID: id, Headers: headers, Table: table}, nil
}

// SetWindow replaces the default smoothing window.
func (s *Service) SetWindow(w smoothing.Window) error {
	if err := w.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.window = w
	s.mu.Unlock()
	return nil
}

// Window returns the default smoothing window.
func (s *Service) Window() smoothing.Window {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window
}

// SetLabelTotalDamage toggles total damage in labels.
func (s *Service) SetLabelTotalDamage(enabled bool) {
	s.mu.Lock()
	s.labelTotal = enabled
	s.mu.Unlock()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"window":      s.window.String(),
	}
	if s.started {
		datasets := s.store.Count(context.Background())
		stats["queueLength"] = s.jobs.Len()
		stats["datasets"] = datasets
		stats["digests"] = s.deduper.Size()
		metrics.UpdateDatasetsStored(datasets)
	}
	return stats
}

// checkEvents rejects streams without events or whose timestamps decrease.
func checkEvents(stream int, events []model.DamageEvent) error {
	if len(events) == 0 {
		return fmt.Errorf("%w: stream %d has no damage events", ErrInvalidEvent, stream)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp < events[i-1].Timestamp {
			return fmt.Errorf("%w: stream %d: timestamp decreases at event %d", ErrInvalidEvent, stream, i)
		}
	}
	return nil
}
