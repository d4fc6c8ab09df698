package loadgen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/combatlog/pkg/logger"
)

// Run uploads cfg.Datasets engagements, re-uploads the first one to check
// dedupe, then verifies plots and tables of every stored dataset.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("datasets", cfg.Datasets),
		logger.Int("enemies", cfg.Enemies),
		logger.Int("events", cfg.EventsPerStream),
		logger.Int("workers", cfg.Workers),
	)
	if cfg.EventsPerStream < 1 {
		return stats, fmt.Errorf("events per stream must be positive, got %d", cfg.EventsPerStream)
	}
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	gen := NewGenerator(cfg.Seed)
	uploads := make([]Upload, cfg.Datasets)
	for i := range uploads {
		uploads[i] = gen.Engagement(i, cfg.Enemies, cfg.EventsPerStream)
	}

	type outcome struct {
		index int
		id    string
		err   error
	}

	jobs := make(chan int)
	results := make(chan outcome, len(uploads))
	var wg sync.WaitGroup
	for w := 0; w < max(1, cfg.Workers); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				o := outcome{index: i}
				res, err := client.Upload(ctx, uploads[i])
				if err == nil {
					o.id = res.ID
					if err = verifyDataset(ctx, client, uploads[i], res.ID); err == nil && cfg.Verbose {
						log.Info(ctx, "dataset verified", logger.String("id", res.ID))
					}
				}
				o.err = err
				results <- o
			}
		}()
	}
	go func() {
		defer close(jobs)
		for i := range uploads {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()
	close(results)

	ids := make([]string, len(uploads))
	var firstErr error
	for o := range results {
		if o.err != nil {
			stats.Failed++
			log.Warn(ctx, "dataset failed", logger.Int("index", o.index), logger.Error(o.err))
			if firstErr == nil {
				firstErr = o.err
			}
			continue
		}
		ids[o.index] = o.id
		stats.Uploaded++
		stats.Verified++
	}

	if len(uploads) > 0 && ids[0] != "" {
		res, err := client.Upload(ctx, uploads[0])
		switch {
		case err != nil:
			return finish(ctx, stats, log, fmt.Errorf("re-upload: %w", err))
		case !res.Duplicate || res.ID != ids[0]:
			return finish(ctx, stats, log, fmt.Errorf("re-upload of %s was not recognised as a duplicate", ids[0]))
		}
		stats.Duplicates++
	}
	for _, up := range uploads {
		stats.Rows += distinctTimestamps(up)
	}
	return finish(ctx, stats, log, firstErr)
}

func finish(ctx context.Context, stats *Stats, log logger.Logger, err error) (*Stats, error) {
	stats.Duration = time.Since(stats.StartTime)
	log.Info(ctx, "load run completed",
		logger.Int("uploaded", stats.Uploaded),
		logger.Int("verified", stats.Verified),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
	)
	return stats, err
}

func verifyDataset(ctx context.Context, client *Client, up Upload, id string) error {
	var attack, defense int
	for _, s := range up.Streams {
		if s.Attacker == up.You {
			attack++
		}
		if s.Target == up.You {
			defense++
		}
	}

	for view, want := range map[string]int{"attack": attack, "defense": defense} {
		p, err := client.Plots(ctx, id, view)
		if err != nil {
			return err
		}
		if err := VerifyPlots(p, want); err != nil {
			return fmt.Errorf("dataset %s: %w", id, err)
		}
	}

	t, err := client.Table(ctx, id)
	if err != nil {
		return err
	}
	if err := VerifyTable(up, t); err != nil {
		return fmt.Errorf("dataset %s: %w", id, err)
	}
	return nil
}

func distinctTimestamps(up Upload) int {
	seen := map[int64]struct{}{}
	for _, s := range up.Streams {
		for _, d := range s.Damage {
			seen[int64(d[0])] = struct{}{}
		}
	}
	return len(seen)
}
