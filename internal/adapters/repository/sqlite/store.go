// Package sqlite persists combat log datasets in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/combatlog/internal/adapters/repository"
	"github.com/okian/combatlog/internal/domain/model"
	"github.com/okian/combatlog/pkg/metrics"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS datasets (
    id TEXT PRIMARY KEY,
    you TEXT NOT NULL,
    digest TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    streams_json BLOB NOT NULL
)`

// Store provides SQLite-backed persistence for datasets.
type Store struct {
	sqlDB *sql.DB
}

var _ repository.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Put upserts a dataset by id.
func (s *Store) Put(ctx context.Context, ds repository.Dataset) error {
	start := time.Now()
	defer observe("put", start)

	if strings.TrimSpace(ds.ID) == "" {
		return repository.ErrMissingID
	}
	payload, err := json.Marshal(toRecords(ds.Streams))
	if err != nil {
		return fmt.Errorf("encode streams: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO datasets (id, you, digest, created_at, streams_json)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		    you = excluded.you,
		    digest = excluded.digest,
		    created_at = excluded.created_at,
		    streams_json = excluded.streams_json`,
		ds.ID, ds.You, ds.Digest, ds.CreatedAt.UTC().UnixMilli(), payload,
	)
	if err != nil {
		return fmt.Errorf("put dataset: %w", err)
	}
	metrics.UpdateDatasetsStored(s.Count(ctx))
	return nil
}

// Get loads a dataset by id.
func (s *Store) Get(ctx context.Context, id string) (repository.Dataset, error) {
	start := time.Now()
	defer observe("get", start)

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, you, digest, created_at, streams_json FROM datasets WHERE id = ?`, id)

	var (
		ds        repository.Dataset
		createdAt int64
		payload   []byte
	)
	if err := row.Scan(&ds.ID, &ds.You, &ds.Digest, &createdAt, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.Dataset{}, repository.ErrNotFound
		}
		return repository.Dataset{}, fmt.Errorf("get dataset: %w", err)
	}
	var records []streamRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return repository.Dataset{}, fmt.Errorf("decode streams: %w", err)
	}
	ds.CreatedAt = time.UnixMilli(createdAt).UTC()
	ds.Streams = fromRecords(records)
	return ds, nil
}

// Delete removes a dataset by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	start := time.Now()
	defer observe("delete", start)

	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	metrics.UpdateDatasetsStored(s.Count(ctx))
	return nil
}

// Count returns the number of stored datasets, or 0 when the query fails.
func (s *Store) Count(ctx context.Context) int {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM datasets`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// streamRecord is the JSON column layout of one stream.
type streamRecord struct {
	Attacker    string       `json:"attacker"`
	Target      string       `json:"target"`
	Weapon      string       `json:"weapon"`
	Ticker      string       `json:"ticker"`
	EnemyShips  string       `json:"enemy_ships"`
	TotalDamage float64      `json:"total_damage"`
	StartTime   int64        `json:"start_time"`
	EndTime     int64        `json:"end_time"`
	Damage      [][2]float64 `json:"damage"`
}

func toRecords(streams []model.DamageStream) []streamRecord {
	out := make([]streamRecord, len(streams))
	for i, s := range streams {
		damage := make([][2]float64, len(s.Events))
		for j, e := range s.Events {
			damage[j] = [2]float64{float64(e.Timestamp), e.Amount}
		}
		out[i] = streamRecord{
			Attacker:    s.Attacker,
			Target:      s.Target,
			Weapon:      s.Weapon,
			Ticker:      s.Ticker,
			EnemyShips:  s.EnemyShips,
			TotalDamage: s.TotalDamage,
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			Damage:      damage,
		}
	}
	return out
}

func fromRecords(records []streamRecord) []model.DamageStream {
	out := make([]model.DamageStream, len(records))
	for i, r := range records {
		events := make([]model.DamageEvent, len(r.Damage))
		for j, d := range r.Damage {
			events[j] = model.DamageEvent{Timestamp: int64(d[0]), Amount: d[1]}
		}
		out[i] = model.DamageStream{
			Attacker:    r.Attacker,
			Target:      r.Target,
			Weapon:      r.Weapon,
			Ticker:      r.Ticker,
			EnemyShips:  r.EnemyShips,
			TotalDamage: r.TotalDamage,
			StartTime:   r.StartTime,
			EndTime:     r.EndTime,
			Events:      events,
		}
	}
	return out
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000)
}
