package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"HealthTwin/internal/domain/models"
	"HealthTwin/internal/domain/repository"
)

// SQLiteStorage implements Storage on a local SQLite file. Values are kept
// as a JSON object column.
type SQLiteStorage struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" for a
// throwaway store.
func OpenSQLite(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)
	return &SQLiteStorage{db: db}, nil
}

// NewSQLiteStorage wraps an open handle.
func NewSQLiteStorage(db *sql.DB) repository.Storage {
	return &SQLiteStorage{db: db}
}

func (s *SQLiteStorage) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS samples (
			ts INTEGER NOT NULL,
			stream TEXT NOT NULL,
			vals TEXT NOT NULL,
			anomaly INTEGER NOT NULL,
			kind TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS samples_stream_ts ON samples (stream, ts)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite init: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStorage) Store(ctx context.Context, r *models.Reading) error {
	vals, err := json.Marshal(r.Values)
	if err != nil {
		return fmt.Errorf("marshal values: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO samples (ts, stream, vals, anomaly, kind) VALUES (?, ?, ?, ?, ?)",
		r.Timestamp, string(r.Stream), string(vals), r.IsAnomaly, r.AnomalyKind)
	return err
}

func (s *SQLiteStorage) StoreBatch(ctx context.Context, rs []*models.Reading) error {
	if len(rs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO samples (ts, stream, vals, anomaly, kind) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range rs {
		if r == nil || r.Timestamp <= 0 {
			continue
		}
		vals, err := json.Marshal(r.Values)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal values: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, r.Timestamp, string(r.Stream), string(vals), r.IsAnomaly, r.AnomalyKind); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStorage) Query(ctx context.Context, stream models.Stream, from, to time.Time, limit int) ([]*models.Reading, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT ts, vals, anomaly, kind FROM samples WHERE stream = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?",
		string(stream), from.UnixMilli(), to.UnixMilli(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Reading
	for rows.Next() {
		r := models.Reading{Stream: stream}
		var vals string
		if err := rows.Scan(&r.Timestamp, &vals, &r.IsAnomaly, &r.AnomalyKind); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(vals), &r.Values); err != nil {
			return nil, fmt.Errorf("decode values: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
