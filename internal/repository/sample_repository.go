package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"HealthTwin/internal/domain/models"
	"HealthTwin/internal/domain/repository"
)

// SamplesTableDDL returns the statements that create the samples table.
func SamplesTableDDL(database, table string) []string {
	return []string{
		"CREATE DATABASE IF NOT EXISTS " + database,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
	ts DateTime64(3),
	stream LowCardinality(String),
	vals Map(String, Float64),
	anomaly Bool,
	kind String
) ENGINE = MergeTree ORDER BY (stream, ts)`, database, table),
	}
}

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseStorage creates ClickHouse storage. table is fully qualified.
func NewClickHouseStorage(db *sql.DB, table string) repository.Storage {
	return &ClickHouseStorage{db: db, table: table}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // schema init in pkg/clickhouse
}

func (s *ClickHouseStorage) Store(ctx context.Context, r *models.Reading) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, stream, vals, anomaly, kind) VALUES (?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		time.UnixMilli(r.Timestamp).UTC(),
		string(r.Stream),
		r.Values,
		r.IsAnomaly,
		r.AnomalyKind,
	)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, rs []*models.Reading) error {
	if len(rs) == 0 {
		return nil
	}
	// multi-row VALUES in chunks
	const chunkSize = 2000
	for start := 0; start < len(rs); start += chunkSize {
		end := start + chunkSize
		if end > len(rs) {
			end = len(rs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*5)
		for _, r := range rs[start:end] {
			if r == nil || r.Timestamp <= 0 {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args, time.UnixMilli(r.Timestamp).UTC(), string(r.Stream), r.Values, r.IsAnomaly, r.AnomalyKind)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, stream, vals, anomaly, kind) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseStorage) Query(ctx context.Context, stream models.Stream, from, to time.Time, limit int) ([]*models.Reading, error) {
	q := fmt.Sprintf("SELECT ts, vals, anomaly, kind FROM %s WHERE stream = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, string(stream), from.UTC(), to.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Reading
	for rows.Next() {
		r := models.Reading{Stream: stream}
		var ts time.Time
		if err := rows.Scan(&ts, &r.Values, &r.IsAnomaly, &r.AnomalyKind); err != nil {
			return nil, err
		}
		r.Timestamp = ts.UnixMilli()
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // pool owned by pkg/clickhouse
}
