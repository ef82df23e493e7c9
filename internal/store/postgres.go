package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dayone-labs/kchart-crawler/internal/chart"
)

// pool is the subset of pgxpool.Pool the store uses. Tests substitute a
// pgxmock pool through it.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool pool
}

// NewPostgres connects a pooled Postgres store.
func NewPostgres(ctx context.Context, dsn string, maxConns, minConns int32) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}
	if minConns > 0 {
		poolCfg.MinConns = minConns
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{pool: p}, nil
}

// NewPostgresWithPool wraps an existing pool. Tests use it with pgxmock.
func NewPostgresWithPool(p pool) *Postgres {
	return &Postgres{pool: p}
}

// Close implements Store.
func (s *Postgres) Close() {
	s.pool.Close()
}

// AppendLog implements Store. Raw entries travel in the metadata column
// as {"songs": [...]} so downstream consumers can replay a run.
func (s *Postgres) AppendLog(ctx context.Context, rec chart.LogRecord) error {
	query := `
		INSERT INTO crawler_logs (platform, status, execution_time, songs_found, error_message, error_type, metadata, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8);
	`
	var metadata []byte
	if len(rec.RawEntries) > 0 {
		var err error
		metadata, err = json.Marshal(map[string]any{"songs": rec.RawEntries})
		if err != nil {
			return fmt.Errorf("failed to encode log metadata: %w", err)
		}
	}
	_, err := s.pool.Exec(ctx, query,
		rec.SourceID,
		string(rec.Status),
		rec.DurationMs,
		rec.EntryCount,
		rec.ErrorMessage,
		rec.ErrorKind,
		metadata,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append crawler log: %w", err)
	}
	return nil
}

// UpsertSnapshot implements Store.
func (s *Postgres) UpsertSnapshot(ctx context.Context, key string, snap chart.Snapshot) error {
	query := `
		INSERT INTO admin_settings (key, value, description, category, updated_at, is_active)
		VALUES ($1, $2, $3, 'chart_data', $4, TRUE)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at, is_active = TRUE;
	`
	value, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, query,
		key,
		value,
		"Latest combined chart data from all platforms",
		snap.CollectedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// Snapshot implements Store.
func (s *Postgres) Snapshot(ctx context.Context, key string) (chart.Snapshot, error) {
	query := `
		SELECT value
		FROM admin_settings
		WHERE key = $1 AND is_active = TRUE;
	`
	var value []byte
	err := s.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return chart.Snapshot{}, ErrNotFound
		}
		return chart.Snapshot{}, fmt.Errorf("failed to get snapshot: %w", err)
	}
	var snap chart.Snapshot
	if err := json.Unmarshal(value, &snap); err != nil {
		return chart.Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}

// RecentLogs implements Store.
func (s *Postgres) RecentLogs(ctx context.Context, limit int) ([]chart.LogRecord, error) {
	query := `
		SELECT platform, status, execution_time, songs_found,
			COALESCE(error_message, ''), COALESCE(error_type, ''), created_at
		FROM crawler_logs
		ORDER BY created_at DESC
		LIMIT $1;
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawler logs: %w", err)
	}
	defer rows.Close()

	var logs []chart.LogRecord
	for rows.Next() {
		var rec chart.LogRecord
		err := rows.Scan(
			&rec.SourceID,
			&rec.Status,
			&rec.DurationMs,
			&rec.EntryCount,
			&rec.ErrorMessage,
			&rec.ErrorKind,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crawler log row: %w", err)
		}
		logs = append(logs, rec)
	}
	return logs, rows.Err()
}

// ScheduleStatus implements Store.
func (s *Postgres) ScheduleStatus(ctx context.Context, jobName string) (chart.ScheduleStatus, error) {
	query := `
		SELECT enabled, last_run, next_run, run_count, success_count, failure_count
		FROM cron_jobs
		WHERE job_name = $1;
	`
	var status chart.ScheduleStatus
	err := s.pool.QueryRow(ctx, query, jobName).Scan(
		&status.Enabled,
		&status.LastRun,
		&status.NextRun,
		&status.RunCount,
		&status.SuccessCount,
		&status.FailureCount,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return chart.ScheduleStatus{}, ErrNotFound
		}
		return chart.ScheduleStatus{}, fmt.Errorf("failed to get cron job status: %w", err)
	}
	return status, nil
}
