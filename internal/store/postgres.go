package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"morningbot/internal/platform/pg"
	"morningbot/internal/reminder"
	"morningbot/internal/shared"
)

// PostgresStore keeps schedule entries in a PostgreSQL table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	runner *pg.TxRunner
	log    *slog.Logger
}

// NewPostgresStore waits for the database, applies migrations and opens a pool.
// The wait lets the bot start alongside a database container that is still
// coming up.
func NewPostgresStore(ctx context.Context, dsn, migrationsURL string, log *slog.Logger) (*PostgresStore, error) {
	if err := pg.WaitForDBSimple(ctx, dsn, 30*time.Second); err != nil {
		return nil, shared.MarkKind(fmt.Errorf("store: wait for postgres: %w", err), shared.KindStorage)
	}

	if migrationsURL != "" {
		if err := pg.ApplyMigrations(dsn, migrationsURL); err != nil {
			return nil, shared.MarkKind(fmt.Errorf("store: migrate postgres: %w", err), shared.KindStorage)
		}
		version, dirty, err := pg.GetMigrationVersion(dsn, migrationsURL)
		if err != nil {
			return nil, shared.MarkKind(fmt.Errorf("store: postgres schema version: %w", err), shared.KindStorage)
		}
		log.Debug("postgres schema", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	}

	pool, err := pg.NewPool(ctx, dsn)
	if err != nil {
		return nil, shared.MarkKind(fmt.Errorf("store: connect postgres: %w", err), shared.KindStorage)
	}
	if err := pg.HealthCheckPool(ctx, pool); err != nil {
		pool.Close()
		return nil, shared.MarkKind(fmt.Errorf("store: postgres health check: %w", err), shared.KindStorage)
	}

	return &PostgresStore{pool: pool, runner: pg.NewTxRunner(pool), log: log}, nil
}

func (s *PostgresStore) Append(ctx context.Context, e reminder.ScheduleEntry) error {
	const q = `INSERT INTO schedules (user_id, display_name, trigger_time) VALUES ($1, $2, $3)`

	_, err := s.pool.Exec(ctx, q, e.UserID, e.DisplayName, e.At.String())
	if err != nil {
		return shared.MarkKind(fmt.Errorf("store: insert schedule: %w", err), shared.KindStorage)
	}
	return nil
}

func (s *PostgresStore) RemoveByUser(ctx context.Context, userID int64) (bool, error) {
	var removed bool

	err := s.runner.WithinTx(ctx, func(ctx context.Context) error {
		q := s.runner.GetQuerier(ctx)
		tag, err := q.Exec(ctx, `DELETE FROM schedules WHERE user_id = $1`, userID)
		if err != nil {
			return fmt.Errorf("delete schedules: %w", err)
		}
		removed = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, shared.MarkKind(fmt.Errorf("store: remove by user: %w", err), shared.KindStorage)
	}
	return removed, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]reminder.ScheduleEntry, error) {
	const q = `SELECT user_id, display_name, trigger_time FROM schedules ORDER BY id`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, shared.MarkKind(fmt.Errorf("store: list schedules: %w", err), shared.KindStorage)
	}
	defer rows.Close()

	var entries []reminder.ScheduleEntry
	for rows.Next() {
		var (
			userID      int64
			displayName string
			triggerTime string
		)
		if err := rows.Scan(&userID, &displayName, &triggerTime); err != nil {
			return nil, shared.MarkKind(fmt.Errorf("store: scan schedule row: %w", err), shared.KindStorage)
		}

		at, err := reminder.ParseTriggerTime(triggerTime)
		if err != nil {
			s.log.Warn("skipping corrupt schedule row",
				slog.Int64("user_id", userID),
				slog.String("trigger_time", triggerTime),
				slog.Any("error", err))
			continue
		}

		entries = append(entries, reminder.ScheduleEntry{
			UserID:      userID,
			DisplayName: displayName,
			At:          at,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, shared.MarkKind(fmt.Errorf("store: iterate schedules: %w", err), shared.KindStorage)
	}
	return entries, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
