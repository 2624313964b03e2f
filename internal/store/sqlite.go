package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"morningbot/internal/platform/sqlite"
	"morningbot/internal/reminder"
	"morningbot/internal/shared"
)

// SQLiteStore keeps schedule entries in an SQLite table. Removals run inside
// a transaction, so a crash never leaves a partially removed user behind.
type SQLiteStore struct {
	db     *sql.DB
	runner *sqlite.TxRunner
	log    *slog.Logger
}

// NewSQLiteStore opens the database at path and applies migrations.
func NewSQLiteStore(ctx context.Context, path, migrationsURL string, log *slog.Logger) (*SQLiteStore, error) {
	db, err := sqlite.NewDB(ctx, path)
	if err != nil {
		return nil, shared.MarkKind(fmt.Errorf("store: open sqlite: %w", err), shared.KindStorage)
	}

	if migrationsURL != "" {
		if err := sqlite.ApplyMigrations(path, migrationsURL); err != nil {
			_ = db.Close()
			return nil, shared.MarkKind(fmt.Errorf("store: migrate sqlite: %w", err), shared.KindStorage)
		}
		version, dirty, err := sqlite.GetMigrationVersion(path, migrationsURL)
		if err != nil {
			_ = db.Close()
			return nil, shared.MarkKind(fmt.Errorf("store: sqlite schema version: %w", err), shared.KindStorage)
		}
		log.Debug("sqlite schema", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	}

	return &SQLiteStore{db: db, runner: sqlite.NewTxRunner(db), log: log}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, e reminder.ScheduleEntry) error {
	const q = `INSERT INTO schedules (user_id, display_name, trigger_time) VALUES (?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q, e.UserID, e.DisplayName, e.At.String())
	if err != nil {
		return shared.MarkKind(fmt.Errorf("store: insert schedule: %w", err), shared.KindStorage)
	}
	return nil
}

func (s *SQLiteStore) RemoveByUser(ctx context.Context, userID int64) (bool, error) {
	var removed bool

	err := s.runner.WithinTx(ctx, func(ctx context.Context) error {
		q := s.runner.GetQuerier(ctx)
		res, err := q.ExecContext(ctx, `DELETE FROM schedules WHERE user_id = ?`, userID)
		if err != nil {
			return fmt.Errorf("delete schedules: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		removed = affected > 0
		return nil
	})
	if err != nil {
		return false, shared.MarkKind(fmt.Errorf("store: remove by user: %w", err), shared.KindStorage)
	}
	return removed, nil
}

func (s *SQLiteStore) ListAll(ctx context.Context) ([]reminder.ScheduleEntry, error) {
	const q = `SELECT user_id, display_name, trigger_time FROM schedules ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q)
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

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
