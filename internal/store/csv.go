package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"morningbot/internal/reminder"
	"morningbot/internal/shared"
)

// CSVStore keeps schedule entries in a plain CSV file, one row per entry:
// user_id,display_name,trigger_time. Appends go straight to the end of the
// file; removals rewrite the file through a temp file and an atomic rename
// so a crash mid-removal never leaves a half-written table behind.
type CSVStore struct {
	mu   sync.Mutex
	path string
	log  *slog.Logger
}

// NewCSVStore opens (or creates) the CSV file at path.
func NewCSVStore(path string, log *slog.Logger) (*CSVStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, shared.MarkKind(fmt.Errorf("store: create data dir: %w", err), shared.KindStorage)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, shared.MarkKind(fmt.Errorf("store: open %s: %w", path, err), shared.KindStorage)
	}
	_ = f.Close()

	return &CSVStore{path: path, log: log}, nil
}

func (s *CSVStore) Append(ctx context.Context, e reminder.ScheduleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return shared.MarkKind(fmt.Errorf("store: open for append: %w", err), shared.KindStorage)
	}

	w := csv.NewWriter(f)
	record := []string{
		strconv.FormatInt(e.UserID, 10),
		e.DisplayName,
		e.At.String(),
	}
	if err := w.Write(record); err != nil {
		_ = f.Close()
		return shared.MarkKind(fmt.Errorf("store: write record: %w", err), shared.KindStorage)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return shared.MarkKind(fmt.Errorf("store: flush record: %w", err), shared.KindStorage)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return shared.MarkKind(fmt.Errorf("store: sync: %w", err), shared.KindStorage)
	}
	if err := f.Close(); err != nil {
		return shared.MarkKind(fmt.Errorf("store: close: %w", err), shared.KindStorage)
	}
	return nil
}

func (s *CSVStore) RemoveByUser(ctx context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords()
	if err != nil {
		return false, err
	}

	kept := records[:0]
	removed := false
	target := strconv.FormatInt(userID, 10)
	for _, record := range records {
		if len(record) > 0 && record[0] == target {
			removed = true
			continue
		}
		kept = append(kept, record)
	}

	if !removed {
		return false, nil
	}

	if err := s.rewrite(kept); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CSVStore) ListAll(ctx context.Context) ([]reminder.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords()
	if err != nil {
		return nil, err
	}

	entries := make([]reminder.ScheduleEntry, 0, len(records))
	for i, record := range records {
		entry, err := parseRecord(record)
		if err != nil {
			s.log.Warn("skipping corrupt schedule row",
				slog.String("file", s.path),
				slog.Int("line", i+1),
				slog.Any("error", err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *CSVStore) Close() error { return nil }

// readRecords reads the raw rows without validating their contents.
// FieldsPerRecord is relaxed so a single malformed row surfaces during
// parsing instead of aborting the whole read.
func (s *CSVStore) readRecords() ([][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, shared.MarkKind(fmt.Errorf("store: open for read: %w", err), shared.KindStorage)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, shared.MarkKind(fmt.Errorf("store: read csv: %w", err), shared.KindStorage)
		}
		records = append(records, record)
	}
	return records, nil
}

// rewrite replaces the whole file through a temp file and rename.
func (s *CSVStore) rewrite(records [][]string) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "schedules-*.csv.tmp")
	if err != nil {
		return shared.MarkKind(fmt.Errorf("store: create temp file: %w", err), shared.KindStorage)
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(records); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return shared.MarkKind(fmt.Errorf("store: write temp file: %w", err), shared.KindStorage)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return shared.MarkKind(fmt.Errorf("store: sync temp file: %w", err), shared.KindStorage)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return shared.MarkKind(fmt.Errorf("store: close temp file: %w", err), shared.KindStorage)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return shared.MarkKind(fmt.Errorf("store: replace file: %w", err), shared.KindStorage)
	}
	return nil
}

func parseRecord(record []string) (reminder.ScheduleEntry, error) {
	if len(record) != 3 {
		return reminder.ScheduleEntry{}, shared.MarkKind(
			fmt.Errorf("store: expected 3 fields, got %d", len(record)), shared.KindCorruptSchedule)
	}

	userID, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return reminder.ScheduleEntry{}, shared.MarkKind(
			fmt.Errorf("store: bad user id %q: %w", record[0], err), shared.KindCorruptSchedule)
	}

	at, err := reminder.ParseTriggerTime(record[2])
	if err != nil {
		return reminder.ScheduleEntry{}, err
	}

	return reminder.ScheduleEntry{
		UserID:      userID,
		DisplayName: record[1],
		At:          at,
	}, nil
}
