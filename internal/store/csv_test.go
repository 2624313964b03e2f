package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morningbot/internal/reminder"
	"morningbot/internal/shared"
)

func newTestCSVStore(t *testing.T) *CSVStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "schedules.csv")
	s, err := NewCSVStore(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return s
}

func mustEntry(t *testing.T, userID int64, name string, hour, minute, second int) reminder.ScheduleEntry {
	t.Helper()

	at, err := reminder.NewTriggerTime(hour, minute, second)
	require.NoError(t, err)
	return reminder.ScheduleEntry{UserID: userID, DisplayName: name, At: at}
}

func TestCSVStore_AppendAndListAll(t *testing.T) {
	s := newTestCSVStore(t)
	ctx := context.Background()

	e1 := mustEntry(t, 100, "alice", 7, 30, 0)
	e2 := mustEntry(t, 200, "bob", 8, 0, 15)

	require.NoError(t, s.Append(ctx, e1))
	require.NoError(t, s.Append(ctx, e2))

	entries, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []reminder.ScheduleEntry{e1, e2}, entries)
}

func TestCSVStore_ListAll_EmptyFile(t *testing.T) {
	s := newTestCSVStore(t)

	entries, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCSVStore_RemoveByUser(t *testing.T) {
	s := newTestCSVStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, mustEntry(t, 100, "alice", 7, 30, 0)))
	require.NoError(t, s.Append(ctx, mustEntry(t, 200, "bob", 8, 0, 0)))

	removed, err := s.RemoveByUser(ctx, 100)
	require.NoError(t, err)
	assert.True(t, removed)

	entries, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(200), entries[0].UserID)
}

func TestCSVStore_RemoveByUser_Missing(t *testing.T) {
	s := newTestCSVStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, mustEntry(t, 100, "alice", 7, 30, 0)))

	removed, err := s.RemoveByUser(ctx, 999)
	require.NoError(t, err)
	assert.False(t, removed)

	entries, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCSVStore_RemoveByUser_AllDuplicates(t *testing.T) {
	s := newTestCSVStore(t)
	ctx := context.Background()

	// duplicates can appear after a crash between remove and append
	require.NoError(t, s.Append(ctx, mustEntry(t, 100, "alice", 7, 30, 0)))
	require.NoError(t, s.Append(ctx, mustEntry(t, 100, "alice", 8, 0, 0)))

	removed, err := s.RemoveByUser(ctx, 100)
	require.NoError(t, err)
	assert.True(t, removed)

	entries, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCSVStore_ListAll_SkipsCorruptRows(t *testing.T) {
	s := newTestCSVStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, mustEntry(t, 100, "alice", 7, 30, 0)))

	// inject corrupt rows directly into the file
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("not-a-number,bob,08:00:00\n300,carol,25:99:00\n400,dave\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, s.Append(ctx, mustEntry(t, 500, "erin", 9, 15, 0)))

	entries, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(100), entries[0].UserID)
	assert.Equal(t, int64(500), entries[1].UserID)
}

func TestCSVStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedules.csv")
	log := slog.New(slog.DiscardHandler)
	ctx := context.Background()

	s1, err := NewCSVStore(path, log)
	require.NoError(t, err)
	require.NoError(t, s1.Append(ctx, mustEntry(t, 100, "alice", 7, 30, 0)))
	require.NoError(t, s1.Close())

	s2, err := NewCSVStore(path, log)
	require.NoError(t, err)
	entries, err := s2.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].DisplayName)
}

func TestOpen_ValidatesConfig(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.DiscardHandler)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"csv without path", Config{Driver: DriverCSV}},
		{"sqlite without path", Config{Driver: DriverSQLite}},
		{"postgres without dsn", Config{Driver: DriverPostgres}},
		{"unknown driver", Config{Driver: "redis"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(ctx, tt.cfg, log)
			require.Error(t, err)
			assert.True(t, shared.IsValidation(err))
		})
	}
}

func TestOpen_DefaultsToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedules.csv")

	s, err := Open(context.Background(), Config{Path: path}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, ok := s.(*CSVStore)
	assert.True(t, ok)
}
