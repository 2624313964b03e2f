package reminder_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morningbot/internal/reminder"
	"morningbot/internal/store"
)

type recordingSink struct {
	mu   sync.Mutex
	sent int
}

func (r *recordingSink) Deliver(ctx context.Context, userID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent++
	return nil
}

// Schedules set before a restart come back after it, at the same times.
func TestServiceRestoresAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedules.csv")
	log := slog.New(slog.DiscardHandler)
	ctx := context.Background()

	newService := func(st reminder.Store) *reminder.Service {
		svc, err := reminder.New(reminder.Config{Location: time.UTC}, st, &recordingSink{}, nil, log)
		require.NoError(t, err)
		return svc
	}

	st1, err := store.NewCSVStore(path, log)
	require.NoError(t, err)
	svc1 := newService(st1)

	_, err = svc1.Set(ctx, 100, "alice", 7, 30)
	require.NoError(t, err)
	_, err = svc1.Set(ctx, 200, "bob", 8, 45)
	require.NoError(t, err)
	_, err = svc1.Set(ctx, 300, "carol", 6, 0)
	require.NoError(t, err)
	_, err = svc1.Unset(ctx, 300)
	require.NoError(t, err)
	require.NoError(t, st1.Close())

	// "restart": fresh store handle, fresh service, same file
	st2, err := store.NewCSVStore(path, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st2.Close() })
	svc2 := newService(st2)

	restored, err := svc2.RestoreAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, restored)
	assert.Equal(t, 2, svc2.Active())

	entries, err := st2.ListAll(ctx)
	require.NoError(t, err)
	times := map[int64]string{}
	for _, e := range entries {
		times[e.UserID] = e.At.String()
	}
	assert.Equal(t, map[int64]string{100: "07:30:00", 200: "08:45:00"}, times)
}

// A replace after restore keeps the single-row-per-user invariant on disk.
func TestServiceReplaceAfterRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedules.csv")
	log := slog.New(slog.DiscardHandler)
	ctx := context.Background()

	st, err := store.NewCSVStore(path, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	svc, err := reminder.New(reminder.Config{Location: time.UTC}, st, &recordingSink{}, nil, log)
	require.NoError(t, err)

	_, err = svc.Set(ctx, 100, "alice", 7, 30)
	require.NoError(t, err)

	restoredSvc, err := reminder.New(reminder.Config{Location: time.UTC}, st, &recordingSink{}, nil, log)
	require.NoError(t, err)
	_, err = restoredSvc.RestoreAll(ctx)
	require.NoError(t, err)

	replaced, err := restoredSvc.Set(ctx, 100, "alice", 9, 0)
	require.NoError(t, err)
	assert.True(t, replaced)

	entries, err := st.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "09:00:00", entries[0].At.String())
}
