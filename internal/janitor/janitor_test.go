package janitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakkalearn/hakka-news-backend/internal/history"
)

func writeAgedFile(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	stamp := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, stamp, stamp))
	return path
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	_, err := New("whenever", nil, time.Hour, nil)
	require.Error(t, err)

	_, err = New("0 3 * * *", nil, 0, nil)
	require.Error(t, err)
}

func TestRunOnce_RemovesOnlyExpiredFiles(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	old1 := writeAgedFile(t, dirA, "segment_0_0.wav", 48*time.Hour)
	old2 := writeAgedFile(t, dirB, "translation_0.json", 48*time.Hour)
	fresh := writeAgedFile(t, dirA, "segment_1_0.wav", time.Hour)

	j, err := New("0 3 * * *", []string{dirA, dirB}, 24*time.Hour, nil)
	require.NoError(t, err)

	report := j.RunOnce(context.Background())
	assert.Equal(t, 2, report.FilesRemoved)
	assert.NoFileExists(t, old1)
	assert.NoFileExists(t, old2)
	assert.FileExists(t, fresh)
}

func TestRunOnce_MissingDirIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	old := writeAgedFile(t, dir, "stale.wav", 48*time.Hour)

	j, err := New("0 3 * * *", []string{filepath.Join(dir, "missing"), dir}, 24*time.Hour, nil)
	require.NoError(t, err)

	report := j.RunOnce(context.Background())
	assert.Equal(t, 1, report.FilesRemoved)
	assert.NoFileExists(t, old)
}

func TestRunOnce_PrunesAncientHistory(t *testing.T) {
	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	_, err = store.Insert(ctx, history.Record{
		Title:     "上古新聞",
		Status:    "done",
		CreatedAt: time.Now().UTC().Add(-90 * 24 * time.Hour),
	})
	require.NoError(t, err)
	_, err = store.Insert(ctx, history.Record{Title: "近期新聞", Status: "done"})
	require.NoError(t, err)

	j, err := New("0 3 * * *", nil, time.Hour, store)
	require.NoError(t, err)

	report := j.RunOnce(ctx)
	assert.EqualValues(t, 1, report.HistoryRemoved)

	remaining, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "近期新聞", remaining[0].Title)
}

func TestStartSetsNextRun(t *testing.T) {
	j, err := New("0 3 * * *", nil, time.Hour, nil)
	require.NoError(t, err)

	j.Start()
	t.Cleanup(j.Stop)
	assert.False(t, j.NextRun().IsZero())
}
